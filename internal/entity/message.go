package entity

import "time"

type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read"`
}

// Conversation is one row of the inbox: a peer and how many of their
// messages are still unread.
type Conversation struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Unread   int    `json:"unread"`
}

package repository

import (
	"context"
	"fmt"
	"time"

	"skillswap/internal/database"
	"skillswap/internal/entity"
	"skillswap/internal/logger"
)

type MessageRepository struct {
	db  database.Querier
	log *logger.Logger
}

func NewMessageRepository(db database.Querier, log *logger.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: logger.OrNop(log).With("repo", "MessageRepository")}
}

const messageColumns = `id, sender_id, receiver_id, content, created_at, is_read`

func scanMessage(row scanner) (entity.Message, error) {
	var (
		m         entity.Message
		createdAt int64
	)
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &createdAt, &m.IsRead); err != nil {
		return entity.Message{}, err
	}
	m.CreatedAt = fromMillis(createdAt)
	return m, nil
}

func (r *MessageRepository) Create(ctx context.Context, q database.Querier, m *entity.Message) error {
	q = pick(q, r.db)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.IsRead = false

	err := q.QueryRowContext(ctx, `
		INSERT INTO messages (sender_id, receiver_id, content, created_at, is_read)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, m.SenderID, m.ReceiverID, m.Content, toMillis(m.CreatedAt), false).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// MarkConversationRead flags every unread message from senderID to readerID
// as read and returns how many changed.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, q database.Querier, readerID, senderID int64) (int, error) {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE messages SET is_read = ?
		WHERE receiver_id = ? AND sender_id = ? AND is_read = ?
	`, true, readerID, senderID, false)
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	return int(n), nil
}

// Thread returns both directions of the conversation between a and b, oldest
// first.
func (r *MessageRepository) Thread(ctx context.Context, q database.Querier, a, b int64) ([]entity.Message, error) {
	q = pick(q, r.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, id ASC
	`, a, b, b, a)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	defer rows.Close()

	messages := make([]entity.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	return messages, nil
}

// Conversations lists every peer userID exchanged messages with, most recent
// first, with the number of unread messages from that peer.
func (r *MessageRepository) Conversations(ctx context.Context, q database.Querier, userID int64) ([]entity.Conversation, error) {
	q = pick(q, r.db)
	rows, err := q.QueryContext(ctx, `
		SELECT u.id, u.username,
		       COALESCE(SUM(CASE WHEN m.receiver_id = ? AND m.is_read = ? THEN 1 ELSE 0 END), 0) AS unread
		FROM messages m
		JOIN users u ON u.id = CASE WHEN m.sender_id = ? THEN m.receiver_id ELSE m.sender_id END
		WHERE m.sender_id = ? OR m.receiver_id = ?
		GROUP BY u.id, u.username
		ORDER BY MAX(m.created_at) DESC, MAX(m.id) DESC
	`, userID, false, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations of %d: %w", userID, err)
	}
	defer rows.Close()

	conversations := make([]entity.Conversation, 0)
	for rows.Next() {
		var c entity.Conversation
		if err := rows.Scan(&c.UserID, &c.Username, &c.Unread); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations of %d: %w", userID, err)
	}
	return conversations, nil
}

// UnreadCount is the number of unread messages addressed to userID, derived
// from the messages themselves rather than the notification counter.
func (r *MessageRepository) UnreadCount(ctx context.Context, q database.Querier, userID int64) (int, error) {
	q = pick(q, r.db)
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND is_read = ?
	`, userID, false).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread of %d: %w", userID, err)
	}
	return n, nil
}

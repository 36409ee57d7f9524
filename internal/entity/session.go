package entity

import (
	"fmt"
	"strings"
	"time"
)

// Session is a teaching engagement between two users, not a login session.
type Session struct {
	ID        int64         `json:"id"`
	TeacherID int64         `json:"teacher_id"`
	StudentID int64         `json:"student_id"`
	Skill     string        `json:"skill"`
	Category  Category      `json:"category"`
	CreatedAt time.Time     `json:"created_at"`
	Status    SessionStatus `json:"status"`
	Rating    *int          `json:"rating,omitempty"`
}

type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusAccepted  SessionStatus = "accepted"
	StatusCompleted SessionStatus = "completed"
	StatusRejected  SessionStatus = "rejected"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal statuses have no outgoing edges.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

type SessionAction string

const (
	ActionAccept   SessionAction = "accept"
	ActionReject   SessionAction = "reject"
	ActionComplete SessionAction = "complete"
)

func ParseSessionAction(s string) (SessionAction, error) {
	switch a := SessionAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAccept, ActionReject, ActionComplete:
		return a, nil
	}
	return "", fmt.Errorf("unknown session action %q", s)
}

type transition struct {
	from   SessionStatus
	action SessionAction
}

var transitions = map[transition]SessionStatus{
	{StatusPending, ActionAccept}:    StatusAccepted,
	{StatusPending, ActionReject}:    StatusRejected,
	{StatusAccepted, ActionComplete}: StatusCompleted,
}

// NextStatus looks up the edge for action in the transition table.
func NextStatus(from SessionStatus, action SessionAction) (SessionStatus, bool) {
	to, ok := transitions[transition{from, action}]
	return to, ok
}

func (s Session) Rated() bool {
	return s.Rating != nil
}

// Counterpart returns the other participant from userID's point of view.
func (s Session) Counterpart(userID int64) int64 {
	if s.TeacherID == userID {
		return s.StudentID
	}
	return s.TeacherID
}

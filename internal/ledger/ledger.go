// Package ledger applies the point, notification, rating and badge effects of
// booking and running sessions and of messaging. Every mutating operation
// runs in a single transaction: it either takes effect completely or leaves
// no trace.
package ledger

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"skillswap/internal/apperr"
	"skillswap/internal/database"
	"skillswap/internal/entity"
	"skillswap/internal/logger"
	"skillswap/internal/repository"
)

const (
	BookingCost             = 5
	CompletionReward        = 10
	MessageReward           = 1
	TeachingMasterThreshold = 10
	MinSkillLength          = 2
	MaxSkillLength          = 100
	MinRating               = 1
	MaxRating               = 5
	MaxMessageLength        = 500
)

type Service struct {
	db       *database.DB
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	messages *repository.MessageRepository
	log      *logger.Logger
}

func New(
	db *database.DB,
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	messages *repository.MessageRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		db:       db,
		users:    users,
		sessions: sessions,
		messages: messages,
		log:      logger.OrNop(log).With("service", "ledger"),
	}
}

// BookSession creates a pending session of studentID with teacherID and
// charges the student BookingCost points.
func (s *Service) BookSession(ctx context.Context, studentID, teacherID int64, skill string) (session entity.Session, err error) {
	defer s.observe("book_session", time.Now(), &err)

	if studentID == teacherID {
		return entity.Session{}, apperr.Wrap(apperr.ErrSelfBooking, "you cannot book a session with yourself")
	}
	skill = strings.TrimSpace(skill)
	if n := utf8.RuneCountInString(skill); n < MinSkillLength {
		return entity.Session{}, apperr.Wrap(apperr.ErrValidation, "skill must be at least %d characters", MinSkillLength)
	} else if n > MaxSkillLength {
		return entity.Session{}, apperr.Wrap(apperr.ErrValidation, "skill cannot exceed %d characters", MaxSkillLength)
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		teacher, err := s.users.GetByID(ctx, tx, teacherID)
		if err != nil {
			return err
		}
		student, err := s.users.GetByID(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if student.Points < BookingCost {
			return apperr.Wrap(apperr.ErrInsufficientPoints, "booking costs %d points, you have %d", BookingCost, student.Points)
		}
		pending, err := s.sessions.HasPending(ctx, tx, teacherID, studentID)
		if err != nil {
			return err
		}
		if pending {
			return apperr.Wrap(apperr.ErrDuplicatePending, "you already have a pending session with %s", teacher.Username)
		}

		session = entity.Session{
			TeacherID: teacherID,
			StudentID: studentID,
			Skill:     skill,
			Category:  teacher.Category,
		}
		if err := s.sessions.Create(ctx, tx, &session); err != nil {
			return err
		}
		return inUserOrder(
			userUpdate{studentID, func() error {
				debited, err := s.users.DebitPoints(ctx, tx, studentID, BookingCost)
				if err != nil {
					return err
				}
				if !debited {
					return apperr.Wrap(apperr.ErrInsufficientPoints, "booking costs %d points", BookingCost)
				}
				return nil
			}},
			userUpdate{teacherID, func() error {
				return s.users.IncrementNotifications(ctx, tx, teacherID)
			}},
		)
	})
	if err != nil {
		return entity.Session{}, err
	}

	s.log.Info("Session booked",
		"session_id", session.ID,
		"teacher_id", teacherID,
		"student_id", studentID,
		"skill", skill,
	)
	return session, nil
}

// TransitionSession applies action to the session on behalf of its teacher.
func (s *Service) TransitionSession(ctx context.Context, actorID, sessionID int64, action entity.SessionAction) (session entity.Session, err error) {
	defer s.observe("transition_session", time.Now(), &err)

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		session, err = s.sessions.GetByID(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.TeacherID != actorID {
			return apperr.Wrap(apperr.ErrPermission, "only the teacher can %s this session", action)
		}
		next, ok := entity.NextStatus(session.Status, action)
		if !ok {
			return apperr.Wrap(apperr.ErrInvalidTransition, "cannot %s a %s session", action, session.Status)
		}
		moved, err := s.sessions.UpdateStatus(ctx, tx, sessionID, session.Status, next)
		if err != nil {
			return err
		}
		if !moved {
			return apperr.Wrap(apperr.ErrInvalidTransition, "session %d changed concurrently", sessionID)
		}
		session.Status = next

		switch action {
		case entity.ActionAccept:
			return s.users.IncrementNotifications(ctx, tx, session.StudentID)
		case entity.ActionReject:
			if err := s.users.AddPoints(ctx, tx, session.StudentID, BookingCost); err != nil {
				return err
			}
			return s.users.IncrementNotifications(ctx, tx, session.StudentID)
		case entity.ActionComplete:
			return s.completeSession(ctx, tx, session)
		}
		return nil
	})
	if err != nil {
		return entity.Session{}, err
	}

	s.log.Info("Session transitioned",
		"session_id", session.ID,
		"action", action,
		"status", session.Status,
	)
	return session, nil
}

// completeSession rewards the teacher. The teacher row is written before the
// completed sessions are counted, so concurrent completions for one teacher
// queue on its row lock and the later one sees the earlier one's session.
func (s *Service) completeSession(ctx context.Context, tx *database.Tx, session entity.Session) error {
	if err := s.users.AddPoints(ctx, tx, session.TeacherID, CompletionReward); err != nil {
		return err
	}
	completed, err := s.sessions.CountCompletedByTeacher(ctx, tx, session.TeacherID)
	if err != nil {
		return err
	}
	if completed < TeachingMasterThreshold {
		return nil
	}
	_, err = s.users.AddBadge(ctx, tx, session.TeacherID, entity.BadgeTeachingMaster)
	return err
}

// RateSession lets the student rate a completed session once.
func (s *Service) RateSession(ctx context.Context, actorID, sessionID int64, rating int) (session entity.Session, err error) {
	defer s.observe("rate_session", time.Now(), &err)

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		session, err = s.sessions.GetByID(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.StudentID != actorID {
			return apperr.Wrap(apperr.ErrPermission, "only the student can rate this session")
		}
		if session.Status != entity.StatusCompleted {
			return apperr.Wrap(apperr.ErrInvalidState, "only completed sessions can be rated")
		}
		if session.Rated() {
			return apperr.Wrap(apperr.ErrAlreadyRated, "session %d was already rated", sessionID)
		}
		if rating < MinRating || rating > MaxRating {
			return apperr.Wrap(apperr.ErrValidation, "rating must be between %d and %d", MinRating, MaxRating)
		}

		set, err := s.sessions.SetRating(ctx, tx, sessionID, rating)
		if err != nil {
			return err
		}
		if !set {
			return apperr.Wrap(apperr.ErrAlreadyRated, "session %d was already rated", sessionID)
		}
		session.Rating = &rating

		if err := s.users.AddRating(ctx, tx, session.TeacherID, rating); err != nil {
			return err
		}
		return s.users.IncrementNotifications(ctx, tx, session.TeacherID)
	})
	if err != nil {
		return entity.Session{}, err
	}

	s.log.Info("Session rated", "session_id", sessionID, "rating", rating)
	return session, nil
}

// SendMessage stores a message, notifies the receiver and rewards the sender.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID int64, content string) (msg entity.Message, err error) {
	defer s.observe("send_message", time.Now(), &err)

	content = strings.TrimSpace(content)
	if content == "" {
		return entity.Message{}, apperr.Wrap(apperr.ErrValidation, "message cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return entity.Message{}, apperr.Wrap(apperr.ErrValidation, "message cannot exceed %d characters", MaxMessageLength)
	}
	if senderID == receiverID {
		return entity.Message{}, apperr.Wrap(apperr.ErrValidation, "you cannot message yourself")
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		exists, err := s.users.Exists(ctx, tx, receiverID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.Wrap(apperr.ErrNotFound, "user %d does not exist", receiverID)
		}

		msg = entity.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
		if err := s.messages.Create(ctx, tx, &msg); err != nil {
			return err
		}
		return inUserOrder(
			userUpdate{receiverID, func() error {
				return s.users.IncrementNotifications(ctx, tx, receiverID)
			}},
			userUpdate{senderID, func() error {
				return s.users.AddPoints(ctx, tx, senderID, MessageReward)
			}},
		)
	})
	if err != nil {
		return entity.Message{}, err
	}

	s.log.Debug("Message sent", "message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID)
	return msg, nil
}

// MarkConversationRead marks otherID's messages to readerID as read and
// lowers the reader's notification counter by the same amount.
func (s *Service) MarkConversationRead(ctx context.Context, readerID, otherID int64) (marked int, err error) {
	defer s.observe("mark_conversation_read", time.Now(), &err)

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		marked, err = s.messages.MarkConversationRead(ctx, tx, readerID, otherID)
		if err != nil {
			return err
		}
		return s.users.DecrementNotifications(ctx, tx, readerID, marked)
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}

// ClearNotifications resets the user's notification counter to zero.
func (s *Service) ClearNotifications(ctx context.Context, userID int64) (err error) {
	defer s.observe("clear_notifications", time.Now(), &err)

	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		return s.users.ClearNotifications(ctx, tx, userID)
	})
}

// GrantPoints tops up a user's balance and returns the updated user.
func (s *Service) GrantPoints(ctx context.Context, userID int64, amount int) (user entity.User, err error) {
	defer s.observe("grant_points", time.Now(), &err)

	if amount <= 0 {
		return entity.User{}, apperr.Wrap(apperr.ErrValidation, "amount must be positive")
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := s.users.AddPoints(ctx, tx, userID, amount); err != nil {
			return err
		}
		user, err = s.users.GetByID(ctx, tx, userID)
		return err
	})
	if err != nil {
		return entity.User{}, err
	}

	s.log.Info("Points granted", "user_id", userID, "amount", amount, "balance", user.Points)
	return user, nil
}

// Conversations lists the user's peers with their unread message counts.
func (s *Service) Conversations(ctx context.Context, userID int64) ([]entity.Conversation, error) {
	return s.messages.Conversations(ctx, s.db, userID)
}

// Thread returns the messages between userID and otherID, oldest first.
func (s *Service) Thread(ctx context.Context, userID, otherID int64) ([]entity.Message, error) {
	exists, err := s.users.Exists(ctx, s.db, otherID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.Wrap(apperr.ErrNotFound, "user %d does not exist", otherID)
	}
	return s.messages.Thread(ctx, s.db, userID, otherID)
}

// SessionsFor returns the sessions the user teaches or attends, newest first.
func (s *Service) SessionsFor(ctx context.Context, userID int64) ([]entity.Session, error) {
	return s.sessions.ListForUser(ctx, s.db, userID)
}

type userUpdate struct {
	userID int64
	apply  func() error
}

// inUserOrder applies updates in ascending user ID order. Two transactions
// that touch the same pair of users then take the row locks in the same
// order and cannot deadlock.
func inUserOrder(updates ...userUpdate) error {
	sort.Slice(updates, func(i, j int) bool { return updates[i].userID < updates[j].userID })
	for _, u := range updates {
		if err := u.apply(); err != nil {
			return err
		}
	}
	return nil
}

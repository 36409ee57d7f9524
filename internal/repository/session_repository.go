package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skillswap/internal/apperr"
	"skillswap/internal/database"
	"skillswap/internal/entity"
	"skillswap/internal/logger"
)

type SessionRepository struct {
	db  database.Querier
	log *logger.Logger
}

func NewSessionRepository(db database.Querier, log *logger.Logger) *SessionRepository {
	return &SessionRepository{db: db, log: logger.OrNop(log).With("repo", "SessionRepository")}
}

const sessionColumns = `id, teacher_id, student_id, skill, category, created_at, status, rating`

func scanSession(row scanner) (entity.Session, error) {
	var (
		s         entity.Session
		createdAt int64
		rating    sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.TeacherID, &s.StudentID, &s.Skill, &s.Category, &createdAt, &s.Status, &rating); err != nil {
		return entity.Session{}, err
	}
	s.CreatedAt = fromMillis(createdAt)
	if rating.Valid {
		v := int(rating.Int64)
		s.Rating = &v
	}
	return s, nil
}

// Create inserts a pending session. A second pending session for the same
// teacher and student yields apperr.ErrDuplicatePending.
func (r *SessionRepository) Create(ctx context.Context, q database.Querier, s *entity.Session) error {
	q = pick(q, r.db)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.Status = entity.StatusPending
	s.Rating = nil

	err := q.QueryRowContext(ctx, `
		INSERT INTO sessions (teacher_id, student_id, skill, category, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, s.TeacherID, s.StudentID, s.Skill, string(s.Category), toMillis(s.CreatedAt), string(s.Status)).Scan(&s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.ErrDuplicatePending, "a pending session with this teacher already exists")
		}
		return fmt.Errorf("create session: %w", err)
	}
	r.log.Debug("Session created", "session_id", s.ID, "teacher_id", s.TeacherID, "student_id", s.StudentID)
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, q database.Querier, id int64) (entity.Session, error) {
	q = pick(q, r.db)
	s, err := scanSession(q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return entity.Session{}, apperr.Wrap(apperr.ErrNotFound, "session %d does not exist", id)
		}
		return entity.Session{}, fmt.Errorf("get session %d: %w", id, err)
	}
	return s, nil
}

func (r *SessionRepository) HasPending(ctx context.Context, q database.Querier, teacherID, studentID int64) (bool, error) {
	q = pick(q, r.db)
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions
		WHERE teacher_id = ? AND student_id = ? AND status = ?
	`, teacherID, studentID, string(entity.StatusPending)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check pending session: %w", err)
	}
	return n > 0, nil
}

// UpdateStatus moves the session from one status to another. It reports
// false when the session is no longer in status from.
func (r *SessionRepository) UpdateStatus(ctx context.Context, q database.Querier, id int64, from, to entity.SessionStatus) (bool, error) {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `UPDATE sessions SET status = ? WHERE id = ? AND status = ?`, string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update session %d status: %w", id, err)
	}
	ok, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("update session %d status: %w", id, err)
	}
	return ok, nil
}

// SetRating records the rating of a completed session. It reports false when
// the session was already rated or is not completed.
func (r *SessionRepository) SetRating(ctx context.Context, q database.Querier, id int64, rating int) (bool, error) {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE sessions SET rating = ?
		WHERE id = ? AND status = ? AND rating IS NULL
	`, rating, id, string(entity.StatusCompleted))
	if err != nil {
		return false, fmt.Errorf("rate session %d: %w", id, err)
	}
	ok, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("rate session %d: %w", id, err)
	}
	return ok, nil
}

func (r *SessionRepository) CountCompletedByTeacher(ctx context.Context, q database.Querier, teacherID int64) (int, error) {
	q = pick(q, r.db)
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions WHERE teacher_id = ? AND status = ?
	`, teacherID, string(entity.StatusCompleted)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed sessions of %d: %w", teacherID, err)
	}
	return n, nil
}

// ListForUser returns sessions where userID teaches or learns, newest first.
func (r *SessionRepository) ListForUser(ctx context.Context, q database.Querier, userID int64) ([]entity.Session, error) {
	q = pick(q, r.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE teacher_id = ? OR student_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions of %d: %w", userID, err)
	}
	defer rows.Close()

	sessions := make([]entity.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions of %d: %w", userID, err)
	}
	return sessions, nil
}

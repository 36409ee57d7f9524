package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skillswap/internal/apperr"
	"skillswap/internal/database"
	"skillswap/internal/entity"
	"skillswap/internal/logger"
)

type UserRepository struct {
	db  database.Querier
	log *logger.Logger
}

func NewUserRepository(db database.Querier, log *logger.Logger) *UserRepository {
	return &UserRepository{db: db, log: logger.OrNop(log).With("repo", "UserRepository")}
}

const userColumns = `id, username, email, password_hash, skills_offered, skills_wanted,
	location, category, points, notifications, rating, rating_count, created_at`

func scanUser(row scanner) (entity.User, error) {
	var (
		u         entity.User
		createdAt int64
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.SkillsOffered,
		&u.SkillsWanted,
		&u.Location,
		&u.Category,
		&u.Points,
		&u.Notifications,
		&u.Rating,
		&u.RatingCount,
		&createdAt,
	)
	if err != nil {
		return entity.User{}, err
	}
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

// Create inserts u and fills in its ID and CreatedAt. A taken username or
// email yields apperr.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, q database.Querier, u *entity.User) error {
	q = pick(q, r.db)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	err := q.QueryRowContext(ctx, `
		INSERT INTO users
		(username, email, password_hash, skills_offered, skills_wanted, location, category,
		 points, notifications, rating, rating_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?)
		RETURNING id
	`, u.Username, u.Email, u.PasswordHash, u.SkillsOffered, u.SkillsWanted, u.Location, string(u.Category),
		u.Points, toMillis(u.CreatedAt)).Scan(&u.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uniqueUserConflict(err)
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.Notifications, u.Rating, u.RatingCount = 0, 0, 0
	u.Badges = entity.BadgeSet{}
	return nil
}

func uniqueUserConflict(err error) error {
	if strings.Contains(database.ConstraintName(err), "email") {
		return apperr.Wrap(apperr.ErrConflict, "email is already registered")
	}
	return apperr.Wrap(apperr.ErrConflict, "username is already taken")
}

// GetByID returns the user with badges loaded.
func (r *UserRepository) GetByID(ctx context.Context, q database.Querier, id int64) (entity.User, error) {
	q = pick(q, r.db)
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return entity.User{}, apperr.Wrap(apperr.ErrNotFound, "user %d does not exist", id)
		}
		return entity.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	if u.Badges, err = r.Badges(ctx, q, id); err != nil {
		return entity.User{}, err
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, q database.Querier, email string) (entity.User, error) {
	return r.getByUnique(ctx, q, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) GetByUsername(ctx context.Context, q database.Querier, username string) (entity.User, error) {
	return r.getByUnique(ctx, q, "username", strings.TrimSpace(username))
}

func (r *UserRepository) getByUnique(ctx context.Context, q database.Querier, column, value string) (entity.User, error) {
	q = pick(q, r.db)
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value))
	if err != nil {
		if isNoRows(err) {
			return entity.User{}, apperr.Wrap(apperr.ErrNotFound, "no user with this %s", column)
		}
		return entity.User{}, fmt.Errorf("get user by %s: %w", column, err)
	}
	if u.Badges, err = r.Badges(ctx, q, u.ID); err != nil {
		return entity.User{}, err
	}
	return u, nil
}

func (r *UserRepository) Exists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	q = pick(q, r.db)
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check user %d: %w", id, err)
	}
	return true, nil
}

// UpdateProfile writes the editable profile fields of u.
func (r *UserRepository) UpdateProfile(ctx context.Context, q database.Querier, u entity.User) error {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE users
		SET username = ?, skills_offered = ?, skills_wanted = ?, location = ?, category = ?
		WHERE id = ?
	`, u.Username, u.SkillsOffered, u.SkillsWanted, u.Location, string(u.Category), u.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uniqueUserConflict(err)
		}
		return fmt.Errorf("update profile %d: %w", u.ID, err)
	}
	return r.mustAffect(res, u.ID)
}

// AddPoints credits delta points. Use DebitPoints to take points away.
func (r *UserRepository) AddPoints(ctx context.Context, q database.Querier, id int64, delta int) error {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `UPDATE users SET points = points + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("add points to user %d: %w", id, err)
	}
	return r.mustAffect(res, id)
}

// DebitPoints takes amount points only if the balance covers it. It reports
// false, without error, when the balance is too low.
func (r *UserRepository) DebitPoints(ctx context.Context, q database.Querier, id int64, amount int) (bool, error) {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `UPDATE users SET points = points - ? WHERE id = ? AND points >= ?`, amount, id, amount)
	if err != nil {
		return false, fmt.Errorf("debit points from user %d: %w", id, err)
	}
	ok, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("debit points from user %d: %w", id, err)
	}
	return ok, nil
}

func (r *UserRepository) IncrementNotifications(ctx context.Context, q database.Querier, id int64) error {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `UPDATE users SET notifications = notifications + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("notify user %d: %w", id, err)
	}
	return r.mustAffect(res, id)
}

// DecrementNotifications lowers the counter by n, never below zero.
func (r *UserRepository) DecrementNotifications(ctx context.Context, q database.Querier, id int64, n int) error {
	if n <= 0 {
		return nil
	}
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE users
		SET notifications = CASE WHEN notifications > ? THEN notifications - ? ELSE 0 END
		WHERE id = ?
	`, n, n, id)
	if err != nil {
		return fmt.Errorf("decrement notifications of user %d: %w", id, err)
	}
	return r.mustAffect(res, id)
}

func (r *UserRepository) ClearNotifications(ctx context.Context, q database.Querier, id int64) error {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `UPDATE users SET notifications = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear notifications of user %d: %w", id, err)
	}
	return r.mustAffect(res, id)
}

// AddRating folds one rating into the running mean. Both columns are updated
// in a single statement so the mean and the count never disagree.
func (r *UserRepository) AddRating(ctx context.Context, q database.Querier, id int64, rating int) error {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE users
		SET rating = (rating * rating_count + ?) / (rating_count + 1),
		    rating_count = rating_count + 1
		WHERE id = ?
	`, float64(rating), id)
	if err != nil {
		return fmt.Errorf("add rating to user %d: %w", id, err)
	}
	return r.mustAffect(res, id)
}

// AddBadge awards b once. It reports whether the badge was new.
func (r *UserRepository) AddBadge(ctx context.Context, q database.Querier, id int64, b entity.Badge) (bool, error) {
	q = pick(q, r.db)
	res, err := q.ExecContext(ctx, `
		INSERT INTO user_badges (user_id, badge, awarded_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, badge) DO NOTHING
	`, id, string(b), toMillis(time.Now()))
	if err != nil {
		return false, fmt.Errorf("award badge to user %d: %w", id, err)
	}
	added, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("award badge to user %d: %w", id, err)
	}
	if added {
		r.log.Info("Badge awarded", "user_id", id, "badge", b)
	}
	return added, nil
}

func (r *UserRepository) Badges(ctx context.Context, q database.Querier, id int64) (entity.BadgeSet, error) {
	q = pick(q, r.db)
	rows, err := q.QueryContext(ctx, `SELECT badge FROM user_badges WHERE user_id = ? ORDER BY badge`, id)
	if err != nil {
		return nil, fmt.Errorf("list badges of user %d: %w", id, err)
	}
	defer rows.Close()

	badges := entity.BadgeSet{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges.Add(entity.Badge(b))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list badges of user %d: %w", id, err)
	}
	return badges, nil
}

type SearchFilter struct {
	Skill    string
	Category entity.Category
	Location string
	Limit    int
}

// Search finds other users by offered skill, category and location. Empty
// filter fields match everything.
func (r *UserRepository) Search(ctx context.Context, q database.Querier, excludeID int64, f SearchFilter) ([]entity.User, error) {
	q = pick(q, r.db)

	var (
		where = []string{"id <> ?"}
		args  = []interface{}{excludeID}
	)
	if skill := strings.ToLower(strings.TrimSpace(f.Skill)); skill != "" {
		// Skills are stored comma-joined; a term spanning the separator
		// would match across two different skills.
		if strings.Contains(skill, ",") {
			return []entity.User{}, nil
		}
		where = append(where, `skills_offered LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(skill))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if loc := strings.ToLower(strings.TrimSpace(f.Location)); loc != "" {
		where = append(where, `LOWER(location) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(loc))
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY rating DESC, username ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	for i := range users {
		if users[i].Badges, err = r.Badges(ctx, q, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Stats counts the sessions and messages a user took part in.
func (r *UserRepository) Stats(ctx context.Context, q database.Querier, id int64) (entity.UserStats, error) {
	q = pick(q, r.db)
	var stats entity.UserStats
	err := q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions WHERE teacher_id = ? OR student_id = ?),
			(SELECT COUNT(*) FROM messages WHERE sender_id = ? OR receiver_id = ?)
	`, id, id, id, id).Scan(&stats.Sessions, &stats.Messages)
	if err != nil {
		return entity.UserStats{}, fmt.Errorf("stats of user %d: %w", id, err)
	}
	return stats, nil
}

func (r *UserRepository) mustAffect(res interface{ RowsAffected() (int64, error) }, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user %d: %w", id, err)
	}
	if n == 0 {
		return apperr.Wrap(apperr.ErrNotFound, "user %d does not exist", id)
	}
	return nil
}

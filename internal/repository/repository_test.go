package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/apperr"
	"skillswap/internal/database"
	"skillswap/internal/database/dbtest"
	"skillswap/internal/entity"
	"skillswap/internal/repository"
)

type repos struct {
	db       *database.DB
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	messages *repository.MessageRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db := dbtest.Open(t)
	return repos{
		db:       db,
		users:    repository.NewUserRepository(db, nil),
		sessions: repository.NewSessionRepository(db, nil),
		messages: repository.NewMessageRepository(db, nil),
	}
}

func (r repos) user(t *testing.T, name string, points int) entity.User {
	t.Helper()
	u := entity.User{
		Username:      name,
		Email:         name + "@example.com",
		PasswordHash:  "hash",
		SkillsOffered: entity.NewSkillSet("Fotografia", "gotowanie"),
		Location:      "Warszawa",
		Category:      entity.CategoryArt,
		Points:        points,
	}
	require.NoError(t, r.users.Create(context.Background(), nil, &u))
	return u
}

func TestUserCreateAndGet(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	created := r.user(t, "ania", 10)
	require.NotZero(t, created.ID)

	got, err := r.users.GetByID(ctx, nil, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ania", got.Username)
	assert.Equal(t, entity.SkillSet{"fotografia", "gotowanie"}, got.SkillsOffered)
	assert.Equal(t, entity.SkillSet{}, got.SkillsWanted)
	assert.Equal(t, entity.CategoryArt, got.Category)
	assert.Equal(t, 10, got.Points)
	assert.Empty(t, got.Badges)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)

	byEmail, err := r.users.GetByEmail(ctx, nil, "  ANIA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byName, err := r.users.GetByUsername(ctx, nil, "ania")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestUserNotFound(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	_, err := r.users.GetByID(ctx, nil, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = r.users.GetByEmail(ctx, nil, "nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, r.users.AddPoints(ctx, nil, 404, 5), apperr.ErrNotFound)

	ok, err := r.users.Exists(ctx, nil, 404)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserCreateConflicts(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	r.user(t, "ania", 10)

	dupName := entity.User{Username: "ania", Email: "other@example.com", PasswordHash: "x"}
	err := r.users.Create(ctx, nil, &dupName)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "username is already taken", apperr.Message(err))

	dupEmail := entity.User{Username: "other", Email: "ania@example.com", PasswordHash: "x"}
	err = r.users.Create(ctx, nil, &dupEmail)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "email is already registered", apperr.Message(err))
}

func TestDebitPointsIsConditional(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := r.user(t, "ania", 7)

	ok, err := r.users.DebitPoints(ctx, nil, u.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.users.DebitPoints(ctx, nil, u.ID, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.users.GetByID(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Points)
}

func TestNotificationCounter(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := r.user(t, "ania", 10)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.users.IncrementNotifications(ctx, nil, u.ID))
	}
	require.NoError(t, r.users.DecrementNotifications(ctx, nil, u.ID, 2))
	got, _ := r.users.GetByID(ctx, nil, u.ID)
	assert.Equal(t, 1, got.Notifications)

	require.NoError(t, r.users.DecrementNotifications(ctx, nil, u.ID, 5))
	got, _ = r.users.GetByID(ctx, nil, u.ID)
	assert.Equal(t, 0, got.Notifications)

	require.NoError(t, r.users.IncrementNotifications(ctx, nil, u.ID))
	require.NoError(t, r.users.ClearNotifications(ctx, nil, u.ID))
	got, _ = r.users.GetByID(ctx, nil, u.ID)
	assert.Equal(t, 0, got.Notifications)
}

func TestAddRatingKeepsRunningMean(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := r.user(t, "ania", 10)

	ratings := []int{5, 4, 2, 5, 3}
	sum := 0
	for _, v := range ratings {
		require.NoError(t, r.users.AddRating(ctx, nil, u.ID, v))
		sum += v
	}

	got, err := r.users.GetByID(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, len(ratings), got.RatingCount)
	assert.InDelta(t, float64(sum)/float64(len(ratings)), got.Rating, 1e-9)
}

func TestAddBadgeIsIdempotent(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := r.user(t, "ania", 10)

	added, err := r.users.AddBadge(ctx, nil, u.ID, entity.BadgeTeachingMaster)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.users.AddBadge(ctx, nil, u.ID, entity.BadgeTeachingMaster)
	require.NoError(t, err)
	assert.False(t, added)

	got, err := r.users.GetByID(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BadgeSet{entity.BadgeTeachingMaster}, got.Badges)
}

func TestUpdateProfile(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := r.user(t, "ania", 10)
	r.user(t, "bartek", 10)

	u.SkillsWanted = entity.NewSkillSet("gitara")
	u.Location = "Kraków"
	u.Category = entity.CategoryLanguages
	require.NoError(t, r.users.UpdateProfile(ctx, nil, u))

	got, err := r.users.GetByID(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SkillSet{"gitara"}, got.SkillsWanted)
	assert.Equal(t, "Kraków", got.Location)
	assert.Equal(t, entity.CategoryLanguages, got.Category)

	u.Username = "bartek"
	assert.ErrorIs(t, r.users.UpdateProfile(ctx, nil, u), apperr.ErrConflict)
}

func TestSearch(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	viewer := r.user(t, "viewer", 10)
	a := r.user(t, "ania", 10)
	b := r.user(t, "bartek", 10)

	c := entity.User{
		Username:      "celina",
		Email:         "celina@example.com",
		PasswordHash:  "x",
		SkillsOffered: entity.NewSkillSet("python"),
		Location:      "Gdańsk",
		Category:      entity.CategoryTechnology,
	}
	require.NoError(t, r.users.Create(ctx, nil, &c))
	require.NoError(t, r.users.AddRating(ctx, nil, b.ID, 5))

	all, err := r.users.Search(ctx, nil, viewer.ID, repository.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, b.ID, all[0].ID, "highest rating first")
	assert.Equal(t, a.ID, all[1].ID)
	assert.Equal(t, c.ID, all[2].ID)

	bySkill, err := r.users.Search(ctx, nil, viewer.ID, repository.SearchFilter{Skill: "FOTO"})
	require.NoError(t, err)
	assert.Len(t, bySkill, 2)

	byCategory, err := r.users.Search(ctx, nil, viewer.ID, repository.SearchFilter{Category: entity.CategoryTechnology})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "celina", byCategory[0].Username)

	byLocation, err := r.users.Search(ctx, nil, viewer.ID, repository.SearchFilter{Location: "warsz"})
	require.NoError(t, err)
	assert.Len(t, byLocation, 2)

	wildcard, err := r.users.Search(ctx, nil, viewer.ID, repository.SearchFilter{Skill: "%"})
	require.NoError(t, err)
	assert.Empty(t, wildcard)

	spanning, err := r.users.Search(ctx, nil, viewer.ID, repository.SearchFilter{Skill: "fia,go"})
	require.NoError(t, err)
	assert.Empty(t, spanning, "a term must match within one skill")
}

func TestSessionLifecycle(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	teacher := r.user(t, "teacher", 10)
	student := r.user(t, "student", 10)

	s := entity.Session{TeacherID: teacher.ID, StudentID: student.ID, Skill: "fotografia", Category: entity.CategoryArt}
	require.NoError(t, r.sessions.Create(ctx, nil, &s))
	require.NotZero(t, s.ID)

	pending, err := r.sessions.HasPending(ctx, nil, teacher.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, pending)

	dup := entity.Session{TeacherID: teacher.ID, StudentID: student.ID, Skill: "gotowanie"}
	assert.ErrorIs(t, r.sessions.Create(ctx, nil, &dup), apperr.ErrDuplicatePending)

	ok, err := r.sessions.SetRating(ctx, nil, s.ID, 5)
	require.NoError(t, err)
	assert.False(t, ok, "pending sessions cannot be rated")

	ok, err = r.sessions.UpdateStatus(ctx, nil, s.ID, entity.StatusPending, entity.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.sessions.UpdateStatus(ctx, nil, s.ID, entity.StatusPending, entity.StatusRejected)
	require.NoError(t, err)
	assert.False(t, ok, "stale status must not match")

	ok, err = r.sessions.UpdateStatus(ctx, nil, s.ID, entity.StatusAccepted, entity.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := r.sessions.CountCompletedByTeacher(ctx, nil, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err = r.sessions.SetRating(ctx, nil, s.ID, 4)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.sessions.SetRating(ctx, nil, s.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.sessions.GetByID(ctx, nil, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, got.Status)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4, *got.Rating)

	again := entity.Session{TeacherID: teacher.ID, StudentID: student.ID, Skill: "fotografia"}
	require.NoError(t, r.sessions.Create(ctx, nil, &again), "a new pending session is allowed once the old one left pending")

	list, err := r.sessions.ListForUser(ctx, nil, student.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = r.sessions.GetByID(ctx, nil, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMessagesAndConversations(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	ania := r.user(t, "ania", 10)
	bartek := r.user(t, "bartek", 10)
	celina := r.user(t, "celina", 10)

	base := time.Now().UTC()
	send := func(from, to int64, content string, offset time.Duration) {
		m := entity.Message{SenderID: from, ReceiverID: to, Content: content, CreatedAt: base.Add(offset)}
		require.NoError(t, r.messages.Create(ctx, nil, &m))
	}
	send(bartek.ID, ania.ID, "cześć", 0)
	send(bartek.ID, ania.ID, "masz czas?", time.Second)
	send(ania.ID, bartek.ID, "tak", 2*time.Second)
	send(celina.ID, ania.ID, "hej", 3*time.Second)

	convs, err := r.messages.Conversations(ctx, nil, ania.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, entity.Conversation{UserID: celina.ID, Username: "celina", Unread: 1}, convs[0])
	assert.Equal(t, entity.Conversation{UserID: bartek.ID, Username: "bartek", Unread: 2}, convs[1])

	unread, err := r.messages.UnreadCount(ctx, nil, ania.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	thread, err := r.messages.Thread(ctx, nil, ania.ID, bartek.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "cześć", thread[0].Content)
	assert.Equal(t, "tak", thread[2].Content)

	n, err := r.messages.MarkConversationRead(ctx, nil, ania.ID, bartek.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = r.messages.MarkConversationRead(ctx, nil, ania.ID, bartek.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	stats, err := r.users.Stats(ctx, nil, ania.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.UserStats{Sessions: 0, Messages: 4}, stats)
}

func TestRepositoriesRunInsideTransaction(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := r.user(t, "ania", 10)

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := r.users.AddPoints(ctx, tx, u.ID, 50); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	got, err := r.users.GetByID(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Points)
}

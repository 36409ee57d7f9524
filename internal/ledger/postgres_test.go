package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/database/dbtest"
	"skillswap/internal/entity"
	"skillswap/internal/ledger"
	"skillswap/internal/repository"
)

func newPostgresFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.OpenPostgres(t)
	f := &fixture{
		users:    repository.NewUserRepository(db, nil),
		sessions: repository.NewSessionRepository(db, nil),
		messages: repository.NewMessageRepository(db, nil),
	}
	f.ledger = ledger.New(db, f.users, f.sessions, f.messages, nil)
	return f
}

func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func TestPostgresConcurrentCompletionsAwardBadgeOnce(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	teacher := f.user(t, uniqueName("teacher"), 0)

	var accepted []entity.Session
	for i := 0; i < ledger.TeachingMasterThreshold; i++ {
		student := f.user(t, uniqueName("student"), ledger.BookingCost)
		s, err := f.ledger.BookSession(ctx, student, teacher, "fotografia")
		require.NoError(t, err)
		s, err = f.ledger.TransitionSession(ctx, teacher, s.ID, entity.ActionAccept)
		require.NoError(t, err)
		accepted = append(accepted, s)
	}

	var wg sync.WaitGroup
	for _, s := range accepted {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.ledger.TransitionSession(ctx, teacher, id, entity.ActionComplete)
			assert.NoError(t, err)
		}(s.ID)
	}
	wg.Wait()

	got := f.get(t, teacher)
	assert.Equal(t, ledger.TeachingMasterThreshold*ledger.CompletionReward, got.Points)
	assert.Equal(t, entity.BadgeSet{entity.BadgeTeachingMaster}, got.Badges)
}

func TestPostgresConcurrentMessagesKeepCounters(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	sender := f.user(t, uniqueName("sender"), 0)
	receiver := f.user(t, uniqueName("receiver"), 0)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.SendMessage(ctx, sender, receiver, "hej")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, f.get(t, sender).Points)
	assert.Equal(t, n, f.get(t, receiver).Notifications)

	marked, err := f.ledger.MarkConversationRead(ctx, receiver, sender)
	require.NoError(t, err)
	assert.Equal(t, n, marked)
	assert.Zero(t, f.get(t, receiver).Notifications)
}

package session

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, 10*time.Minute), mr
}

func sampleAction() PendingAction {
	return PendingAction{
		Kind:         "schedule_call",
		LeadID:       "lead-42",
		LeadName:     "Jennifer Martinez",
		ProposedTime: time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC),
		CreatedAt:    time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
	}
}

func TestRedisStore_StageAndTakePending(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	staged := sampleAction()
	require.NoError(t, store.StagePending(ctx, "t1", "c1", staged))

	got, err := store.Pending(ctx, "t1", "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, staged, *got)

	taken, err := store.TakePending(ctx, "t1", "c1")
	require.NoError(t, err)
	require.NotNil(t, taken)
	assert.Equal(t, staged.LeadID, taken.LeadID)

	// The slot is consumed; a second take sees nothing.
	again, err := store.TakePending(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestRedisStore_StagingReplacesPending(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	first := sampleAction()
	require.NoError(t, store.StagePending(ctx, "t1", "c1", first))

	second := sampleAction()
	second.LeadID = "lead-99"
	second.LeadName = "Marcus Webb"
	require.NoError(t, store.StagePending(ctx, "t1", "c1", second))

	got, err := store.Pending(ctx, "t1", "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "lead-99", got.LeadID)
}

func TestRedisStore_PendingExpires(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.StagePending(ctx, "t1", "c1", sampleAction()))

	mr.FastForward(11 * time.Minute)

	got, err := store.Pending(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_PendingIsScopedPerConversation(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.StagePending(ctx, "t1", "c1", sampleAction()))

	other, err := store.Pending(ctx, "t1", "c2")
	require.NoError(t, err)
	assert.Nil(t, other)

	otherTenant, err := store.Pending(ctx, "t2", "c1")
	require.NoError(t, err)
	assert.Nil(t, otherTenant)
}

func TestRedisStore_FailureCounter(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	n, err := store.Failures(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for want := 1; want <= 3; want++ {
		n, err = store.BumpFailures(ctx, "t1", "c1")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	require.NoError(t, store.ResetFailures(ctx, "t1", "c1"))
	n, err = store.Failures(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisStore_WrapsBackendErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, 10*time.Minute)
	ctx := context.Background()

	backendErr := stderrors.New("connection refused")
	mock.ExpectGet("assistant:pending:t1:c1").SetErr(backendErr)
	mock.ExpectGetDel("assistant:pending:t1:c1").SetErr(backendErr)
	mock.ExpectIncr("assistant:failures:t1:c1").SetErr(backendErr)

	_, err := store.Pending(ctx, "t1", "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_STORE_FAILED")

	_, err = store.TakePending(ctx, "t1", "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_STORE_FAILED")

	_, err = store.BumpFailures(ctx, "t1", "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_STORE_FAILED")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore_MatchesRedisSemantics(t *testing.T) {
	store := NewMemoryStore(10 * time.Minute)
	ctx := context.Background()

	require.NoError(t, store.StagePending(ctx, "t1", "c1", sampleAction()))

	taken, err := store.TakePending(ctx, "t1", "c1")
	require.NoError(t, err)
	require.NotNil(t, taken)

	again, err := store.TakePending(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Nil(t, again)

	n, err := store.BumpFailures(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = store.BumpFailures(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.ResetFailures(ctx, "t1", "c1"))
	n, err = store.Failures(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryStore_PendingExpires(t *testing.T) {
	store := NewMemoryStore(10 * time.Minute)
	ctx := context.Background()

	base := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	require.NoError(t, store.StagePending(ctx, "t1", "c1", sampleAction()))

	store.now = func() time.Time { return base.Add(11 * time.Minute) }
	got, err := store.Pending(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

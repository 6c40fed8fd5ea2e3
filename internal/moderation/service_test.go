package moderation_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VizardWorker/anonrelay/internal/database/boltstore"
	"github.com/VizardWorker/anonrelay/internal/moderation"
)

// recordingNotifier captures notification attempts for assertions.
type recordingNotifier struct {
	mu        sync.Mutex
	banned    []int64
	unbanned  []int64
	appointed []int64
	fail      bool
}

func (n *recordingNotifier) NotifyBanned(ctx context.Context, userID int64, s moderation.Sanction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.banned = append(n.banned, userID)
	if n.fail {
		return assert.AnError
	}
	return nil
}

func (n *recordingNotifier) NotifyUnbanned(ctx context.Context, userID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unbanned = append(n.unbanned, userID)
	if n.fail {
		return assert.AnError
	}
	return nil
}

func (n *recordingNotifier) NotifyAdminAppointed(ctx context.Context, userID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.appointed = append(n.appointed, userID)
	if n.fail {
		return assert.AnError
	}
	return nil
}

// fakeClock is a movable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupService(t *testing.T) (*moderation.Service, *recordingNotifier, *fakeClock) {
	store, err := boltstore.Open(boltstore.Options{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	notifier := &recordingNotifier{}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := moderation.NewService(store, notifier, moderation.WithClock(clock.Now))

	require.NoError(t, svc.EnsureAdmin(context.Background(), 1))
	return svc, notifier, clock
}

func TestLinkIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	first, err := svc.Link(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Len(t, first, 32) // uuid4 with dashes stripped

	second, err := svc.Link(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	owner, err := svc.ResolveOwner(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(42), owner)

	_, err = svc.ResolveOwner(ctx, "deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, moderation.ErrNotFound)
}

func TestBanLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, notifier, clock := setupService(t)

	_, err := svc.Block(ctx, 1, 42, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, notifier.banned)

	blocked, err := svc.CheckAndExpire(ctx, 42)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Empty(t, notifier.unbanned)

	clock.Advance(61 * time.Minute)

	blocked, err = svc.CheckAndExpire(ctx, 42)
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.Equal(t, []int64{42}, notifier.unbanned, "exactly one unblock notification")

	// Repeated checks after expiry are pure: no record, no notification
	blocked, err = svc.CheckAndExpire(ctx, 42)
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.Equal(t, []int64{42}, notifier.unbanned)
}

func TestPermanentBan(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := setupService(t)

	sanction, err := svc.Block(ctx, 1, 42, 0)
	require.NoError(t, err)
	assert.True(t, sanction.Permanent)

	clock.Advance(200 * 365 * 24 * time.Hour)

	blocked, err := svc.CheckAndExpire(ctx, 42)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestBlockReplacesSanction(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := setupService(t)

	_, err := svc.Block(ctx, 1, 42, 24)
	require.NoError(t, err)

	// Re-block with 1 hour; the prior 24 hours must not accumulate
	_, err = svc.Block(ctx, 1, 42, 1)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	blocked, err := svc.CheckAndExpire(ctx, 42)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, err := svc.Block(ctx, 99, 42, 1)
	assert.ErrorIs(t, err, moderation.ErrNotAuthorized)

	blocked, err := svc.CheckAndExpire(ctx, 42)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestAdminsCannotBeBanned(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	require.NoError(t, svc.EnsureAdmin(ctx, 2))

	_, err := svc.Block(ctx, 1, 2, 24)
	assert.ErrorIs(t, err, moderation.ErrTargetIsAdmin)
}

func TestManualUnblockAlwaysNotifies(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := setupService(t)

	// Unblock of a user with no ban record still notifies
	require.NoError(t, svc.Unblock(ctx, 1, 42))
	assert.Equal(t, []int64{42}, notifier.unbanned)

	_, err := svc.Block(ctx, 1, 42, 24)
	require.NoError(t, err)

	require.NoError(t, svc.Unblock(ctx, 1, 42))
	assert.Equal(t, []int64{42, 42}, notifier.unbanned)

	blocked, err := svc.CheckAndExpire(ctx, 42)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestNotifyFailureNotPropagated(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := setupService(t)
	notifier.fail = true

	_, err := svc.Block(ctx, 1, 42, 1)
	assert.NoError(t, err, "delivery failure must not surface to the action")

	err = svc.Unblock(ctx, 1, 42)
	assert.NoError(t, err)
}

func TestAdminFloor(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := setupService(t)

	t.Run("last admin cannot remove themselves", func(t *testing.T) {
		err := svc.RemoveAdmin(ctx, 1, 1)
		assert.Error(t, err)
		assert.True(t, svc.IsAdmin(ctx, 1))

		admins, err := svc.Admins(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, admins)
	})

	t.Run("add notifies the appointee", func(t *testing.T) {
		require.NoError(t, svc.AddAdmin(ctx, 1, 2))
		assert.True(t, svc.IsAdmin(ctx, 2))
		assert.Equal(t, []int64{2}, notifier.appointed)
	})

	t.Run("adding twice is refused", func(t *testing.T) {
		err := svc.AddAdmin(ctx, 1, 2)
		assert.ErrorIs(t, err, moderation.ErrAlreadyAdmin)
	})

	t.Run("non-admin cannot add", func(t *testing.T) {
		err := svc.AddAdmin(ctx, 99, 3)
		assert.ErrorIs(t, err, moderation.ErrNotAuthorized)
		assert.False(t, svc.IsAdmin(ctx, 3))
	})

	t.Run("self removal refused with peers present", func(t *testing.T) {
		err := svc.RemoveAdmin(ctx, 1, 1)
		assert.ErrorIs(t, err, moderation.ErrSelfRemoval)
	})

	t.Run("removing a non-admin", func(t *testing.T) {
		err := svc.RemoveAdmin(ctx, 1, 777)
		assert.ErrorIs(t, err, moderation.ErrNotAdmin)
	})

	t.Run("removal succeeds above the floor", func(t *testing.T) {
		require.NoError(t, svc.RemoveAdmin(ctx, 1, 2))
		assert.False(t, svc.IsAdmin(ctx, 2))
	})
}

func TestReportLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := setupService(t)
	require.NoError(t, svc.EnsureAdmin(ctx, 2))

	id, err := svc.Record(ctx, 10, 20, "offensive text")
	require.NoError(t, err)

	t.Run("report fans out to all admins", func(t *testing.T) {
		msg, admins, err := svc.Report(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, int64(10), msg.OwnerID)
		assert.Equal(t, int64(20), msg.SenderID)
		assert.Equal(t, "offensive text", msg.Text)
		assert.True(t, msg.Reported)
		assert.ElementsMatch(t, []int64{1, 2}, admins)

		reported, err := svc.ReportedMessages(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, reported, 1)
	})

	t.Run("ban decision resolves the report", func(t *testing.T) {
		sanction, err := svc.BanSender(ctx, 1, 20, id, 24)
		require.NoError(t, err)
		assert.False(t, sanction.Permanent)

		blocked, err := svc.CheckAndExpire(ctx, 20)
		require.NoError(t, err)
		assert.True(t, blocked)
		assert.Equal(t, []int64{20}, notifier.banned)

		// Ledger entry is gone after resolution
		_, err = svc.Message(ctx, 1, id)
		assert.ErrorIs(t, err, moderation.ErrNotFound)
	})

	t.Run("double resolution is a no-op", func(t *testing.T) {
		err := svc.IgnoreReport(ctx, 1, id)
		assert.NoError(t, err)
		assert.Equal(t, []int64{20}, notifier.banned, "no duplicate ban")
	})

	t.Run("stale report tap", func(t *testing.T) {
		_, _, err := svc.Report(ctx, id)
		assert.ErrorIs(t, err, moderation.ErrNotFound)
	})
}

func TestIgnoreReport(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := setupService(t)

	id, err := svc.Record(ctx, 10, 20, "borderline")
	require.NoError(t, err)

	_, _, err = svc.Report(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.IgnoreReport(ctx, 1, id))

	// No ban, no sender notification
	blocked, err := svc.CheckAndExpire(ctx, 20)
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.Empty(t, notifier.banned)

	_, err = svc.Message(ctx, 1, id)
	assert.ErrorIs(t, err, moderation.ErrNotFound)
}

func TestDiscardAfterRelayFailure(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	id, err := svc.Record(ctx, 10, 20, "undeliverable")
	require.NoError(t, err)

	require.NoError(t, svc.Discard(ctx, id))

	_, _, err = svc.Report(ctx, id)
	assert.ErrorIs(t, err, moderation.ErrNotFound)
}

func TestConcurrentResolution(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)
	require.NoError(t, svc.EnsureAdmin(ctx, 2))

	id, err := svc.Record(ctx, 10, 20, "contested")
	require.NoError(t, err)
	_, _, err = svc.Report(ctx, id)
	require.NoError(t, err)

	// Two admins act on the same report concurrently; the store
	// serializes the deletes, so exactly one resolution takes effect and
	// neither caller sees an error.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.BanSender(ctx, 1, 20, id, 24)
	}()
	go func() {
		defer wg.Done()
		errs[1] = svc.IgnoreReport(ctx, 2, id)
	}()
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])

	_, err = svc.Message(ctx, 1, id)
	assert.ErrorIs(t, err, moderation.ErrNotFound)
}

package otp

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/database/testutil"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T, opts ...Option) (*Store, *gorm.DB, *fakeClock) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := &fakeClock{now: time.Now().UTC()}

	opts = append([]Option{WithClock(clock.Now)}, opts...)
	store, err := NewStore(db, opts...)
	require.NoError(t, err)

	return store, db, clock
}

func TestCreateReplacesExistingChallenge(t *testing.T) {
	store, db, _ := newTestStore(t)
	listingID := uuid.NewString()

	first, err := store.Create(context.Background(), "buyer@example.com", listingID)
	require.NoError(t, err)

	second, err := store.Create(context.Background(), "buyer@example.com", listingID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.OTPChallenge{}).
		Where("email = ? AND listing_id = ?", "buyer@example.com", listingID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)

	if first.Code != second.Code {
		result, err := store.Verify(context.Background(), "buyer@example.com", listingID, first.Code)
		require.NoError(t, err)
		require.Equal(t, ResultInvalid, result)
	}

	result, err := store.Verify(context.Background(), "buyer@example.com", listingID, second.Code)
	require.NoError(t, err)
	require.Equal(t, ResultOK, result)
}

func TestVerifyIsSingleUse(t *testing.T) {
	store, _, _ := newTestStore(t)
	listingID := uuid.NewString()

	challenge, err := store.Create(context.Background(), "single@example.com", listingID)
	require.NoError(t, err)

	result, err := store.Verify(context.Background(), "single@example.com", listingID, challenge.Code)
	require.NoError(t, err)
	require.Equal(t, ResultOK, result)

	result, err = store.Verify(context.Background(), "single@example.com", listingID, challenge.Code)
	require.NoError(t, err)
	require.Equal(t, ResultConsumed, result)
}

func TestVerifyExpired(t *testing.T) {
	store, _, clock := newTestStore(t, WithTTL(10*time.Minute))
	listingID := uuid.NewString()

	challenge, err := store.Create(context.Background(), "late@example.com", listingID)
	require.NoError(t, err)

	clock.Advance(10*time.Minute + time.Second)

	result, err := store.Verify(context.Background(), "late@example.com", listingID, challenge.Code)
	require.NoError(t, err)
	require.Equal(t, ResultExpired, result)
}

func TestExpiredWinsOverConsumed(t *testing.T) {
	store, _, clock := newTestStore(t, WithTTL(10*time.Minute))
	listingID := uuid.NewString()

	challenge, err := store.Create(context.Background(), "order@example.com", listingID)
	require.NoError(t, err)

	result, err := store.Verify(context.Background(), "order@example.com", listingID, challenge.Code)
	require.NoError(t, err)
	require.Equal(t, ResultOK, result)

	clock.Advance(11 * time.Minute)

	result, err = store.Verify(context.Background(), "order@example.com", listingID, challenge.Code)
	require.NoError(t, err)
	require.Equal(t, ResultExpired, result)
}

func TestVerifyExhaustsAfterMaxAttempts(t *testing.T) {
	store, _, _ := newTestStore(t, WithMaxAttempts(3))
	listingID := uuid.NewString()

	challenge, err := store.Create(context.Background(), "guess@example.com", listingID)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == challenge.Code {
		wrong = "000001"
	}

	for i := 0; i < 3; i++ {
		result, err := store.Verify(context.Background(), "guess@example.com", listingID, wrong)
		require.NoError(t, err)
		require.Equal(t, ResultInvalid, result)
	}

	// The correct code no longer works once the budget is spent.
	result, err := store.Verify(context.Background(), "guess@example.com", listingID, challenge.Code)
	require.NoError(t, err)
	require.Equal(t, ResultExhausted, result)
}

func TestAttemptsSurviveStoreRestart(t *testing.T) {
	store, db, clock := newTestStore(t, WithMaxAttempts(2))
	listingID := uuid.NewString()

	challenge, err := store.Create(context.Background(), "restart@example.com", listingID)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == challenge.Code {
		wrong = "000001"
	}
	for i := 0; i < 2; i++ {
		result, err := store.Verify(context.Background(), "restart@example.com", listingID, wrong)
		require.NoError(t, err)
		require.Equal(t, ResultInvalid, result)
	}

	reopened, err := NewStore(db, WithClock(clock.Now), WithMaxAttempts(2))
	require.NoError(t, err)

	result, err := reopened.Verify(context.Background(), "restart@example.com", listingID, challenge.Code)
	require.NoError(t, err)
	require.Equal(t, ResultExhausted, result)
}

func TestVerifyUnknownKey(t *testing.T) {
	store, _, _ := newTestStore(t)

	result, err := store.Verify(context.Background(), "nobody@example.com", uuid.NewString(), "123456")
	require.NoError(t, err)
	require.Equal(t, ResultInvalid, result)
}

func TestDiscardRemovesChallenge(t *testing.T) {
	store, _, _ := newTestStore(t)
	listingID := uuid.NewString()

	challenge, err := store.Create(context.Background(), "rollback@example.com", listingID)
	require.NoError(t, err)

	require.NoError(t, store.Discard(context.Background(), "rollback@example.com", listingID))

	result, err := store.Verify(context.Background(), "rollback@example.com", listingID, challenge.Code)
	require.NoError(t, err)
	require.Equal(t, ResultInvalid, result)
}

func TestPurgeExpiredKeepsLiveChallenges(t *testing.T) {
	store, db, clock := newTestStore(t, WithTTL(5*time.Minute))

	staleListing := uuid.NewString()
	liveListing := uuid.NewString()

	_, err := store.Create(context.Background(), "stale@example.com", staleListing)
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)

	live, err := store.Create(context.Background(), "live@example.com", liveListing)
	require.NoError(t, err)

	// The shared test database may hold consumed challenges from other tests,
	// so only a lower bound on the purge count is meaningful.
	purged, err := store.PurgeExpired(context.Background(), clock.Now())
	require.NoError(t, err)
	require.GreaterOrEqual(t, purged, int64(1))

	result, err := store.Verify(context.Background(), "live@example.com", liveListing, live.Code)
	require.NoError(t, err)
	require.Equal(t, ResultOK, result)

	var count int64
	require.NoError(t, db.Model(&models.OTPChallenge{}).
		Where("email = ?", "stale@example.com").
		Count(&count).Error)
	require.Zero(t, count)
}

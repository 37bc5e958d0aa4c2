package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/database/testutil"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/otp"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
)

func TestRunOncePurgesExpiredChallengesAndOldActivity(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	past := time.Now().UTC().Add(-time.Hour)
	store, err := otp.NewStore(db, otp.WithClock(func() time.Time { return past }), otp.WithTTL(time.Minute))
	require.NoError(t, err)

	activity, err := services.NewActivityService(db)
	require.NoError(t, err)

	listingID := uuid.NewString()
	_, err = store.Create(context.Background(), "cleanup@example.com", listingID)
	require.NoError(t, err)

	activity.Record(context.Background(), services.ActivityEntry{
		Username: "cleanup-user",
		Action:   "user.login",
	})
	require.NoError(t, db.Model(&models.ActivityLog{}).
		Where("username = ?", "cleanup-user").
		UpdateColumn("created_at", time.Now().UTC().Add(-30*24*time.Hour)).Error)

	cleaner, err := NewCleaner(store, activity, WithActivityRetention(7*24*time.Hour))
	require.NoError(t, err)

	require.NoError(t, cleaner.RunOnce(context.Background()))

	var challenges int64
	require.NoError(t, db.Model(&models.OTPChallenge{}).
		Where("listing_id = ?", listingID).
		Count(&challenges).Error)
	require.Zero(t, challenges)

	var entries int64
	require.NoError(t, db.Model(&models.ActivityLog{}).
		Where("username = ?", "cleanup-user").
		Count(&entries).Error)
	require.Zero(t, entries)
}

func TestRunOnceKeepsRecentData(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	store, err := otp.NewStore(db)
	require.NoError(t, err)
	activity, err := services.NewActivityService(db)
	require.NoError(t, err)

	listingID := uuid.NewString()
	challenge, err := store.Create(context.Background(), "fresh@example.com", listingID)
	require.NoError(t, err)

	cleaner, err := NewCleaner(store, activity, WithActivityRetention(7*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	result, err := store.Verify(context.Background(), "fresh@example.com", listingID, challenge.Code)
	require.NoError(t, err)
	require.Equal(t, otp.ResultOK, result)
}

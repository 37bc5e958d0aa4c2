package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/database/testutil"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/surveycheck"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/mail"
)

// The sqlite test database is shared across the package, so every fixture uses
// a unique suffix.
var fixtureSeq atomic.Int64

func uniqueSuffix() string {
	return fmt.Sprintf("%d", fixtureSeq.Add(1))
}

func createTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	suffix := uniqueSuffix()
	user := &models.User{
		Username: "user-" + suffix,
		Email:    "user-" + suffix + "@example.com",
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPendingListing(t *testing.T, db *gorm.DB, agentID string) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		AgentID:            agentID,
		Type:               models.ListingTypeHouse,
		Title:              "Test house " + uniqueSuffix(),
		Price:              250000,
		City:               "Coimbatore",
		SurveyNumber:       "SF-" + uniqueSuffix(),
		OwnerName:          "Owner Test",
		OwnerPhone:         "+91-9000000000",
		OwnerEmail:         "owner@example.com",
		VerificationStatus: models.StatusPendingVerification,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

// clearPolicy removes the singleton policy row so tests can exercise the
// unset-policy default.
func clearPolicy(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.
		Where("id = ?", models.PolicyRowID).
		Delete(&models.VerificationPolicy{}).Error)
}

type fakeChecker struct {
	outcome surveycheck.Outcome
	calls   int
	lastArg string
}

func (c *fakeChecker) Validate(_ context.Context, surveyNumber string) surveycheck.Outcome {
	c.calls++
	c.lastArg = surveyNumber
	return c.outcome
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type testEnv struct {
	db            *gorm.DB
	users         *UserService
	activity      *ActivityService
	notifications *NotificationService
	policies      *PolicyService
	verification  *VerificationService
	listings      *ListingService
	checker       *fakeChecker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	users, err := NewUserService(db)
	require.NoError(t, err)
	activity, err := NewActivityService(db)
	require.NoError(t, err)
	notifications, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	policies, err := NewPolicyService(db)
	require.NoError(t, err)

	checker := &fakeChecker{outcome: surveycheck.OutcomePass}
	verification, err := NewVerificationService(db, policies, checker, notifications, activity)
	require.NoError(t, err)
	listings, err := NewListingService(db, verification, activity)
	require.NoError(t, err)

	return &testEnv{
		db:            db,
		users:         users,
		activity:      activity,
		notifications: notifications,
		policies:      policies,
		verification:  verification,
		listings:      listings,
		checker:       checker,
	}
}

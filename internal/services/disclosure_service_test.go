package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/otp"
	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
)

func newDisclosureEnv(t *testing.T, mailer *fakeMailer) (*testEnv, *DisclosureService) {
	t.Helper()

	env := newTestEnv(t)
	store, err := otp.NewStore(env.db)
	require.NoError(t, err)

	disclosure, err := NewDisclosureService(store, env.listings, mailer, env.notifications, env.activity,
		WithCodeEcho(true),
	)
	require.NoError(t, err)
	return env, disclosure
}

func TestRequestCodeDeliversByEmail(t *testing.T) {
	mailer := &fakeMailer{}
	env, disclosure := newDisclosureEnv(t, mailer)

	agent := createTestUser(t, env.db, models.RoleAgent)
	listing := createPendingListing(t, env.db, agent.ID)

	info, err := disclosure.RequestCode(context.Background(), "Buyer@Example.com", listing.ID)
	require.NoError(t, err)
	require.Equal(t, "buyer@example.com", info.Email)
	require.Len(t, info.Code, 6)

	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{"buyer@example.com"}, mailer.sent[0].To)
	require.Contains(t, mailer.sent[0].Body, info.Code)
}

func TestRequestCodeRejectsInvalidEmail(t *testing.T) {
	env, disclosure := newDisclosureEnv(t, &fakeMailer{})

	agent := createTestUser(t, env.db, models.RoleAgent)
	listing := createPendingListing(t, env.db, agent.ID)

	_, err := disclosure.RequestCode(context.Background(), "not-an-email", listing.ID)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrBadRequest.Code, appErr.Code)
}

func TestRequestCodeUnknownListing(t *testing.T) {
	_, disclosure := newDisclosureEnv(t, &fakeMailer{})

	_, err := disclosure.RequestCode(context.Background(), "buyer@example.com", "missing-listing")
	require.ErrorIs(t, err, apperrors.ErrListingNotFound)
}

func TestRequestCodeDeliveryFailureRollsBack(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp: connection refused")}
	env, disclosure := newDisclosureEnv(t, mailer)

	agent := createTestUser(t, env.db, models.RoleAgent)
	listing := createPendingListing(t, env.db, agent.ID)

	_, err := disclosure.RequestCode(context.Background(), "bounce@example.com", listing.ID)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrDeliveryFailed.Code, appErr.Code)

	// No orphaned challenge remains after the failed delivery.
	var count int64
	require.NoError(t, env.db.Model(&models.OTPChallenge{}).
		Where("email = ? AND listing_id = ?", "bounce@example.com", listing.ID).
		Count(&count).Error)
	require.Zero(t, count)
}

func TestVerifyCodeReleasesOwnerContact(t *testing.T) {
	env, disclosure := newDisclosureEnv(t, &fakeMailer{})

	agent := createTestUser(t, env.db, models.RoleAgent)
	viewer := createTestUser(t, env.db, models.RoleUser)
	listing := createPendingListing(t, env.db, agent.ID)

	info, err := disclosure.RequestCode(context.Background(), "viewer@example.com", listing.ID)
	require.NoError(t, err)

	contact, err := disclosure.VerifyCode(context.Background(), "viewer@example.com", listing.ID, info.Code, viewer.ID)
	require.NoError(t, err)
	require.Equal(t, listing.ID, contact.ListingID)
	require.Equal(t, listing.OwnerName, contact.OwnerName)
	require.Equal(t, listing.OwnerPhone, contact.OwnerPhone)
	require.Equal(t, listing.OwnerEmail, contact.OwnerEmail)

	// Admins are informed about the disclosure.
	count, err := env.notifications.UnreadCount(context.Background(), AdminAudience())
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, int64(1))

	// The code is single use.
	_, err = disclosure.VerifyCode(context.Background(), "viewer@example.com", listing.ID, info.Code, viewer.ID)
	require.ErrorIs(t, err, apperrors.ErrOTPConsumed)
}

func TestVerifyCodeWrongCode(t *testing.T) {
	env, disclosure := newDisclosureEnv(t, &fakeMailer{})

	agent := createTestUser(t, env.db, models.RoleAgent)
	listing := createPendingListing(t, env.db, agent.ID)

	info, err := disclosure.RequestCode(context.Background(), "wrong@example.com", listing.ID)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == info.Code {
		wrong = "000001"
	}
	_, err = disclosure.VerifyCode(context.Background(), "wrong@example.com", listing.ID, wrong, "")
	require.ErrorIs(t, err, apperrors.ErrOTPInvalid)
}

func TestDisclosureIgnoresVerificationStatus(t *testing.T) {
	env, disclosure := newDisclosureEnv(t, &fakeMailer{})

	agent := createTestUser(t, env.db, models.RoleAgent)
	listing := createPendingListing(t, env.db, agent.ID)
	require.Equal(t, models.StatusPendingVerification, listing.VerificationStatus)

	info, err := disclosure.RequestCode(context.Background(), "eager@example.com", listing.ID)
	require.NoError(t, err)

	contact, err := disclosure.VerifyCode(context.Background(), "eager@example.com", listing.ID, info.Code, "")
	require.NoError(t, err)
	require.Equal(t, listing.OwnerPhone, contact.OwnerPhone)
}

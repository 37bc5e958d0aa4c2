package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/otp"
	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/logger"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/mail"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/metrics"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/validator"
)

// ChallengeInfo is returned after issuing a disclosure challenge. Code is only
// populated when code echoing is enabled for development setups without SMTP.
type ChallengeInfo struct {
	ListingID string    `json:"listing_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Code      string    `json:"code,omitempty"`
}

// DisclosureService gates owner contact details behind an email OTP challenge.
// Disclosure is deliberately independent of the listing's verification status;
// pending listings can still have their owner contacted.
type DisclosureService struct {
	store         *otp.Store
	listings      *ListingService
	mailer        mail.Mailer
	notifications *NotificationService
	activity      *ActivityService
	log           *zap.Logger

	echoCodes bool
}

// DisclosureOption customises the DisclosureService.
type DisclosureOption func(*DisclosureService)

// WithCodeEcho returns issued codes in API responses. Development only; never
// enable where real owner data is present.
func WithCodeEcho(enabled bool) DisclosureOption {
	return func(s *DisclosureService) {
		s.echoCodes = enabled
	}
}

// NewDisclosureService constructs a DisclosureService.
func NewDisclosureService(
	store *otp.Store,
	listings *ListingService,
	mailer mail.Mailer,
	notifications *NotificationService,
	activity *ActivityService,
	opts ...DisclosureOption,
) (*DisclosureService, error) {
	if store == nil {
		return nil, errors.New("disclosure service: otp store is required")
	}
	if listings == nil {
		return nil, errors.New("disclosure service: listing service is required")
	}

	service := &DisclosureService{
		store:         store,
		listings:      listings,
		mailer:        mailer,
		notifications: notifications,
		activity:      activity,
		log:           logger.WithModule("disclosure"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// RequestCode issues a fresh challenge for the (email, listing) pair and
// delivers the code by email. When delivery fails the challenge is discarded
// so the requester can immediately retry with a clean slate.
func (s *DisclosureService) RequestCode(ctx context.Context, email, listingID string) (*ChallengeInfo, error) {
	ctx = ensureContext(ctx)

	if !validator.IsEmail(email) {
		return nil, apperrors.NewBadRequest("a valid email address is required")
	}

	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}

	challenge, err := s.store.Create(ctx, email, listing.ID)
	if err != nil {
		return nil, err
	}
	metrics.OTPChallenges.WithLabelValues("requested").Inc()

	if err := s.deliver(ctx, challenge, listing); err != nil {
		if discardErr := s.store.Discard(ctx, challenge.Email, listing.ID); discardErr != nil {
			s.log.Error("failed to discard undelivered challenge",
				zap.String("listing_id", listing.ID),
				zap.Error(discardErr),
			)
		}
		metrics.OTPChallenges.WithLabelValues("delivery_failed").Inc()
		return nil, apperrors.ErrDeliveryFailed.WithInternal(err)
	}

	info := &ChallengeInfo{
		ListingID: listing.ID,
		Email:     challenge.Email,
		ExpiresAt: challenge.ExpiresAt,
	}
	if s.echoCodes {
		info.Code = challenge.Code
	}
	return info, nil
}

// VerifyCode checks a supplied code and, on success, releases the sanitized
// owner contact view.
func (s *DisclosureService) VerifyCode(ctx context.Context, email, listingID, code, viewerID string) (*models.OwnerContact, error) {
	ctx = ensureContext(ctx)

	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}

	result, err := s.store.Verify(ctx, email, listing.ID, code)
	if err != nil {
		return nil, err
	}
	metrics.OTPChallenges.WithLabelValues(string(result)).Inc()

	switch result {
	case otp.ResultOK:
	case otp.ResultExpired:
		return nil, apperrors.ErrOTPExpired
	case otp.ResultExhausted:
		return nil, apperrors.ErrOTPExhausted
	case otp.ResultConsumed:
		return nil, apperrors.ErrOTPConsumed
	default:
		return nil, apperrors.ErrOTPInvalid
	}

	if s.notifications != nil {
		if err := s.notifications.EmitDisclosureEvent(ctx, listing, viewerID); err != nil {
			s.log.Warn("failed to emit disclosure notification",
				zap.String("listing_id", listing.ID),
				zap.Error(err),
			)
		}
	}
	if s.activity != nil {
		s.activity.Record(ctx, ActivityEntry{
			UserID:   viewerID,
			Action:   ActionContactDisclosed,
			Resource: "listing:" + listing.ID,
			Result:   ResultSuccess,
			Metadata: map[string]any{"email": email},
		})
	}

	contact := listing.ContactView()
	return &contact, nil
}

// deliver emails the code to the requester. A disabled mailer is treated as
// delivered so local setups work without SMTP; the code echo option covers
// retrieving it.
func (s *DisclosureService) deliver(ctx context.Context, challenge *models.OTPChallenge, listing *models.Listing) error {
	if s.mailer == nil {
		return nil
	}

	body := fmt.Sprintf(
		"Your verification code for listing %q is %s.\r\n\r\nThe code expires at %s and can be used once.\r\n",
		listing.Title,
		challenge.Code,
		challenge.ExpiresAt.UTC().Format(time.RFC1123),
	)
	err := s.mailer.Send(ctx, mail.Message{
		To:      []string{challenge.Email},
		Subject: "Your owner contact verification code",
		Body:    body,
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		return err
	}
	return nil
}

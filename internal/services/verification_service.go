package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/surveycheck"
	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/logger"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/metrics"
)

const defaultSurveyCheckTimeout = 5 * time.Second

// VerificationService drives listings through the review state machine:
// pending_verification at submission, then verified or rejected exactly once.
// Auto-verification may promote a pending listing; everything else requires an
// admin decision.
type VerificationService struct {
	db            *gorm.DB
	policies      *PolicyService
	checker       surveycheck.Checker
	notifications *NotificationService
	activity      *ActivityService
	log           *zap.Logger

	now          func() time.Time
	checkTimeout time.Duration
}

// VerificationOption customises the VerificationService.
type VerificationOption func(*VerificationService)

// WithVerificationClock injects a custom time source.
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(s *VerificationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSurveyCheckTimeout bounds the external registry call made during
// auto-verification.
func WithSurveyCheckTimeout(timeout time.Duration) VerificationOption {
	return func(s *VerificationService) {
		if timeout > 0 {
			s.checkTimeout = timeout
		}
	}
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(
	db *gorm.DB,
	policies *PolicyService,
	checker surveycheck.Checker,
	notifications *NotificationService,
	activity *ActivityService,
	opts ...VerificationOption,
) (*VerificationService, error) {
	if db == nil {
		return nil, errors.New("verification service: db is required")
	}
	if policies == nil {
		return nil, errors.New("verification service: policy service is required")
	}

	service := &VerificationService{
		db:            db,
		policies:      policies,
		checker:       checker,
		notifications: notifications,
		activity:      activity,
		log:           logger.WithModule("verification"),
		now:           time.Now,
		checkTimeout:  defaultSurveyCheckTimeout,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// ProcessSubmission routes a freshly submitted listing according to the policy
// mode read once at this moment. Later policy changes never touch it again.
// Under manual mode, or when the auto check fails or the registry is
// unreachable, the listing stays pending for admin review.
func (s *VerificationService) ProcessSubmission(ctx context.Context, listing *models.Listing) error {
	if listing == nil {
		return errors.New("verification service: listing is required")
	}
	ctx = ensureContext(ctx)

	mode, err := s.policies.Mode(ctx)
	if err != nil {
		return err
	}

	if mode != models.ModeAuto || s.checker == nil {
		metrics.VerificationTransitions.WithLabelValues(models.ModeManual, models.StatusPendingVerification).Inc()
		return nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	outcome := s.checker.Validate(checkCtx, listing.SurveyNumber)
	if outcome != surveycheck.OutcomePass {
		s.log.Info("auto verification did not pass, listing stays pending",
			zap.String("listing_id", listing.ID),
			zap.String("outcome", string(outcome)),
		)
		metrics.VerificationTransitions.WithLabelValues(models.ModeAuto, models.StatusPendingVerification).Inc()
		return nil
	}

	now := s.now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND verification_status = ?", listing.ID, models.StatusPendingVerification).
		Updates(map[string]any{
			"verification_status": models.StatusVerified,
			"auto_verified":       true,
			"reviewed_at":         now,
		})
	if result.Error != nil {
		return fmt.Errorf("verification service: auto verify listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// An admin decided first. Their decision stands.
		return nil
	}

	listing.VerificationStatus = models.StatusVerified
	listing.AutoVerified = true
	listing.ReviewedAt = &now

	metrics.VerificationTransitions.WithLabelValues(models.ModeAuto, models.StatusVerified).Inc()
	s.afterDecision(ctx, listing, models.StatusVerified, "", models.ModeAuto)
	return nil
}

// Approve transitions a pending listing to verified.
func (s *VerificationService) Approve(ctx context.Context, listingID, reviewerID string) (*models.Listing, error) {
	return s.decide(ctx, listingID, reviewerID, models.StatusVerified)
}

// Reject transitions a pending listing to rejected.
func (s *VerificationService) Reject(ctx context.Context, listingID, reviewerID string) (*models.Listing, error) {
	return s.decide(ctx, listingID, reviewerID, models.StatusRejected)
}

// ListPending returns the admin review queue, oldest submissions first.
func (s *VerificationService) ListPending(ctx context.Context, page, pageSize int) ([]models.Listing, bool, error) {
	ctx = ensureContext(ctx)

	page, pageSize = normalisePage(page, pageSize)

	var rows []models.Listing
	if err := s.db.WithContext(ctx).
		Where("verification_status = ?", models.StatusPendingVerification).
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize + 1).
		Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("verification service: list pending: %w", err)
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	return rows, hasMore, nil
}

// decide performs the review transition with a conditional update keyed on the
// pending status, so concurrent decisions cannot double-apply. A decision on an
// already-terminal listing is an idempotent no-op returning the current record.
func (s *VerificationService) decide(ctx context.Context, listingID, reviewerID, newStatus string) (*models.Listing, error) {
	ctx = ensureContext(ctx)

	listingID = strings.TrimSpace(listingID)
	reviewerID = strings.TrimSpace(reviewerID)

	now := s.now().UTC()
	updates := map[string]any{
		"verification_status": newStatus,
		"auto_verified":       false,
		"reviewed_at":         now,
	}
	if reviewerID != "" {
		updates["reviewed_by"] = reviewerID
	}

	result := s.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND verification_status = ?", listingID, models.StatusPendingVerification).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("verification service: apply decision: %w", result.Error)
	}

	listing, err := s.loadListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected == 0 {
		if listing.IsTerminal() {
			return listing, nil
		}
		return nil, apperrors.ErrInternalServer.WithInternal(
			fmt.Errorf("listing %s neither pending nor terminal", listingID))
	}

	metrics.VerificationTransitions.WithLabelValues(models.ModeManual, newStatus).Inc()
	s.afterDecision(ctx, listing, newStatus, reviewerID, models.ModeManual)
	return listing, nil
}

func (s *VerificationService) loadListing(ctx context.Context, listingID string) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.WithContext(ctx).
		Where("id = ?", listingID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrListingNotFound
		}
		return nil, fmt.Errorf("verification service: load listing: %w", err)
	}
	return &listing, nil
}

func (s *VerificationService) afterDecision(ctx context.Context, listing *models.Listing, newStatus, reviewerID, mode string) {
	if s.notifications != nil {
		if err := s.notifications.EmitVerificationEvent(ctx, listing, newStatus); err != nil {
			s.log.Warn("failed to emit verification notification",
				zap.String("listing_id", listing.ID),
				zap.Error(err),
			)
		}
	}

	if s.activity != nil {
		action := ActionListingApproved
		if newStatus == models.StatusRejected {
			action = ActionListingRejected
		}
		s.activity.Record(ctx, ActivityEntry{
			UserID:   reviewerID,
			Action:   action,
			Resource: "listing:" + listing.ID,
			Result:   ResultSuccess,
			Metadata: map[string]any{
				"mode":   mode,
				"status": newStatus,
			},
		})
	}

	s.log.Info("listing verification decided",
		zap.String("listing_id", listing.ID),
		zap.String("status", newStatus),
		zap.String("mode", mode),
	)
}

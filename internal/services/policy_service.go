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
	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/logger"
)

// PolicyService owns the singleton manual/auto verification switch. Each
// submission reads the mode once at submission time; changing the mode never
// re-evaluates listings already submitted.
type PolicyService struct {
	db  *gorm.DB
	now func() time.Time
	log *zap.Logger
}

// PolicyOption customises the PolicyService.
type PolicyOption func(*PolicyService)

// WithPolicyClock injects a custom time source.
func WithPolicyClock(clock func() time.Time) PolicyOption {
	return func(s *PolicyService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewPolicyService constructs a PolicyService.
func NewPolicyService(db *gorm.DB, opts ...PolicyOption) (*PolicyService, error) {
	if db == nil {
		return nil, errors.New("policy service: db is required")
	}

	service := &PolicyService{
		db:  db,
		now: time.Now,
		log: logger.WithModule("verification-policy"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Mode returns the active verification mode, defaulting to manual when the
// policy row is absent. Manual is the fail-safe: it favours human review.
func (s *PolicyService) Mode(ctx context.Context) (string, error) {
	policy, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	if policy == nil {
		return models.ModeManual, nil
	}
	return defaultIfEmpty(policy.Mode, models.ModeManual), nil
}

// Get loads the singleton policy row. Returns nil when unset.
func (s *PolicyService) Get(ctx context.Context) (*models.VerificationPolicy, error) {
	ctx = ensureContext(ctx)

	var policy models.VerificationPolicy
	err := s.db.WithContext(ctx).Take(&policy, "id = ?", models.PolicyRowID).Error
	if err == nil {
		return &policy, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("policy service: load policy: %w", err)
}

// SetMode switches the verification mode. Idempotent when the requested mode
// equals the current one. Last writer wins under concurrency; no cross-object
// transaction with in-flight submissions is needed.
func (s *PolicyService) SetMode(ctx context.Context, mode, actorID string) (*models.VerificationPolicy, error) {
	ctx = ensureContext(ctx)

	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != models.ModeManual && mode != models.ModeAuto {
		return nil, apperrors.NewBadRequest("mode must be \"manual\" or \"auto\"")
	}

	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil && current.Mode == mode {
		return current, nil
	}

	policy := models.VerificationPolicy{
		ID:   models.PolicyRowID,
		Mode: mode,
	}
	actorID = strings.TrimSpace(actorID)
	if actorID != "" {
		policy.UpdatedBy = &actorID
	}

	if err := s.db.WithContext(ctx).
		Where("id = ?", models.PolicyRowID).
		Assign(map[string]any{"mode": mode, "updated_by": policy.UpdatedBy, "updated_at": s.now()}).
		FirstOrCreate(&policy).Error; err != nil {
		return nil, fmt.Errorf("policy service: set mode: %w", err)
	}

	s.log.Info("verification mode changed",
		zap.String("mode", mode),
		zap.String("updated_by", actorID),
	)

	return s.Get(ctx)
}

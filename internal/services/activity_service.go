package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/logger"
)

// Marketplace activity actions.
const (
	ActionListingSubmitted = "listing.submitted"
	ActionListingApproved  = "listing.approved"
	ActionListingRejected  = "listing.rejected"
	ActionContactDisclosed = "contact.disclosed"
	ActionVerificationMode = "verification.mode_changed"
	ActionUserLogin        = "user.login"
	ActionUserRegistered   = "user.registered"
)

// Activity result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ActivityEntry captures one recordable marketplace event.
type ActivityEntry struct {
	UserID   string
	Username string
	Action   string
	Resource string
	Result   string
	Metadata map[string]any
}

// ListActivityInput defines filters for the activity feed.
type ListActivityInput struct {
	UserID   string
	Action   string
	Page     int
	PageSize int
}

// ActivityService persists the marketplace audit trail. Recording failures are
// logged but never propagated; audit writes must not break the calling flow.
type ActivityService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewActivityService constructs an ActivityService.
func NewActivityService(db *gorm.DB) (*ActivityService, error) {
	if db == nil {
		return nil, errors.New("activity service: db is required")
	}
	return &ActivityService{
		db:  db,
		log: logger.WithModule("activity"),
	}, nil
}

// Record persists one activity entry.
func (s *ActivityService) Record(ctx context.Context, entry ActivityEntry) {
	ctx = ensureContext(ctx)

	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return
	}

	row := models.ActivityLog{
		Username: strings.TrimSpace(entry.Username),
		Action:   action,
		Resource: strings.TrimSpace(entry.Resource),
		Result:   defaultIfEmpty(strings.TrimSpace(entry.Result), ResultSuccess),
	}
	if userID := strings.TrimSpace(entry.UserID); userID != "" {
		row.UserID = &userID
	}
	if entry.Metadata != nil {
		if data, err := json.Marshal(entry.Metadata); err == nil {
			row.Metadata = string(data)
		}
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Warn("failed to record activity",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// List returns one page of activity entries, newest first, plus a hasMore flag.
func (s *ActivityService) List(ctx context.Context, input ListActivityInput) ([]models.ActivityLog, bool, error) {
	ctx = ensureContext(ctx)

	page, pageSize := normalisePage(input.Page, input.PageSize)

	query := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if userID := strings.TrimSpace(input.UserID); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if action := strings.TrimSpace(input.Action); action != "" {
		query = query.Where("action = ?", action)
	}

	var rows []models.ActivityLog
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize + 1).
		Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("activity service: list entries: %w", err)
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	return rows, hasMore, nil
}

// CleanupOlderThan removes activity entries older than the retention window
// and reports how many rows were deleted.
func (s *ActivityService) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	ctx = ensureContext(ctx)

	if retention <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().Add(-retention)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("activity service: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}

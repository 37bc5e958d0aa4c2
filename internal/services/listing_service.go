package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
)

// CreateListingInput defines the attributes accepted when an agent submits a
// property. Subtype-specific attributes travel in Details.
type CreateListingInput struct {
	Type        string         `json:"type" validate:"required,oneof=land house rental"`
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description"`
	Price       float64        `json:"price" validate:"gte=0"`
	City        string         `json:"city" validate:"required,max=128"`
	District    string         `json:"district" validate:"max=128"`
	AreaSqFt    float64        `json:"area_sq_ft" validate:"gte=0"`
	Details     map[string]any `json:"details"`

	SurveyNumber string `json:"survey_number" validate:"max=64"`

	OwnerName  string `json:"owner_name" validate:"required,max=128"`
	OwnerPhone string `json:"owner_phone" validate:"required,max=32"`
	OwnerEmail string `json:"owner_email" validate:"omitempty,email"`
}

// ListListingsInput defines filters for the public catalogue.
type ListListingsInput struct {
	Type     string
	City     string
	MaxPrice float64
	Page     int
	PageSize int
}

// ListingService manages property records. Submission hands the new listing to
// the verification flow; the public catalogue only ever exposes verified rows.
type ListingService struct {
	db           *gorm.DB
	verification *VerificationService
	activity     *ActivityService
}

// NewListingService constructs a ListingService.
func NewListingService(db *gorm.DB, verification *VerificationService, activity *ActivityService) (*ListingService, error) {
	if db == nil {
		return nil, errors.New("listing service: db is required")
	}
	if verification == nil {
		return nil, errors.New("listing service: verification service is required")
	}
	return &ListingService{
		db:           db,
		verification: verification,
		activity:     activity,
	}, nil
}

// Create persists a new listing in the pending state and routes it through the
// verification flow.
func (s *ListingService) Create(ctx context.Context, agentID string, input CreateListingInput) (*models.Listing, error) {
	ctx = ensureContext(ctx)

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	listingType := strings.ToLower(strings.TrimSpace(input.Type))
	switch listingType {
	case models.ListingTypeLand, models.ListingTypeHouse, models.ListingTypeRental:
	default:
		return nil, apperrors.NewBadRequest("type must be land, house or rental")
	}

	listing := models.Listing{
		AgentID:            agentID,
		Type:               listingType,
		Title:              strings.TrimSpace(input.Title),
		Description:        strings.TrimSpace(input.Description),
		Price:              input.Price,
		City:               strings.TrimSpace(input.City),
		District:           strings.TrimSpace(input.District),
		AreaSqFt:           input.AreaSqFt,
		SurveyNumber:       strings.TrimSpace(input.SurveyNumber),
		OwnerName:          strings.TrimSpace(input.OwnerName),
		OwnerPhone:         strings.TrimSpace(input.OwnerPhone),
		OwnerEmail:         strings.TrimSpace(input.OwnerEmail),
		VerificationStatus: models.StatusPendingVerification,
	}

	if input.Details != nil {
		data, err := json.Marshal(input.Details)
		if err != nil {
			return nil, fmt.Errorf("listing service: marshal details: %w", err)
		}
		listing.Details = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&listing).Error; err != nil {
		return nil, fmt.Errorf("listing service: create listing: %w", err)
	}

	if s.activity != nil {
		s.activity.Record(ctx, ActivityEntry{
			UserID:   agentID,
			Action:   ActionListingSubmitted,
			Resource: "listing:" + listing.ID,
			Result:   ResultSuccess,
			Metadata: map[string]any{"type": listingType, "city": listing.City},
		})
	}

	if err := s.verification.ProcessSubmission(ctx, &listing); err != nil {
		return nil, err
	}

	return &listing, nil
}

// Get loads a listing by id.
func (s *ListingService) Get(ctx context.Context, listingID string) (*models.Listing, error) {
	ctx = ensureContext(ctx)

	var listing models.Listing
	err := s.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(listingID)).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrListingNotFound
		}
		return nil, fmt.Errorf("listing service: load listing: %w", err)
	}
	return &listing, nil
}

// GetVerified loads a listing for public consumption. Pending and rejected
// records are indistinguishable from absent ones.
func (s *ListingService) GetVerified(ctx context.Context, listingID string) (*models.Listing, error) {
	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.VerificationStatus != models.StatusVerified {
		return nil, apperrors.ErrListingNotFound
	}
	return listing, nil
}

// List returns one page of the verified public catalogue, newest first, plus a
// hasMore flag.
func (s *ListingService) List(ctx context.Context, input ListListingsInput) ([]models.Listing, bool, error) {
	ctx = ensureContext(ctx)

	page, pageSize := normalisePage(input.Page, input.PageSize)

	query := s.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("verification_status = ?", models.StatusVerified)
	if listingType := strings.ToLower(strings.TrimSpace(input.Type)); listingType != "" {
		query = query.Where("type = ?", listingType)
	}
	if city := strings.TrimSpace(input.City); city != "" {
		query = query.Where("city = ?", city)
	}
	if input.MaxPrice > 0 {
		query = query.Where("price <= ?", input.MaxPrice)
	}

	var rows []models.Listing
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize + 1).
		Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("listing service: list listings: %w", err)
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	return rows, hasMore, nil
}

// ListByAgent returns an agent's own submissions regardless of status.
func (s *ListingService) ListByAgent(ctx context.Context, agentID string, page, pageSize int) ([]models.Listing, bool, error) {
	ctx = ensureContext(ctx)

	page, pageSize = normalisePage(page, pageSize)

	var rows []models.Listing
	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", strings.TrimSpace(agentID)).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize + 1).
		Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("listing service: list agent listings: %w", err)
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	return rows, hasMore, nil
}

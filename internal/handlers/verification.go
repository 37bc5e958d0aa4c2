package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/middleware"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/response"
)

// VerificationHandler serves the admin review queue and the policy switch.
type VerificationHandler struct {
	verification *services.VerificationService
	policies     *services.PolicyService
	activity     *services.ActivityService
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(
	verification *services.VerificationService,
	policies *services.PolicyService,
	activity *services.ActivityService,
) *VerificationHandler {
	return &VerificationHandler{
		verification: verification,
		policies:     policies,
		activity:     activity,
	}
}

type setModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=manual auto"`
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=verified rejected"`
}

// GetMode reports the active verification mode.
func (h *VerificationHandler) GetMode(c *gin.Context) {
	mode, err := h.policies.Mode(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mode": mode})
}

// SetMode switches between manual and auto verification. The change only
// affects listings submitted after it takes effect.
func (h *VerificationHandler) SetMode(c *gin.Context) {
	var input setModeRequest
	if !bindAndValidate(c, &input) {
		return
	}

	policy, err := h.policies.SetMode(c.Request.Context(), input.Mode, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.activity.Record(c.Request.Context(), services.ActivityEntry{
		UserID:   middleware.UserID(c),
		Action:   services.ActionVerificationMode,
		Resource: "policy:" + models.PolicyRowID,
		Metadata: map[string]any{"mode": policy.Mode},
	})

	response.Success(c, http.StatusOK, policy)
}

// Pending serves the admin review queue, oldest first.
func (h *VerificationHandler) Pending(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 25)

	items, hasMore, err := h.verification.ListPending(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Page:    page,
		PerPage: pageSize,
		HasMore: hasMore,
	})
}

// Decide applies an approve or reject decision to a pending listing.
func (h *VerificationHandler) Decide(c *gin.Context) {
	var input decisionRequest
	if !bindAndValidate(c, &input) {
		return
	}

	listingID := c.Param("id")
	reviewerID := middleware.UserID(c)

	var (
		listing *models.Listing
		err     error
	)
	switch input.Decision {
	case models.StatusVerified:
		listing, err = h.verification.Approve(c.Request.Context(), listingID, reviewerID)
	case models.StatusRejected:
		listing, err = h.verification.Reject(c.Request.Context(), listingID, reviewerID)
	default:
		err = apperrors.NewBadRequest("decision must be verified or rejected")
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"listing_id":          listing.ID,
		"verification_status": listing.VerificationStatus,
	})
}

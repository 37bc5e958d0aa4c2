package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/middleware"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/response"
)

// ListingHandler serves the property catalogue and agent submissions.
type ListingHandler struct {
	listings *services.ListingService

	// publicBaseURL is embedded in share QR codes.
	publicBaseURL string
}

// NewListingHandler constructs a ListingHandler.
func NewListingHandler(listings *services.ListingService, publicBaseURL string) *ListingHandler {
	return &ListingHandler{
		listings:      listings,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Create handles an agent submitting a new listing.
func (h *ListingHandler) Create(c *gin.Context) {
	var input services.CreateListingInput
	if !bindAndValidate(c, &input) {
		return
	}

	listing, err := h.listings.Create(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, listing)
}

// List serves the verified public catalogue.
func (h *ListingHandler) List(c *gin.Context) {
	input := services.ListListingsInput{
		Type:     c.Query("type"),
		City:     c.Query("city"),
		MaxPrice: parseFloatQuery(c, "max_price", 0),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 25),
	}

	items, hasMore, err := h.listings.List(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Page:    input.Page,
		PerPage: input.PageSize,
		HasMore: hasMore,
	})
}

// Get serves one listing. The public only sees verified listings; the owning
// agent and admins can fetch any status.
func (h *ListingHandler) Get(c *gin.Context) {
	listing, err := h.listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if listing.VerificationStatus != models.StatusVerified &&
		listing.AgentID != middleware.UserID(c) && !middleware.IsAdmin(c) {
		response.Error(c, apperrors.ErrListingNotFound)
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// Mine serves the calling agent's own submissions regardless of status.
func (h *ListingHandler) Mine(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 25)

	items, hasMore, err := h.listings.ListByAgent(c.Request.Context(), middleware.UserID(c), page, pageSize)
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

// ShareQR renders a PNG QR code pointing at the public listing page. Only
// verified listings are shareable.
func (h *ListingHandler) ShareQR(c *gin.Context) {
	listing, err := h.listings.GetVerified(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	url := fmt.Sprintf("%s/listings/%s", h.publicBaseURL, listing.ID)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/middleware"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/response"
)

// DisclosureHandler serves the owner-contact disclosure flow.
type DisclosureHandler struct {
	disclosure *services.DisclosureService
}

// NewDisclosureHandler constructs a DisclosureHandler.
func NewDisclosureHandler(disclosure *services.DisclosureService) *DisclosureHandler {
	return &DisclosureHandler{disclosure: disclosure}
}

type requestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// RequestCode issues a disclosure challenge for the listing and emails the code.
func (h *DisclosureHandler) RequestCode(c *gin.Context) {
	var input requestCodeRequest
	if !bindAndValidate(c, &input) {
		return
	}

	info, err := h.disclosure.RequestCode(c.Request.Context(), input.Email, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := gin.H{"sent": true, "expires_at": info.ExpiresAt}
	if info.Code != "" {
		payload["code"] = info.Code
	}
	response.Success(c, http.StatusAccepted, payload)
}

// VerifyCode checks a supplied code and releases the owner contact view.
func (h *DisclosureHandler) VerifyCode(c *gin.Context) {
	var input verifyCodeRequest
	if !bindAndValidate(c, &input) {
		return
	}

	contact, err := h.disclosure.VerifyCode(
		c.Request.Context(),
		input.Email,
		c.Param("id"),
		input.OTP,
		middleware.UserID(c),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, contact)
}

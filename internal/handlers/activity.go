package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/middleware"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/response"
)

// ActivityHandler serves the audit trail. Admins see everything; other callers
// only their own entries.
type ActivityHandler struct {
	activity *services.ActivityService
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(activity *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// List serves one page of activity entries.
func (h *ActivityHandler) List(c *gin.Context) {
	input := services.ListActivityInput{
		Action:   c.Query("action"),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 25),
	}
	if middleware.IsAdmin(c) {
		input.UserID = c.Query("user_id")
	} else {
		input.UserID = middleware.UserID(c)
	}

	items, hasMore, err := h.activity.List(c.Request.Context(), input)
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

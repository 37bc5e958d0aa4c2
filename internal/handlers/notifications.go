package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/middleware"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/realtime"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/response"
)

// NotificationHandler serves the notification inbox. The audience is derived
// from the caller: users see their own records, admins may additionally query
// the admin broadcast channel with ?audience=admins.
type NotificationHandler struct {
	notifications *services.NotificationService
	hub           *realtime.Hub
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(notifications *services.NotificationService, hub *realtime.Hub) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, hub: hub}
}

func (h *NotificationHandler) audience(c *gin.Context) services.Audience {
	if middleware.IsAdmin(c) && c.Query("audience") == "admins" {
		return services.AdminAudience()
	}
	return services.UserAudience(middleware.UserID(c))
}

// List serves one page of the caller's notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	input := services.ListNotificationsInput{
		Audience: h.audience(c),
		Filter:   c.Query("status"),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "limit", 25),
	}

	items, hasMore, err := h.notifications.List(c.Request.Context(), input)
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

// UnreadCount serves the caller's unread badge count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.Request.Context(), h.audience(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread": count})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	dto, err := h.notifications.MarkRead(c.Request.Context(), h.audience(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// MarkAllRead marks every unread notification for the caller as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context(), h.audience(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// Archive hides one notification from the default inbox.
func (h *NotificationHandler) Archive(c *gin.Context) {
	dto, err := h.notifications.Archive(c.Request.Context(), h.audience(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// Delete removes one notification.
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.notifications.Delete(c.Request.Context(), h.audience(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// Stream upgrades the connection to a WebSocket feed of notification events.
func (h *NotificationHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		c.Status(http.StatusNotImplemented)
		return
	}
	h.hub.Serve(middleware.UserID(c), middleware.IsAdmin(c), c.Writer, c.Request)
}

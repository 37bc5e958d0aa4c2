package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/realtime"
	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/metrics"
)

// Audience identifies the recipient scope of notification operations: either
// one specific user or the admin broadcast channel.
type Audience struct {
	UserID string
	Admins bool
}

// UserAudience scopes operations to a single user's notifications.
func UserAudience(userID string) Audience {
	return Audience{UserID: strings.TrimSpace(userID)}
}

// AdminAudience scopes operations to the admin broadcast channel.
func AdminAudience() Audience {
	return Audience{Admins: true}
}

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID        string         `json:"id"`
	Audience  string         `json:"audience"`
	UserID    string         `json:"user_id,omitempty"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	Audience Audience
	Type     string
	Title    string
	Message  string
	Metadata map[string]any
}

// ListNotificationsInput defines filters for querying notifications.
type ListNotificationsInput struct {
	Audience Audience
	Filter   string // all | unread | read
	Page     int
	PageSize int
}

// NotificationService persists notification records emitted by the
// verification and disclosure flows and serves the notification inbox.
type NotificationService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, hub *realtime.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, hub: hub}, nil
}

// EmitVerificationEvent records the outcome of a listing review for the
// submitting agent.
func (s *NotificationService) EmitVerificationEvent(ctx context.Context, listing *models.Listing, newStatus string) error {
	if listing == nil {
		return errors.New("notification service: listing is required")
	}

	title := "Listing verified"
	message := fmt.Sprintf("Your listing %q has been verified and is now public.", listing.Title)
	if newStatus == models.StatusRejected {
		title = "Listing rejected"
		message = fmt.Sprintf("Your listing %q was rejected during review.", listing.Title)
	}

	_, err := s.Create(ctx, CreateNotificationInput{
		Audience: UserAudience(listing.AgentID),
		Type:     models.TypeVerificationResult,
		Title:    title,
		Message:  message,
		Metadata: map[string]any{
			"listing_id":    listing.ID,
			"listing_title": listing.Title,
			"status":        newStatus,
		},
	})
	return err
}

// EmitDisclosureEvent records a successful owner-contact disclosure on the
// admin broadcast channel.
func (s *NotificationService) EmitDisclosureEvent(ctx context.Context, listing *models.Listing, viewerID string) error {
	if listing == nil {
		return errors.New("notification service: listing is required")
	}

	_, err := s.Create(ctx, CreateNotificationInput{
		Audience: AdminAudience(),
		Type:     models.TypeContactDisclosure,
		Title:    "Owner contact disclosed",
		Message:  fmt.Sprintf("Owner contact for listing %q was disclosed.", listing.Title),
		Metadata: map[string]any{
			"listing_id": listing.ID,
			"viewer_id":  viewerID,
		},
	})
	return err
}

// Create registers a new notification and broadcasts it to live subscribers.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, errors.New("notification service: type is required")
	}
	if !input.Audience.Admins && input.Audience.UserID == "" {
		return nil, errors.New("notification service: audience is required")
	}

	notification := models.Notification{
		Audience: models.AudienceUser,
		Type:     notificationType,
		Title:    strings.TrimSpace(input.Title),
		Message:  strings.TrimSpace(input.Message),
		Status:   models.NotificationUnread,
	}
	if input.Audience.Admins {
		notification.Audience = models.AudienceAdmins
	} else {
		userID := input.Audience.UserID
		notification.UserID = &userID
	}

	if input.Metadata != nil {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	metrics.NotificationEvents.WithLabelValues(notificationType).Inc()

	dto := mapNotification(notification)
	s.broadcast(input.Audience, "notification.created", &dto)
	return &dto, nil
}

// List returns one page of notifications for the audience, newest first, plus
// a hasMore flag. Archived records are excluded unless explicitly requested.
func (s *NotificationService) List(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, bool, error) {
	ctx = ensureContext(ctx)

	page, pageSize := normalisePage(input.Page, input.PageSize)

	query := s.scope(ctx, input.Audience)
	switch strings.ToLower(strings.TrimSpace(input.Filter)) {
	case "", "all":
		query = query.Where("status <> ?", models.NotificationArchived)
	case "unread":
		query = query.Where("status = ?", models.NotificationUnread)
	case "read":
		query = query.Where("status = ?", models.NotificationRead)
	case "archived":
		query = query.Where("status = ?", models.NotificationArchived)
	default:
		return nil, false, apperrors.NewBadRequest("status filter must be all, unread, read or archived")
	}

	var rows []models.Notification
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize + 1).
		Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("notification service: list notifications: %w", err)
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, hasMore, nil
}

// UnreadCount reports the number of unread records for the audience. Derived
// from the records themselves so it can never drift negative.
func (s *NotificationService) UnreadCount(ctx context.Context, audience Audience) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.scope(ctx, audience).
		Where("status = ?", models.NotificationUnread).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

// MarkRead transitions an unread notification to read. Already-read records
// are returned unchanged.
func (s *NotificationService) MarkRead(ctx context.Context, audience Audience, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	notification, err := s.load(ctx, audience, notificationID)
	if err != nil {
		return nil, err
	}

	if notification.Status == models.NotificationUnread {
		now := time.Now().UTC()
		if err := s.db.WithContext(ctx).Model(notification).
			Updates(map[string]any{
				"status":  models.NotificationRead,
				"read_at": now,
			}).Error; err != nil {
			return nil, fmt.Errorf("notification service: mark read: %w", err)
		}
		notification.Status = models.NotificationRead
		notification.ReadAt = &now
	}

	dto := mapNotification(*notification)
	s.broadcast(audience, "notification.read", &dto)
	return &dto, nil
}

// MarkAllRead marks every unread record for the audience as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, audience Audience) error {
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	if err := s.scope(ctx, audience).
		Where("status = ?", models.NotificationUnread).
		Updates(map[string]any{
			"status":  models.NotificationRead,
			"read_at": now,
		}).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}

	s.broadcast(audience, "notification.read_all", nil)
	return nil
}

// Archive hides a notification from default listings without deleting it.
func (s *NotificationService) Archive(ctx context.Context, audience Audience, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	notification, err := s.load(ctx, audience, notificationID)
	if err != nil {
		return nil, err
	}

	if notification.Status != models.NotificationArchived {
		if err := s.db.WithContext(ctx).Model(notification).
			Update("status", models.NotificationArchived).Error; err != nil {
			return nil, fmt.Errorf("notification service: archive: %w", err)
		}
		notification.Status = models.NotificationArchived
	}

	dto := mapNotification(*notification)
	return &dto, nil
}

// Delete removes a notification owned by the audience.
func (s *NotificationService) Delete(ctx context.Context, audience Audience, notificationID string) error {
	ctx = ensureContext(ctx)

	result := s.scope(ctx, audience).
		Where("id = ?", notificationID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	s.broadcast(audience, "notification.deleted", &NotificationDTO{ID: notificationID})
	return nil
}

func (s *NotificationService) scope(ctx context.Context, audience Audience) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Notification{})
	if audience.Admins {
		return query.Where("audience = ?", models.AudienceAdmins)
	}
	return query.Where("audience = ? AND user_id = ?", models.AudienceUser, audience.UserID)
}

func (s *NotificationService) load(ctx context.Context, audience Audience, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	if err := s.scope(ctx, audience).
		Where("id = ?", strings.TrimSpace(notificationID)).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}
	return &notification, nil
}

func (s *NotificationService) broadcast(audience Audience, event string, dto *NotificationDTO) {
	if s.hub == nil {
		return
	}

	payload := realtime.Event{Event: event}
	if dto != nil {
		payload.Notification = dto
		payload.NotificationID = dto.ID
	}

	if audience.Admins {
		s.hub.BroadcastToAdmins(payload)
		return
	}
	s.hub.BroadcastToUser(audience.UserID, payload)
}

func mapNotification(row models.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:        row.ID,
		Audience:  row.Audience,
		Type:      row.Type,
		Title:     row.Title,
		Message:   row.Message,
		Metadata:  decodeJSON(row.Metadata),
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		ReadAt:    row.ReadAt,
	}
	if row.UserID != nil {
		dto.UserID = *row.UserID
	}
	return dto
}

func decodeJSON(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

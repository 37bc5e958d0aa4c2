package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification audiences. A record is addressed either to one user or to all
// admins.
const (
	AudienceUser   = "user"
	AudienceAdmins = "admins"
)

// Notification statuses. Archived records are hidden from default listings but
// never deleted automatically.
const (
	NotificationUnread   = "unread"
	NotificationRead     = "read"
	NotificationArchived = "archived"
)

// Notification types emitted by the verification and disclosure flows.
const (
	TypeVerificationResult = "listing.verification"
	TypeContactDisclosure  = "listing.disclosure"
)

// Notification represents a durable in-app notification record.
type Notification struct {
	BaseModel

	// UserID is set for user-addressed records and empty for admin broadcasts.
	UserID   *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Audience string  `gorm:"type:varchar(16);not null;default:'user';index" json:"audience"`

	Type     string         `gorm:"type:varchar(64);not null" json:"type"`
	Title    string         `gorm:"type:varchar(255);not null" json:"title"`
	Message  string         `gorm:"type:text" json:"message"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	Status string     `gorm:"type:varchar(16);not null;default:'unread';index" json:"status"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}

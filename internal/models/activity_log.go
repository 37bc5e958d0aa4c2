package models

// ActivityLog records marketplace events (submissions, review decisions,
// contact disclosures) for audit and per-user activity feeds.
type ActivityLog struct {
	BaseModel

	UserID   *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User     *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Username string  `gorm:"type:varchar(128)" json:"username"`

	Action   string `gorm:"type:varchar(64);not null;index" json:"action"`
	Resource string `gorm:"type:varchar(128);index" json:"resource"`
	Result   string `gorm:"type:varchar(32);not null" json:"result"`
	Metadata string `gorm:"type:text" json:"metadata,omitempty"`
}

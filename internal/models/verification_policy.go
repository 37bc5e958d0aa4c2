package models

import "time"

// Verification modes. Manual queues every submission for human review; auto
// consults the external survey check at submission time.
const (
	ModeManual = "manual"
	ModeAuto   = "auto"
)

// PolicyRowID is the fixed primary key of the singleton policy row.
const PolicyRowID = "verification_policy"

// VerificationPolicy is the process-wide manual/auto verification switch.
// Exactly one row exists; mode changes never re-evaluate listings submitted
// before the change.
type VerificationPolicy struct {
	ID        string    `gorm:"primaryKey" json:"-"`
	Mode      string    `gorm:"type:varchar(16);not null;default:'manual'" json:"mode"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid" json:"updated_by,omitempty"`
}

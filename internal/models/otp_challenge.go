package models

import "time"

// OTPChallenge is a short-lived, single-use numeric code bound to an
// (email, listing) pair, used to prove control of an email address before
// owner contact disclosure. At most one live challenge exists per pair;
// creating a new one replaces the old.
type OTPChallenge struct {
	BaseModel

	Email     string `gorm:"type:varchar(255);not null;uniqueIndex:idx_challenge_key" json:"email"`
	ListingID string `gorm:"type:uuid;not null;uniqueIndex:idx_challenge_key" json:"listing_id"`

	Code       string     `gorm:"type:varchar(6);not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	Attempts   int        `gorm:"default:0" json:"attempts"`
	ConsumedAt *time.Time `json:"consumed_at"`
}

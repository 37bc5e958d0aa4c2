package models

import (
	"time"

	"gorm.io/datatypes"
)

// Listing verification states. pending_verification is the initial state;
// verified and rejected are terminal for the review cycle modelled here.
const (
	StatusPendingVerification = "pending_verification"
	StatusVerified            = "verified"
	StatusRejected            = "rejected"
)

// Listing subtypes. Subtype-specific attributes live in the Details JSON
// column; verification and disclosure only ever touch the common fields.
const (
	ListingTypeLand   = "land"
	ListingTypeHouse  = "house"
	ListingTypeRental = "rental"
)

// Listing represents a property record subject to trust verification.
type Listing struct {
	BaseModel

	AgentID string `gorm:"type:uuid;not null;index" json:"agent_id"`
	Agent   *User  `gorm:"foreignKey:AgentID" json:"-"`

	Type        string  `gorm:"type:varchar(16);not null;index" json:"type"`
	Title       string  `gorm:"type:varchar(255);not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `json:"price"`
	City        string  `gorm:"type:varchar(128);index" json:"city"`
	District    string  `gorm:"type:varchar(128)" json:"district"`
	AreaSqFt    float64 `json:"area_sq_ft"`

	// Subtype-specific attributes (facing for land, bedrooms for houses,
	// deposit for rentals, ...) keyed by the Type tag above.
	Details datatypes.JSON `json:"details,omitempty"`

	// SurveyNumber is the official land-registry identifier handed to the
	// external auto-verification collaborator.
	SurveyNumber string `gorm:"type:varchar(64)" json:"survey_number"`

	// Owner contact fields are never serialised with the listing; they are
	// released only through the contact-disclosure flow.
	OwnerName  string `gorm:"type:varchar(128)" json:"-"`
	OwnerPhone string `gorm:"type:varchar(32)" json:"-"`
	OwnerEmail string `gorm:"type:varchar(255)" json:"-"`

	VerificationStatus string     `gorm:"type:varchar(32);not null;default:'pending_verification';index" json:"verification_status"`
	AutoVerified       bool       `gorm:"default:false" json:"auto_verified"`
	ReviewedAt         *time.Time `json:"reviewed_at"`
	ReviewedBy         *string    `gorm:"type:uuid" json:"reviewed_by"`
}

// IsTerminal reports whether the listing has reached a terminal verification state.
func (l *Listing) IsTerminal() bool {
	return l.VerificationStatus == StatusVerified || l.VerificationStatus == StatusRejected
}

// OwnerContact is the minimal sanitized view released after a successful
// contact-disclosure verification.
type OwnerContact struct {
	ListingID  string `json:"listing_id"`
	OwnerName  string `json:"owner_name"`
	OwnerPhone string `json:"owner_phone"`
	OwnerEmail string `json:"owner_email,omitempty"`
}

// ContactView extracts the sanitized owner contact fields.
func (l *Listing) ContactView() OwnerContact {
	return OwnerContact{
		ListingID:  l.ID,
		OwnerName:  l.OwnerName,
		OwnerPhone: l.OwnerPhone,
		OwnerEmail: l.OwnerEmail,
	}
}

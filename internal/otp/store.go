package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
)

// Defaults for challenge lifetime and attempt budget. Both are configuration,
// not policy baked into callers; override via options.
const (
	DefaultTTL         = 10 * time.Minute
	DefaultMaxAttempts = 5

	codeDigits = 6
)

// Result classifies the outcome of verifying a supplied code.
type Result string

const (
	ResultOK        Result = "ok"
	ResultInvalid   Result = "invalid"
	ResultExpired   Result = "expired"
	ResultExhausted Result = "exhausted"
	ResultConsumed  Result = "consumed"
)

// Option customises the Store.
type Option func(*Store)

// WithTTL overrides the challenge lifetime.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMaxAttempts overrides the wrong-code budget per challenge.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock injects a custom time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// Store manages ephemeral one-time-code challenges keyed by (email, listing).
// Expiry is enforced lazily at verification time; PurgeExpired exists purely
// to reclaim storage.
type Store struct {
	db          *gorm.DB
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewStore constructs a challenge store with the provided dependencies.
func NewStore(db *gorm.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("otp store: db is required")
	}

	store := &Store{
		db:          db,
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// TTL exposes the configured challenge lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create issues a fresh challenge for the supplied key, replacing any prior
// challenge for the same (email, listing) pair so stale codes never remain
// valid after a resend.
func (s *Store) Create(ctx context.Context, email, listingID string) (*models.OTPChallenge, error) {
	email = normaliseEmail(email)
	if email == "" {
		return nil, errors.New("otp store: email is required")
	}
	if strings.TrimSpace(listingID) == "" {
		return nil, errors.New("otp store: listing id is required")
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("otp store: generate code: %w", err)
	}

	now := s.now()
	challenge := models.OTPChallenge{
		Email:     email,
		ListingID: listingID,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("email = ? AND listing_id = ?", email, listingID).
			Delete(&models.OTPChallenge{}).Error; err != nil {
			return fmt.Errorf("otp store: replace existing: %w", err)
		}
		if err := tx.Create(&challenge).Error; err != nil {
			return fmt.Errorf("otp store: create challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &challenge, nil
}

// Verify checks the supplied code against the live challenge for the key.
// The read-check-compare-consume sequence runs inside one transaction and
// consumption uses a conditional update, so two concurrent calls with the
// correct code can only produce one ResultOK; the loser observes ResultConsumed.
func (s *Store) Verify(ctx context.Context, email, listingID, suppliedCode string) (Result, error) {
	email = normaliseEmail(email)
	suppliedCode = strings.TrimSpace(suppliedCode)

	result := ResultInvalid
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var challenge models.OTPChallenge
		if err := tx.
			Where("email = ? AND listing_id = ?", email, listingID).
			First(&challenge).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = ResultInvalid
				return nil
			}
			return fmt.Errorf("otp store: load challenge: %w", err)
		}

		now := s.now()
		switch {
		case now.After(challenge.ExpiresAt):
			result = ResultExpired
			return nil
		case challenge.ConsumedAt != nil:
			result = ResultConsumed
			return nil
		case challenge.Attempts >= s.maxAttempts:
			result = ResultExhausted
			return nil
		}

		if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(suppliedCode)) != 1 {
			if err := tx.Model(&models.OTPChallenge{}).
				Where("id = ?", challenge.ID).
				UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
				return fmt.Errorf("otp store: record attempt: %w", err)
			}
			result = ResultInvalid
			return nil
		}

		consumed := tx.Model(&models.OTPChallenge{}).
			Where("id = ? AND consumed_at IS NULL", challenge.ID).
			Update("consumed_at", now)
		if consumed.Error != nil {
			return fmt.Errorf("otp store: consume challenge: %w", consumed.Error)
		}
		if consumed.RowsAffected == 0 {
			result = ResultConsumed
			return nil
		}

		result = ResultOK
		return nil
	})
	if err != nil {
		return ResultInvalid, err
	}

	return result, nil
}

// Discard drops the live challenge for the key, used to roll back a challenge
// whose code was never delivered.
func (s *Store) Discard(ctx context.Context, email, listingID string) error {
	return s.db.WithContext(ctx).
		Where("email = ? AND listing_id = ?", normaliseEmail(email), listingID).
		Delete(&models.OTPChallenge{}).Error
}

// PurgeExpired removes challenges that expired before now. Storage reclamation
// only; correctness never depends on this running.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR consumed_at IS NOT NULL", now).
		Delete(&models.OTPChallenge{})
	if result.Error != nil {
		return 0, fmt.Errorf("otp store: purge expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// generateCode draws a uniformly random 6-digit numeric code, keeping leading
// zeros so the result is always 6 characters.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

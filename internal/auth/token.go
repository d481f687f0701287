package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/course-auth-service/internal/domain"
)

// DefaultTokenTTL is the validity window of an issued token.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrInvalidToken wraps every decode failure: malformed, mis-signed or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret is returned when a codec is used without a signing secret.
	ErrEmptySecret = errors.New("signing secret is empty")
)

// Claims describes JWT payload. The profile fields are a snapshot taken at
// issuance and only change when a new token is issued.
type Claims struct {
	UserID    int64       `json:"user_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	jwt.RegisteredClaims
}

// ClaimsForUser snapshots u into claims valid from issuedAt for ttl. Every
// call gets a fresh jti, so two tokens are never byte-identical.
func ClaimsForUser(u *domain.User, issuedAt time.Time, ttl time.Duration) *Claims {
	iat := issuedAt.Truncate(time.Second)
	return &Claims{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
		},
	}
}

// Identity returns the authenticated identity echoed back to clients.
func (c *Claims) Identity() domain.PublicUser {
	return domain.PublicUser{
		ID:        c.UserID,
		Name:      c.Name,
		Email:     c.Email,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithTimeFunc overrides the clock used for issuance and expiration checks.
func WithTimeFunc(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	tm := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// TTL returns the validity window applied by Issue.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue snapshots the user into fresh claims and signs them.
func (tm *TokenManager) Issue(u *domain.User) (string, *Claims, error) {
	claims := ClaimsForUser(u, tm.now(), tm.ttl)
	token, err := tm.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Reissue is Issue for an already-held token. iat has second precision, so
// issuance is moved to at least one second after prev's iat.
func (tm *TokenManager) Reissue(u *domain.User, prev *Claims) (string, *Claims, error) {
	issuedAt := tm.now()
	if prev != nil && prev.IssuedAt != nil {
		if floor := prev.IssuedAt.Time.Add(time.Second); issuedAt.Before(floor) {
			issuedAt = floor
		}
	}
	claims := ClaimsForUser(u, issuedAt, tm.ttl)
	token, err := tm.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Encode signs claims with the manager's secret.
func (tm *TokenManager) Encode(claims *Claims) (string, error) {
	return EncodeClaims(claims, tm.secret)
}

// Decode validates tokenStr and returns its claims.
func (tm *TokenManager) Decode(tokenStr string) (*Claims, error) {
	return decode(tokenStr, tm.secret, tm.now)
}

// EncodeClaims signs claims with HS256.
func EncodeClaims(claims *Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// DecodeClaims validates tokenStr against secret using the wall clock.
func DecodeClaims(tokenStr string, secret []byte) (*Claims, error) {
	return decode(tokenStr, secret, time.Now)
}

func decode(tokenStr string, secret []byte, now func() time.Time) (*Claims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrEmptySecret)
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

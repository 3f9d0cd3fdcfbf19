package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/clinic-api/internal/model"
)

// ErrMissingSecret is returned when a token is issued or verified without a
// configured signing secret.
var ErrMissingSecret = errors.New("jwt signing secret not configured")

// ErrInvalidToken covers malformed, expired and badly signed tokens.  The
// underlying parser error is wrapped for logging.
var ErrInvalidToken = errors.New("invalid token")

// DefaultAccessTTL is the lifetime of an access token when no TTL is given.
const DefaultAccessTTL = time.Hour

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Identity is the verified content of an access token.
type Identity struct {
	UserID string
	Role   model.Role
}

// Claims is the payload carried by access tokens.  userId and role match
// what the web client decodes; sub mirrors userId for standard tooling.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a TokenService.  A zero ttl falls back to
// DefaultAccessTTL.  An empty secret is accepted here and reported by
// Issue/Verify so that misconfiguration surfaces as ErrMissingSecret.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue builds and signs a token for the user.  The token expires after the
// service TTL.
func (s *TokenService) Issue(userID string, role model.Role) (AccessToken, error) {
	if len(s.secret) == 0 {
		return AccessToken{}, ErrMissingSecret
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		UserID: userID,
		Role:   string(model.NormalizeRole(string(role))),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify parses raw and returns the identity it carries.  Any parse or
// validation failure is reported as ErrInvalidToken.
func (s *TokenService) Verify(raw string) (Identity, error) {
	if len(s.secret) == 0 {
		return Identity{}, ErrMissingSecret
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrInvalidToken
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject anything not signed with HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	role := model.NormalizeRole(claims.Role)
	if userID == "" || !role.Valid() {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: userID, Role: role}, nil
}

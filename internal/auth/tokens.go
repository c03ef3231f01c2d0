package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens.
// A refresh token presented where an access token is expected (or the
// reverse) is rejected as invalid.
type TokenType string

const (
	// TokenAccess is the short-lived credential authorising a request's identity.
	TokenAccess TokenType = "access"

	// TokenRefresh is the longer-lived credential used solely to mint a new pair.
	TokenRefresh TokenType = "refresh"
)

// Claims extends JWT standard claims with the Roomcall token type marker.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// TokenPair holds a freshly issued access + refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer mints and verifies the JWT pair. The signing secret and
// TTLs are passed in at construction — there is no package-level signing
// state.
//
// Both tokens are validated by signature and expiry only (no DB hit,
// no revocation list).
type TokenIssuer struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a token issuer with the given signing secret and
// TTLs in minutes. Non-positive TTLs fall back to 15 minutes (access) and
// 24 hours (refresh).
func NewTokenIssuer(secret string, accessTTLMinutes, refreshTTLMinutes int) *TokenIssuer {
	if accessTTLMinutes <= 0 {
		accessTTLMinutes = 15 //nolint:mnd // default 15-minute access token TTL
	}
	if refreshTTLMinutes <= 0 {
		refreshTTLMinutes = 1440 //nolint:mnd // default 24-hour refresh token TTL
	}
	return &TokenIssuer{
		secret:     secret,
		accessTTL:  time.Duration(accessTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshTTLMinutes) * time.Minute,
	}
}

// GeneratePair issues a fresh access + refresh token pair for a user.
// Both tokens embed the user's ID as the JWT subject.
func (ti *TokenIssuer) GeneratePair(userID string) (TokenPair, error) {
	access, err := ti.generate(userID, TokenAccess, ti.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := ti.generate(userID, TokenRefresh, ti.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// generate creates a single signed HS256 token.
func (ti *TokenIssuer) generate(userID string, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		TokenType: typ,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(ti.secret))
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims.
//
// Error contract:
//   - expired but otherwise validly signed token → ErrTokenExpired
//   - bad signature, malformed token, missing subject, wrong token type → ErrTokenInvalid
//
// Callers rely on this distinction: the transparent-refresh path only
// triggers on ErrTokenExpired.
func (ti *TokenIssuer) Parse(tokenString string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(ti.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: token type %q where %q expected", ErrTokenInvalid, claims.TokenType, want)
	}

	return claims, nil
}

// Refresh mints a new token pair from a valid refresh token.
// Expired or otherwise unusable refresh tokens fail; there is no grace.
func (ti *TokenIssuer) Refresh(refreshToken string) (TokenPair, *Claims, error) {
	claims, err := ti.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return TokenPair{}, nil, err
	}

	pair, err := ti.GeneratePair(claims.Subject)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, claims, nil
}

// AccessTTL returns the configured access token lifetime.
func (ti *TokenIssuer) AccessTTL() time.Duration { return ti.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (ti *TokenIssuer) RefreshTTL() time.Duration { return ti.refreshTTL }

package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/homewatch/homewatch-go/internal/errors"
)

// Token kinds embedded in the claims so a refresh token can never be used
// where an access token is required.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims are the JWT claims issued by this service.
type Claims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the service's JWTs.
type TokenManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenManager creates a manager with the given signing secret and
// token lifetimes.
func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.Newf("JWT secret must not be empty").
			Component("security").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if accessExpiry <= 0 {
		accessExpiry = 15 * time.Minute
	}
	if refreshExpiry <= 0 {
		refreshExpiry = 30 * 24 * time.Hour
	}
	return &TokenManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}, nil
}

// IssueAccessToken signs a short-lived access token for the user.
func (tm *TokenManager) IssueAccessToken(userID uint) (string, error) {
	return tm.issue(userID, TokenAccess, tm.accessExpiry)
}

// IssueRefreshToken signs a long-lived refresh token for the user.
func (tm *TokenManager) IssueRefreshToken(userID uint) (string, error) {
	return tm.issue(userID, TokenRefresh, tm.refreshExpiry)
}

func (tm *TokenManager) issue(userID uint, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", errors.New(err).
			Component("security").
			Category(errors.CategoryAuth).
			Build()
	}
	return signed, nil
}

// Verify parses a token and checks its signature, expiry, and kind.
func (tm *TokenManager) Verify(tokenString, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method: %v", t.Header["alg"]).
				Component("security").
				Category(errors.CategoryAuth).
				Build()
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, errors.New(err).
			Component("security").
			Category(errors.CategoryAuth).
			Build()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.Newf("invalid token").
			Component("security").
			Category(errors.CategoryAuth).
			Build()
	}
	if claims.TokenType != expectedType {
		return nil, errors.Newf("wrong token type: expected %s", expectedType).
			Component("security").
			Category(errors.CategoryAuth).
			Build()
	}
	return claims, nil
}

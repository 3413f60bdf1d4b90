package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
)

const (
	sessionTokenTTL       = 24 * time.Hour
	impersonationTokenTTL = 20 * time.Minute

	tokenIssuer = "lockmoney"
)

// Claims is the JWT payload for both session and impersonation tokens.
// AppID is set only on impersonation tokens and flows through to the
// ledger as delegation provenance.
type Claims struct {
	UserID int64    `json:"user_id"`
	Scopes []string `json:"scopes"`
	AppID  *int64   `json:"app_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses bearer tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// IssueSession mints a full-access token for a user who logged in
// directly with phone + password.
func (t *TokenIssuer) IssueSession(userID int64) (string, error) {
	return t.sign(userID, AllScopes(), nil, sessionTokenTTL)
}

// IssueImpersonation mints a short-lived token for a trusted app acting
// on behalf of a user. The grant is fixed: transfer + read-own-accounts,
// nothing else.
func (t *TokenIssuer) IssueImpersonation(appID, userID int64) (string, error) {
	return t.sign(userID, Scopes(ScopeTransfer, ScopeReadOwnAccounts), &appID, impersonationTokenTTL)
}

func (t *TokenIssuer) sign(userID int64, grant ScopeGrant, appID *int64, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Scopes: grant.Encode(),
		AppID:  appID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the claims.
// Any failure maps to domain.ErrInvalidToken.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

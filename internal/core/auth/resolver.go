package auth

import (
	"context"
	"fmt"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/security"
)

// UserStore is the slice of storage the resolver needs.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
}

// TrustedAppStore looks up registered machine principals.
type TrustedAppStore interface {
	GetByID(ctx context.Context, id int64) (*domain.TrustedApp, error)
}

// Resolver turns presented credentials into authenticated principals.
type Resolver struct {
	Issuer *TokenIssuer
	Users  UserStore
	Apps   TrustedAppStore
}

func NewResolver(issuer *TokenIssuer, users UserStore, apps TrustedAppStore) *Resolver {
	return &Resolver{Issuer: issuer, Users: users, Apps: apps}
}

// Resolve verifies a bearer token and loads the user it names.
// Returns domain.ErrInvalidToken for any token-level failure and
// domain.ErrUnknownPrincipal when the user was deleted after issuance.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	claims, err := r.Issuer.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := r.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("load principal: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnknownPrincipal
	}

	return &Principal{
		User:            user,
		Grant:           DecodeScopes(claims.Scopes),
		DelegatingAppID: claims.AppID,
	}, nil
}

// ResolveTrustedApp authenticates a machine caller by app id + secret.
// Trusted apps never get a user Principal; they may only look up
// accounts and mint impersonation tokens.
func (r *Resolver) ResolveTrustedApp(ctx context.Context, appID int64, secret string) (*domain.TrustedApp, error) {
	app, err := r.Apps.GetByID(ctx, appID)
	if err != nil || app == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !security.CheckSecret(app.SecretKeyHash, secret) {
		return nil, domain.ErrInvalidCredentials
	}
	return app, nil
}

// Login verifies phone + password and issues a session token.
func (r *Resolver) Login(ctx context.Context, phone, password string) (string, error) {
	user, err := r.Users.GetByPhone(ctx, phone)
	if err != nil || user == nil {
		return "", domain.ErrInvalidCredentials
	}
	if !security.CheckSecret(user.PasswordHash, password) {
		return "", domain.ErrInvalidCredentials
	}
	return r.Issuer.IssueSession(user.ID)
}

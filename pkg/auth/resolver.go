package auth

import (
	"context"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// AuthContext is the result of a successful resolution: the open tenant
// store, the caller's identity, and the full user document so consumers
// never need a second lookup.
type AuthContext struct {
	Tenant domain.TenantStore
	Email  string
	Role   string
	User   *models.User
}

// TenantOpener opens a tenant store by database name, applying the
// single-tenant default when the name is empty.
type TenantOpener func(name string) domain.TenantStore

// RevocationChecker reports whether a token has been revoked.
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// Resolver is the single authorization choke point. Every protected
// operation routes through ResolveAuthenticatedUser rather than
// re-implementing token checks, so failure codes and tenant scoping stay
// consistent across the API.
type Resolver struct {
	secret     string
	openTenant TenantOpener
	revoked    RevocationChecker
}

// NewResolver creates an auth resolver. revoked may be nil when no
// revocation store is configured.
func NewResolver(secret string, openTenant TenantOpener, revoked RevocationChecker) *Resolver {
	return &Resolver{
		secret:     secret,
		openTenant: openTenant,
		revoked:    revoked,
	}
}

// ResolveAuthenticatedUser validates the session token and loads the caller.
//
// Failure ladder, in order: misconfigured server (500), missing token (401),
// failed verification including expiry and revocation (403), syntactically
// valid token without identity claims (400), unreachable store (503),
// account removed since the token was issued (404).
func (r *Resolver) ResolveAuthenticatedUser(ctx context.Context, token string) (*AuthContext, error) {
	if r.secret == "" || r.openTenant == nil {
		return nil, domain.NewInternalError(nil)
	}

	if token == "" {
		return nil, domain.NewUnauthorizedError("")
	}

	claims, err := ValidateJWT(token, r.secret)
	if err != nil {
		return nil, domain.NewForbiddenError("invalid or expired session")
	}

	if r.revoked != nil {
		revoked, err := r.revoked.IsBlacklisted(ctx, token)
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
		if revoked {
			return nil, domain.NewForbiddenError("session has been revoked")
		}
	}

	if claims.Email == "" || claims.Role == "" {
		return nil, domain.NewBadRequestError("token missing identity claims")
	}

	tenantStore := r.openTenant(claims.Tenant)

	user, err := tenantStore.Users().FindByEmail(ctx, claims.Email)
	if err != nil {
		// Repositories report unreachable stores as DatabaseUnavailable (503).
		return nil, err
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user")
	}

	return &AuthContext{
		Tenant: tenantStore,
		Email:  user.Email,
		Role:   user.Role,
		User:   user,
	}, nil
}

package tenant

import (
	"context"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/model"
	"chatflow-service/internal/repository"
	"chatflow-service/pkg/jwtutil"
)

// Resolver maps an authenticated subject to its enterprise. The enterprise is
// never taken from the token or the request; it is looked up from the
// subject's profile row on every call.
type Resolver struct {
	profiles *repository.ProfileRepository
}

func NewResolver(profiles *repository.ProfileRepository) *Resolver {
	return &Resolver{profiles: profiles}
}

// EnterpriseID resolves the tenant for one request. Entities without an
// enterprise relation resolve to the empty scope. A subject with no profile
// fails closed with an authentication error rather than an unscoped query.
func (r *Resolver) EnterpriseID(ctx context.Context, desc model.Descriptor, claims *jwtutil.UserClaims) (string, error) {
	if !desc.HasEnterprise {
		return "", nil
	}
	return r.RequireEnterpriseID(ctx, claims)
}

// RequireEnterpriseID resolves the caller's enterprise unconditionally, for
// endpoints that need the tenant even on entities without an enterprise
// relation
func (r *Resolver) RequireEnterpriseID(ctx context.Context, claims *jwtutil.UserClaims) (string, error) {
	if claims == nil || claims.Subject == "" {
		return "", apperr.Unauthorizedf("Invalid or expired token")
	}
	profile, err := r.profiles.FindWithEnterprise(ctx, claims.Subject)
	if err != nil {
		return "", apperr.Unauthorizedf("No profile found for the authenticated subject")
	}
	return profile.EnterpriseID, nil
}

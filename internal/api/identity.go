package api

import (
	"fmt"
	"net/http"

	"github.com/askdb/askdb/internal/auth"
)

// requireRole enforces role membership when an identity is present. Requests
// that never passed the auth middleware (auth disabled) are allowed through.
func requireRole(r *http.Request, role string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	if !identity.HasRole(role) {
		return fmt.Errorf("role %q is required", role)
	}
	return nil
}

// principalFromRequest names the caller for audit logging, or "" when auth is
// disabled.
func principalFromRequest(r *http.Request) string {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return ""
	}
	return identity.Principal
}

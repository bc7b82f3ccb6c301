package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/auth"
	"github.com/chris/skill-swap/pkg/mapping"
	"github.com/chris/skill-swap/pkg/models"
)

// Authenticate resolves the bearer token to a user ID and stores it in the
// request context. Requests without a valid token get a 401.
func Authenticate(verifier auth.Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				mapping.WriteError(w, apperr.New(apperr.ErrUnauthenticated, "missing bearer token"))
				return
			}

			userID, err := verifier.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				mapping.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// ActiveProfiles looks up a profile, failing with Forbidden for banned users.
type ActiveProfiles interface {
	RequireActive(ctx context.Context, userID string) (*models.User, error)
}

// RequireRole lets through only authenticated, unbanned users whose profile
// carries role.
func RequireRole(profiles ActiveProfiles, role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserID(r.Context())
			if !ok {
				mapping.WriteError(w, apperr.New(apperr.ErrUnauthenticated, "authentication required"))
				return
			}

			user, err := profiles.RequireActive(r.Context(), userID)
			if err != nil {
				mapping.WriteError(w, err)
				return
			}
			if user.Role != role {
				mapping.WriteError(w, apperr.New(apperr.ErrForbidden, "%s role required", role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"

	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/logger"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

// Authenticator resolves a session token into the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*viewer.Viewer, error)
}

// Session loads the viewer from a Bearer token when one is sent. Missing or
// invalid tokens leave the request anonymous; RequireViewer decides whether
// that is acceptable.
func Session(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			v, err := a.Authenticate(r.Context(), token)
			switch {
			case err == nil:
				ctx := viewer.WithViewer(r.Context(), v)
				l := logger.FromContext(ctx, nil).With("account", v.ID())
				next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, l)))
			case svcErr.Code(err) == codes.Unauthenticated:
				next.ServeHTTP(w, r)
			default:
				status, msg := svcErr.HTTPStatus(err)
				respondError(w, msg, status)
			}
		})
	}
}

// RequireViewer rejects anonymous requests with 401.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if viewer.FromContext(r.Context()) == nil {
			respondError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireProfile rejects callers who have not onboarded yet with 403.
func RequireProfile(next http.Handler) http.Handler {
	return RequireViewer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !viewer.FromContext(r.Context()).Onboarded() {
			respondError(w, "onboarding required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

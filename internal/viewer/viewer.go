// Package viewer carries the authenticated caller through a request.
package viewer

import (
	"context"

	"github.com/oggyb/elite-matchmaking/internal/auth"
	"github.com/oggyb/elite-matchmaking/internal/db"
)

// Gate decisions.
const (
	GateLogin      = "login"
	GateOnboarding = "onboarding"
	GateApp        = "app"
)

// Viewer is the caller of a request: the session, its account and, once
// onboarded, the profile.
type Viewer struct {
	Claims  *auth.Claims
	Account db.Account
	Profile *db.Profile
}

func (v *Viewer) ID() string { return v.Account.ID }

// Onboarded reports whether the caller has a profile.
func (v *Viewer) Onboarded() bool { return v != nil && v.Profile != nil }

// Gate decides where a caller belongs: no session → login, session without
// profile → onboarding, otherwise the app.
func Gate(v *Viewer) string {
	switch {
	case v == nil:
		return GateLogin
	case v.Profile == nil:
		return GateOnboarding
	default:
		return GateApp
	}
}

type ctxKey struct{}

func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}

// FromContext returns the viewer or nil for anonymous requests.
func FromContext(ctx context.Context) *Viewer {
	v, _ := ctx.Value(ctxKey{}).(*Viewer)
	return v
}

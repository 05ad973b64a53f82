package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/elite-matchmaking/internal/app"
	"github.com/oggyb/elite-matchmaking/internal/auth"
	"github.com/oggyb/elite-matchmaking/internal/db"
	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/realtime"
	"github.com/oggyb/elite-matchmaking/internal/repository"
	"github.com/oggyb/elite-matchmaking/internal/validation"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

// CallbackPath is where sign-in links land on the client.
const CallbackPath = "/auth/callback"

// Session is what a successful sign-in returns to the client.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Account   db.Account `json:"account"`
}

// Service implements passwordless sign-in and session lookup.
type Service struct {
	appCtx    *app.AppContext
	accounts  *repository.AccountRepository
	links     *repository.MagicLinkRepository
	profiles  *repository.ProfileRepository
	tokens    *auth.Tokens
	mailer    auth.Mailer
	notifier  *realtime.Notifier
	validator *validation.Validator
	now       func() time.Time
}

func NewService(appCtx *app.AppContext, mailer auth.Mailer, notifier *realtime.Notifier) *Service {
	cfg := appCtx.Config
	return &Service{
		appCtx:    appCtx,
		accounts:  repository.NewAccountRepository(appCtx.DB),
		links:     repository.NewMagicLinkRepository(appCtx.DB),
		profiles:  repository.NewProfileRepository(appCtx.DB),
		tokens:    auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.App.Name),
		mailer:    mailer,
		notifier:  notifier,
		validator: validation.New(),
		now:       time.Now,
	}
}

// RequestLink starts an email sign-in.
//
// Behavior:
//   - Creates the account on first use.
//   - Rate limited per email address.
//   - Stores a single-use link (only a bcrypt hash of its secret) and mails
//     <origin>/auth/callback?token=<id>.<secret>.
//   - redirectTo must be an allowed origin; anything else falls back to the default.
func (s *Service) RequestLink(ctx context.Context, email, redirectTo string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	s.appCtx.Logger.Debug("RequestLink called", "email", email)

	if err := s.validator.Var("email", email, "required,email"); err != nil {
		return err
	}

	cfg := s.appCtx.Config.Auth
	ok, err := s.appCtx.RedisCache.Allow(ctx, "magic-link:"+email, cfg.LinkRateLimit, cfg.LinkRateWindow)
	if err != nil {
		s.appCtx.Logger.Error("rate limiter failed", "err", err)
		return svcErr.Map(err)
	}
	if !ok {
		return svcErr.ResourceExhausted("too many sign-in requests, try again later")
	}

	acc, err := s.accounts.GetOrCreateByEmail(ctx, email)
	if err != nil {
		s.appCtx.Logger.Error("GetOrCreateByEmail failed", "err", err)
		return svcErr.Map(err)
	}

	secret, err := randomSecret()
	if err != nil {
		return svcErr.Map(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return svcErr.Map(err)
	}

	origin := s.resolveOrigin(redirectTo)
	link := &db.MagicLink{
		ID:         uuid.NewString(),
		AccountID:  acc.ID,
		SecretHash: string(hash),
		RedirectTo: origin,
		ExpiresAt:  s.now().Add(cfg.LinkTTL),
	}
	if err := s.links.Create(ctx, link); err != nil {
		s.appCtx.Logger.Error("failed to store magic link", "err", err)
		return svcErr.Map(err)
	}

	target := origin + CallbackPath + "?token=" + url.QueryEscape(link.ID+"."+secret)
	if err := s.mailer.SendMagicLink(ctx, email, target); err != nil {
		s.appCtx.Logger.Error("failed to send magic link", "err", err)
		return svcErr.Map(err)
	}
	return nil
}

// resolveOrigin reduces redirectTo to scheme://host and keeps it only if allowed.
func (s *Service) resolveOrigin(redirectTo string) string {
	cfg := s.appCtx.Config.Auth
	u, err := url.Parse(strings.TrimSpace(redirectTo))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return cfg.DefaultOrigin
	}
	origin := u.Scheme + "://" + u.Host
	if slices.Contains(cfg.AllowedOrigins, origin) {
		return origin
	}
	return cfg.DefaultOrigin
}

// Callback consumes a sign-in link and opens a session.
func (s *Service) Callback(ctx context.Context, token string) (*Session, error) {
	id, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || id == "" || secret == "" {
		return nil, svcErr.Unauthenticated("invalid or expired link")
	}

	link, err := s.links.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.Unauthenticated("invalid or expired link")
	} else if err != nil {
		return nil, svcErr.Map(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(link.SecretHash), []byte(secret)) != nil {
		return nil, svcErr.Unauthenticated("invalid or expired link")
	}

	now := s.now()
	consumed, err := s.links.Consume(ctx, link.ID, now)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !consumed {
		return nil, svcErr.Unauthenticated("invalid or expired link")
	}

	if err := s.accounts.TouchLogin(ctx, link.AccountID, now); err != nil {
		return nil, svcErr.Map(err)
	}
	acc, err := s.accounts.GetByID(ctx, link.AccountID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	signed, claims, err := s.tokens.Issue(acc.ID)
	if err != nil {
		s.appCtx.Logger.Error("failed to issue session", "err", err)
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("session opened", "account", acc.ID, "session", claims.SessionID())

	return &Session{Token: signed, ExpiresAt: claims.ExpiresAt.Time, Account: *acc}, nil
}

// Authenticate resolves a bearer token into a Viewer. The profile is loaded
// when present; a missing profile is not an error.
func (s *Service) Authenticate(ctx context.Context, token string) (*viewer.Viewer, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, svcErr.Unauthenticated("invalid session")
	}

	revoked, err := s.appCtx.RedisCache.IsRevoked(ctx, claims.SessionID())
	if err != nil {
		s.appCtx.Logger.Error("revocation lookup failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if revoked {
		return nil, svcErr.Unauthenticated("session ended")
	}

	acc, err := s.accounts.GetByID(ctx, claims.AccountID())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.Unauthenticated("invalid session")
	} else if err != nil {
		return nil, svcErr.Map(err)
	}

	v := &viewer.Viewer{Claims: claims, Account: *acc}
	p, err := s.profiles.GetByID(ctx, acc.ID)
	switch {
	case err == nil:
		v.Profile = p
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, svcErr.Map(err)
	}
	return v, nil
}

// SignOut revokes the caller's session and tells its listeners.
func (s *Service) SignOut(ctx context.Context, v *viewer.Viewer) error {
	if v == nil || v.Claims == nil {
		return svcErr.Unauthenticated("no session")
	}
	if err := s.appCtx.RedisCache.RevokeSession(ctx, v.Claims.SessionID(), v.Claims.ExpiresAt.Time); err != nil {
		s.appCtx.Logger.Error("failed to revoke session", "err", err)
		return svcErr.Map(err)
	}
	_ = s.notifier.Publish(ctx, v.ID(), realtime.Event{
		Type:      realtime.TypeSessionEnded,
		SessionID: v.Claims.SessionID(),
	})
	s.appCtx.Logger.Info("session ended", "account", v.ID(), "session", v.Claims.SessionID())
	return nil
}

// PurgeLinks removes used and expired links.
func (s *Service) PurgeLinks(ctx context.Context) (int64, error) {
	return s.links.DeleteExpired(ctx, s.now())
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

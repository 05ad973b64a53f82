package explore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/elite-matchmaking/internal/app"
	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/eligibility"
	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/realtime"
	"github.com/oggyb/elite-matchmaking/internal/repository"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

// PageSize is the single candidate page fetched per discovery request.
const PageSize = 50

// DecisionResult tells the client whether the swipe produced a match.
type DecisionResult struct {
	Match   bool        `json:"match"`
	Profile *db.Profile `json:"profile,omitempty"`
}

// Service implements the discovery feed and swipe recording.
// It contains the business logic on top of repository and cache layers.
type Service struct {
	appCtx       *app.AppContext
	decisionRepo *repository.DecisionRepository
	profileRepo  *repository.ProfileRepository
	matchRepo    *repository.MatchRepository
	notifier     *realtime.Notifier
}

// NewExploreService creates a new Explore service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via the decision, profile and match repositories)
//   - RedisCache for like counters from AppContext
//   - Notifier for match events
func NewExploreService(appCtx *app.AppContext, notifier *realtime.Notifier) *Service {
	return &Service{
		appCtx:       appCtx,
		decisionRepo: repository.NewDecisionRepository(appCtx.DB),
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
		matchRepo:    repository.NewMatchRepository(appCtx.DB),
		notifier:     notifier,
	}
}

// Candidates returns profiles the caller has not decided on yet.
//
// Behavior:
//   - Exclusion set = every target the caller decided on, plus the caller.
//   - Fetches one page of opposite-gender profiles in store order and drops
//     excluded ids. No ranking, no randomization, no further pages.
//   - An empty result is the "no more profiles" state.
func (s *Service) Candidates(ctx context.Context, v *viewer.Viewer) ([]db.Profile, error) {
	s.appCtx.Logger.Debug("Candidates called", "account", v.ID())

	decided, err := s.decisionRepo.DecidedIDs(ctx, v.ID())
	if err != nil {
		s.appCtx.Logger.Error("DecidedIDs failed", "err", err)
		return nil, svcErr.Map(err)
	}
	excluded := make(map[string]struct{}, len(decided)+1)
	excluded[v.ID()] = struct{}{}
	for _, id := range decided {
		excluded[id] = struct{}{}
	}

	page, err := s.profileRepo.ListByGender(ctx, eligibility.Opposite(v.Profile.Gender), PageSize)
	if err != nil {
		s.appCtx.Logger.Error("ListByGender failed", "err", err)
		return nil, svcErr.Map(err)
	}

	out := make([]db.Profile, 0, len(page))
	for _, p := range page {
		if _, skip := excluded[p.ID]; !skip {
			out = append(out, p)
		}
	}

	s.appCtx.Logger.Debug("Candidates result", "page", len(page), "returned", len(out))
	return out, nil
}

// Decide records an accept/reject and reports whether it produced a match.
//
// Behavior:
//   - reject: recorded, never a match.
//   - accept on a scripted profile: the reciprocal accept is written with a
//     single insert-if-absent, so the swipe always matches.
//   - accept on a member: matches when the member already accepted the caller.
//   - A match is declared once per pair; only the declaring call pushes a
//     match event to both accounts.
//   - The target's like counter is invalidated on accept.
func (s *Service) Decide(ctx context.Context, v *viewer.Viewer, targetID, direction string) (*DecisionResult, error) {
	s.appCtx.Logger.Debug("Decide called", "actor", v.ID(), "target", targetID, "direction", direction)

	if direction != db.DirectionAccept && direction != db.DirectionReject {
		return nil, svcErr.InvalidArgument("direction must be accept or reject")
	}
	if targetID == "" {
		return nil, svcErr.InvalidArgument("target_id is required")
	}
	if targetID == v.ID() {
		return nil, svcErr.InvalidArgument("cannot decide on yourself")
	}

	target, err := s.profileRepo.GetByID(ctx, targetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("profile not found")
	} else if err != nil {
		return nil, svcErr.Map(err)
	}

	if err := s.decisionRepo.Upsert(ctx, v.ID(), targetID, direction); err != nil {
		s.appCtx.Logger.Error("Upsert decision failed", "err", err)
		return nil, svcErr.Map(err)
	}

	// a reject may overwrite an earlier accept, so both directions invalidate
	_ = s.appCtx.RedisCache.InvalidateLikeCount(ctx, targetID)
	if direction == db.DirectionReject {
		return &DecisionResult{Match: false}, nil
	}

	var mutual bool
	if target.IsBot {
		if _, err := s.decisionRepo.InsertIfAbsent(ctx, targetID, v.ID(), db.DirectionAccept); err != nil {
			s.appCtx.Logger.Error("reciprocal accept failed", "err", err)
			return nil, svcErr.Map(err)
		}
		_ = s.appCtx.RedisCache.InvalidateLikeCount(ctx, v.ID())
		mutual = true
	} else {
		mutual, err = s.decisionRepo.HasAccepted(ctx, targetID, v.ID())
		if err != nil {
			return nil, svcErr.Map(err)
		}
	}

	if !mutual {
		return &DecisionResult{Match: false}, nil
	}

	declared, err := s.matchRepo.Declare(ctx, v.ID(), targetID)
	if err != nil {
		s.appCtx.Logger.Error("Declare match failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if declared {
		s.appCtx.Logger.Info("match declared", "a", v.ID(), "b", targetID)
		_ = s.notifier.Publish(ctx, v.ID(), realtime.Event{Type: realtime.TypeMatch, Match: target})
		if v.Profile != nil {
			_ = s.notifier.Publish(ctx, targetID, realtime.Event{Type: realtime.TypeMatch, Match: v.Profile})
		}
	}

	return &DecisionResult{Match: true, Profile: target}, nil
}

// Reset deletes every decision the caller made so the feed starts over.
// Declared matches are kept.
func (s *Service) Reset(ctx context.Context, v *viewer.Viewer) (int, error) {
	s.appCtx.Logger.Debug("Reset called", "account", v.ID())

	removed, err := s.decisionRepo.DeleteByActor(ctx, v.ID())
	if err != nil {
		s.appCtx.Logger.Error("DeleteByActor failed", "err", err)
		return 0, svcErr.Map(err)
	}
	for _, d := range removed {
		if d.Direction == db.DirectionAccept {
			_ = s.appCtx.RedisCache.InvalidateLikeCount(ctx, d.RecipientID)
		}
	}
	return len(removed), nil
}

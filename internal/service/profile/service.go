package profile

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/elite-matchmaking/internal/app"
	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/eligibility"
	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/repository"
	"github.com/oggyb/elite-matchmaking/internal/storage"
	"github.com/oggyb/elite-matchmaking/internal/validation"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

// CreateInput is the onboarding form.
type CreateInput struct {
	Name     string `json:"name" validate:"required,min=2" msg:"Name is too short"`
	Age      int    `json:"age" validate:"gte=18" msg:"You must be 18+"`
	Gender   string `json:"gender" validate:"required,oneof=Male Female"`
	Country  string `json:"country" validate:"required,min=2" msg:"Country is required"`
	Bio      string `json:"bio" validate:"max=150" msg:"Bio too long"`
	PhotoURL string `json:"photo_url" validate:"required,url" msg:"Valid photo URL required (or upload)"`
}

func (in CreateInput) EligibilityFields() (string, string) { return in.Gender, in.Country }

// Stats summarise how others responded to the caller.
type Stats struct {
	Likes   int64 `json:"likes"`
	Matches int64 `json:"matches"`
}

// Overview is the caller's own profile page.
type Overview struct {
	Profile   db.Profile `json:"profile"`
	Stats     Stats      `json:"stats"`
	IsPremium bool       `json:"is_premium"`
}

// Countries lists where each gender may onboard from.
type Countries struct {
	Male    []string             `json:"male"`
	Female  []string             `json:"female"`
	Regions []eligibility.Region `json:"regions"`
}

// Service implements onboarding and the profile page.
type Service struct {
	appCtx       *app.AppContext
	profiles     *repository.ProfileRepository
	decisionRepo *repository.DecisionRepository
	matches      *repository.MatchRepository
	presigner    *storage.Presigner
	validator    *validation.Validator
}

func NewService(appCtx *app.AppContext, presigner *storage.Presigner) *Service {
	return &Service{
		appCtx:       appCtx,
		profiles:     repository.NewProfileRepository(appCtx.DB),
		decisionRepo: repository.NewDecisionRepository(appCtx.DB),
		matches:      repository.NewMatchRepository(appCtx.DB),
		presigner:    presigner,
		validator:    validation.New(CreateInput{}),
	}
}

// Create onboards the caller. There is exactly one profile per account and no
// edit path; gender and country are fixed from here on.
func (s *Service) Create(ctx context.Context, v *viewer.Viewer, in CreateInput) (*db.Profile, error) {
	s.appCtx.Logger.Debug("Create profile called", "account", v.ID())

	if v.Onboarded() {
		return nil, svcErr.AlreadyExists("profile already exists")
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Country = strings.TrimSpace(in.Country)
	in.Bio = strings.TrimSpace(in.Bio)
	in.PhotoURL = strings.TrimSpace(in.PhotoURL)
	if err := s.validator.Struct(&in); err != nil {
		return nil, err
	}

	p := &db.Profile{
		ID:       v.ID(),
		Name:     in.Name,
		Age:      in.Age,
		Gender:   in.Gender,
		Country:  in.Country,
		Bio:      in.Bio,
		PhotoURL: in.PhotoURL,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		// lost a race with a concurrent create
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, svcErr.AlreadyExists("profile already exists")
		}
		s.appCtx.Logger.Error("profile create failed", "err", err)
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("profile created", "account", p.ID, "gender", p.Gender, "country", p.Country)
	return p, nil
}

// Get returns the caller's profile with like and match counts.
func (s *Service) Get(ctx context.Context, v *viewer.Viewer) (*Overview, error) {
	p, err := s.profiles.GetByID(ctx, v.ID())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.PermissionDenied("onboarding required")
	} else if err != nil {
		return nil, svcErr.Map(err)
	}

	likes, err := s.LikeCount(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matches.CountFor(ctx, p.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	return &Overview{
		Profile:   *p,
		Stats:     Stats{Likes: likes, Matches: matches},
		IsPremium: p.IsPremium,
	}, nil
}

// LikeCount returns how many accounts accepted accountID.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:<id>), refreshing its TTL.
//  2. On miss, counts in the DB and stores the result with a 1h TTL.
func (s *Service) LikeCount(ctx context.Context, accountID string) (int64, error) {
	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, accountID); err == nil && ok {
		return n, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "err", err)
	}

	count, err := s.decisionRepo.CountAcceptsReceived(ctx, accountID)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	_ = s.appCtx.RedisCache.SetLikeCount(ctx, accountID, count)
	return count, nil
}

// PresignPhoto returns an upload slot for a profile photo. Available before
// onboarding so the form can use the uploaded URL.
func (s *Service) PresignPhoto(ctx context.Context, v *viewer.Viewer, contentType string) (*storage.Upload, error) {
	up, err := s.presigner.PresignImage(ctx, "profiles/"+v.ID(), contentType)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return nil, svcErr.InvalidArgument("content_type must be an image type")
	} else if err != nil {
		s.appCtx.Logger.Error("presign failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return up, nil
}

// Countries returns the onboarding allow-lists.
func (s *Service) Countries() Countries {
	return Countries{
		Male:    eligibility.MaleCountries,
		Female:  eligibility.FemaleCountries,
		Regions: eligibility.SupportedRegions,
	}
}

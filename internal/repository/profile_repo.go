package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/elite-matchmaking/internal/db"
)

// ProfileRepository provides access to member and scripted profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Create inserts a new profile. Fails if the account already has one.
func (r *ProfileRepository) Create(ctx context.Context, p *db.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetByID returns gorm.ErrRecordNotFound when the account has not onboarded.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs loads profiles keyed by id. Missing ids are simply absent.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []string) (map[string]db.Profile, error) {
	out := make(map[string]db.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []db.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// ListByGender returns up to limit profiles of the given gender in store order
// (creation time, then id).
func (r *ProfileRepository) ListByGender(ctx context.Context, gender string, limit int) ([]db.Profile, error) {
	var rows []db.Profile
	err := r.db.WithContext(ctx).
		Where("gender = ?", gender).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

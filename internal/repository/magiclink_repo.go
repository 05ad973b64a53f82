package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/elite-matchmaking/internal/db"
)

// MagicLinkRepository stores single-use sign-in links.
type MagicLinkRepository struct {
	db *gorm.DB
}

func NewMagicLinkRepository(database *gorm.DB) *MagicLinkRepository {
	return &MagicLinkRepository{db: database}
}

func (r *MagicLinkRepository) Create(ctx context.Context, link *db.MagicLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *MagicLinkRepository) GetByID(ctx context.Context, id string) (*db.MagicLink, error) {
	var link db.MagicLink
	if err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// Consume marks the link used if it is still unused and unexpired.
// Returns false when another request got there first or the link expired.
func (r *MagicLinkRepository) Consume(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.MagicLink{}).
		Where("id = ? AND used_at IS NULL AND expires_at > ?", id, now).
		Update("used_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteExpired removes links that can no longer be used.
func (r *MagicLinkRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ? OR used_at IS NOT NULL", now).
		Delete(&db.MagicLink{})
	return res.RowsAffected, res.Error
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/elite-matchmaking/internal/db"
)

// MatchRepository records declared mutual matches.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// OrderedPair returns the two ids sorted so the pair has one canonical form.
func OrderedPair(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Declare inserts the match for the unordered pair (a, b) if none exists yet.
// Returns true only for the call that created the row.
func (r *MatchRepository) Declare(ctx context.Context, a, b string) (bool, error) {
	low, high := OrderedPair(a, b)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Match{AccountLow: low, AccountHigh: high})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountFor returns how many matches involve the account.
func (r *MatchRepository) CountFor(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("account_low = ? OR account_high = ?", accountID, accountID).
		Count(&count).Error
	return count, err
}

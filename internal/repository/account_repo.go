package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/elite-matchmaking/internal/db"
)

// AccountRepository stores sign-in identities.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(database *gorm.DB) *AccountRepository {
	return &AccountRepository{db: database}
}

// GetOrCreateByEmail returns the account for email, creating it on first use.
// Concurrent first requests for the same email converge on one row.
func (r *AccountRepository) GetOrCreateByEmail(ctx context.Context, email string) (*db.Account, error) {
	acc := db.Account{ID: uuid.NewString(), Email: email}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&acc).Error
	if err != nil {
		return nil, err
	}

	var stored db.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetByID loads an account. Returns gorm.ErrRecordNotFound when absent.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*db.Account, error) {
	var acc db.Account
	if err := r.db.WithContext(ctx).First(&acc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

// TouchLogin records a successful sign-in.
func (r *AccountRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&db.Account{}).
		Where("id = ?", id).
		Update("last_login_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

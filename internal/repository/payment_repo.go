package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/elite-matchmaking/internal/db"
)

// PaymentRepository tracks premium checkout orders.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(database *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: database}
}

func (r *PaymentRepository) Create(ctx context.Context, p *db.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*db.Payment, error) {
	var p db.Payment
	if err := r.db.WithContext(ctx).First(&p, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkPaidAndUpgrade moves a pending order to paid and sets the owner's premium
// flag in one transaction. Returns false if the order was not pending.
func (r *PaymentRepository) MarkPaidAndUpgrade(ctx context.Context, orderID, paymentID string, at time.Time) (bool, error) {
	var updated bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p db.Payment
		if err := tx.First(&p, "order_id = ?", orderID).Error; err != nil {
			return err
		}

		res := tx.Model(&db.Payment{}).
			Where("order_id = ? AND status = ?", orderID, db.PaymentPending).
			Updates(map[string]any{
				"status":     db.PaymentPaid,
				"payment_id": paymentID,
				"paid_at":    at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		updated = true

		return tx.Model(&db.Profile{}).
			Where("id = ?", p.AccountID).
			Update("is_premium", true).Error
	})
	return updated, err
}

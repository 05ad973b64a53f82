package premium

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/elite-matchmaking/internal/app"
	"github.com/oggyb/elite-matchmaking/internal/db"
	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/payment"
	"github.com/oggyb/elite-matchmaking/internal/repository"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

const Description = "Premium Membership"

// Offer is what the checkout widget needs to open, plus the caller's status.
type Offer struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Name        string `json:"name"`
	KeyID       string `json:"key_id"`
	IsPremium   bool   `json:"is_premium"`
}

// Checkout is a freshly created order.
type Checkout struct {
	Offer
	OrderID string `json:"order_id"`
}

// ConfirmInput is the checkout's success callback as relayed by the client.
type ConfirmInput struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type Service struct {
	appCtx      *app.AppContext
	paymentRepo *repository.PaymentRepository
	gateway     payment.Gateway
	now         func() time.Time
}

func NewService(appCtx *app.AppContext, gateway payment.Gateway) *Service {
	return &Service{
		appCtx:      appCtx,
		paymentRepo: repository.NewPaymentRepository(appCtx.DB),
		gateway:     gateway,
		now:         time.Now,
	}
}

func (s *Service) Offer(v *viewer.Viewer) Offer {
	return Offer{
		Amount:      s.appCtx.Config.Payment.AmountPaise,
		Currency:    s.appCtx.Config.Payment.Currency,
		Description: Description,
		Name:        s.appCtx.Config.App.Name,
		KeyID:       s.gateway.KeyID(),
		IsPremium:   v.Profile != nil && v.Profile.IsPremium,
	}
}

// CreateOrder opens a pending payment for the caller.
func (s *Service) CreateOrder(ctx context.Context, v *viewer.Viewer) (*Checkout, error) {
	offer := s.Offer(v)
	if offer.IsPremium {
		return nil, svcErr.FailedPrecondition("already premium")
	}

	order, err := s.gateway.CreateOrder(ctx, offer.Amount, offer.Currency, "premium_"+v.ID())
	if err != nil {
		s.appCtx.Logger.Error("gateway CreateOrder failed", "account", v.ID(), "err", err)
		return nil, svcErr.Map(err)
	}

	p := &db.Payment{
		OrderID:   order.ID,
		AccountID: v.ID(),
		Amount:    order.Amount,
		Currency:  order.Currency,
		Status:    db.PaymentPending,
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		s.appCtx.Logger.Error("payment create failed", "order", order.ID, "err", err)
		return nil, svcErr.Map(err)
	}

	offer.Amount, offer.Currency = order.Amount, order.Currency
	return &Checkout{Offer: offer, OrderID: order.ID}, nil
}

// Confirm verifies the checkout callback and upgrades the caller. A replay of
// an already paid order succeeds without side effects.
func (s *Service) Confirm(ctx context.Context, v *viewer.Viewer, in ConfirmInput) (*Offer, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, svcErr.InvalidArgument("order_id, payment_id and signature are required")
	}

	p, err := s.paymentRepo.GetByOrderID(ctx, in.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && p.AccountID != v.ID()) {
		return nil, svcErr.NotFound("order not found")
	} else if err != nil {
		return nil, svcErr.Map(err)
	}

	if !s.gateway.Verify(in.OrderID, in.PaymentID, in.Signature) {
		s.appCtx.Logger.Warn("payment signature mismatch", "account", v.ID(), "order", in.OrderID)
		return nil, svcErr.PermissionDenied("payment verification failed")
	}

	if p.Status == db.PaymentPaid {
		if p.PaymentID != in.PaymentID {
			return nil, svcErr.FailedPrecondition("order already paid")
		}
	} else {
		upgraded, err := s.paymentRepo.MarkPaidAndUpgrade(ctx, in.OrderID, in.PaymentID, s.now().UTC())
		if err != nil {
			s.appCtx.Logger.Error("MarkPaidAndUpgrade failed", "order", in.OrderID, "err", err)
			return nil, svcErr.Map(err)
		}
		if upgraded {
			s.appCtx.Logger.Info("premium activated", "account", v.ID(), "order", in.OrderID)
		}
	}

	offer := s.Offer(v)
	offer.IsPremium = true
	if v.Profile != nil {
		v.Profile.IsPremium = true
	}
	return &offer, nil
}

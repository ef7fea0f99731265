package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
	"github.com/nino-0813/honma-ec-sub000/pkg/types"
)

// ProfileUpserter refreshes the buyer's saved address. Failures here must
// never block a draft write.
type ProfileUpserter interface {
	Upsert(ctx context.Context, profile *models.Profile) error
}

// DraftInput is everything the checkout flow knows about the order before
// payment confirmation.
type DraftInput struct {
	PaymentIntentID string
	UserID          *uuid.UUID
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   *string
	PostalCode      string
	Prefecture      string
	City            string
	AddressLine     string
	SubtotalYen     int
	ShippingYen     int
	DiscountYen     int
	TotalYen        int
	CouponID        *uuid.UUID
	Items           []DraftItem
}

// DraftItem is one cart line snapshotted into the draft.
type DraftItem struct {
	ProductID       uuid.UUID
	ProductTitle    string
	UnitPriceYen    int
	SelectedOptions types.SelectedOptions
	Qty             int
}

// Service defines order operations beyond repository reads.
type Service interface {
	UpsertDraft(ctx context.Context, input DraftInput) (uuid.UUID, error)
}

type service struct {
	repo     Repository
	profiles ProfileUpserter
	log      *logger.Logger
}

// NewService builds the order draft service. The profile upserter is
// optional; when absent, drafts simply skip the address book refresh.
func NewService(repo Repository, profiles ProfileUpserter, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, profiles: profiles, log: log}, nil
}

// UpsertDraft writes the pre-payment draft for the intent and, when the
// buyer is signed in, refreshes their saved address as a side effect.
func (s *service) UpsertDraft(ctx context.Context, input DraftInput) (uuid.UUID, error) {
	if input.PaymentIntentID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	if len(input.Items) == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	if input.TotalYen < 0 || input.SubtotalYen < 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "totals must not be negative")
	}

	order := &models.Order{
		PaymentIntentID: input.PaymentIntentID,
		UserID:          input.UserID,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		PostalCode:      input.PostalCode,
		Prefecture:      input.Prefecture,
		City:            input.City,
		AddressLine:     input.AddressLine,
		SubtotalYen:     input.SubtotalYen,
		ShippingYen:     input.ShippingYen,
		DiscountYen:     input.DiscountYen,
		TotalYen:        input.TotalYen,
		CouponID:        input.CouponID,
	}
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, it := range input.Items {
		if it.Qty <= 0 {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "item qty must be positive")
		}
		items = append(items, models.OrderItem{
			ProductID:       it.ProductID,
			ProductTitle:    it.ProductTitle,
			UnitPriceYen:    it.UnitPriceYen,
			SelectedOptions: it.SelectedOptions,
			Qty:             it.Qty,
			LineTotalYen:    it.UnitPriceYen * it.Qty,
		})
	}

	orderID, err := s.repo.UpsertDraft(ctx, order, items)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert order draft")
	}

	if s.profiles != nil && input.UserID != nil && *input.UserID != uuid.Nil {
		profile := &models.Profile{
			UserID:      *input.UserID,
			Name:        input.CustomerName,
			Email:       input.CustomerEmail,
			Phone:       input.CustomerPhone,
			PostalCode:  input.PostalCode,
			Prefecture:  input.Prefecture,
			City:        input.City,
			AddressLine: input.AddressLine,
		}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			warnCtx := s.log.WithFields(ctx, map[string]any{
				"user_id": input.UserID.String(),
				"error":   err.Error(),
			})
			s.log.Warn(warnCtx, "profile refresh failed")
		}
	}

	return orderID, nil
}

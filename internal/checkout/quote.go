package checkout

import (
	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/internal/cart"
	"github.com/nino-0813/honma-ec-sub000/internal/shipping"
	"github.com/nino-0813/honma-ec-sub000/pkg/config"
	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
)

// Quote is the priced view of a cart for a destination: frozen subtotal,
// computed shipping, coupon discount, and the rounded total the payment
// intent must be created with.
type Quote struct {
	SubtotalYen      int        `json:"subtotal_yen"`
	ShippingYen      int        `json:"shipping_yen"`
	DiscountYen      int        `json:"discount_yen"`
	TotalYen         int        `json:"total_yen"`
	Area             string     `json:"area,omitempty"`
	FallbackShipping bool       `json:"fallback_shipping,omitempty"`
	CouponID         *uuid.UUID `json:"coupon_id,omitempty"`
}

// shippingFor prices the cart's shipping. When the area cannot be resolved
// or no linked method yields a positive cost, the flat fallback fee applies
// (standard or express per the buyer's choice).
func shippingFor(c *cart.Cart, methodsByProduct map[uuid.UUID][]models.ShippingMethod, area string, express bool, cfg config.ShippingConfig) (int, bool) {
	lines := make([]shipping.CartLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, shipping.CartLine{ProductID: line.ProductID, Qty: line.Qty})
	}
	if area != "" {
		if cost := shipping.TotalShippingCost(lines, methodsByProduct, area); cost > 0 {
			return cost, false
		}
	}
	if express {
		return cfg.FallbackExpressFee, true
	}
	return cfg.FallbackStandardFee, true
}

package coupons

import (
	"github.com/shopspring/decimal"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// DiscountYen computes the yen discount a coupon takes off a subtotal.
// Percentage discounts round down to a whole yen. The result never exceeds
// the subtotal, so totals cannot go negative.
func DiscountYen(coupon *models.Coupon, subtotalYen int) int {
	if coupon == nil || subtotalYen <= 0 {
		return 0
	}
	var discount int
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		d := decimal.NewFromInt(int64(subtotalYen)).
			Mul(decimal.NewFromInt(int64(coupon.Amount))).
			Div(hundred)
		discount = int(d.IntPart())
	case enums.DiscountTypeFixed:
		discount = coupon.Amount
	default:
		return 0
	}
	if discount < 0 {
		return 0
	}
	if discount > subtotalYen {
		return subtotalYen
	}
	return discount
}

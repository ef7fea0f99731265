package products

import (
	"fmt"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
	"github.com/nino-0813/honma-ec-sub000/pkg/types"
)

// Availability is the result of a purchasability check for one cart line.
type Availability struct {
	Available      bool   `json:"available"`
	AvailableStock *int   `json:"available_stock,omitempty"`
	Message        string `json:"message,omitempty"`
}

// EffectiveStock computes the purchasable stock for a product and a set of
// selected variant options. nil means unlimited (untracked).
//
// Each selected variant type contributes at most one candidate: an
// 'individual' axis contributes the type's shared pool when one is
// configured, otherwise the selected option's own stock when that field is
// tracked (nil is ignored, not treated as zero). 'none' and the legacy
// 'shared' mode contribute nothing. The effective stock is the minimum of
// all candidates; with no candidates the base product stock applies.
func EffectiveStock(product *models.Product, selected types.SelectedOptions) *int {
	if product == nil {
		return intPtr(0)
	}
	if !product.HasVariants || len(product.VariantsConfig) == 0 {
		return product.Stock
	}

	var min *int
	for _, vt := range product.VariantsConfig {
		optionID, ok := selected[vt.ID]
		if !ok {
			continue
		}
		if vt.StockManagement != enums.StockManagementIndividual {
			continue
		}

		var candidate *int
		if vt.SharedStock != nil {
			candidate = vt.SharedStock
		} else if opt := vt.OptionByID(optionID); opt != nil && opt.Stock != nil {
			candidate = opt.Stock
		}
		if candidate == nil {
			continue
		}
		if min == nil || *candidate < *min {
			value := *candidate
			min = &value
		}
	}

	if min == nil {
		return product.Stock
	}
	return min
}

// CheckAvailability reports whether requestedQty more units can be purchased
// given what the cart already holds. Unlimited stock is always available.
func CheckAvailability(product *models.Product, selected types.SelectedOptions, requestedQty, currentCartQty int) Availability {
	stock := EffectiveStock(product, selected)
	if stock == nil {
		return Availability{Available: true}
	}

	if currentCartQty+requestedQty <= *stock {
		return Availability{Available: true, AvailableStock: stock}
	}

	remaining := *stock - currentCartQty
	if remaining < 0 {
		remaining = 0
	}
	msg := "在庫切れです。"
	if remaining > 0 {
		msg = fmt.Sprintf("在庫が不足しています。あと%d点まで購入できます。", remaining)
	}
	return Availability{Available: false, AvailableStock: stock, Message: msg}
}

// UnitPrice returns the product's base price plus the price adjustments of
// the selected options. Unknown type or option ids are ignored.
func UnitPrice(product *models.Product, selected types.SelectedOptions) int {
	if product == nil {
		return 0
	}
	price := product.PriceYen
	for _, vt := range product.VariantsConfig {
		optionID, ok := selected[vt.ID]
		if !ok {
			continue
		}
		if opt := vt.OptionByID(optionID); opt != nil {
			price += opt.PriceAdjustment
		}
	}
	return price
}

func intPtr(v int) *int {
	return &v
}

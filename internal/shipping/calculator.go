package shipping

import (
	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
)

// CartLine is the slice of a cart the calculator needs: which product and
// how many units. Each line is costed independently; boxes are never shared
// across products.
type CartLine struct {
	ProductID uuid.UUID
	Qty       int
}

// CostForMethod prices a single box shipped with the given method to the
// given area. Unknown area keys price as 0. Size-typed methods read the
// first configured size bucket rather than picking a best-fit box.
func CostForMethod(method *models.ShippingMethod, area string) int {
	if method == nil {
		return 0
	}
	switch method.FeeType {
	case enums.ShippingFeeTypeUniform:
		return method.UniformFee
	case enums.ShippingFeeTypeArea:
		return method.AreaFees[area]
	case enums.ShippingFeeTypeSize:
		if len(method.SizeFees) == 0 {
			return 0
		}
		return method.SizeFees[0].AreaFees[area]
	default:
		return 0
	}
}

// BoxesNeeded returns how many boxes a quantity of one product occupies
// under the given method. Capacity defaults to 1 unless the method is
// size-typed with a configured per-box limit.
func BoxesNeeded(method *models.ShippingMethod, qty int) int {
	if qty < 1 {
		qty = 1
	}
	capacity := 1
	if method != nil && method.FeeType == enums.ShippingFeeTypeSize {
		if len(method.SizeFees) > 0 && method.SizeFees[0].MaxItemsPerBox > 0 {
			capacity = method.SizeFees[0].MaxItemsPerBox
		} else if method.MaxItemsPerBox > 0 {
			capacity = method.MaxItemsPerBox
		}
	}
	boxes := (qty + capacity - 1) / capacity
	if boxes < 1 {
		boxes = 1
	}
	return boxes
}

// TotalShippingCost sums, across cart lines, the cheapest way to ship each
// line among the methods linked to its product. Lines whose product has no
// linked method contribute 0. An empty area prices every area-dependent
// method at 0, which the caller treats as "use the flat fallback fee".
func TotalShippingCost(lines []CartLine, methodsByProduct map[uuid.UUID][]models.ShippingMethod, area string) int {
	total := 0
	for _, line := range lines {
		methods := methodsByProduct[line.ProductID]
		if len(methods) == 0 {
			continue
		}
		best := -1
		for i := range methods {
			m := &methods[i]
			cost := CostForMethod(m, area) * BoxesNeeded(m, line.Qty)
			if best < 0 || cost < best {
				best = cost
			}
		}
		if best > 0 {
			total += best
		}
	}
	return total
}

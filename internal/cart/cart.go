package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/types"
)

// Line is one product in the cart. FinalPriceYen is the unit price frozen
// when the line was added (base price plus option adjustments); later price
// edits in the catalog do not reprice lines already in a cart.
type Line struct {
	ProductID       uuid.UUID             `json:"product_id"`
	ProductTitle    string                `json:"product_title"`
	SelectedOptions types.SelectedOptions `json:"selected_options,omitempty"`
	Qty             int                   `json:"qty"`
	FinalPriceYen   int                   `json:"final_price_yen"`
}

// Cart is the session cart persisted between visits.
type Cart struct {
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Add puts qty units of a product into the cart, freezing the unit price.
// Lines with the same product and option selection merge.
func (c *Cart) Add(product *models.Product, selected types.SelectedOptions, qty, finalPriceYen int) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == product.ID && c.Lines[i].SelectedOptions.Equal(selected) {
			c.Lines[i].Qty += qty
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{
		ProductID:       product.ID,
		ProductTitle:    product.Title,
		SelectedOptions: selected.Clone(),
		Qty:             qty,
		FinalPriceYen:   finalPriceYen,
	})
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetQty updates a line's quantity; qty 0 removes the line.
func (c *Cart) SetQty(productID uuid.UUID, selected types.SelectedOptions, qty int) error {
	if qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must not be negative")
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].SelectedOptions.Equal(selected) {
			if qty == 0 {
				c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			} else {
				c.Lines[i].Qty = qty
			}
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "line not in cart")
}

// QtyOf returns how many units of the given product and selection are
// already in the cart. Used as currentCartQty for availability checks.
func (c *Cart) QtyOf(productID uuid.UUID, selected types.SelectedOptions) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].SelectedOptions.Equal(selected) {
			return c.Lines[i].Qty
		}
	}
	return 0
}

// SubtotalYen sums frozen line prices times quantities.
func (c *Cart) SubtotalYen() int {
	total := 0
	for i := range c.Lines {
		total += c.Lines[i].FinalPriceYen * c.Lines[i].Qty
	}
	return total
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.Lines)
}

// Merge folds another cart's lines into this one, summing quantities for
// matching lines and appending the rest. The receiver's frozen prices win
// on conflicts.
func (c *Cart) Merge(other *Cart) {
	if other == nil {
		return
	}
	for _, line := range other.Lines {
		merged := false
		for i := range c.Lines {
			if c.Lines[i].ProductID == line.ProductID && c.Lines[i].SelectedOptions.Equal(line.SelectedOptions) {
				c.Lines[i].Qty += line.Qty
				merged = true
				break
			}
		}
		if !merged {
			c.Lines = append(c.Lines, line)
		}
	}
	c.UpdatedAt = time.Now().UTC()
}

package models

import (
	"fmt"
	"strings"

	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
)

// VariantTypes is the ordered variant configuration stored on a product.
type VariantTypes []VariantType

// VariantType is one purchasable dimension of a product (e.g. "Type":
// brown rice / white rice). SharedStock, when set, is a single pool consumed
// by every option of this type.
type VariantType struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	StockManagement enums.StockManagement `json:"stock_management"`
	SharedStock     *int                  `json:"shared_stock,omitempty"`
	Options         []VariantOption       `json:"options"`
}

// VariantOption is a selectable value of a variant type. Stock is nullable:
// nil means this option's stock is not tracked, which is different from 0
// (sold out).
type VariantOption struct {
	ID              string `json:"id"`
	Value           string `json:"value"`
	PriceAdjustment int    `json:"price_adjustment"`
	Stock           *int   `json:"stock,omitempty"`
}

// Validate checks the config at the data-access boundary so business logic
// never has to defend against loosely-typed variant JSON.
func (v VariantTypes) Validate() error {
	seenTypes := map[string]bool{}
	for i, vt := range v {
		if strings.TrimSpace(vt.ID) == "" {
			return fmt.Errorf("variant type %d: id is required", i)
		}
		if seenTypes[vt.ID] {
			return fmt.Errorf("variant type %q: duplicate id", vt.ID)
		}
		seenTypes[vt.ID] = true
		if strings.TrimSpace(vt.Name) == "" {
			return fmt.Errorf("variant type %q: name is required", vt.ID)
		}
		if !vt.StockManagement.IsValid() {
			return fmt.Errorf("variant type %q: invalid stock management %q", vt.ID, vt.StockManagement)
		}
		if len(vt.Options) == 0 {
			return fmt.Errorf("variant type %q: at least one option is required", vt.ID)
		}
		seenOptions := map[string]bool{}
		for _, opt := range vt.Options {
			if strings.TrimSpace(opt.ID) == "" {
				return fmt.Errorf("variant type %q: option id is required", vt.ID)
			}
			if seenOptions[opt.ID] {
				return fmt.Errorf("variant type %q: duplicate option id %q", vt.ID, opt.ID)
			}
			seenOptions[opt.ID] = true
			if opt.Stock != nil && *opt.Stock < 0 {
				return fmt.Errorf("variant type %q option %q: negative stock", vt.ID, opt.ID)
			}
		}
	}
	return nil
}

// TypeByID returns the variant type with the given id, or nil.
func (v VariantTypes) TypeByID(typeID string) *VariantType {
	for i := range v {
		if v[i].ID == typeID {
			return &v[i]
		}
	}
	return nil
}

// OptionByID returns the option with the given id, or nil.
func (t *VariantType) OptionByID(optionID string) *VariantOption {
	if t == nil {
		return nil
	}
	for i := range t.Options {
		if t.Options[i].ID == optionID {
			return &t.Options[i]
		}
	}
	return nil
}

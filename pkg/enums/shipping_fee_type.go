package enums

import "fmt"

// ShippingFeeType describes how a shipping method prices a shipment.
type ShippingFeeType string

const (
	ShippingFeeTypeUniform ShippingFeeType = "uniform"
	ShippingFeeTypeArea    ShippingFeeType = "area"
	ShippingFeeTypeSize    ShippingFeeType = "size"
)

var validShippingFeeTypes = []ShippingFeeType{
	ShippingFeeTypeUniform,
	ShippingFeeTypeArea,
	ShippingFeeTypeSize,
}

// IsValid reports whether the value matches the canonical fee type enum.
func (s ShippingFeeType) IsValid() bool {
	for _, candidate := range validShippingFeeTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingFeeType converts the raw string to ShippingFeeType.
func ParseShippingFeeType(value string) (ShippingFeeType, error) {
	for _, candidate := range validShippingFeeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping fee type %q", value)
}

package enums

import "fmt"

// StockManagement describes how a variant type tracks availability.
type StockManagement string

const (
	// StockManagementNone places no stock constraint on the axis.
	StockManagementNone StockManagement = "none"
	// StockManagementIndividual tracks stock per option, or against the
	// variant type's shared pool when one is configured.
	StockManagementIndividual StockManagement = "individual"
	// StockManagementShared is accepted for legacy product configs and is
	// treated as a no-op constraint.
	StockManagementShared StockManagement = "shared"
)

var validStockManagements = []StockManagement{
	StockManagementNone,
	StockManagementIndividual,
	StockManagementShared,
}

// IsValid reports whether the value matches the canonical stock management enum.
func (s StockManagement) IsValid() bool {
	for _, candidate := range validStockManagements {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockManagement converts the raw string to StockManagement.
func ParseStockManagement(value string) (StockManagement, error) {
	for _, candidate := range validStockManagements {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock management %q", value)
}

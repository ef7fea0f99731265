package types

// SelectedOptions maps a variant type id to the chosen option id for one cart
// line or order item. Stored as jsonb via GORM's json serializer.
type SelectedOptions map[string]string

// Equal reports whether both selections pick exactly the same options.
func (s SelectedOptions) Equal(other SelectedOptions) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if other[k] != v {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the selection.
func (s SelectedOptions) Clone() SelectedOptions {
	if s == nil {
		return nil
	}
	out := make(SelectedOptions, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

package builtin

import "recflow/pkg/records"

// Require keeps records that have a present, non-null, non-empty text at
// every index in Indexes.
type Require struct {
	Indexes []int
}

// Filter returns the record filter.
func (r Require) Filter() records.Filter {
	fs := make([]records.Filter, len(r.Indexes))
	for i, ix := range r.Indexes {
		fs[i] = records.TextPresent(ix, true)
	}
	return records.And(fs...)
}

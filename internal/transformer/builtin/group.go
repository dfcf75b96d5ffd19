package builtin

import (
	"iter"

	"recflow/internal/transformer"
	"recflow/pkg/records"
)

// Having decides whether a group survives to aggregation.
type Having[T any] func(members []T) bool

// GroupBy partitions the whole input by classify, drops the groups rejected
// by having (nil keeps every group) and emits aggregate(members) once per
// surviving group.
//
// Members keep their encounter order and groups are emitted in the order
// their key was first seen. Output starts only after the input is drained.
func GroupBy[T, R any, K comparable](classify func(T) K, having Having[T], aggregate func(members []T) R) transformer.Modifier[T, R] {
	return func(seq iter.Seq[T]) iter.Seq[R] {
		return func(yield func(R) bool) {
			var order []K
			groups := make(map[K][]T)
			for v := range seq {
				k := classify(v)
				members, ok := groups[k]
				if !ok {
					order = append(order, k)
				}
				groups[k] = append(members, v)
			}
			for _, k := range order {
				members := groups[k]
				if having != nil && !having(members) {
					continue
				}
				if !yield(aggregate(members)) {
					return
				}
			}
		}
	}
}

// UnaryGroupBy is GroupBy whose aggregate yields the input element type.
func UnaryGroupBy[T any, K comparable](classify func(T) K, having Having[T], aggregate func(members []T) T) transformer.Modifier[T, T] {
	return GroupBy(classify, having, aggregate)
}

// GroupRecords groups records by a rendered key message.
func GroupRecords(key records.NonNullMessage, having Having[records.Record], aggregate func(members []records.Record) records.Record) transformer.Modifier[records.Record, records.Record] {
	return UnaryGroupBy(func(r records.Record) string { return key(r) }, having, aggregate)
}

// MinMembers keeps groups with at least n members.
func MinMembers[T any](n int) Having[T] {
	return func(members []T) bool { return len(members) >= n }
}

// MaxMembers keeps groups with at most n members.
func MaxMembers[T any](n int) Having[T] {
	return func(members []T) bool { return len(members) <= n }
}

// Package builtin contains the reusable record transforms: de-duplication,
// grouping with aggregates, pivot and unpivot reshaping, and text
// normalisation.
//
// Grouping transforms (GroupBy, UnaryGroupBy, the pivots and DeDup) must
// observe their whole input before emitting anything. Groups are emitted in
// first-key-seen order.
package builtin

import (
	"iter"
	"slices"

	"recflow/internal/transformer"
	"recflow/pkg/records"

	"github.com/zeebo/xxh3"
)

// Distinct keeps the first occurrence of every key and drops later values
// with the same key. Encounter order is preserved and the stream is not
// buffered, so Distinct works on unbounded input as long as the number of
// distinct keys stays bounded.
//
// Keys are bucketed by their xxh3 hash and compared in full within a bucket,
// so colliding keys stay distinct.
func Distinct[T any](key func(T) string) transformer.Modifier[T, T] {
	return distinctHashed(key, xxh3.HashString)
}

func distinctHashed[T any](key func(T) string, hash func(string) uint64) transformer.Modifier[T, T] {
	return func(seq iter.Seq[T]) iter.Seq[T] {
		return func(yield func(T) bool) {
			seen := make(map[uint64][]string)
			for v := range seq {
				k := key(v)
				h := hash(k)
				if slices.Contains(seen[h], k) {
					continue
				}
				seen[h] = append(seen[h], k)
				if !yield(v) {
					return
				}
			}
		}
	}
}

// DistinctRecords is Distinct keyed by a record compare-message. A nil
// message compares the whole record (kind, category, id and every field).
func DistinctRecords(msg records.NonNullMessage) transformer.Modifier[records.Record, records.Record] {
	if msg == nil {
		msg = records.AllFieldsMessage()
	}
	return Distinct(func(r records.Record) string { return msg(r) })
}

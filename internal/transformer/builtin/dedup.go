package builtin

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"recflow/internal/transformer"
	"recflow/pkg/records"
)

// Dedup policies.
const (
	KeepFirst    = "keep-first"
	KeepLast     = "keep-last"
	MostComplete = "most-complete"
)

// DeDup collapses records sharing a key and keeps one winner per key,
// chosen by Policy:
//
//   - "keep-first": the earliest occurrence
//   - "keep-last": the latest occurrence (default)
//   - "most-complete": the record with the most non-null, non-empty texts;
//     ties go to the later record
//
// Unlike Distinct, DeDup buffers its input. Winners are emitted in the order
// of their own position in the input.
type DeDup struct {
	// Key renders the business key. Nil means the whole record.
	Key records.NonNullMessage

	// Policy selects the winner among duplicates.
	Policy string

	// PreferIndexes weigh more in "most-complete" scoring when their text is
	// present and non-empty.
	PreferIndexes []int
}

// ParsePolicy normalises a policy name. The empty string maps to KeepLast.
func ParsePolicy(s string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(s)); p {
	case "":
		return KeepLast, nil
	case KeepFirst, KeepLast, MostComplete:
		return p, nil
	default:
		return "", fmt.Errorf("dedup: unknown policy %q", s)
	}
}

// Modifier returns the de-duplicating transform. It panics on an unknown
// policy.
func (d DeDup) Modifier() transformer.Modifier[records.Record, records.Record] {
	policy, err := ParsePolicy(d.Policy)
	if err != nil {
		panic(err)
	}
	key := d.Key
	if key == nil {
		key = records.AllFieldsMessage()
	}
	prefer := make(map[int]struct{}, len(d.PreferIndexes))
	for _, ix := range d.PreferIndexes {
		prefer[ix] = struct{}{}
	}

	scoreOf := func(r records.Record) int {
		score, bonus := 0, 0
		for i, f := range r.All() {
			if v, ok := f.Text().Get(); !ok || v == "" {
				continue
			}
			score++
			if _, ok := prefer[i]; ok {
				bonus++
			}
		}
		return score*10 + bonus
	}

	type slot struct {
		rec   records.Record
		index int
		score int
	}

	return func(seq iter.Seq[records.Record]) iter.Seq[records.Record] {
		return func(yield func(records.Record) bool) {
			winners := make(map[string]slot)
			i := 0
			for r := range seq {
				k := key(r)
				switch policy {
				case KeepFirst:
					if _, exists := winners[k]; !exists {
						winners[k] = slot{rec: r, index: i}
					}
				case MostComplete:
					s := slot{rec: r, index: i, score: scoreOf(r)}
					if prev, exists := winners[k]; !exists || s.score >= prev.score {
						winners[k] = s
					}
				default:
					winners[k] = slot{rec: r, index: i}
				}
				i++
			}

			out := make([]slot, 0, len(winners))
			for _, s := range winners {
				out = append(out, s)
			}
			slices.SortFunc(out, func(a, b slot) int { return a.index - b.index })
			for _, s := range out {
				if !yield(s.rec) {
					return
				}
			}
		}
	}
}

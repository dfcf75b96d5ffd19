package builtin

import (
	"sync"

	"recflow/pkg/records"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CollateBy orders records by the text at index using the collation rules of
// tag. Absent and null texts sort first. The returned comparator is safe for
// concurrent use.
func CollateBy(tag language.Tag, index int, opts ...collate.Option) func(a, b records.Record) int {
	var mu sync.Mutex
	c := collate.New(tag, opts...)
	return func(a, b records.Record) int {
		av, aok := textAt(a, index)
		bv, bok := textAt(b, index)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return -1
		case !bok:
			return 1
		}
		mu.Lock()
		defer mu.Unlock()
		return c.CompareString(av, bv)
	}
}

func textAt(r records.Record, index int) (string, bool) {
	t, _ := r.Text(index)
	return t.Get()
}

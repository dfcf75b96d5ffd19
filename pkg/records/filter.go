package records

// Filter is a pure predicate over a record.
type Filter func(r Record) bool

// And matches when every filter matches. No filters matches everything.
func And(filters ...Filter) Filter {
	return func(r Record) bool {
		for _, f := range filters {
			if !f(r) {
				return false
			}
		}
		return true
	}
}

// Or matches when any filter matches. No filters matches nothing.
func Or(filters ...Filter) Filter {
	return func(r Record) bool {
		for _, f := range filters {
			if f(r) {
				return true
			}
		}
		return false
	}
}

// Not negates f.
func Not(f Filter) Filter {
	return func(r Record) bool { return !f(r) }
}

// AcceptAll matches every record.
func AcceptAll() Filter { return func(Record) bool { return true } }

// CategoryEquals matches records whose category is present and equal to c.
func CategoryEquals(c string) Filter {
	return func(r Record) bool {
		got, ok := r.Category()
		return ok && got == c
	}
}

// HasCategory matches records with a category.
func HasCategory() Filter {
	return func(r Record) bool { return r.category.Valid() }
}

// HasRecordID matches records with an id.
func HasRecordID() Filter {
	return func(r Record) bool { return r.hasID }
}

// SizeEquals matches records with exactly n fields.
func SizeEquals(n int) Filter {
	return func(r Record) bool { return len(r.fields) == n }
}

// TextEquals matches records whose field at index exists, is non-null and
// equals s.
func TextEquals(index int, s string) Filter {
	return func(r Record) bool {
		t, ok := r.Text(index)
		v, valid := t.Get()
		return ok && valid && v == s
	}
}

// TextPresent matches records whose field at index exists and is non-null.
// With nonEmpty set, the empty string does not count as present.
func TextPresent(index int, nonEmpty bool) Filter {
	return func(r Record) bool {
		t, ok := r.Text(index)
		v, valid := t.Get()
		return ok && valid && (!nonEmpty || v != "")
	}
}

// MessageMatches matches records for which pred accepts the rendered message.
func MessageMatches(m Message, pred func(Text) bool) Filter {
	return func(r Record) bool { return pred(m(r)) }
}

package records

// Mapper is a pure record transform.
type Mapper func(r Record) Record

// Identity returns its input.
func Identity() Mapper { return func(r Record) Record { return r } }

// AndThen applies mappers left to right.
func AndThen(mappers ...Mapper) Mapper {
	return func(r Record) Record {
		for _, m := range mappers {
			r = m(r)
		}
		return r
	}
}

// MapTexts applies fn to every field text, keeping category, id and kind
// (the kind falls back to generic when fn nulls a key).
func MapTexts(fn func(index int, t Text) Text) Mapper {
	return func(r Record) Record {
		texts := r.Texts()
		for i, t := range texts {
			texts[i] = fn(i, t)
		}
		out := r
		if r.kind.hasKey() && !texts[0].Valid() {
			out.kind = KindGeneric
		}
		out.fields = makeFields(texts)
		return out
	}
}

// SelectIndexes projects the record onto indexes (see Record.Select).
func SelectIndexes(indexes ...int) Mapper {
	return func(r Record) Record { return r.Select(indexes...) }
}

// ToCategory sets the category from a message; a null message removes it.
func ToCategory(m Message) Mapper {
	return func(r Record) Record { return r.WithCategoryText(m(r)) }
}

// AppendMessage appends the rendered message as a new last field.
func AppendMessage(m Message) Mapper {
	return func(r Record) Record { return r.Append(m(r)) }
}

// WithoutCategoryMapper strips the category.
func WithoutCategoryMapper() Mapper {
	return func(r Record) Record { return r.WithoutCategory() }
}

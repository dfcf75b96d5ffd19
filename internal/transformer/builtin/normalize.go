package builtin

import (
	"slices"
	"strings"
	"unicode"

	"recflow/pkg/records"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize cleans field texts: the UTF-8 no-break space mis-decoded as
// Latin-1 ("Â ") and real no-break spaces become plain spaces, surrounding
// whitespace is trimmed and the result is NFC-composed.
type Normalize struct {
	// Indexes limits normalisation to these fields. Empty means all fields.
	Indexes []int
	// StripDiacritics removes combining marks ("Dvořák" -> "Dvorak").
	StripDiacritics bool
	// Lower lower-cases the text.
	Lower bool
	// StripMarkup removes <...> tags before anything else.
	StripMarkup bool
	// CollapseSpace turns inner runs of white space into one space.
	CollapseSpace bool
}

// Mapper returns the record mapper. Null texts stay null.
func (n Normalize) Mapper() records.Mapper {
	indexes := slices.Clone(n.Indexes)
	return records.MapTexts(func(i int, t records.Text) records.Text {
		v, ok := t.Get()
		if !ok || (len(indexes) > 0 && !slices.Contains(indexes, i)) {
			return t
		}
		return records.TextOf(n.String(v))
	})
}

// String normalises a single value.
func (n Normalize) String(s string) string {
	if n.StripMarkup {
		s = stripMarkup(s)
	}
	s = strings.ReplaceAll(s, "\u00c2\u00a0", " ")
	s = strings.ReplaceAll(s, "\u00c2 ", " ")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)

	var t transform.Transformer = norm.NFC
	if n.StripDiacritics {
		t = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	}
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	if n.CollapseSpace {
		s = collapseSpace(s)
	}
	if n.Lower {
		s = strings.ToLower(s)
	}
	return s
}

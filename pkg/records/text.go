package records

// Text is the optional value held by a Field. The zero value is null.
//
// Text distinguishes "present but null" from a present string. Whether a
// field exists at all is reported separately by Record.Text, so callers always
// see two levels: field present?, text non-null?
type Text struct {
	s     string
	valid bool
}

// TextOf returns a non-null Text holding s.
func TextOf(s string) Text { return Text{s: s, valid: true} }

// NullText returns the null Text.
func NullText() Text { return Text{} }

// Texts converts values to non-null Texts.
func Texts(values ...string) []Text {
	out := make([]Text, len(values))
	for i, v := range values {
		out[i] = TextOf(v)
	}
	return out
}

// Get returns the string and whether the Text is non-null.
func (t Text) Get() (string, bool) { return t.s, t.valid }

// Valid reports whether the Text is non-null.
func (t Text) Valid() bool { return t.valid }

// OrElse returns the string, or def when the Text is null.
func (t Text) OrElse(def string) string {
	if !t.valid {
		return def
	}
	return t.s
}

// String renders null as "<null>".
func (t Text) String() string {
	if !t.valid {
		return "<null>"
	}
	return t.s
}

package records

import (
	"strconv"
	"strings"
)

// Message renders a record as optional text. It is used as a key or label
// extractor by transformers.
type Message func(r Record) Text

// NonNullMessage renders a record as text that is never null.
type NonNullMessage func(r Record) string

// ConstMessage always renders s.
func ConstMessage(s string) NonNullMessage {
	return func(Record) string { return s }
}

// TextMessage renders the text at index; absent fields render null.
func TextMessage(index int) Message {
	return func(r Record) Text {
		t, _ := r.Text(index)
		return t
	}
}

// CategoryMessage renders the record category.
func CategoryMessage() Message {
	return func(r Record) Text { return r.category }
}

// IDMessage renders the record id in base 10.
func IDMessage() Message {
	return func(r Record) Text {
		if !r.hasID {
			return Text{}
		}
		return TextOf(strconv.FormatInt(r.id, 10))
	}
}

// OrElse turns m into a NonNullMessage by substituting def for null.
func OrElse(m Message, def string) NonNullMessage {
	return func(r Record) string { return m(r).OrElse(def) }
}

// PrefixMessage renders prefix followed by m.
func PrefixMessage(prefix string, m NonNullMessage) NonNullMessage {
	return func(r Record) string { return prefix + m(r) }
}

// SuffixMessage renders m followed by suffix.
func SuffixMessage(m NonNullMessage, suffix string) NonNullMessage {
	return func(r Record) string { return m(r) + suffix }
}

// JoinMessages renders every part and joins them with sep.
func JoinMessages(sep string, parts ...NonNullMessage) NonNullMessage {
	return func(r Record) string {
		out := make([]string, len(parts))
		for i, p := range parts {
			out[i] = p(r)
		}
		return strings.Join(out, sep)
	}
}

// TextsMessage joins all field texts with sep, rendering null as nullText.
func TextsMessage(sep, nullText string) NonNullMessage {
	return func(r Record) string { return strings.Join(r.Strings(nullText), sep) }
}

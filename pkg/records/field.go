package records

import "fmt"

// Field is one slot of a Record. Fields are values: they are created as part
// of record construction and never change afterwards.
type Field struct {
	index    int
	maxIndex int
	text     Text
}

// NewField returns a field at index within a record whose last index is
// maxIndex. It fails with ErrInconsistentField when index is negative or
// greater than maxIndex.
func NewField(index, maxIndex int, text Text) (Field, error) {
	if index < 0 || index > maxIndex {
		return Field{}, fmt.Errorf("%w: index=%d maxIndex=%d", ErrInconsistentField, index, maxIndex)
	}
	return Field{index: index, maxIndex: maxIndex, text: text}, nil
}

// Index is the 0-based position of the field in its record.
func (f Field) Index() int { return f.index }

// MaxIndex is size-1 of the owning record.
func (f Field) MaxIndex() int { return f.maxIndex }

// IsFirst reports whether the field is at index 0.
func (f Field) IsFirst() bool { return f.index == 0 }

// IsLast reports whether the field has the maximum index of its record.
func (f Field) IsLast() bool { return f.index == f.maxIndex }

// Text returns the field value.
func (f Field) Text() Text { return f.text }

func (f Field) String() string {
	if v, ok := f.text.Get(); ok {
		return fmt.Sprintf("[%d,'%s']", f.index, v)
	}
	return fmt.Sprintf("[%d]", f.index)
}

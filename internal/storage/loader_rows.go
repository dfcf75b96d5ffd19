package storage

import (
	"strconv"

	"recflow/internal/config"
	"recflow/pkg/records"
)

// RowMapper turns records into rows aligned to config.DBConfig.AllColumns:
// Width field columns, then the category and record id columns when enabled.
// Null texts, absent fields, a null category and a missing record id become
// SQL NULL; fields beyond Width are dropped.
type RowMapper struct {
	Width    int
	Category bool
	RecordID bool
}

// NewRowMapper returns the mapper matching db.
func NewRowMapper(db config.DBConfig) RowMapper {
	return RowMapper{
		Width:    len(db.Columns),
		Category: db.CategoryColumn != "",
		RecordID: db.RecordIDColumn != "",
	}
}

// Size is the number of values in every row.
func (m RowMapper) Size() int {
	n := m.Width
	if m.Category {
		n++
	}
	if m.RecordID {
		n++
	}
	return n
}

// Row renders r.
func (m RowMapper) Row(r records.Record) []any {
	row := make([]any, 0, m.Size())
	for i := 0; i < m.Width; i++ {
		t, _ := r.Text(i)
		row = append(row, textValue(t))
	}
	if m.Category {
		row = append(row, textValue(r.CategoryText()))
	}
	if m.RecordID {
		if id, ok := r.RecordID(); ok {
			row = append(row, strconv.FormatInt(id, 10))
		} else {
			row = append(row, nil)
		}
	}
	return row
}

func textValue(t records.Text) any {
	if v, ok := t.Get(); ok {
		return v
	}
	return nil
}

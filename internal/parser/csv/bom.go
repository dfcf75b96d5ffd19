package csv

import "strings"

const utf8BOM = "\uFEFF"

// stripBOM removes a UTF-8 BOM from the first cell if present.
func stripBOM(fields []string) []string {
	if len(fields) > 0 && strings.HasPrefix(fields[0], utf8BOM) {
		fields[0] = strings.TrimPrefix(fields[0], utf8BOM)
	}
	return fields
}

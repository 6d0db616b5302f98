package main

import (
	"fmt"
	"strings"
)

// toCSV renders rows as CSV text with a header line. Every field is quoted,
// embedded double quotes are doubled. If columns is nil, the column set of the
// first row (in its reported order) is used. Columns missing from a row render
// as empty fields; row keys outside the column set are dropped.
//
// An empty row set renders as the empty string, without a header. The "no
// results" messaging is the tool layer's job, not the formatter's.
func toCSV(rows []Row, columns []string) string {
	if len(rows) == 0 {
		return ""
	}

	if columns == nil {
		columns = rows[0].Columns
	}

	var b strings.Builder
	writeCSVRecord(&b, columns)

	for _, row := range rows {
		fields := make([]string, len(columns))
		for i, col := range columns {
			fields[i] = formatValue(row.Values[col])
		}
		writeCSVRecord(&b, fields)
	}

	return b.String()
}

// writeCSVRecord writes one line of always-quoted, comma-separated fields.
// encoding/csv only quotes when necessary, which breaks output compatibility,
// hence the hand-rolled writer.
func writeCSVRecord(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}

// formatValue converts a backend-native scalar to its text representation.
// No type coercion beyond rendering: NULL becomes an empty field, byte slices
// are treated as text (the MySQL driver returns strings as []byte).
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

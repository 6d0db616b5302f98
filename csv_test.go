package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvLines(t *testing.T, s string) []string {
	t.Helper()
	return strings.Split(strings.TrimRight(s, "\r\n"), "\r\n")
}

func TestToCSV_Basic(t *testing.T) {
	rows := []Row{
		{Columns: []string{"name", "age"}, Values: map[string]any{"name": "Alice", "age": "30"}},
		{Columns: []string{"name", "age"}, Values: map[string]any{"name": "Bob", "age": "25"}},
	}

	result := toCSV(rows, nil)
	lines := csvLines(t, result)

	require.Len(t, lines, 3) // header + 2 rows
	assert.Equal(t, `"name","age"`, lines[0])
	assert.Equal(t, `"Alice","30"`, lines[1])
	assert.Equal(t, `"Bob","25"`, lines[2])
}

func TestToCSV_ExplicitColumnOrder(t *testing.T) {
	// The requested column list wins over the row's own key order.
	rows := []Row{
		{Columns: []string{"b", "a", "c"}, Values: map[string]any{"b": "2", "a": "1", "c": "3"}},
	}

	result := toCSV(rows, []string{"a", "b", "c"})
	lines := csvLines(t, result)

	assert.Equal(t, `"a","b","c"`, lines[0])
	assert.Equal(t, `"1","2","3"`, lines[1])
}

func TestToCSV_Empty(t *testing.T) {
	// No header-only output for empty input.
	assert.Equal(t, "", toCSV(nil, nil))
	assert.Equal(t, "", toCSV([]Row{}, []string{"a"}))
}

func TestToCSV_QuotesEscaped(t *testing.T) {
	rows := []Row{
		{Columns: []string{"name"}, Values: map[string]any{"name": `Say "Hello"`}},
	}

	result := toCSV(rows, nil)

	assert.Contains(t, result, `"Say ""Hello"""`)
}

func TestToCSV_CommasQuoted(t *testing.T) {
	rows := []Row{
		{Columns: []string{"name", "value"}, Values: map[string]any{"name": "Smith, John", "value": "test"}},
	}

	result := toCSV(rows, nil)
	lines := csvLines(t, result)

	assert.Contains(t, result, `"Smith, John"`)
	assert.Equal(t, `"Smith, John","test"`, lines[1])
}

func TestToCSV_MissingAndExtraColumns(t *testing.T) {
	rows := []Row{
		{Values: map[string]any{"a": "1", "z": "dropped"}},
		{Values: map[string]any{"b": "2"}},
	}

	result := toCSV(rows, []string{"a", "b"})
	lines := csvLines(t, result)

	require.Len(t, lines, 3)
	assert.Equal(t, `"1",""`, lines[1])
	assert.Equal(t, `"","2"`, lines[2])
	assert.NotContains(t, result, "dropped")
}

func TestToCSV_ColumnsInferredFromFirstRow(t *testing.T) {
	rows := []Row{
		{Columns: []string{"ID", "NAME"}, Values: map[string]any{"ID": int64(1), "NAME": "x"}},
		{Columns: []string{"ID", "NAME"}, Values: map[string]any{"ID": int64(2), "NAME": "y"}},
	}

	result := toCSV(rows, nil)
	lines := csvLines(t, result)

	assert.Equal(t, `"ID","NAME"`, lines[0])
	assert.Equal(t, `"1","x"`, lines[1])
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil is empty", nil, ""},
		{"string passthrough", "abc", "abc"},
		{"bytes as text", []byte("abc"), "abc"},
		{"int64", int64(42), "42"},
		{"float64", 1.5, "1.5"},
		{"bool", true, "true"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatValue(tc.in))
		})
	}
}

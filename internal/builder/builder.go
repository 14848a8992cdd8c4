// Package builder materialises a SliceBatch into either a row-of-strings
// batch or a columnar, typed batch with null masks, applying column
// selection, trimming, null-token substitution, and typed decoding.
package builder

import (
	"github.com/hghukasyan/ultratab/internal/sliceparser"
	"github.com/hghukasyan/ultratab/internal/typedecode"
)

// ColumnType discriminates a Column's typed representation.
type ColumnType int

const (
	ColumnString ColumnType = iota
	ColumnInt32
	ColumnInt64
	ColumnFloat64
	ColumnBool
)

// TypedFallback controls behaviour on a typed-column decode failure. Per
// the documented open point, TypedFallbackString still nulls the cell for
// typed columns; widening the column to string on demand is not supported.
type TypedFallback int

const (
	TypedFallbackNull TypedFallback = iota
	TypedFallbackString
)

// ColumnarOptions configures columnar materialisation.
type ColumnarOptions struct {
	Select        []string
	Schema        map[string]ColumnType
	NullValues    []string
	Trim          bool
	TypedFallback TypedFallback
}

// DefaultNullValues is the default null-token set: empty string, "null",
// and "NULL".
func DefaultNullValues() []string {
	return []string{"", "null", "NULL"}
}

// Column is a discriminated union over the five supported column types.
// Non-string variants carry a parallel NullMask (0 = valid, 1 = null) of
// the same length as the typed vector; string columns carry none.
type Column struct {
	Type     ColumnType
	Strings  []string
	Int32s   []int32
	Int64s   []int64
	Float64s []float64
	Bools    []bool
	NullMask []byte
}

// ColumnarBatch is the materialised typed view of one SliceBatch.
type ColumnarBatch struct {
	Headers []string
	Columns map[string]*Column
	Rows    int
}

// BuildRowBatch renders every row's field slices as strings.
func BuildRowBatch(batch sliceparser.SliceBatch) [][]string {
	out := make([][]string, len(batch.Rows))
	for i, row := range batch.Rows {
		cells := make([]string, len(row))
		for j, fs := range row {
			cells[j] = cellString(batch.Arena, fs)
		}
		out[i] = cells
	}
	return out
}

func cellString(arena []byte, fs sliceparser.FieldSlice) string {
	if fs.Length == 0 {
		return ""
	}
	return string(arena[fs.Offset : fs.Offset+fs.Length])
}

func cellBytes(arena []byte, fs sliceparser.FieldSlice) []byte {
	return arena[fs.Offset : fs.Offset+fs.Length]
}

func isNullToken(s string, nullValues []string) bool {
	for _, v := range nullValues {
		if s == v {
			return true
		}
	}
	return false
}

func trimASCIISpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isASCIISpace(b[start]) {
		start++
	}
	for end > start && isASCIISpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isASCIISpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// selectedIndices resolves which logical column indices (into headers) are
// selected, in the order BuildColumnarBatch should emit them. A nil/empty
// select list means every header, in header order.
func selectedIndices(headers []string, opts ColumnarOptions) []int {
	if len(opts.Select) == 0 {
		idx := make([]int, len(headers))
		for i := range headers {
			idx[i] = i
		}
		return idx
	}
	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		pos[h] = i
	}
	idx := make([]int, 0, len(opts.Select))
	for _, name := range opts.Select {
		if i, ok := pos[name]; ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// SelectedColumnIndices exposes the header-position push-down list so the
// caller can feed it to the slice parser's SetSelectedColumnIndices before
// parsing the data rows.
func SelectedColumnIndices(headers []string, opts ColumnarOptions) []int {
	return selectedIndices(headers, opts)
}

// BuildColumnarBatch materialises a typed, null-masked columnar view.
// headers is the fully resolved header list (already filtered/ordered by
// selection, matching the push-down indices used when parsing rows).
func BuildColumnarBatch(batch sliceparser.SliceBatch, headers []string, opts ColumnarOptions) ColumnarBatch {
	nullValues := opts.NullValues
	if nullValues == nil {
		nullValues = DefaultNullValues()
	}

	n := len(batch.Rows)
	columns := make(map[string]*Column, len(headers))
	for _, h := range headers {
		colType := ColumnString
		if opts.Schema != nil {
			if t, ok := opts.Schema[h]; ok {
				colType = t
			}
		}
		columns[h] = newColumn(colType, n)
	}

	for rowIdx, row := range batch.Rows {
		for colIdx, h := range headers {
			col := columns[h]
			var raw []byte
			if colIdx < len(row) {
				raw = cellBytes(batch.Arena, row[colIdx])
			}
			if opts.Trim {
				raw = trimASCIISpace(raw)
			}
			setCell(col, rowIdx, raw, nullValues)
		}
	}

	return ColumnarBatch{Headers: headers, Columns: columns, Rows: n}
}

// BuildColumnarBatchFromStrings materialises a typed, null-masked columnar
// view from already-stringified rows (the XLSX adapter's row shape, as
// opposed to BuildColumnarBatch's arena-backed SliceBatch rows).
func BuildColumnarBatchFromStrings(rows [][]string, headers []string, opts ColumnarOptions) ColumnarBatch {
	nullValues := opts.NullValues
	if nullValues == nil {
		nullValues = DefaultNullValues()
	}

	n := len(rows)
	columns := make(map[string]*Column, len(headers))
	for _, h := range headers {
		colType := ColumnString
		if opts.Schema != nil {
			if t, ok := opts.Schema[h]; ok {
				colType = t
			}
		}
		columns[h] = newColumn(colType, n)
	}

	for rowIdx, row := range rows {
		for colIdx, h := range headers {
			col := columns[h]
			var raw []byte
			if colIdx < len(row) {
				raw = []byte(row[colIdx])
			}
			if opts.Trim {
				raw = trimASCIISpace(raw)
			}
			setCell(col, rowIdx, raw, nullValues)
		}
	}

	return ColumnarBatch{Headers: headers, Columns: columns, Rows: n}
}

func newColumn(t ColumnType, n int) *Column {
	c := &Column{Type: t}
	switch t {
	case ColumnString:
		c.Strings = make([]string, n)
	case ColumnInt32:
		c.Int32s = make([]int32, n)
		c.NullMask = make([]byte, n)
	case ColumnInt64:
		c.Int64s = make([]int64, n)
		c.NullMask = make([]byte, n)
	case ColumnFloat64:
		c.Float64s = make([]float64, n)
		c.NullMask = make([]byte, n)
	case ColumnBool:
		c.Bools = make([]bool, n)
		c.NullMask = make([]byte, n)
	}
	return c
}

// setCell decodes one cell into col at row. TypedFallbackString is accepted
// as a config value but, per the preserved open point, still nulls a
// failed typed decode rather than widening the column to string.
func setCell(col *Column, row int, raw []byte, nullValues []string) {
	if col.Type == ColumnString {
		s := string(raw)
		if isNullToken(s, nullValues) {
			s = ""
		}
		col.Strings[row] = s
		return
	}

	s := string(raw)
	if isNullToken(s, nullValues) {
		col.NullMask[row] = 1
		return
	}

	ok := false
	switch col.Type {
	case ColumnInt32:
		var v int32
		v, ok = typedecode.Int32(raw)
		if ok {
			col.Int32s[row] = v
		}
	case ColumnInt64:
		var v int64
		v, ok = typedecode.Int64(raw)
		if ok {
			col.Int64s[row] = v
		}
	case ColumnFloat64:
		var v float64
		v, ok = typedecode.Float64(raw)
		if ok {
			col.Float64s[row] = v
		}
	case ColumnBool:
		var v bool
		v, ok = typedecode.Bool(raw)
		if ok {
			col.Bools[row] = v
		}
	}
	if !ok {
		col.NullMask[row] = 1
	}
}

package ultratab

import (
	"github.com/hghukasyan/ultratab/internal/builder"
)

// BatchKind discriminates a BatchResult's variant.
type BatchKind int

const (
	BatchKindData BatchKind = iota
	BatchKindDone
	BatchKindCancelled
	BatchKindError
)

// ColumnData is one materialised typed column plus its null mask (0 =
// valid, 1 = null), indexed by output row position within the batch.
type ColumnData struct {
	Type     ColumnType
	Strings  []string
	Int32s   []int32
	Int64s   []int64
	Float64s []float64
	Bools    []bool
	NullMask []byte
}

func columnFrom(c *builder.Column) ColumnData {
	t := ColumnString
	switch c.Type {
	case builder.ColumnInt32:
		t = ColumnInt32
	case builder.ColumnInt64:
		t = ColumnInt64
	case builder.ColumnFloat64:
		t = ColumnFloat64
	case builder.ColumnBool:
		t = ColumnBool
	}
	return ColumnData{
		Type:     t,
		Strings:  c.Strings,
		Int32s:   c.Int32s,
		Int64s:   c.Int64s,
		Float64s: c.Float64s,
		Bools:    c.Bools,
		NullMask: c.NullMask,
	}
}

// BatchResult is the tagged union handed back by every parser's NextBatch.
// Only the field matching Kind is meaningful.
type BatchResult struct {
	Kind BatchKind
	Err  error

	// Rows holds row-mode and non-columnar XLSX sheet payloads.
	Rows [][]string

	// Columnar holds columnar-mode and columnar XLSX sheet payloads.
	Headers  []string
	RowCount int
	Columns  map[string]ColumnData
}

func rowBatchResult(rows [][]string) BatchResult {
	return BatchResult{Kind: BatchKindData, Rows: rows}
}

func columnarBatchResult(b builder.ColumnarBatch) BatchResult {
	cols := make(map[string]ColumnData, len(b.Columns))
	for name, c := range b.Columns {
		cols[name] = columnFrom(c)
	}
	return BatchResult{
		Kind:     BatchKindData,
		Headers:  b.Headers,
		RowCount: b.Rows,
		Columns:  cols,
	}
}

var doneResult = BatchResult{Kind: BatchKindDone}
var cancelledResult = BatchResult{Kind: BatchKindCancelled}

func errorResult(err error) BatchResult {
	return BatchResult{Kind: BatchKindError, Err: err}
}

// MetricsSnapshot is a point-in-time read of a parser's counters.
type MetricsSnapshot struct {
	BytesRead           uint64
	RowsParsed          uint64
	BatchesEmitted      uint64
	QueueWaitNs         uint64
	ParseTimeNs         uint64
	ReadTimeNs          uint64
	BuildTimeNs         uint64
	EmitTimeNs          uint64
	ArenaBytesAllocated uint64
	ArenaBlocks         uint64
	ArenaResets         uint64
	PeakArenaUsage      uint64
}

package ultratab

import (
	"fmt"

	"github.com/hghukasyan/ultratab/internal/builder"
	"go.uber.org/zap"
)

// ColumnType names a typed-column decoder; used in ColumnarOptions.Schema
// and XLSXOptions.Schema.
type ColumnType int

const (
	ColumnString ColumnType = iota
	ColumnInt32
	ColumnInt64
	ColumnFloat64
	ColumnBool
)

func (t ColumnType) toInternal() builder.ColumnType {
	switch t {
	case ColumnInt32:
		return builder.ColumnInt32
	case ColumnInt64:
		return builder.ColumnInt64
	case ColumnFloat64:
		return builder.ColumnFloat64
	case ColumnBool:
		return builder.ColumnBool
	default:
		return builder.ColumnString
	}
}

// TypedFallback controls behaviour on a typed-column decode failure.
// TypedFallbackString is accepted but, per the module's preserved open
// point, still nulls the cell rather than widening the column to string.
type TypedFallback int

const (
	TypedFallbackNull TypedFallback = iota
	TypedFallbackString
)

const (
	minBatchSize       = 1
	maxBatchSize       = 10_000_000
	defaultBatchSize   = 10_000
	minQueueDepth      = 1
	maxQueueDepth      = 256
	defaultQueueDepth  = 2
	minReadBufferSize  = 4 << 10
	maxReadBufferSize  = 64 << 20
	defaultReadBuffer  = 256 << 10
	defaultXLSXBatch   = 5000
)

// CSVOptions configures a row-oriented CSV parser.
type CSVOptions struct {
	Delimiter       byte
	Quote           byte
	Headers         bool
	BatchSize       int
	MaxQueueBatches int
	UseMmap         bool
	ReadBufferSize  int
	Logger          *zap.Logger
}

// DefaultCSVOptions returns the documented defaults.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:       ',',
		Quote:           '"',
		Headers:         true,
		BatchSize:       defaultBatchSize,
		MaxQueueBatches: defaultQueueDepth,
		ReadBufferSize:  defaultReadBuffer,
	}
}

func (o *CSVOptions) normalize() error {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.Quote == 0 {
		o.Quote = '"'
	}
	if o.BatchSize == 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.BatchSize < minBatchSize || o.BatchSize > maxBatchSize {
		return fmt.Errorf("%w: batch_size %d out of range [%d, %d]", ErrInvalidOption, o.BatchSize, minBatchSize, maxBatchSize)
	}
	if o.MaxQueueBatches == 0 {
		o.MaxQueueBatches = defaultQueueDepth
	}
	if o.MaxQueueBatches < minQueueDepth || o.MaxQueueBatches > maxQueueDepth {
		return fmt.Errorf("%w: max_queue_batches %d out of range [%d, %d]", ErrInvalidOption, o.MaxQueueBatches, minQueueDepth, maxQueueDepth)
	}
	if o.ReadBufferSize == 0 {
		o.ReadBufferSize = defaultReadBuffer
	}
	if o.ReadBufferSize < minReadBufferSize || o.ReadBufferSize > maxReadBufferSize {
		return fmt.Errorf("%w: read_buffer_size %d out of range [%d, %d]", ErrInvalidOption, o.ReadBufferSize, minReadBufferSize, maxReadBufferSize)
	}
	return nil
}

// ColumnarOptions configures a typed columnar CSV parser; it embeds every
// CSVOptions field plus the columnar-only additions.
type ColumnarOptions struct {
	CSVOptions

	Select        []string
	Schema        map[string]ColumnType
	NullValues    []string
	Trim          bool
	TypedFallback TypedFallback
}

// DefaultColumnarOptions returns the documented defaults.
func DefaultColumnarOptions() ColumnarOptions {
	return ColumnarOptions{
		CSVOptions: DefaultCSVOptions(),
		NullValues: builder.DefaultNullValues(),
	}
}

func (o *ColumnarOptions) normalize() error {
	if err := o.CSVOptions.normalize(); err != nil {
		return err
	}
	if o.NullValues == nil {
		o.NullValues = builder.DefaultNullValues()
	}
	return nil
}

func (o ColumnarOptions) toBuilderOptions() builder.ColumnarOptions {
	schema := make(map[string]builder.ColumnType, len(o.Schema))
	for k, v := range o.Schema {
		schema[k] = v.toInternal()
	}
	fallback := builder.TypedFallbackNull
	if o.TypedFallback == TypedFallbackString {
		fallback = builder.TypedFallbackString
	}
	return builder.ColumnarOptions{
		Select:        o.Select,
		Schema:        schema,
		NullValues:    o.NullValues,
		Trim:          o.Trim,
		TypedFallback: fallback,
	}
}

// XLSXOptions configures an XLSX parser. SheetIndex is 1-based; SheetName,
// if non-empty, selects by name instead.
type XLSXOptions struct {
	SheetIndex int
	SheetName  string

	Headers       bool
	BatchSize     int
	Select        []string
	Schema        map[string]ColumnType
	NullValues    []string
	Trim          bool
	TypedFallback TypedFallback
	Logger        *zap.Logger
}

// DefaultXLSXOptions returns the documented defaults.
func DefaultXLSXOptions() XLSXOptions {
	return XLSXOptions{
		SheetIndex: 1,
		Headers:    true,
		BatchSize:  defaultXLSXBatch,
		NullValues: builder.DefaultNullValues(),
	}
}

func (o *XLSXOptions) normalize() error {
	if o.SheetIndex == 0 && o.SheetName == "" {
		o.SheetIndex = 1
	}
	if o.BatchSize == 0 {
		o.BatchSize = defaultXLSXBatch
	}
	if o.BatchSize < minBatchSize || o.BatchSize > maxBatchSize {
		return fmt.Errorf("%w: batch_size %d out of range [%d, %d]", ErrInvalidOption, o.BatchSize, minBatchSize, maxBatchSize)
	}
	if o.NullValues == nil {
		o.NullValues = builder.DefaultNullValues()
	}
	return nil
}

func (o XLSXOptions) toBuilderOptions() builder.ColumnarOptions {
	schema := make(map[string]builder.ColumnType, len(o.Schema))
	for k, v := range o.Schema {
		schema[k] = v.toInternal()
	}
	fallback := builder.TypedFallbackNull
	if o.TypedFallback == TypedFallbackString {
		fallback = builder.TypedFallbackString
	}
	return builder.ColumnarOptions{
		Select:        o.Select,
		Schema:        schema,
		NullValues:    o.NullValues,
		Trim:          o.Trim,
		TypedFallback: fallback,
	}
}

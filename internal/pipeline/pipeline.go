// Package pipeline implements the streaming orchestrator: a worker that
// drives Reader -> slice parser -> builder -> bounded queue, with
// cancellation and the row/columnar header-handling split described by the
// module's specification.
package pipeline

import (
	"context"

	"github.com/hghukasyan/ultratab/internal/metrics"
	"github.com/hghukasyan/ultratab/internal/queue"
	"github.com/hghukasyan/ultratab/internal/reader"
	"github.com/hghukasyan/ultratab/internal/sliceparser"
	"go.uber.org/zap"
)

// Kind discriminates a Result's variant.
type Kind int

const (
	KindData Kind = iota
	KindDone
	KindCancelled
	KindError
)

// Result is one element of the bounded queue: a completed batch payload, a
// terminal Done marker, a Cancelled marker, or an Error.
type Result[T any] struct {
	Kind    Kind
	Payload T
	Err     error
}

// HeaderMode controls how the worker treats the first logical row.
type HeaderMode int

const (
	// HeaderNone: no header row; every row is data.
	HeaderNone HeaderMode = iota
	// HeaderSkip: the first row is discarded at the slice-parser level and
	// never counts toward a batch (row-mode header handling).
	HeaderSkip
	// HeaderConsume: the first row is parsed normally as part of the first
	// batch, then peeled off by the worker and handed to HeaderCallback
	// before the remaining rows of that first batch are built (columnar
	// header path).
	HeaderConsume
)

// HeaderCallback resolves the raw header-row cell strings into the final
// output header list and, for push-down selection, the logical column
// indices the slice parser should keep copying from the next batch onward.
// A nil selectedIndices return means "select every column".
type HeaderCallback func(headerRow []string) (resolvedHeaders []string, selectedIndices []int)

// BuildFunc materialises one SliceBatch, given the (possibly still empty,
// for row mode) resolved header list, into the payload type T.
type BuildFunc[T any] func(batch sliceparser.SliceBatch, headers []string) T

// Worker drives one parser instance's background processing loop.
type Worker[T any] struct {
	Reader     reader.Reader
	Parser     *sliceparser.Parser
	HeaderMode HeaderMode
	HeaderCB   HeaderCallback
	Build      BuildFunc[T]
	Out        *queue.Queue[Result[T]]
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	headers        []string
	headerConsumed bool
}

// Run executes the worker loop to completion: it exits when the reader is
// drained (pushing a final Done), when ctx is cancelled (pushing nothing
// further once the queue observes cancellation), or when an error occurs
// (pushing a single Error and returning).
func (w *Worker[T]) Run(ctx context.Context) {
	defer w.Reader.Close()

	if w.HeaderMode == HeaderSkip {
		w.Parser.SkipOneRow()
	}

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			w.Out.Cancel()
		case <-stopWatch:
		}
	}()

	var remainder []byte
	for {
		chunk, err := w.Reader.Next()
		if err != nil {
			w.Out.Push(Result[T]{Kind: KindError, Err: err})
			return
		}
		if len(chunk) == 0 {
			break
		}
		w.Metrics.BytesRead.Add(uint64(len(chunk)))
		w.Parser.Feed(remainder, chunk)
		if !w.drainBatches() {
			return
		}
		remainder = cloneBytes(w.Parser.Remainder())
	}

	w.Parser.Feed(remainder, nil)
	w.Parser.Flush()
	if !w.drainBatches() {
		return
	}

	final := w.Parser.TakeBatch()
	needsFinal := len(final.Rows) > 0 || (w.HeaderMode == HeaderConsume && !w.headerConsumed)
	if needsFinal {
		if !w.emit(final) {
			return
		}
	}

	w.Out.Push(Result[T]{Kind: KindDone})
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (w *Worker[T]) drainBatches() bool {
	for w.Parser.HasBatch() {
		batch := w.Parser.TakeBatch()
		if !w.emit(batch) {
			return false
		}
	}
	return true
}

func (w *Worker[T]) emit(batch sliceparser.SliceBatch) bool {
	if w.HeaderMode == HeaderConsume && !w.headerConsumed {
		w.headerConsumed = true
		if len(batch.Rows) > 0 {
			headerRow := batch.Rows[0]
			raw := make([]string, len(headerRow))
			for i, fs := range headerRow {
				raw[i] = string(batch.Arena[fs.Offset : fs.Offset+fs.Length])
			}
			var selected []int
			if w.HeaderCB != nil {
				w.headers, selected = w.HeaderCB(raw)
				w.Parser.SetSelectedColumnIndices(selected)
			} else {
				w.headers = raw
			}
			batch.Rows = batch.Rows[1:]
			// This batch was parsed before the push-down took effect, so its
			// data rows still hold every logical column: keep only the
			// selected ones, in selection order.
			if selected != nil {
				for i, row := range batch.Rows {
					picked := make(sliceparser.SliceRow, len(selected))
					for j, col := range selected {
						if col < len(row) {
							picked[j] = row[col]
						}
					}
					batch.Rows[i] = picked
				}
			}
		}
	}

	if len(batch.Rows) == 0 {
		return true
	}

	w.Metrics.RowsParsed.Add(uint64(len(batch.Rows)))
	w.Metrics.BatchesEmitted.Add(1)
	payload := w.Build(batch, w.headers)
	return w.Out.Push(Result[T]{Kind: KindData, Payload: payload})
}

package ultratab

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hghukasyan/ultratab/internal/builder"
	"github.com/hghukasyan/ultratab/internal/queue"
	"github.com/hghukasyan/ultratab/internal/xlsx"
)

// XLSXParser streams one workbook sheet as row or columnar batches,
// selecting the columnar shape automatically once Select or Schema is set
// (matching the original adapter's "columnar when select/schema given"
// rule).
type XLSXParser struct {
	cancel context.CancelFunc
	out    *queue.Queue[BatchResult]
	closed atomic.Bool
}

// NewXLSXParser opens path, resolves the requested sheet, and starts
// collecting its rows in the background.
func NewXLSXParser(path string, opts XLSXOptions) (*XLSXParser, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	out := queue.New[BatchResult](2)
	columnar := len(opts.Select) > 0 || len(opts.Schema) > 0
	builderOpts := opts.toBuilderOptions()

	xopts := xlsx.Options{
		SheetIndex: opts.SheetIndex,
		SheetName:  opts.SheetName,
		Headers:    opts.Headers,
		BatchSize:  opts.BatchSize,
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		err := xlsx.Collect(path, xopts, func(rb xlsx.RowBatch) bool {
			if out.Cancelled() {
				return false
			}
			var br BatchResult
			if columnar {
				idx := builder.SelectedColumnIndices(rb.Headers, builderOpts)
				headers := make([]string, len(idx))
				for i, col := range idx {
					headers[i] = rb.Headers[col]
				}
				rows := make([][]string, len(rb.Rows))
				for i, row := range rb.Rows {
					cells := make([]string, len(idx))
					for j, col := range idx {
						if col < len(row) {
							cells[j] = row[col]
						}
					}
					rows[i] = cells
				}
				batch := builder.BuildColumnarBatchFromStrings(rows, headers, builderOpts)
				br = columnarBatchResult(batch)
			} else {
				br = rowBatchResult(rb.Rows)
			}
			select {
			case <-ctx.Done():
				return false
			default:
			}
			return out.Push(br)
		})
		if err != nil {
			if errors.Is(err, xlsx.ErrSheetNotFound) {
				err = fmt.Errorf("%w: %v", ErrSheetNotFound, err)
			}
			out.Push(errorResult(err))
			return
		}
		out.Push(doneResult)
	}()

	return &XLSXParser{cancel: cancel, out: out}, nil
}

// NextBatch blocks for the next batch, a Done/Cancelled marker, or ctx
// cancellation (reported as BatchKindCancelled).
func (p *XLSXParser) NextBatch(ctx context.Context) BatchResult {
	if p.closed.Load() {
		return errorResult(ErrClosed)
	}

	type popResult struct {
		res BatchResult
		ok  bool
	}
	ch := make(chan popResult, 1)
	go func() {
		r, ok := p.out.Pop()
		ch <- popResult{r, ok}
	}()

	select {
	case <-ctx.Done():
		return cancelledResult
	case pr := <-ch:
		if !pr.ok {
			return cancelledResult
		}
		return pr.res
	}
}

// Close stops background sheet collection.
func (p *XLSXParser) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		p.cancel()
		p.out.Cancel()
	}
	return nil
}

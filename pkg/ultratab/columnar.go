package ultratab

import (
	"context"
	"sync/atomic"

	"github.com/hghukasyan/ultratab/internal/builder"
	"github.com/hghukasyan/ultratab/internal/metrics"
	"github.com/hghukasyan/ultratab/internal/pipeline"
	"github.com/hghukasyan/ultratab/internal/plog"
	"github.com/hghukasyan/ultratab/internal/queue"
	"github.com/hghukasyan/ultratab/internal/reader"
	"github.com/hghukasyan/ultratab/internal/sliceparser"
)

// ColumnarParser streams a delimited file as typed, null-masked columns.
type ColumnarParser struct {
	cancel  context.CancelFunc
	out     *queue.Queue[pipeline.Result[builder.ColumnarBatch]]
	metrics *metrics.Metrics
	closed  atomic.Bool
}

// NewColumnarParser opens path and starts its background streaming worker.
// The first row is always consumed as the header row to resolve final
// output headers and push down column selection into the slice parser,
// regardless of opts.Headers; no positional header names are synthesised.
func NewColumnarParser(path string, opts ColumnarOptions) (*ColumnarParser, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	rd, err := reader.New(path, reader.Options{UseMmap: opts.UseMmap, BufferSize: opts.ReadBufferSize})
	if err != nil {
		return nil, err
	}

	parser := sliceparser.New(sliceparser.Options{
		Delimiter: opts.Delimiter,
		Quote:     opts.Quote,
		BatchSize: opts.BatchSize,
	})

	out := queue.New[pipeline.Result[builder.ColumnarBatch]](opts.MaxQueueBatches)
	m := &metrics.Metrics{}
	builderOpts := opts.toBuilderOptions()

	w := &pipeline.Worker[builder.ColumnarBatch]{
		Reader:     rd,
		Parser:     parser,
		HeaderMode: pipeline.HeaderConsume,
		HeaderCB: func(headerRow []string) ([]string, []int) {
			idx := builder.SelectedColumnIndices(headerRow, builderOpts)
			resolved := make([]string, len(idx))
			for i, col := range idx {
				resolved[i] = headerRow[col]
			}
			return resolved, idx
		},
		Build: func(batch sliceparser.SliceBatch, headers []string) builder.ColumnarBatch {
			return builder.BuildColumnarBatch(batch, headers, builderOpts)
		},
		Out:     out,
		Metrics: m,
		Logger:  plog.New(opts.Logger, "columnar_parser"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	return &ColumnarParser{cancel: cancel, out: out, metrics: m}, nil
}

// NextBatch blocks for the next batch, a Done/Cancelled marker, or ctx
// cancellation (reported as BatchKindCancelled).
func (p *ColumnarParser) NextBatch(ctx context.Context) BatchResult {
	if p.closed.Load() {
		return errorResult(ErrClosed)
	}

	type popResult struct {
		res pipeline.Result[builder.ColumnarBatch]
		ok  bool
	}
	ch := make(chan popResult, 1)
	go func() {
		res, ok := p.out.Pop()
		ch <- popResult{res, ok}
	}()

	select {
	case <-ctx.Done():
		return cancelledResult
	case pr := <-ch:
		if !pr.ok {
			return cancelledResult
		}
		switch pr.res.Kind {
		case pipeline.KindDone:
			return doneResult
		case pipeline.KindCancelled:
			return cancelledResult
		case pipeline.KindError:
			return errorResult(pr.res.Err)
		default:
			return columnarBatchResult(pr.res.Payload)
		}
	}
}

// Metrics returns a point-in-time snapshot of the parser's counters.
func (p *ColumnarParser) Metrics() MetricsSnapshot {
	return MetricsSnapshot(p.metrics.Snapshot())
}

// Close stops the background worker and releases its reader.
func (p *ColumnarParser) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		p.cancel()
		p.out.Cancel()
	}
	return nil
}

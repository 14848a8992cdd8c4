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

// RowParser streams a delimited file as batches of string rows.
type RowParser struct {
	cancel  context.CancelFunc
	out     *queue.Queue[pipeline.Result[[][]string]]
	metrics *metrics.Metrics
	closed  atomic.Bool
}

// NewRowParser opens path and starts its background streaming worker.
func NewRowParser(path string, opts CSVOptions) (*RowParser, error) {
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

	out := queue.New[pipeline.Result[[][]string]](opts.MaxQueueBatches)
	m := &metrics.Metrics{}

	headerMode := pipeline.HeaderNone
	if opts.Headers {
		headerMode = pipeline.HeaderSkip
	}

	w := &pipeline.Worker[[][]string]{
		Reader:     rd,
		Parser:     parser,
		HeaderMode: headerMode,
		Build: func(batch sliceparser.SliceBatch, _ []string) [][]string {
			return builder.BuildRowBatch(batch)
		},
		Out:     out,
		Metrics: m,
		Logger:  plog.New(opts.Logger, "row_parser"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	return &RowParser{cancel: cancel, out: out, metrics: m}, nil
}

// NextBatch blocks for the next batch, a Done/Cancelled marker, or ctx
// cancellation (reported as BatchKindCancelled).
func (p *RowParser) NextBatch(ctx context.Context) BatchResult {
	if p.closed.Load() {
		return errorResult(ErrClosed)
	}

	type popResult struct {
		res pipeline.Result[[][]string]
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
			return rowBatchResult(pr.res.Payload)
		}
	}
}

// Metrics returns a point-in-time snapshot of the parser's counters.
func (p *RowParser) Metrics() MetricsSnapshot {
	s := p.metrics.Snapshot()
	return MetricsSnapshot(s)
}

// Close stops the background worker and releases its reader.
func (p *RowParser) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		p.cancel()
		p.out.Cancel()
	}
	return nil
}

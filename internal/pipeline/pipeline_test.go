package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/hghukasyan/ultratab/internal/builder"
	"github.com/hghukasyan/ultratab/internal/metrics"
	"github.com/hghukasyan/ultratab/internal/queue"
	"github.com/hghukasyan/ultratab/internal/sliceparser"
	"github.com/stretchr/testify/require"
)

// memReader hands out one chunk per Next() call, then an empty chunk.
type memReader struct {
	chunks [][]byte
	i      int
}

func (r *memReader) Next() ([]byte, error) {
	if r.i >= len(r.chunks) {
		return nil, nil
	}
	c := r.chunks[r.i]
	r.i++
	return c, nil
}

func (r *memReader) Close() error { return nil }

func TestRowModeProducesDataThenDone(t *testing.T) {
	rd := &memReader{chunks: [][]byte{[]byte("a,b,c\n1,2,3\n4,5,6\n")}}
	out := queue.New[Result[[][]string]](4)

	w := &Worker[[][]string]{
		Reader:     rd,
		Parser:     sliceparser.New(sliceparser.DefaultOptions()),
		HeaderMode: HeaderSkip,
		Build: func(batch sliceparser.SliceBatch, _ []string) [][]string {
			return builder.BuildRowBatch(batch)
		},
		Out:     out,
		Metrics: &metrics.Metrics{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	res, ok := out.Pop()
	require.True(t, ok)
	require.Equal(t, KindData, res.Kind)
	require.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}}, res.Payload)

	res, ok = out.Pop()
	require.True(t, ok)
	require.Equal(t, KindDone, res.Kind)
}

func TestColumnarModeResolvesHeadersAndPushesDownSelection(t *testing.T) {
	rd := &memReader{chunks: [][]byte{[]byte("a,b,c\n1,2,3\n4,5,6\n")}}
	out := queue.New[Result[builder.ColumnarBatch]](4)

	var gotHeaders []string
	w := &Worker[builder.ColumnarBatch]{
		Reader:     rd,
		Parser:     sliceparser.New(sliceparser.DefaultOptions()),
		HeaderMode: HeaderConsume,
		HeaderCB: func(headerRow []string) ([]string, []int) {
			opts := builder.ColumnarOptions{Select: []string{"b"}}
			idx := builder.SelectedColumnIndices(headerRow, opts)
			out := make([]string, len(idx))
			for i, ix := range idx {
				out[i] = headerRow[ix]
			}
			gotHeaders = out
			return out, idx
		},
		Build: func(batch sliceparser.SliceBatch, headers []string) builder.ColumnarBatch {
			return builder.BuildColumnarBatch(batch, headers, builder.ColumnarOptions{})
		},
		Out:     out,
		Metrics: &metrics.Metrics{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	res, ok := out.Pop()
	require.True(t, ok)
	require.Equal(t, KindData, res.Kind)
	require.Equal(t, []string{"b"}, gotHeaders)
	require.Equal(t, []string{"2", "5"}, res.Payload.Columns["b"].Strings)

	res, ok = out.Pop()
	require.True(t, ok)
	require.Equal(t, KindDone, res.Kind)
}

func TestCancellationStopsWorker(t *testing.T) {
	rd := &memReader{chunks: [][]byte{[]byte("1,2\n3,4\n5,6\n7,8\n")}}
	out := queue.New[Result[[][]string]](1)

	w := &Worker[[][]string]{
		Reader: rd,
		Parser: sliceparser.New(sliceparser.Options{Delimiter: ',', Quote: '"', BatchSize: 1}),
		Build: func(batch sliceparser.SliceBatch, _ []string) [][]string {
			return builder.BuildRowBatch(batch)
		},
		Out:     out,
		Metrics: &metrics.Metrics{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	time.Sleep(10 * time.Millisecond)
	cancel()

	// Draining should eventually stop yielding results without hanging.
	deadline := time.After(time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("worker did not settle after cancellation")
		default:
		}
		_, ok := out.Pop()
		if !ok {
			return
		}
	}
}

package ultratab

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRowParserStreamsBatchesThenDone(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n1,2,3\n4,5,6\n")

	opts := DefaultCSVOptions()
	opts.BatchSize = 1
	opts.MaxQueueBatches = 4

	p, err := NewRowParser(path, opts)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var rows [][]string
	for {
		res := p.NextBatch(ctx)
		if res.Kind == BatchKindDone {
			break
		}
		require.Equal(t, BatchKindData, res.Kind)
		rows = append(rows, res.Rows...)
	}
	require.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}}, rows)
}

func TestRowParserMetricsTrackBytesAndRows(t *testing.T) {
	path := writeTempCSV(t, "a,b\n1,2\n3,4\n")

	p, err := NewRowParser(path, DefaultCSVOptions())
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		res := p.NextBatch(ctx)
		if res.Kind == BatchKindDone {
			break
		}
	}

	snap := p.Metrics()
	require.Equal(t, uint64(2), snap.RowsParsed)
	require.Greater(t, snap.BytesRead, uint64(0))
}

func TestRowParserCloseStopsDelivery(t *testing.T) {
	path := writeTempCSV(t, "a,b\n1,2\n3,4\n5,6\n")
	opts := DefaultCSVOptions()
	opts.BatchSize = 1
	opts.MaxQueueBatches = 1

	p, err := NewRowParser(path, opts)
	require.NoError(t, err)

	require.NoError(t, p.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res := p.NextBatch(ctx)
	require.Equal(t, BatchKindError, res.Kind)
	require.ErrorIs(t, res.Err, ErrClosed)
}

func TestRowParserInvalidBatchSizeRejected(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.BatchSize = -1
	_, err := NewRowParser("does-not-matter.csv", opts)
	require.ErrorIs(t, err, ErrInvalidOption)
}

package builder

import (
	"testing"

	"github.com/hghukasyan/ultratab/internal/sliceparser"
	"github.com/stretchr/testify/require"
)

func mustBatch(t *testing.T, opts sliceparser.Options, input string) sliceparser.SliceBatch {
	t.Helper()
	p := sliceparser.New(opts)
	p.Feed([]byte(input), nil)
	p.Flush()
	return p.TakeBatch()
}

func TestBuildRowBatch(t *testing.T) {
	b := mustBatch(t, sliceparser.DefaultOptions(), "a,b,c\n1,2,3\n")
	rows := BuildRowBatch(b)
	require.Equal(t, [][]string{{"a", "b", "c"}, {"1", "2", "3"}}, rows)
}

func TestBuildColumnarBatchTypedWithNulls(t *testing.T) {
	p := sliceparser.New(sliceparser.DefaultOptions())
	p.SkipOneRow()
	p.Feed([]byte("n\n7\nNA\nfoo\n"), nil)
	p.Flush()
	batch := p.TakeBatch()

	opts := ColumnarOptions{
		Schema:     map[string]ColumnType{"n": ColumnInt32},
		NullValues: []string{"NA"},
	}
	cb := BuildColumnarBatch(batch, []string{"n"}, opts)

	require.Equal(t, 3, cb.Rows)
	col := cb.Columns["n"]
	require.Equal(t, []int32{7, 0, 0}, col.Int32s)
	require.Equal(t, []byte{0, 1, 1}, col.NullMask)
}

func TestColumnSelectionOrdering(t *testing.T) {
	headers := []string{"a", "b", "c"}
	idx := SelectedColumnIndices(headers, ColumnarOptions{Select: []string{"c", "a"}})
	require.Equal(t, []int{2, 0}, idx)
}

func TestColumnLengthEqualsRowCount(t *testing.T) {
	b := mustBatch(t, sliceparser.DefaultOptions(), "a,b\n1,2\n3,4\n5,6\n")
	cb := BuildColumnarBatch(b, []string{"a", "b"}, ColumnarOptions{})
	for _, h := range cb.Headers {
		require.Equal(t, cb.Rows, len(cb.Columns[h].Strings))
	}
}

func TestTrimStripsASCIIWhitespaceBeforeTypeCheck(t *testing.T) {
	p := sliceparser.New(sliceparser.DefaultOptions())
	p.Feed([]byte(" 7 , 8 \n"), nil)
	p.Flush()
	batch := p.TakeBatch()

	opts := ColumnarOptions{
		Schema: map[string]ColumnType{"n": ColumnInt32},
		Trim:   true,
	}
	cb := BuildColumnarBatch(batch, []string{"n", "m"}, opts)
	require.Equal(t, []int32{7}, cb.Columns["n"].Int32s)
	require.Equal(t, byte(0), cb.Columns["n"].NullMask[0])
}

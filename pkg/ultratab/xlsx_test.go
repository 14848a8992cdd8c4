package ultratab

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0"?>
<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets>
</workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`,
		"xl/sharedStrings.xml": `<?xml version="1.0"?>
<sst><si><t>name</t></si><si><t>age</t></si></sst>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0"?>
<worksheet>
  <sheetData>
    <row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
    <row r="2"><c r="A2" t="inlineStr"><is><t>alice</t></is></c><c r="B2"><v>30</v></c></row>
    <row r="3"><c r="A3" t="inlineStr"><is><t>bob</t></is></c><c r="B3"><v>41</v></c></row>
  </sheetData>
</worksheet>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestXLSXParserRowMode(t *testing.T) {
	path := writeTestWorkbook(t)

	p, err := NewXLSXParser(path, DefaultXLSXOptions())
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res := p.NextBatch(ctx)
	require.Equal(t, BatchKindData, res.Kind)
	require.Equal(t, [][]string{{"alice", "30"}, {"bob", "41"}}, res.Rows)

	done := p.NextBatch(ctx)
	require.Equal(t, BatchKindDone, done.Kind)
}

func TestXLSXParserColumnarModeWhenSchemaGiven(t *testing.T) {
	path := writeTestWorkbook(t)

	opts := DefaultXLSXOptions()
	opts.Schema = map[string]ColumnType{"age": ColumnInt32}

	p, err := NewXLSXParser(path, opts)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res := p.NextBatch(ctx)
	require.Equal(t, BatchKindData, res.Kind)
	require.Equal(t, []string{"name", "age"}, res.Headers)
	require.Equal(t, []int32{30, 41}, res.Columns["age"].Int32s)
}

func TestXLSXParserSheetNotFound(t *testing.T) {
	path := writeTestWorkbook(t)

	opts := DefaultXLSXOptions()
	opts.SheetIndex = 0
	opts.SheetName = "NoSuchSheet"

	p, err := NewXLSXParser(path, opts)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res := p.NextBatch(ctx)
	require.Equal(t, BatchKindError, res.Kind)
	require.ErrorIs(t, res.Err, ErrSheetNotFound)
}

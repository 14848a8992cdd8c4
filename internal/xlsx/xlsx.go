// Package xlsx resolves a workbook sheet and streams its rows without
// building a DOM: the archive is walked with archive/zip, and the chosen
// sheet's XML is scanned token-by-token with encoding/xml's decoder.
package xlsx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
)

// flateDecompressor inflates DEFLATE members with klauspost/compress/flate.
// It is registered on each opened archive: archive/zip already registers a
// package-wide DEFLATE decompressor, and registering a second one panics.
func flateDecompressor(r io.Reader) io.ReadCloser {
	return flate.NewReader(r)
}

// ErrSheetNotFound is returned when sheet_index/sheet_name cannot be
// resolved against the workbook.
var ErrSheetNotFound = fmt.Errorf("xlsx: sheet not found")

type sheetRef struct {
	name string
	rid  string
}

// ResolveSheet opens the workbook at path and returns the shared-strings
// table plus the archive-internal path of the selected sheet's XML
// ("xl/worksheets/sheetN.xml"). sheetIndex is 1-based; sheetName, if
// non-empty, selects by name instead.
func ResolveSheet(path string, sheetIndex int, sheetName string) (sharedStrings []string, sheetPath string, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", err
	}
	defer zr.Close()
	zr.RegisterDecompressor(zip.Deflate, flateDecompressor)
	return resolveSheetFromZip(&zr.Reader, sheetIndex, sheetName)
}

func resolveSheetFromZip(zr *zip.Reader, sheetIndex int, sheetName string) ([]string, string, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	sheets, err := readWorkbookSheets(files)
	if err != nil {
		return nil, "", err
	}
	rels, err := readWorkbookRels(files)
	if err != nil {
		return nil, "", err
	}

	var chosen *sheetRef
	if sheetName != "" {
		for i := range sheets {
			if sheets[i].name == sheetName {
				chosen = &sheets[i]
				break
			}
		}
	} else {
		idx := sheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx <= len(sheets) {
			chosen = &sheets[idx-1]
		}
	}
	if chosen == nil {
		return nil, "", ErrSheetNotFound
	}

	target, ok := rels[chosen.rid]
	if !ok {
		return nil, "", ErrSheetNotFound
	}
	sheetPath := joinWorkbookRelative(target)
	if _, ok := files[sheetPath]; !ok {
		return nil, "", ErrSheetNotFound
	}

	shared, err := readSharedStrings(files)
	if err != nil {
		return nil, "", err
	}

	return shared, sheetPath, nil
}

func joinWorkbookRelative(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return "xl/" + target
}

func readWorkbookSheets(files map[string]*zip.File) ([]sheetRef, error) {
	f, ok := files["xl/workbook.xml"]
	if !ok {
		return nil, fmt.Errorf("xlsx: missing xl/workbook.xml")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var sheets []sheetRef
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || localName(start.Name) != "sheet" {
			continue
		}
		var ref sheetRef
		for _, a := range start.Attr {
			switch localName(a.Name) {
			case "name":
				ref.name = a.Value
			case "id":
				ref.rid = a.Value
			}
		}
		sheets = append(sheets, ref)
	}
	return sheets, nil
}

func readWorkbookRels(files map[string]*zip.File) (map[string]string, error) {
	f, ok := files["xl/_rels/workbook.xml.rels"]
	if !ok {
		return map[string]string{}, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rels := make(map[string]string)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || localName(start.Name) != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" {
			rels[id] = target
		}
	}
	return rels, nil
}

func readSharedStrings(files map[string]*zip.File) ([]string, error) {
	f, ok := files["xl/sharedStrings.xml"]
	if !ok {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var strs []string
	var cur strings.Builder
	inSI := false
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch localName(t.Name) {
			case "si":
				inSI = true
				cur.Reset()
			}
		case xml.CharData:
			if inSI {
				cur.Write(t)
			}
		case xml.EndElement:
			if localName(t.Name) == "si" {
				strs = append(strs, cur.String())
				inSI = false
			}
		}
	}
	return strs, nil
}

func localName(n xml.Name) string {
	return n.Local
}

// OpenSheet opens path and returns a read closer over the decompressed
// sheet XML at sheetPath; closing it also closes the archive.
func OpenSheet(path, sheetPath string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(zip.Deflate, flateDecompressor)
	f, ok := findFile(&zr.Reader, sheetPath)
	if !ok {
		zr.Close()
		return nil, ErrSheetNotFound
	}
	rc, err := f.Open()
	if err != nil {
		zr.Close()
		return nil, err
	}
	return &sheetReadCloser{ReadCloser: rc, archive: zr}, nil
}

type sheetReadCloser struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (s *sheetReadCloser) Close() error {
	err := s.ReadCloser.Close()
	if aerr := s.archive.Close(); err == nil {
		err = aerr
	}
	return err
}

func findFile(zr *zip.Reader, name string) (*zip.File, bool) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// columnIndex converts a cell reference's leading column letters ("B12" ->
// "B") into a 0-based column index.
func columnIndex(ref string) int {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	letters := ref[:i]
	idx := 0
	for _, c := range letters {
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}


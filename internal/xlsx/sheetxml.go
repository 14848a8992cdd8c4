package xlsx

import (
	"encoding/xml"
	"io"
	"strconv"
)

// ParseSheetXML streams r's <row>/<c>/<v> elements without building a DOM,
// resolving shared-string cells (t="s") against sharedStrings and inline
// strings (t="inlineStr"/<is><t>) directly. Sparse cells are padded with
// empty strings up to the row's highest column reference. onRow is called
// once per row in document order; it returns false to stop early (Collect
// does so when its batch consumer refuses a batch).
func ParseSheetXML(r io.Reader, sharedStrings []string, onRow func(row []string) bool) error {
	dec := xml.NewDecoder(r)

	var (
		row       []string
		cellType  string
		cellCol   int
		cellText  []byte
		inValue   bool
		inInlineT bool
	)

	flushCell := func() {
		for len(row) <= cellCol {
			row = append(row, "")
		}
		val := string(cellText)
		if cellType == "s" {
			if n, err := strconv.Atoi(val); err == nil && n >= 0 && n < len(sharedStrings) {
				val = sharedStrings[n]
			} else {
				val = ""
			}
		}
		row[cellCol] = val
		cellText = cellText[:0]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch localName(t.Name) {
			case "row":
				row = row[:0]
			case "c":
				cellType = ""
				cellCol = 0
				cellText = cellText[:0]
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "t":
						cellType = a.Value
					case "r":
						cellCol = columnIndex(a.Value)
					}
				}
			case "v":
				inValue = true
			case "t":
				if cellType == "inlineStr" {
					inInlineT = true
				}
			}
		case xml.CharData:
			if inValue || inInlineT {
				cellText = append(cellText, t...)
			}
		case xml.EndElement:
			switch localName(t.Name) {
			case "v":
				inValue = false
			case "t":
				inInlineT = false
			case "c":
				flushCell()
			case "row":
				if !onRow(append([]string(nil), row...)) {
					return nil
				}
			}
		}
	}
	return nil
}

package xlsx

// RowBatch is one collected batch of sheet rows, with sparse cells already
// padded to the row's widest column by ParseSheetXML.
type RowBatch struct {
	Headers []string
	Rows    [][]string
}

// Options configures sheet collection: selection, batching, and header
// handling are resolved by the caller (pkg/ultratab); this package only
// needs to know how many rows to collect per batch and whether the first
// row is a header.
type Options struct {
	SheetIndex int
	SheetName  string
	Headers    bool
	BatchSize  int
}

// Collect streams path's selected sheet and invokes onBatch once per
// collected group of opts.BatchSize data rows (the final group may be
// shorter). If opts.Headers, the sheet's first row is consumed as the
// header instead of being counted as data.
func Collect(path string, opts Options, onBatch func(RowBatch) bool) error {
	shared, sheetPath, err := ResolveSheet(path, opts.SheetIndex, opts.SheetName)
	if err != nil {
		return err
	}

	rc, err := OpenSheet(path, sheetPath)
	if err != nil {
		return err
	}
	defer rc.Close()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 5000
	}

	var headers []string
	headerTaken := !opts.Headers
	var pending [][]string
	stopped := false

	err = ParseSheetXML(rc, shared, func(row []string) bool {
		if !headerTaken {
			headers = row
			headerTaken = true
			return true
		}
		pending = append(pending, row)
		if len(pending) >= batchSize {
			if !onBatch(RowBatch{Headers: headers, Rows: pending}) {
				stopped = true
				return false
			}
			pending = nil
		}
		return true
	})
	if err != nil {
		return err
	}
	if !stopped && len(pending) > 0 {
		onBatch(RowBatch{Headers: headers, Rows: pending})
	}
	return nil
}

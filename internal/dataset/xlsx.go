package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads a worksheet from an .xlsx file. The first non-empty row is
// the header; cells are taken as displayed, so they coerce like CSV text.
func ReadXLSX(path string, opt ReadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("file parsing error: %w", err)
	}
	defer f.Close()
	return sheetTable(f, filepath.Base(path), opt)
}

// ReadXLSXFrom is ReadXLSX for an in-memory upload.
func ReadXLSXFrom(r io.Reader, name string, opt ReadOptions) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("file parsing error: %w", err)
	}
	defer f.Close()
	return sheetTable(f, filepath.Base(name), opt)
}

func sheetTable(f *excelize.File, name string, opt ReadOptions) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	sheet := ""
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.Sheet, name, strings.Join(sheets, ", "))
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range: workbook '%s' has %d sheets", idx, name, len(sheets))
		}
		sheet = sheets[idx-1]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Messages: []string{err.Error()}}
	}
	// skip leading empty rows
	start := 0
	for start < len(rows) && blankHeader(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, ErrNoHeader
	}
	header := cleanHeader(rows[start])
	t := &Table{Source: name, Header: header}
	for _, row := range rows[start+1:] {
		if blankHeader(row) {
			continue
		}
		t.Records = append(t.Records, toRecord(header, row))
	}
	return t, nil
}

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Record is one parsed line keyed by header.
type Record map[string]string

// Table is the parser's view of an upload: a header row and its records.
type Table struct {
	Source  string
	Header  []string
	Records []Record
}

// ErrNoHeader is returned when an upload has no header row to key records by.
var ErrNoHeader = errors.New("could not detect headers in CSV")

// ParseError collects every structural problem found while reading a file.
// A file with any of them is rejected as a whole.
type ParseError struct {
	Messages []string
}

func (e *ParseError) Error() string {
	return "error parsing CSV: " + strings.Join(e.Messages, ", ")
}

// ReadOptions controls CSV parsing.
type ReadOptions struct {
	// Delimiter for CSV. If 0, '\t' for .tsv names and ',' otherwise.
	Delimiter rune
	// Sheet selects an XLSX worksheet by name; SheetIndex (1-based) is used
	// when Sheet is empty.
	Sheet      string
	SheetIndex int
}

// ReadCSV parses delimited text with a header row. Empty lines are skipped;
// rows whose field count differs from the header are reported.
func ReadCSV(r io.Reader, name string, opt ReadOptions) (*Table, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name)
	}
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = 0
	cr.LazyQuotes = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ParseError{Messages: []string{pe.Error()}}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = cleanHeader(header)
	if blankHeader(header) {
		return nil, ErrNoHeader
	}

	t := &Table{Source: filepath.Base(name), Header: header}
	var msgs []string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				msgs = append(msgs, describeParseError(pe, len(header), len(rec)))
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.Records)+1, err)
		}
		t.Records = append(t.Records, toRecord(header, rec))
	}
	if len(msgs) > 0 {
		return nil, &ParseError{Messages: msgs}
	}
	return t, nil
}

// ReadFile reads a CSV, TSV or XLSX file. I/O failures are reported as
// file errors, distinct from a file that was read but could not be parsed.
func ReadFile(path string, opt ReadOptions) (*Table, error) {
	if isXLSX(path) {
		return ReadXLSX(path, opt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file parsing error: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, path, opt)
}

// Read dispatches on the upload name for readers that are not files on disk,
// such as an HTTP multipart part.
func Read(r io.Reader, name string, opt ReadOptions) (*Table, error) {
	if isXLSX(name) {
		return ReadXLSXFrom(r, name, opt)
	}
	return ReadCSV(r, name, opt)
}

func isXLSX(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}

func describeParseError(pe *csv.ParseError, want, got int) string {
	if errors.Is(pe.Err, csv.ErrFieldCount) {
		if got < want {
			return fmt.Sprintf("Too few fields: expected %d fields but parsed %d (line %d)", want, got, pe.Line)
		}
		return fmt.Sprintf("Too many fields: expected %d fields but parsed %d (line %d)", want, got, pe.Line)
	}
	return pe.Error()
}

func cleanHeader(h []string) []string {
	out := make([]string, len(h))
	copy(out, h)
	if len(out) > 0 {
		out[0] = strings.TrimPrefix(out[0], "\ufeff")
	}
	return out
}

func blankHeader(h []string) bool {
	for _, c := range h {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func toRecord(header, fields []string) Record {
	rec := make(Record, len(header))
	for i, h := range header {
		if i < len(fields) {
			rec[h] = fields[i]
		} else {
			rec[h] = ""
		}
	}
	return rec
}

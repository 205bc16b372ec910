package roster

import (
	"fmt"
	"io"
	"strings"
)

// SheetError is a batch-aborting problem with the uploaded workbook itself.
type SheetError string

func (err SheetError) Error() string { return string(err) }

const (
	ErrUnreadable SheetError = "Invalid Excel file"
	ErrEmptySheet SheetError = "Excel file is empty"
)

// MissingColumnsError lists every required column absent from the header row.
type MissingColumnsError struct {
	Columns []string
}

func (err *MissingColumnsError) Error() string {
	return fmt.Sprintf("Missing required columns: %s", strings.Join(err.Columns, ", "))
}

// Row is one data row of the first sheet. Number is the 1-indexed sheet row (header is row 1).
type Row struct {
	Number int
	Cells  map[string]string
}

// Get returns the trimmed cell value of col; blank when the cell is absent.
func (r Row) Get(col string) string {
	if col == "" {
		return ""
	}
	return strings.TrimSpace(r.Cells[col])
}

type Sheet struct {
	Columns []string
	Rows    []Row
}

// MissingColumns returns the required columns absent from the sheet header, in required order.
func (s Sheet) MissingColumns(required []string) []string {
	present := make(map[string]bool, len(s.Columns))
	for _, col := range s.Columns {
		present[col] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// Codec reads roster workbooks and writes credential reports.
type Codec interface {
	// Decode parses the first sheet. It fails with ErrUnreadable or ErrEmptySheet.
	Decode(r io.Reader) (Sheet, error)
	Encode(w io.Writer, sheetName string, columns []string, rows [][]string) error
}

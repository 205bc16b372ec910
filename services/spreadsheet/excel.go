package sheetsvc

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/shule/core/roster"
)

const reportColWidth = 20

// ExcelCodec reads and writes .xlsx workbooks.
type ExcelCodec struct{}

var _ roster.Codec = (*ExcelCodec)(nil)

func NewExcelCodec() *ExcelCodec {
	return &ExcelCodec{}
}

// Decode reads the first sheet: row 1 is the header, every following row is keyed by it.
// Rows come back with their sheet row number so blank rows keep the numbering aligned.
func (ExcelCodec) Decode(r io.Reader) (roster.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return roster.Sheet{}, roster.ErrUnreadable
	}
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return roster.Sheet{}, roster.ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return roster.Sheet{}, roster.ErrUnreadable
	}
	if len(rows) < 2 {
		return roster.Sheet{}, roster.ErrEmptySheet
	}

	header := make([]string, len(rows[0]))
	columns := make([]string, 0, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))
	for i, col := range rows[0] {
		col = strings.TrimSpace(col)
		if col == "" || seen[col] {
			continue // first occurrence of a column wins
		}
		seen[col] = true
		header[i] = col
		columns = append(columns, col)
	}

	sheet := roster.Sheet{Columns: columns, Rows: make([]roster.Row, 0, len(rows)-1)}
	var hasData bool
	for i, cells := range rows[1:] {
		row := roster.Row{Number: i + 2, Cells: make(map[string]string, len(columns))}
		for j, cell := range cells {
			if j >= len(header) || header[j] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				row.Cells[header[j]] = cell
				hasData = true
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	if !hasData {
		return roster.Sheet{}, roster.ErrEmptySheet
	}
	return sheet, nil
}

// Encode writes a single-sheet workbook with a bold header row.
func (ExcelCodec) Encode(w io.Writer, sheetName string, columns []string, rows [][]string) error {
	f := excelize.NewFile()
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err = f.SetRowStyle(sheetName, 1, 1, style); err != nil {
		return errors.Wrap(err, "styling header")
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		if err = f.SetSheetRow(sheetName, axis, &cells); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if len(columns) > 0 {
		lastCol, err := excelize.ColumnNumberToName(len(columns))
		if err != nil {
			return errors.Wrap(err, "computing column name")
		}
		if err = f.SetColWidth(sheetName, "A", lastCol, reportColWidth); err != nil {
			return errors.Wrap(err, "sizing columns")
		}
	}

	_, err = f.WriteTo(w)
	return errors.Wrap(err, "writing workbook")
}

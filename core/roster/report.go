package roster

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// ReportContentType is the MIME type of the credentials workbook.
const ReportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Report is a credentials workbook written to a temp file.
// The file holds plaintext passwords: Close removes it and must always be called.
type Report struct {
	Filename string // suggested download name
	path     string
}

// NewReport writes the outcome's credentials. With no credentials it returns
// a *NoAccountsError carrying the row errors and writes nothing.
func (imp *Importer) NewReport(out Outcome) (*Report, error) {
	if len(out.Credentials) == 0 {
		return nil, &NoAccountsError{Kind: out.Kind, Errors: out.Errors()}
	}

	f, err := os.CreateTemp(imp.uploadsDir, string(out.Kind)+"_credentials_*.xlsx")
	if err != nil {
		return nil, errors.Wrap(err, "creating report file")
	}
	rep := &Report{
		Filename: fmt.Sprintf("%s_credentials_%d.xlsx", out.Kind, core.NowFunc().UnixMilli()),
		path:     f.Name(),
	}

	rows := make([][]string, 0, len(out.Credentials))
	for _, c := range out.Credentials {
		rows = append(rows, c.cells())
	}
	if err = imp.codec.Encode(f, out.sheetName, out.columns, rows); err != nil {
		_ = f.Close()
		_ = rep.Close()
		return nil, errors.Wrap(err, "encoding report")
	}
	if err = f.Close(); err != nil {
		_ = rep.Close()
		return nil, errors.Wrap(err, "closing report file")
	}
	return rep, nil
}

// Open returns the report for reading.
func (rep *Report) Open() (*os.File, error) {
	return os.Open(rep.path)
}

// Path is the location of the backing temp file.
func (rep *Report) Path() string {
	return rep.path
}

// Close deletes the backing file. It is safe to call more than once.
func (rep *Report) Close() error {
	if err := os.Remove(rep.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

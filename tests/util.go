package testutil

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	logsvc "github.com/trezcool/shule/services/logger"
)

// Config returns the TEST configuration with a scratch uploads dir.
func Config(t *testing.T) *core.Config {
	t.Helper()
	if err := os.Setenv("ENV", "TEST"); err != nil {
		t.Fatalf("Config() failed: %v", err)
	}
	conf := core.NewConfig()
	conf.Import.UploadsDir = t.TempDir()
	return conf
}

// Logger returns a logger that writes nowhere and never reports to rollbar.
func Logger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(io.Discard, "TEST", conf)
	logger.Enable(false)
	return logger
}

func newAccount(name, uname, email, extID, pwd string, isActive bool, createdAt []time.Time) account.Account {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	acc := account.Account{
		ID:         uuid.NewString(),
		ExternalID: extID,
		Name:       name,
		Username:   uname,
		Email:      email,
		IsActive:   isActive,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	if pwd != "" {
		_ = acc.SetPassword(pwd)
	}
	return acc
}

func CreateStudent(
	t *testing.T,
	repo account.StudentRepository,
	name, uname, email, studentID, pwd, class string,
	isActive bool,
	createdAt ...time.Time,
) account.Student {
	t.Helper()
	s := account.Student{
		Account: newAccount(name, uname, email, studentID, pwd, isActive, createdAt),
		Grade:   class,
		Class:   class,
	}
	s, err := repo.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateTeacher(
	t *testing.T,
	repo account.TeacherRepository,
	name, uname, email, employeeID, pwd, department string,
	isActive bool,
	createdAt ...time.Time,
) account.Teacher {
	t.Helper()
	tc := account.Teacher{
		Account:    newAccount(name, uname, email, employeeID, pwd, isActive, createdAt),
		Department: department,
		Subjects:   []string{},
	}
	tc, err := repo.Create(context.Background(), tc)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tc
}

// Workbook builds an .xlsx roster: header on row 1, rows below it.
// A nil row leaves a blank sheet row.
func Workbook(t *testing.T, header []string, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &cells); err != nil {
		t.Fatalf("Workbook() failed: %v", err)
	}
	for i, row := range rows {
		if row == nil {
			continue
		}
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		row := row
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			t.Fatalf("Workbook() failed: %v", err)
		}
	}
	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		t.Fatalf("Workbook() failed: %v", err)
	}
	return buf
}

// ReadWorkbook returns every row of the first sheet.
func ReadWorkbook(t *testing.T, r io.Reader) (string, [][]string) {
	t.Helper()
	f, err := excelize.OpenReader(r)
	if err != nil {
		t.Fatalf("ReadWorkbook() failed: %v", err)
	}
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetList()[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("ReadWorkbook() failed: %v", err)
	}
	return sheet, rows
}

package sheetsvc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/roster"
	"github.com/trezcool/shule/tests"
)

func TestExcelCodec_Decode(t *testing.T) {
	codec := NewExcelCodec()
	wb := testutil.Workbook(t,
		[]string{" Name ", "Email", "Name", "", "Class"},
		[]interface{}{"  Jo Ann ", "jo@x.com", "ignored", "orphan", "5A"},
		nil,
		[]interface{}{"Bob", "", "", "", 6},
	)

	sheet, err := codec.Decode(wb)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email", "Class"}, sheet.Columns)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, 2, sheet.Rows[0].Number)
	assert.Equal(t, map[string]string{"Name": "Jo Ann", "Email": "jo@x.com", "Class": "5A"}, sheet.Rows[0].Cells)

	assert.Equal(t, 3, sheet.Rows[1].Number)
	assert.Empty(t, sheet.Rows[1].Cells)

	assert.Equal(t, 4, sheet.Rows[2].Number)
	assert.Equal(t, "Bob", sheet.Rows[2].Get("Name"))
	assert.Equal(t, "6", sheet.Rows[2].Get("Class"))
	assert.Equal(t, "", sheet.Rows[2].Get("Email"))
}

func TestExcelCodec_Decode_errors(t *testing.T) {
	codec := NewExcelCodec()

	tests := []struct {
		name    string
		input   *bytes.Buffer
		wantErr error
	}{
		{name: "not a workbook", input: bytes.NewBufferString("Name,Email\nJo,jo@x.com\n"), wantErr: roster.ErrUnreadable},
		{name: "empty input", input: new(bytes.Buffer), wantErr: roster.ErrUnreadable},
		{name: "header only", input: testutil.Workbook(t, []string{"Name", "Email"}), wantErr: roster.ErrEmptySheet},
		{name: "blank rows only", input: testutil.Workbook(t, []string{"Name", "Email"}, nil, []interface{}{" ", ""}), wantErr: roster.ErrEmptySheet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.input)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestExcelCodec_Encode(t *testing.T) {
	codec := NewExcelCodec()
	buf := new(bytes.Buffer)
	columns := []string{"Student ID", "Name", "Password"}
	rows := [][]string{
		{"STU0001", "Jo Ann", "aB3@xY9#"},
		{"STU0002", "Bob", "00001234"},
	}

	require.NoError(t, codec.Encode(buf, "Student Credentials", columns, rows))

	sheet, got := testutil.ReadWorkbook(t, buf)
	assert.Equal(t, "Student Credentials", sheet)
	assert.Equal(t, [][]string{columns, rows[0], rows[1]}, got)
}

func TestExcelCodec_roundTrip(t *testing.T) {
	codec := NewExcelCodec()
	buf := new(bytes.Buffer)
	require.NoError(t, codec.Encode(buf, "Roster", []string{"Name", "Email"}, [][]string{{"Jo", "jo@x.com"}}))

	sheet, err := codec.Decode(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email"}, sheet.Columns)
	assert.Equal(t, "jo@x.com", sheet.Rows[0].Get("Email"))
}

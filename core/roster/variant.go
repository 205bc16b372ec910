package roster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

const (
	usernameNameLen = 6
	usernameMaxLen  = 10
)

// Variant describes how one account kind is read from a roster sheet and reported back.
type Variant[T account.Record] struct {
	Kind     account.Kind
	IDPrefix string // synthesized external ids: PREFIX + 4-digit sequence
	// IDColumn and UsernameColumn, when set, let the sheet supply the value explicitly.
	IDColumn        string
	UsernameColumn  string
	RequiredColumns []string
	SheetName       string
	ReportColumns   []string
	// Limits caps sheet values at the width of the column they are stored in.
	Limits []ColumnLimit

	// usernameSuffix is appended to the name part of derived usernames.
	usernameSuffix func(row Row, externalID string) string
	// build fills the variant-specific fields of the new record.
	build func(row Row, acc account.Account) T
	// reportExtra returns the variant columns following Password in the report.
	reportExtra func(rec T) []string
}

// Students reads Name, Email, Class and Roll Number columns. An optional Age column is kept.
func Students() Variant[account.Student] {
	return Variant[account.Student]{
		Kind:            account.KindStudent,
		IDPrefix:        "STU",
		RequiredColumns: []string{"Name", "Email", "Class", "Roll Number"},
		SheetName:       "Student Credentials",
		ReportColumns:   []string{"Student ID", "Name", "Email", "Username", "Password", "Class", "Roll Number"},
		Limits: append(accountLimits(),
			ColumnLimit{"Class", account.MaxClassLen},
			ColumnLimit{"Roll Number", account.MaxRollNumberLen},
			ColumnLimit{"Age", account.MaxAgeLen},
		),
		usernameSuffix: func(row Row, _ string) string {
			return padLeft(row.Get("Roll Number"), 3, '0')
		},
		build: func(row Row, acc account.Account) account.Student {
			class := row.Get("Class")
			return account.Student{
				Account:    acc,
				Grade:      class,
				Class:      class,
				RollNumber: row.Get("Roll Number"),
				Age:        row.Get("Age"),
			}
		},
		reportExtra: func(s account.Student) []string {
			return []string{s.Class, s.RollNumber}
		},
	}
}

// Teachers reads Name, Email and Department columns. Employee ID and Username may be supplied;
// Subjects, Phone, Address and Is Active are optional.
func Teachers() Variant[account.Teacher] {
	return Variant[account.Teacher]{
		Kind:            account.KindTeacher,
		IDPrefix:        "EMP",
		IDColumn:        "Employee ID",
		UsernameColumn:  "Username",
		RequiredColumns: []string{"Name", "Email", "Department"},
		SheetName:       "Teacher Credentials",
		ReportColumns: []string{
			"Employee ID", "Name", "Email", "Username", "Password", "Department", "Subjects", "Phone", "Address",
		},
		Limits: append(accountLimits(),
			ColumnLimit{"Employee ID", account.MaxExternalIDLen},
			ColumnLimit{"Username", account.MaxUsernameLen},
			ColumnLimit{"Department", account.MaxDepartmentLen},
			ColumnLimit{"Phone", account.MaxPhoneLen},
		),
		usernameSuffix: func(_ Row, externalID string) string {
			return truncate(externalID, 4)
		},
		build: func(row Row, acc account.Account) account.Teacher {
			acc.IsActive = parseBool(row.Get("Is Active"), true)
			return account.Teacher{
				Account:    acc,
				Department: row.Get("Department"),
				Subjects:   account.SplitSubjects(row.Get("Subjects")),
				Phone:      row.Get("Phone"),
				Address:    row.Get("Address"),
			}
		},
		reportExtra: func(t account.Teacher) []string {
			return []string{t.Department, strings.Join(t.Subjects, ", "), t.Phone, t.Address}
		},
	}
}

// ColumnLimit is the maximum number of characters a sheet column may hold.
type ColumnLimit struct {
	Column string
	Max    int
}

func accountLimits() []ColumnLimit {
	return []ColumnLimit{{"Name", account.MaxNameLen}, {"Email", account.MaxEmailLen}}
}

// checkLimits returns a row error naming the first value wider than its column.
func (v Variant[T]) checkLimits(row Row) error {
	for _, lim := range v.Limits {
		if n := len([]rune(row.Get(lim.Column))); n > lim.Max {
			return &rowError{msg: fmt.Sprintf("%s exceeds %d characters", lim.Column, lim.Max)}
		}
	}
	return nil
}

// deriveUsername lower-cases the name, strips whitespace, keeps 6 runes,
// appends the suffix and truncates the result to 10 runes.
func deriveUsername(name, suffix string) string {
	base := strings.ToLower(strings.Join(strings.Fields(name), ""))
	return truncate(truncate(base, usernameNameLen)+strings.ToLower(suffix), usernameMaxLen)
}

// externalID formats the 0-based run sequence as PREFIX0001.
func externalID(prefix string, seq int) string {
	return prefix + padLeft(strconv.Itoa(seq+1), 4, '0')
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// padLeft pads s to n runes; longer values are kept whole and blanks stay blank.
func padLeft(s string, n int, pad rune) string {
	if s == "" {
		return s
	}
	if l := len([]rune(s)); l < n {
		return strings.Repeat(string(pad), n-l) + s
	}
	return s
}

func parseBool(s string, def bool) bool {
	switch core.CleanString(s, true /* lower */) {
	case "true", "yes", "y", "1", "active":
		return true
	case "false", "no", "n", "0", "inactive":
		return false
	}
	return def
}

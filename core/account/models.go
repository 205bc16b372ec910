package account

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// PasswordCost is the bcrypt work factor for every stored password hash.
const PasswordCost = 10

type Kind string

const (
	KindStudent Kind = "student"
	KindTeacher Kind = "teacher"
)

// Plural is used in user-facing messages: "No students were processed".
func (k Kind) Plural() string { return string(k) + "s" }

// Field names a uniquely constrained account attribute.
type Field string

const (
	FieldEmail      Field = "email"
	FieldUsername   Field = "username"
	FieldExternalID Field = "external_id"
)

// Label returns the column header the field is known by in roster sheets.
func (f Field) Label(kind Kind) string {
	switch f {
	case FieldEmail:
		return "Email"
	case FieldUsername:
		return "Username"
	case FieldExternalID:
		if kind == KindTeacher {
			return "Employee ID"
		}
		return "Student ID"
	}
	return string(f)
}

// ConflictError is returned by repositories when a unique constraint rejects a write.
type ConflictError struct {
	Kind  Kind
	Field Field
	Value string
}

func (err *ConflictError) Error() string {
	return fmt.Sprintf("%s %s already exists", err.Field.Label(err.Kind), err.Value)
}

// DataError is returned by repositories when the store rejects the values of one record
// (too long, out of range, violating a check), as opposed to a failure of the store itself.
type DataError struct {
	Kind Kind
	Msg  string
}

func (err *DataError) Error() string {
	return err.Msg
}

// orderFields are the attributes account listings can be sorted by.
var orderFields = map[string]bool{
	"name": true, "username": true, "email": true, "external_id": true, "is_active": true, "created_at": true,
}

// OrderField resolves a requested sort field; student_id and employee_id name the external id.
func OrderField(name string) (string, bool) {
	switch name {
	case "student_id", "employee_id":
		return string(FieldExternalID), true
	}
	return name, orderFields[name]
}

// Column widths of the account tables, in characters.
const (
	MaxExternalIDLen = 32
	MaxNameLen       = 255
	MaxEmailLen      = 255
	MaxUsernameLen   = 64
	MaxClassLen      = 64
	MaxRollNumberLen = 32
	MaxAgeLen        = 16
	MaxDepartmentLen = 128
	MaxPhoneLen      = 64
)

// Account holds the attributes shared by students and teachers.
type Account struct {
	ID           string     `json:"id"`
	ExternalID   string     `json:"external_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash []byte     `json:"-"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login"` // UTC
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), PasswordCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) Principal() core.Principal {
	return core.Principal{ID: a.ID, Username: a.Username, Email: a.Email}
}

// Record is implemented by every account variant.
type Record interface {
	Info() Account
	Kind() Kind
}

type Student struct {
	Account
	Grade      string `json:"grade"`
	Class      string `json:"class"`
	RollNumber string `json:"roll_number"`
	Age        string `json:"age,omitempty"`
}

func (s Student) Info() Account { return s.Account }
func (Student) Kind() Kind      { return KindStudent }

type Teacher struct {
	Account
	Department  string     `json:"department"`
	Subjects    []string   `json:"subjects"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	JoiningDate *time.Time `json:"joining_date"`
}

func (t Teacher) Info() Account { return t.Account }
func (Teacher) Kind() Kind      { return KindTeacher }

// SplitSubjects parses a comma separated subject list, dropping blanks.
func SplitSubjects(s string) []string {
	subjects := make([]string, 0)
	for _, sub := range strings.Split(s, ",") {
		if sub = core.CleanString(sub); sub != "" {
			subjects = append(subjects, sub)
		}
	}
	return subjects
}

type QueryFilter struct {
	Search      string    `query:"search"`
	IsActive    *bool     `query:"is_active"`
	Class       string    `query:"class"`
	Department  string    `query:"department"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Class = core.CleanString(qf.Class)
	qf.Department = core.CleanString(qf.Department)
}

// GetFilter selects a single account. UsernameOrEmail matches either column.
type GetFilter struct {
	ID              string
	UsernameOrEmail string
}

package sqlxrepos

import (
	"time"

	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/account"
)

var accountColumns = []string{
	"id", "external_id", "name", "email", "username", "password_hash", "is_active", "last_login", "created_at", "updated_at",
}

type accountRow struct {
	ID           string    `db:"id"`
	ExternalID   string    `db:"external_id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash []byte    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	LastLogin    null.Time `db:"last_login"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func toAccountRow(acc account.Account) accountRow {
	return accountRow{
		ID:           acc.ID,
		ExternalID:   acc.ExternalID,
		Name:         acc.Name,
		Email:        acc.Email,
		Username:     acc.Username,
		PasswordHash: acc.PasswordHash,
		IsActive:     acc.IsActive,
		LastLogin:    null.TimeFromPtr(acc.LastLogin),
		CreatedAt:    acc.CreatedAt.UTC(),
		UpdatedAt:    acc.UpdatedAt.UTC(),
	}
}

func (r accountRow) account() account.Account {
	acc := account.Account{
		ID:           r.ID,
		ExternalID:   r.ExternalID,
		Name:         r.Name,
		Email:        r.Email,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		at := r.LastLogin.Time.UTC()
		acc.LastLogin = &at
	}
	return acc
}

type studentRow struct {
	accountRow
	Grade      string      `db:"grade"`
	Class      string      `db:"class"`
	RollNumber string      `db:"roll_number"`
	Age        null.String `db:"age"`
}

var studentTable = table[account.Student, studentRow]{
	name:        "students",
	kind:        account.KindStudent,
	groupColumn: "class",
	columns:     []string{"grade", "class", "roll_number", "age"},
	toRow: func(s account.Student) studentRow {
		return studentRow{
			accountRow: toAccountRow(s.Account),
			Grade:      s.Grade,
			Class:      s.Class,
			RollNumber: s.RollNumber,
			Age:        null.NewString(s.Age, s.Age != ""),
		}
	},
	fromRow: func(r studentRow) account.Student {
		return account.Student{
			Account:    r.account(),
			Grade:      r.Grade,
			Class:      r.Class,
			RollNumber: r.RollNumber,
			Age:        r.Age.String,
		}
	},
}

type teacherRow struct {
	accountRow
	Department  string         `db:"department"`
	Subjects    pq.StringArray `db:"subjects"`
	Phone       null.String    `db:"phone"`
	Address     null.String    `db:"address"`
	JoiningDate null.Time      `db:"joining_date"`
}

var teacherTable = table[account.Teacher, teacherRow]{
	name:        "teachers",
	kind:        account.KindTeacher,
	groupColumn: "department",
	columns:     []string{"department", "subjects", "phone", "address", "joining_date"},
	toRow: func(t account.Teacher) teacherRow {
		subjects := t.Subjects
		if subjects == nil {
			subjects = []string{}
		}
		return teacherRow{
			accountRow:  toAccountRow(t.Account),
			Department:  t.Department,
			Subjects:    subjects,
			Phone:       null.NewString(t.Phone, t.Phone != ""),
			Address:     null.NewString(t.Address, t.Address != ""),
			JoiningDate: null.TimeFromPtr(t.JoiningDate),
		}
	},
	fromRow: func(r teacherRow) account.Teacher {
		subjects := []string(r.Subjects)
		if subjects == nil {
			subjects = []string{}
		}
		return account.Teacher{
			Account:     r.account(),
			Department:  r.Department,
			Subjects:    subjects,
			Phone:       r.Phone.String,
			Address:     r.Address.String,
			JoiningDate: r.JoiningDate.Ptr(),
		}
	},
}

package account

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	Name            string     `json:"name" validate:"required,max=255"`
	Email           string     `json:"email" validate:"required,max=255,email"`
	Username        string     `json:"username" validate:"required,min=3,max=64,username"`
	EmployeeID      string     `json:"employee_id" validate:"required,max=32"`
	Department      string     `json:"department" validate:"required,max=128"`
	Subjects        []string   `json:"subjects"`
	Phone           string     `json:"phone" validate:"max=64"`
	Address         string     `json:"address"`
	JoiningDate     *time.Time `json:"joining_date"`
	IsActive        *bool      `json:"is_active"`
	Password        string     `json:"password" validate:"required"`
	PasswordConfirm string     `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Username = core.CleanString(nt.Username, true /* lower */)
	nt.EmployeeID = core.CleanString(nt.EmployeeID)
	nt.Department = core.CleanString(nt.Department)
	nt.Phone = core.CleanString(nt.Phone)
	nt.Address = core.CleanString(nt.Address)
	nt.Subjects = cleanSubjects(nt.Subjects)
	return validate.Struct(nt)
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
type UpdateTeacher struct {
	Name        string     `json:"name" validate:"max=255"`
	Email       string     `json:"email" validate:"omitempty,max=255,email"`
	Username    string     `json:"username" validate:"omitempty,min=3,max=64,username"`
	EmployeeID  string     `json:"employee_id" validate:"omitempty,max=32"`
	Department  string     `json:"department" validate:"max=128"`
	Subjects    *[]string  `json:"subjects"`
	Phone       *string    `json:"phone" validate:"omitempty,max=64"`
	Address     *string    `json:"address"`
	JoiningDate *time.Time `json:"joining_date"`
	IsActive    *bool      `json:"is_active"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	ut.Name = core.CleanString(ut.Name)
	ut.Email = core.CleanString(ut.Email, true /* lower */)
	ut.Username = core.CleanString(ut.Username, true /* lower */)
	ut.EmployeeID = core.CleanString(ut.EmployeeID)
	ut.Department = core.CleanString(ut.Department)
	if ut.Subjects != nil {
		subjects := cleanSubjects(*ut.Subjects)
		ut.Subjects = &subjects
	}
	if ut.Phone != nil {
		phone := core.CleanString(*ut.Phone)
		ut.Phone = &phone
	}
	if ut.Address != nil {
		addr := core.CleanString(*ut.Address)
		ut.Address = &addr
	}
	return validate.Struct(ut)
}

// LoginRequest accepts either a username or an email.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func cleanSubjects(subjects []string) []string {
	cleaned := make([]string, 0, len(subjects))
	for _, s := range subjects {
		if s = core.CleanString(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}

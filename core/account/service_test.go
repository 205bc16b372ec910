package account_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	"github.com/trezcool/shule/tests"
)

const strongPassword = "Str0ng#Pass!"

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	validate := validator.New()
	translator, _ := ut.New(en.New()).GetTranslator("en")
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	account.LoadCommonPasswords(testutil.Logger(testutil.Config(t)))
	return validate
}

func fieldErrors(t *testing.T, err error) []string {
	t.Helper()
	var fields []string
	var vErr *core.ValidationError
	var vErrs validator.ValidationErrors
	switch {
	case errors.As(err, &vErr):
		for _, f := range vErr.Fields {
			fields = append(fields, f.Field)
		}
	case errors.As(err, &vErrs):
		for _, fe := range vErrs {
			fields = append(fields, fe.Field())
		}
	default:
		t.Fatalf("expected a validation error, got %v", err)
	}
	return fields
}

func TestService_Login(t *testing.T) {
	repo := inmemdb.NewStudentRepository(inmemdb.Open())
	svc := account.NewStudentService(repo)
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	origNow := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	defer func() { core.NowFunc = origNow }()

	jo := testutil.CreateStudent(t, repo, "Jo Ann", "joann007", "jo@x.com", "STU0001", "aB3@xY9#", "5A", true)
	testutil.CreateStudent(t, repo, "Kim", "kim001", "kim@x.com", "STU0002", "aB3@xY9#", "5A", false)

	tests := []struct {
		name    string
		req     account.LoginRequest
		wantErr error
	}{
		{name: "username", req: account.LoginRequest{Username: "joann007", Password: "aB3@xY9#"}},
		{name: "email, mixed case", req: account.LoginRequest{Email: " JO@X.COM", Password: "aB3@xY9#"}},
		{name: "wrong password", req: account.LoginRequest{Username: "joann007", Password: "nope"}, wantErr: account.ErrInvalidCredentials},
		{name: "unknown account", req: account.LoginRequest{Username: "ghost", Password: "aB3@xY9#"}, wantErr: account.ErrInvalidCredentials},
		{name: "deactivated", req: account.LoginRequest{Username: "kim001", Password: "aB3@xY9#"}, wantErr: account.ErrAccountDeactivated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Login(ctx, tt.req)
			if err != tt.wantErr {
				t.Fatalf("Login() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				assert.Equal(t, jo.ID, got.ID)
				require.NotNil(t, got.LastLogin)
				assert.True(t, got.LastLogin.Equal(now))
			}
		})
	}
}

func TestService_ResetPassword(t *testing.T) {
	repo := inmemdb.NewStudentRepository(inmemdb.Open())
	svc := account.NewStudentService(repo)
	ctx := context.Background()
	jo := testutil.CreateStudent(t, repo, "Jo Ann", "joann007", "jo@x.com", "STU0001", "aB3@xY9#", "5A", true)

	_, err := svc.ResetPassword(ctx, jo.ID)
	require.NoError(t, err)

	stored, err := svc.GetByID(ctx, jo.ID)
	require.NoError(t, err)
	assert.NoError(t, stored.CheckPassword("joann007"))
	assert.Error(t, stored.CheckPassword("aB3@xY9#"))

	_, err = svc.ResetPassword(ctx, "not-a-uuid")
	assert.Equal(t, account.ErrNotFound, err)
	_, err = svc.ResetPassword(ctx, uuid.NewString())
	assert.Equal(t, account.ErrNotFound, err)
}

func TestService_Delete(t *testing.T) {
	repo := inmemdb.NewTeacherRepository(inmemdb.Open())
	svc := account.NewTeacherService(repo, newValidator(t))
	ctx := context.Background()
	mary := testutil.CreateTeacher(t, repo, "Mary", "mary", "mary@x.com", "EMP0001", "", "Science", true)

	assert.Equal(t, account.ErrNotFound, svc.Delete(ctx, "1"))
	assert.Equal(t, account.ErrNotFound, svc.Delete(ctx, uuid.NewString()))
	require.NoError(t, svc.Delete(ctx, mary.ID))

	_, err := svc.GetByID(ctx, mary.ID)
	assert.Equal(t, account.ErrNotFound, err)
}

func TestTeacherService_Create(t *testing.T) {
	repo := inmemdb.NewTeacherRepository(inmemdb.Open())
	svc := account.NewTeacherService(repo, newValidator(t))
	ctx := context.Background()
	testutil.CreateTeacher(t, repo, "Taken", "taken", "taken@x.com", "E100", "", "Math", true)

	valid := func() account.NewTeacher {
		return account.NewTeacher{
			Name:            " Mary Smith ",
			Email:           "MARY@x.com",
			Username:        "msmith",
			EmployeeID:      "E200",
			Department:      "Science",
			Subjects:        []string{"Physics", " ", "Chemistry "},
			Password:        strongPassword,
			PasswordConfirm: strongPassword,
		}
	}

	t.Run("valid", func(t *testing.T) {
		got, err := svc.Create(ctx, valid())
		require.NoError(t, err)
		assert.Equal(t, "Mary Smith", got.Name)
		assert.Equal(t, "mary@x.com", got.Email)
		assert.Equal(t, []string{"Physics", "Chemistry"}, got.Subjects)
		assert.True(t, got.IsActive)
		assert.NoError(t, got.CheckPassword(strongPassword))
	})

	t.Run("weak password", func(t *testing.T) {
		nt := valid()
		nt.Email, nt.Username, nt.EmployeeID = "other@x.com", "other", "E300"
		nt.Password, nt.PasswordConfirm = "12345678", "12345678"
		_, err := svc.Create(ctx, nt)
		assert.Equal(t, []string{"password"}, fieldErrors(t, err))
	})

	t.Run("password mismatch", func(t *testing.T) {
		nt := valid()
		nt.PasswordConfirm = "Other#Pass1"
		_, err := svc.Create(ctx, nt)
		assert.Equal(t, []string{"password_confirm"}, fieldErrors(t, err))
	})

	t.Run("taken values", func(t *testing.T) {
		nt := valid()
		nt.Email, nt.Username, nt.EmployeeID = "taken@x.com", "fresh", "E100"
		_, err := svc.Create(ctx, nt)
		assert.Equal(t, []string{"employee_id", "email"}, fieldErrors(t, err))
		assert.Equal(t, "employee_id: Employee ID E100 already exists", err.Error())
	})
}

func TestTeacherService_Update(t *testing.T) {
	repo := inmemdb.NewTeacherRepository(inmemdb.Open())
	svc := account.NewTeacherService(repo, newValidator(t))
	ctx := context.Background()
	testutil.CreateTeacher(t, repo, "Taken", "taken", "taken@x.com", "E100", "", "Math", true)
	mary := testutil.CreateTeacher(t, repo, "Mary", "mary", "mary@x.com", "EMP0001", "Str0ng#Pass!", "Science", true)

	subjects := []string{"Biology"}
	inactive := false
	got, err := svc.Update(ctx, mary.ID, account.UpdateTeacher{
		Department: "Life Sciences",
		Subjects:   &subjects,
		IsActive:   &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Life Sciences", got.Department)
	assert.Equal(t, []string{"Biology"}, got.Subjects)
	assert.False(t, got.IsActive)
	assert.Equal(t, "mary", got.Username)

	// password is untouched
	stored, err := svc.GetByID(ctx, mary.ID)
	require.NoError(t, err)
	assert.NoError(t, stored.CheckPassword(strongPassword))

	_, err = svc.Update(ctx, mary.ID, account.UpdateTeacher{Username: "Taken"})
	assert.Equal(t, []string{"username"}, fieldErrors(t, err))

	_, err = svc.Update(ctx, mary.ID, account.UpdateTeacher{Email: "not-an-email"})
	assert.Equal(t, []string{"email"}, fieldErrors(t, err))

	_, err = svc.Update(ctx, uuid.NewString(), account.UpdateTeacher{Name: "Ghost"})
	assert.Equal(t, account.ErrNotFound, err)
}

package account

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
)

type (
	// Repository persists one account variant. Create and Update return *ConflictError
	// when a unique constraint (email, username, external id) rejects the write,
	// and *DataError when the store rejects one of the record's values.
	Repository[T Record] interface {
		Exists(ctx context.Context, field Field, value string) (bool, error)
		Create(ctx context.Context, rec T) (T, error)
		// Query applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Name, Username, Email or ExternalID.
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]T, error)
		Get(ctx context.Context, filter GetFilter) (T, error)
		Update(ctx context.Context, rec T) (T, error)
		SetPassword(ctx context.Context, id string, hash []byte) error
		SetLastLogin(ctx context.Context, id string, at time.Time) error
		Delete(ctx context.Context, ids ...string) (int64, error)
	}

	StudentRepository = Repository[Student]
	TeacherRepository = Repository[Teacher]

	Service[T Record] struct {
		repo Repository[T]
	}

	StudentService = Service[Student]

	TeacherService struct {
		*Service[Teacher]
		validate *validator.Validate
	}
)

func NewService[T Record](repo Repository[T]) *Service[T] {
	return &Service[T]{repo: repo}
}

func NewStudentService(repo StudentRepository) *StudentService {
	return NewService[Student](repo)
}

func NewTeacherService(repo TeacherRepository, validate *validator.Validate) *TeacherService {
	return &TeacherService{Service: NewService[Teacher](repo), validate: validate}
}

// Repository exposes the store so the roster importer can provision accounts.
func (svc *Service[T]) Repository() Repository[T] {
	return svc.repo
}

func (svc *Service[T]) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]T, error) {
	return svc.repo.Query(ctx, filter, ordering...)
}

func (svc *Service[T]) GetByID(ctx context.Context, id string) (T, error) {
	if _, err := uuid.Parse(id); err != nil {
		var zero T
		return zero, ErrNotFound
	}
	return svc.repo.Get(ctx, GetFilter{ID: id})
}

func (svc *Service[T]) GetByUsernameOrEmail(ctx context.Context, uname string) (T, error) {
	return svc.repo.Get(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

// Login checks the credentials and stamps LastLogin.
func (svc *Service[T]) Login(ctx context.Context, req LoginRequest) (T, error) {
	var zero T
	login := req.Username
	if login == "" {
		login = req.Email
	}
	rec, err := svc.GetByUsernameOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return zero, ErrInvalidCredentials
		}
		return zero, err
	}
	acc := rec.Info()
	if err = acc.CheckPassword(req.Password); err != nil {
		return zero, ErrInvalidCredentials
	}
	if !acc.IsActive {
		return zero, ErrAccountDeactivated
	}
	if err = svc.repo.SetLastLogin(ctx, acc.ID, core.NowFunc()); err != nil {
		return zero, err
	}
	return svc.repo.Get(ctx, GetFilter{ID: acc.ID})
}

// ResetPassword sets the account password back to its username.
func (svc *Service[T]) ResetPassword(ctx context.Context, id string) (T, error) {
	rec, err := svc.GetByID(ctx, id)
	if err != nil {
		return rec, err
	}
	acc := rec.Info()
	if err = acc.SetPassword(acc.Username); err != nil {
		return rec, err
	}
	if err = svc.repo.SetPassword(ctx, acc.ID, acc.PasswordHash); err != nil {
		return rec, err
	}
	return rec, nil
}

func (svc *Service[T]) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return ErrNotFound
		}
	}
	n, err := svc.repo.Delete(ctx, ids...)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// checkUniqueness reports every taken value as a field error.
func (svc *Service[T]) checkUniqueness(ctx context.Context, kind Kind, values map[Field]string) error {
	var flds []core.FieldError
	for _, field := range []Field{FieldExternalID, FieldUsername, FieldEmail} {
		value, ok := values[field]
		if !ok || value == "" {
			continue
		}
		exists, err := svc.repo.Exists(ctx, field, value)
		if err != nil {
			return err
		}
		if exists {
			conflict := &ConflictError{Kind: kind, Field: field, Value: value}
			flds = append(flds, core.FieldError{Field: jsonField(kind, field), Error: conflict.Error()})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func jsonField(kind Kind, field Field) string {
	if field == FieldExternalID && kind == KindTeacher {
		return "employee_id"
	}
	return string(field)
}

// Create registers a teacher from the admin form.
func (svc *TeacherService) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Teacher{}, err
	}
	err := svc.checkUniqueness(ctx, KindTeacher, map[Field]string{
		FieldExternalID: nt.EmployeeID,
		FieldUsername:   nt.Username,
		FieldEmail:      nt.Email,
	})
	if err != nil {
		return Teacher{}, err
	}

	now := core.NowFunc()
	isActive := true
	if nt.IsActive != nil {
		isActive = *nt.IsActive
	}
	t := Teacher{
		Account: Account{
			ID:         uuid.NewString(),
			ExternalID: nt.EmployeeID,
			Name:       nt.Name,
			Email:      nt.Email,
			Username:   nt.Username,
			IsActive:   isActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Department:  nt.Department,
		Subjects:    nt.Subjects,
		Phone:       nt.Phone,
		Address:     nt.Address,
		JoiningDate: nt.JoiningDate,
	}
	if t.Subjects == nil {
		t.Subjects = []string{}
	}
	if err = t.SetPassword(nt.Password); err != nil {
		return Teacher{}, err
	}
	return svc.repo.Create(ctx, t)
}

// Update applies the provided fields. The password cannot be changed here.
func (svc *TeacherService) Update(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error) {
	orig, err := svc.GetByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	if err = ut.Validate(svc.validate); err != nil {
		return Teacher{}, err
	}

	changed := make(map[Field]string)
	if ut.EmployeeID != "" && ut.EmployeeID != orig.ExternalID {
		changed[FieldExternalID] = ut.EmployeeID
		orig.ExternalID = ut.EmployeeID
	}
	if ut.Username != "" && ut.Username != orig.Username {
		changed[FieldUsername] = ut.Username
		orig.Username = ut.Username
	}
	if ut.Email != "" && ut.Email != orig.Email {
		changed[FieldEmail] = ut.Email
		orig.Email = ut.Email
	}
	if err = svc.checkUniqueness(ctx, KindTeacher, changed); err != nil {
		return Teacher{}, err
	}

	if ut.Name != "" {
		orig.Name = ut.Name
	}
	if ut.Department != "" {
		orig.Department = ut.Department
	}
	if ut.Subjects != nil {
		orig.Subjects = *ut.Subjects
	}
	if ut.Phone != nil {
		orig.Phone = *ut.Phone
	}
	if ut.Address != nil {
		orig.Address = *ut.Address
	}
	if ut.JoiningDate != nil {
		orig.JoiningDate = ut.JoiningDate
	}
	if ut.IsActive != nil {
		orig.IsActive = *ut.IsActive
	}
	orig.UpdatedAt = core.NowFunc()
	return svc.repo.Update(ctx, orig)
}

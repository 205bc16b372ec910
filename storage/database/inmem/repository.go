package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

type repository[T account.Record] struct {
	db   *table[T]
	kind account.Kind
	// group returns the class (students) or department (teachers) matched by QueryFilter.
	group func(rec T, filter account.QueryFilter) bool
	// with returns rec carrying acc as its account attributes.
	with func(rec T, acc account.Account) T
}

var (
	_ account.StudentRepository = (*repository[account.Student])(nil)
	_ account.TeacherRepository = (*repository[account.Teacher])(nil)
)

func NewStudentRepository(db *DB) account.StudentRepository {
	return &repository[account.Student]{
		db:   db.students,
		kind: account.KindStudent,
		group: func(s account.Student, f account.QueryFilter) bool {
			return f.Class == "" || strings.EqualFold(s.Class, f.Class)
		},
		with: func(s account.Student, acc account.Account) account.Student {
			s.Account = acc
			return s
		},
	}
}

func NewTeacherRepository(db *DB) account.TeacherRepository {
	return &repository[account.Teacher]{
		db:   db.teachers,
		kind: account.KindTeacher,
		group: func(t account.Teacher, f account.QueryFilter) bool {
			return f.Department == "" || strings.EqualFold(t.Department, f.Department)
		},
		with: func(t account.Teacher, acc account.Account) account.Teacher {
			t.Account = acc
			return t
		},
	}
}

func fieldValue(acc account.Account, field account.Field) string {
	switch field {
	case account.FieldEmail:
		return acc.Email
	case account.FieldUsername:
		return acc.Username
	case account.FieldExternalID:
		return acc.ExternalID
	}
	return ""
}

// conflict mimics the unique constraints of the SQL schema.
func (repo *repository[T]) conflict(acc account.Account) error {
	for _, rec := range repo.db.rows {
		other := rec.Info()
		if other.ID == acc.ID {
			continue
		}
		for _, field := range []account.Field{account.FieldExternalID, account.FieldEmail, account.FieldUsername} {
			if value := fieldValue(acc, field); value != "" && value == fieldValue(other, field) {
				return &account.ConflictError{Kind: repo.kind, Field: field, Value: value}
			}
		}
	}
	return nil
}

func (repo *repository[T]) Exists(_ context.Context, field account.Field, value string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rec := range repo.db.rows {
		if fieldValue(rec.Info(), field) == value {
			return true, nil
		}
	}
	return false, nil
}

func (repo *repository[T]) Create(_ context.Context, rec T) (T, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	acc := rec.Info()
	if err := repo.conflict(acc); err != nil {
		var zero T
		return zero, err
	}
	repo.db.rows[acc.ID] = rec
	return rec, nil
}

func (repo *repository[T]) Query(_ context.Context, filter account.QueryFilter, ordering ...core.DBOrdering) ([]T, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	recs := make([]T, 0, len(repo.db.rows))
	for _, rec := range repo.db.rows {
		acc := rec.Info()
		if search != "" &&
			!strings.Contains(strings.ToLower(acc.Name), search) &&
			!strings.Contains(acc.Username, search) &&
			!strings.Contains(acc.Email, search) &&
			!strings.Contains(strings.ToLower(acc.ExternalID), search) {
			continue
		}
		if filter.IsActive != nil && acc.IsActive != *filter.IsActive {
			continue
		}
		if !filter.CreatedFrom.IsZero() && acc.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && acc.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		if !repo.group(rec, filter) {
			continue
		}
		recs = append(recs, rec)
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return less(recs[i].Info(), recs[j].Info(), ordering)
	})
	return recs, nil
}

func less(a, b account.Account, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "name":
			cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case "username":
			cmp = strings.Compare(a.Username, b.Username)
		case "email":
			cmp = strings.Compare(a.Email, b.Email)
		case "external_id":
			cmp = strings.Compare(a.ExternalID, b.ExternalID)
		case "is_active":
			cmp = boolCompare(a.IsActive, b.IsActive)
		case "created_at":
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}
		if cmp == 0 {
			continue
		}
		if ord.Ascending {
			return cmp < 0
		}
		return cmp > 0
	}
	return false
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

func (repo *repository[T]) Get(_ context.Context, filter account.GetFilter) (T, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var zero T
	if filter.ID != "" {
		if rec, ok := repo.db.rows[filter.ID]; ok {
			return rec, nil
		}
		return zero, account.ErrNotFound
	}
	if filter.UsernameOrEmail != "" {
		for _, rec := range repo.db.rows {
			if acc := rec.Info(); acc.Username == filter.UsernameOrEmail || acc.Email == filter.UsernameOrEmail {
				return rec, nil
			}
		}
	}
	return zero, account.ErrNotFound
}

func (repo *repository[T]) Update(_ context.Context, rec T) (T, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var zero T
	acc := rec.Info()
	orig, ok := repo.db.rows[acc.ID]
	if !ok {
		return zero, account.ErrNotFound
	}
	if err := repo.conflict(acc); err != nil {
		return zero, err
	}
	// credentials and timestamps are managed by dedicated calls
	origAcc := orig.Info()
	acc.PasswordHash = origAcc.PasswordHash
	acc.LastLogin = origAcc.LastLogin
	acc.CreatedAt = origAcc.CreatedAt
	rec = repo.with(rec, acc)
	repo.db.rows[acc.ID] = rec
	return rec, nil
}

func (repo *repository[T]) update(id string, fn func(acc *account.Account)) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec, ok := repo.db.rows[id]
	if !ok {
		return account.ErrNotFound
	}
	acc := rec.Info()
	fn(&acc)
	repo.db.rows[id] = repo.with(rec, acc)
	return nil
}

func (repo *repository[T]) SetPassword(_ context.Context, id string, hash []byte) error {
	return repo.update(id, func(acc *account.Account) {
		acc.PasswordHash = hash
		acc.UpdatedAt = core.NowFunc()
	})
}

func (repo *repository[T]) SetLastLogin(_ context.Context, id string, at time.Time) error {
	return repo.update(id, func(acc *account.Account) {
		at := at.UTC()
		acc.LastLogin = &at
	})
}

func (repo *repository[T]) Delete(_ context.Context, ids ...string) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := repo.db.rows[id]; ok {
			delete(repo.db.rows, id)
			n++
		}
	}
	return n, nil
}

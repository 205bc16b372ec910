package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

const (
	uniqueViolation = "23505"

	dataException      pq.ErrorClass = "22"
	integrityViolation pq.ErrorClass = "23"
)

// table maps one account variant onto its SQL table.
type table[T account.Record, R any] struct {
	name        string
	kind        account.Kind
	groupColumn string   // matched by QueryFilter.Class / QueryFilter.Department
	columns     []string // variant columns, after the shared account ones
	toRow       func(rec T) R
	fromRow     func(row R) T
}

type repository[T account.Record, R any] struct {
	exec core.DBExecutor
	tbl  table[T, R]
}

var (
	_ account.StudentRepository = (*repository[account.Student, studentRow])(nil)
	_ account.TeacherRepository = (*repository[account.Teacher, teacherRow])(nil)
)

func NewStudentRepository(exec core.DBExecutor) account.StudentRepository {
	return &repository[account.Student, studentRow]{exec: exec, tbl: studentTable}
}

func NewTeacherRepository(exec core.DBExecutor) account.TeacherRepository {
	return &repository[account.Teacher, teacherRow]{exec: exec, tbl: teacherTable}
}

func fieldColumn(field account.Field) (string, error) {
	switch field {
	case account.FieldEmail, account.FieldUsername, account.FieldExternalID:
		return string(field), nil
	}
	return "", errors.Errorf("unknown account field %q", field)
}

func (repo *repository[T, R]) allColumns() []string {
	cols := make([]string, 0, len(accountColumns)+len(repo.tbl.columns))
	cols = append(cols, accountColumns...)
	return append(cols, repo.tbl.columns...)
}

// trapNoRowsErr maps "no rows" to account.ErrNotFound.
func trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return account.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// trapWriteErr maps unique constraint violations to *account.ConflictError and
// rejected values (pq error classes 22 and 23) to *account.DataError.
func (repo *repository[T, R]) trapWriteErr(err error, acc account.Account, msg string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return errors.Wrap(err, msg)
	}
	if pqErr.Code == uniqueViolation {
		for _, field := range []account.Field{account.FieldExternalID, account.FieldEmail, account.FieldUsername} {
			if pqErr.Constraint == fmt.Sprintf("%s_%s_key", repo.tbl.name, field) {
				value := map[account.Field]string{
					account.FieldExternalID: acc.ExternalID,
					account.FieldEmail:      acc.Email,
					account.FieldUsername:   acc.Username,
				}[field]
				return &account.ConflictError{Kind: repo.tbl.kind, Field: field, Value: value}
			}
		}
	}
	switch pqErr.Code.Class() {
	case dataException, integrityViolation:
		return &account.DataError{Kind: repo.tbl.kind, Msg: pqErr.Message}
	}
	return errors.Wrap(err, msg)
}

func (repo *repository[T, R]) Exists(ctx context.Context, field account.Field, value string) (bool, error) {
	col, err := fieldColumn(field)
	if err != nil {
		return false, err
	}
	var exists bool
	q := repo.exec.Rebind(fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = ?)", repo.tbl.name, col))
	if err = repo.exec.GetContext(ctx, &exists, q, value); err != nil {
		return false, errors.Wrapf(err, "checking %s %s", repo.tbl.kind, field)
	}
	return exists, nil
}

func (repo *repository[T, R]) Create(ctx context.Context, rec T) (T, error) {
	cols := repo.allColumns()
	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (:%s)",
		repo.tbl.name, strings.Join(cols, ", "), strings.Join(cols, ", :"),
	)
	if _, err := repo.exec.NamedExecContext(ctx, q, repo.tbl.toRow(rec)); err != nil {
		var zero T
		return zero, repo.trapWriteErr(err, rec.Info(), "inserting "+string(repo.tbl.kind))
	}
	return rec, nil
}

func (repo *repository[T, R]) Query(ctx context.Context, filter account.QueryFilter, ordering ...core.DBOrdering) ([]T, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		where = append(where, "(name ILIKE ? OR username ILIKE ? OR email ILIKE ? OR external_id ILIKE ?)")
		args = append(args, val, val, val, val)
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, filter.CreatedTo.UTC())
	}
	group := filter.Class
	if repo.tbl.kind == account.KindTeacher {
		group = filter.Department
	}
	if group != "" {
		where = append(where, fmt.Sprintf("LOWER(%s) = LOWER(?)", repo.tbl.groupColumn))
		args = append(args, group)
	}

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(repo.allColumns(), ", "), repo.tbl.name)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := account.OrderField(ord.Field); ok {
			orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, core.DBOrdering{Field: "created_at"}.String())
	}
	q += " ORDER BY " + strings.Join(orderList, ", ")

	var rows []R
	if err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrapf(err, "querying %s", repo.tbl.name)
	}
	recs := make([]T, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.tbl.fromRow(row))
	}
	return recs, nil
}

func (repo *repository[T, R]) Get(ctx context.Context, filter account.GetFilter) (T, error) {
	var (
		zero T
		row  R
		q    = fmt.Sprintf("SELECT %s FROM %s", strings.Join(repo.allColumns(), ", "), repo.tbl.name)
		args []interface{}
	)
	switch {
	case filter.ID != "":
		q += " WHERE id = ?"
		args = append(args, filter.ID)
	case filter.UsernameOrEmail != "":
		q += " WHERE username = ? OR email = ? LIMIT 1"
		args = append(args, filter.UsernameOrEmail, filter.UsernameOrEmail)
	default:
		return zero, account.ErrNotFound
	}

	if err := repo.exec.GetContext(ctx, &row, repo.exec.Rebind(q), args...); err != nil {
		return zero, trapNoRowsErr(err, "getting "+string(repo.tbl.kind))
	}
	return repo.tbl.fromRow(row), nil
}

// Update writes every attribute but the password hash, last login and creation time.
func (repo *repository[T, R]) Update(ctx context.Context, rec T) (T, error) {
	var zero T
	skip := map[string]bool{"id": true, "password_hash": true, "last_login": true, "created_at": true}
	sets := make([]string, 0, len(accountColumns)+len(repo.tbl.columns))
	for _, col := range repo.allColumns() {
		if !skip[col] {
			sets = append(sets, col+" = :"+col)
		}
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", repo.tbl.name, strings.Join(sets, ", "))

	res, err := repo.exec.NamedExecContext(ctx, q, repo.tbl.toRow(rec))
	if err != nil {
		return zero, repo.trapWriteErr(err, rec.Info(), "updating "+string(repo.tbl.kind))
	}
	if err = checkAffected(res); err != nil {
		return zero, err
	}
	return repo.Get(ctx, account.GetFilter{ID: rec.Info().ID})
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (repo *repository[T, R]) SetPassword(ctx context.Context, id string, hash []byte) error {
	q := repo.exec.Rebind(fmt.Sprintf("UPDATE %s SET password_hash = ?, updated_at = ? WHERE id = ?", repo.tbl.name))
	res, err := repo.exec.ExecContext(ctx, q, hash, core.NowFunc(), id)
	if err != nil {
		return errors.Wrapf(err, "setting %s password", repo.tbl.kind)
	}
	return checkAffected(res)
}

func (repo *repository[T, R]) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	q := repo.exec.Rebind(fmt.Sprintf("UPDATE %s SET last_login = ? WHERE id = ?", repo.tbl.name))
	res, err := repo.exec.ExecContext(ctx, q, at.UTC(), id)
	if err != nil {
		return errors.Wrapf(err, "setting %s last login", repo.tbl.kind)
	}
	return checkAffected(res)
}

func (repo *repository[T, R]) Delete(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(fmt.Sprintf("DELETE FROM %s WHERE id IN (?)", repo.tbl.name), ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrapf(err, "deleting %s", repo.tbl.name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted rows")
	}
	return n, nil
}

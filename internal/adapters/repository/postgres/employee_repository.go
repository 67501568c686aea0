package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/hr-backoffice/internal/core/employee"
	pgdb "github.com/ogurasousui/hr-backoffice/internal/platform/db/postgres"
)

// EmployeeRepository は PostgreSQL を利用した社員参照の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

const employeeColumns = `id, company_id, user_id, is_admin, status, created_at, updated_at`

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindByUserID はアイデンティティ参照で社員を取得します。
func (r *EmployeeRepository) FindByUserID(ctx context.Context, userID string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE user_id = $1
         LIMIT 1
    `, userID)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// UpdateStatus は社員の状態を更新します。
func (r *EmployeeRepository) UpdateStatus(ctx context.Context, id string, status employee.Status) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET status = $1,
               updated_at = now()
         WHERE id = $2
        RETURNING `+employeeColumns+`
    `, string(status), id)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id        string
		companyID string
		userID    string
		isAdmin   bool
		status    string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&id, &companyID, &userID, &isAdmin, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &employee.Employee{
		ID:        id,
		CompanyID: companyID,
		UserID:    userID,
		IsAdmin:   isAdmin,
		Status:    employee.Status(status),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

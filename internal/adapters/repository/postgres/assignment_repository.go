package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/hr-backoffice/internal/core/assignment"
	"github.com/ogurasousui/hr-backoffice/internal/core/employee"
	"github.com/ogurasousui/hr-backoffice/internal/core/role"
	pgdb "github.com/ogurasousui/hr-backoffice/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// AssignmentRepository は PostgreSQL を利用したロール割り当て台帳の実装です。
type AssignmentRepository struct {
	pool pgdb.Queryer
}

// NewAssignmentRepository は AssignmentRepository を生成します。
func NewAssignmentRepository(pool pgdb.Queryer) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

const assignmentSelectColumns = `a.id, a.employee_id, a.role_id, a.company_id, a.start_date, a.end_date,
               a.is_current, a.notes, a.version, a.created_at, a.updated_at,
               r.id, r.title, r.level`

// Create は新しい台帳エントリを挿入します。ID はここで採番します。
func (r *AssignmentRepository) Create(ctx context.Context, a *assignment.RoleAssignment) (*assignment.RoleAssignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO role_assignments (id, employee_id, role_id, company_id, start_date, end_date, is_current, notes, version, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
            RETURNING id, employee_id, role_id, company_id, start_date, end_date, is_current, notes, version, created_at, updated_at
        )
        SELECT a.id, a.employee_id, a.role_id, a.company_id, a.start_date, a.end_date,
               a.is_current, a.notes, a.version, a.created_at, a.updated_at,
               r.id, r.title, r.level
          FROM inserted a
          JOIN roles r ON r.id = a.role_id
    `,
		uuid.NewString(),
		a.EmployeeID,
		a.RoleID,
		a.CompanyID,
		a.StartDate,
		nullableTime(a.EndDate),
		a.IsCurrent,
		a.Notes,
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)

	created, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return created, nil
}

// FindByID は ID で台帳エントリを取得します。
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*assignment.RoleAssignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+assignmentSelectColumns+`
          FROM role_assignments a
          JOIN roles r ON r.id = a.role_id
         WHERE a.id = $1
         LIMIT 1
    `, id)

	found, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return found, nil
}

// FindCurrentByEmployee は社員の現行エントリを取得します。
func (r *AssignmentRepository) FindCurrentByEmployee(ctx context.Context, employeeID string) (*assignment.RoleAssignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+assignmentSelectColumns+`
          FROM role_assignments a
          JOIN roles r ON r.id = a.role_id
         WHERE a.employee_id = $1 AND a.is_current
         LIMIT 1
    `, employeeID)

	found, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return found, nil
}

// Close は id と version が一致する現行エントリに終了日を書き込みます。
// 競合する書き込みに敗れた場合は ErrConcurrentModification を返します。
func (r *AssignmentRepository) Close(ctx context.Context, id string, version int64, endDate time.Time) (*assignment.RoleAssignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH closed AS (
            UPDATE role_assignments
               SET end_date = $1,
                   is_current = FALSE,
                   version = version + 1,
                   updated_at = now()
             WHERE id = $2 AND version = $3 AND is_current
            RETURNING id, employee_id, role_id, company_id, start_date, end_date, is_current, notes, version, created_at, updated_at
        )
        SELECT a.id, a.employee_id, a.role_id, a.company_id, a.start_date, a.end_date,
               a.is_current, a.notes, a.version, a.created_at, a.updated_at,
               r.id, r.title, r.level
          FROM closed a
          JOIN roles r ON r.id = a.role_id
    `, endDate, id, version)

	closed, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, assignment.ErrAssignmentNotFound) {
			return nil, assignment.ErrConcurrentModification
		}
		return nil, translateAssignmentPgError(err)
	}
	return closed, nil
}

// ListByEmployee は社員の全履歴を開始日の降順で返します。
func (r *AssignmentRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*assignment.RoleAssignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+assignmentSelectColumns+`
          FROM role_assignments a
          JOIN roles r ON r.id = a.role_id
         WHERE a.employee_id = $1
         ORDER BY a.start_date DESC, a.created_at DESC
    `, employeeID)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	defer rows.Close()

	assignments := make([]*assignment.RoleAssignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, translateAssignmentPgError(err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, translateAssignmentPgError(err)
	}

	return assignments, nil
}

func scanAssignment(row pgx.Row) (*assignment.RoleAssignment, error) {
	var (
		id         string
		employeeID string
		roleID     string
		companyID  string
		startDate  time.Time
		endDate    sql.NullTime
		isCurrent  bool
		notes      string
		version    int64
		createdAt  time.Time
		updatedAt  time.Time
		snapID     string
		snapTitle  string
		snapLevel  int
	)

	if err := row.Scan(
		&id,
		&employeeID,
		&roleID,
		&companyID,
		&startDate,
		&endDate,
		&isCurrent,
		&notes,
		&version,
		&createdAt,
		&updatedAt,
		&snapID,
		&snapTitle,
		&snapLevel,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, assignment.ErrAssignmentNotFound
		}
		return nil, err
	}

	var endPtr *time.Time
	if endDate.Valid {
		d := normalizeScannedDate(endDate.Time)
		endPtr = &d
	}

	return &assignment.RoleAssignment{
		ID:         id,
		EmployeeID: employeeID,
		RoleID:     roleID,
		CompanyID:  companyID,
		StartDate:  normalizeScannedDate(startDate),
		EndDate:    endPtr,
		IsCurrent:  isCurrent,
		Notes:      notes,
		Version:    version,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		Role: &assignment.RoleSnapshot{
			ID:    snapID,
			Title: snapTitle,
			Level: snapLevel,
		},
	}, nil
}

func translateAssignmentPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return assignment.ErrAssignmentNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			// 単一現行の部分ユニーク制約に触れた場合、別の書き込みに敗れています。
			return assignment.ErrConcurrentModification
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "role_assignments_employee_id_fkey":
				return employee.ErrEmployeeNotFound
			case "role_assignments_role_id_fkey":
				return role.ErrRoleNotFound
			default:
				return err
			}
		case checkViolationCode:
			return assignment.ErrInvalidEndDate
		}
	}

	return err
}

func normalizeScannedDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return *value
}

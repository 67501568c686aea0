package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/hr-backoffice/internal/core/employee"
	"github.com/ogurasousui/hr-backoffice/internal/core/leave"
	pgdb "github.com/ogurasousui/hr-backoffice/internal/platform/db/postgres"
)

// LeaveRepository は PostgreSQL を利用した休暇申請永続化の実装です。
type LeaveRepository struct {
	pool pgdb.Queryer
}

// NewLeaveRepository は LeaveRepository を生成します。
func NewLeaveRepository(pool pgdb.Queryer) *LeaveRepository {
	return &LeaveRepository{pool: pool}
}

const leaveColumns = `id, employee_id, company_id, type, start_date, end_date, total_days, reason, status, approved_by, approved_at, created_at, updated_at`

// Create は休暇申請を新規作成します。ID はここで採番します。
func (r *LeaveRepository) Create(ctx context.Context, req *leave.LeaveRequest) (*leave.LeaveRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO leave_requests (id, employee_id, company_id, type, start_date, end_date, total_days, reason, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING `+leaveColumns+`
    `,
		uuid.NewString(),
		req.EmployeeID,
		req.CompanyID,
		string(req.Type),
		req.StartDate,
		req.EndDate,
		req.TotalDays,
		req.Reason,
		string(req.Status),
		req.CreatedAt,
		req.UpdatedAt,
	)

	created, err := scanLeaveRequest(row)
	if err != nil {
		return nil, translateLeavePgError(err)
	}
	return created, nil
}

// FindByID は ID で休暇申請を取得します。
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+leaveColumns+`
          FROM leave_requests
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanLeaveRequest(row)
	if err != nil {
		return nil, translateLeavePgError(err)
	}
	return found, nil
}

// Decide は status = pending の行に限り遷移を書き込みます。
// 一致する行が無い場合は別の決定に敗れたものとして ErrConcurrentDecision を返します。
func (r *LeaveRepository) Decide(ctx context.Context, id string, outcome leave.Status, approvedBy string, approvedAt time.Time) (*leave.LeaveRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE leave_requests
           SET status = $1,
               approved_by = $2,
               approved_at = $3,
               updated_at = $3
         WHERE id = $4 AND status = 'pending'
        RETURNING `+leaveColumns+`
    `, string(outcome), approvedBy, approvedAt, id)

	decided, err := scanLeaveRequest(row)
	if err != nil {
		if errors.Is(err, leave.ErrRequestNotFound) {
			return nil, leave.ErrConcurrentDecision
		}
		return nil, translateLeavePgError(err)
	}
	return decided, nil
}

// DeletePending は status = pending の行のみを削除します。
func (r *LeaveRepository) DeletePending(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return translateLeavePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrConcurrentDecision
	}
	return nil
}

// List は会社スコープの休暇申請一覧と総件数を返します。
func (r *LeaveRepository) List(ctx context.Context, filter leave.ListFilter) ([]*leave.LeaveRequest, int, error) {
	if strings.TrimSpace(filter.CompanyID) == "" {
		return nil, 0, leave.ErrRequestNotFound
	}
	if filter.Limit <= 0 {
		return nil, 0, leave.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, 0, leave.ErrInvalidPage
	}

	args := make([]any, 0, 6)
	conditions := make([]string, 0, 4)

	conditions = append(conditions, "company_id = $"+strconv.Itoa(len(args)+1))
	args = append(args, filter.CompanyID)

	if filter.EmployeeID != "" {
		conditions = append(conditions, "employee_id = $"+strconv.Itoa(len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.Type != nil {
		conditions = append(conditions, "type = $"+strconv.Itoa(len(args)+1))
		args = append(args, string(*filter.Type))
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var total int
	countRow := exec.QueryRow(ctx, `SELECT COUNT(*) FROM leave_requests`+whereClause, args...)
	if err := countRow.Scan(&total); err != nil {
		return nil, 0, translateLeavePgError(err)
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Limit)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	rows, err := exec.Query(ctx, `
        SELECT `+leaveColumns+`
          FROM leave_requests`+whereClause+`
         ORDER BY created_at DESC, id DESC
         LIMIT `+limitPlaceholder+`
        OFFSET `+offsetPlaceholder+`
    `, args...)
	if err != nil {
		return nil, 0, translateLeavePgError(err)
	}
	defer rows.Close()

	requests := make([]*leave.LeaveRequest, 0, filter.Limit)
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, 0, translateLeavePgError(err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, translateLeavePgError(err)
	}

	return requests, total, nil
}

func scanLeaveRequest(row pgx.Row) (*leave.LeaveRequest, error) {
	var (
		id         string
		employeeID string
		companyID  string
		leaveType  string
		startDate  time.Time
		endDate    time.Time
		totalDays  int
		reason     string
		status     string
		approvedBy sql.NullString
		approvedAt sql.NullTime
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(
		&id,
		&employeeID,
		&companyID,
		&leaveType,
		&startDate,
		&endDate,
		&totalDays,
		&reason,
		&status,
		&approvedBy,
		&approvedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, leave.ErrRequestNotFound
		}
		return nil, err
	}

	var approvedByPtr *string
	if approvedBy.Valid {
		by := approvedBy.String
		approvedByPtr = &by
	}

	var approvedAtPtr *time.Time
	if approvedAt.Valid {
		at := approvedAt.Time.UTC()
		approvedAtPtr = &at
	}

	return &leave.LeaveRequest{
		ID:         id,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Type:       leave.Type(leaveType),
		StartDate:  normalizeScannedDate(startDate),
		EndDate:    normalizeScannedDate(endDate),
		TotalDays:  totalDays,
		Reason:     reason,
		Status:     leave.Status(status),
		ApprovedBy: approvedByPtr,
		ApprovedAt: approvedAtPtr,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

func translateLeavePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.ErrRequestNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == "leave_requests_employee_id_fkey" {
				return employee.ErrEmployeeNotFound
			}
			return err
		case checkViolationCode:
			return leave.ErrInvalidDateRange
		}
	}

	return err
}

package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/hr-backoffice/internal/core/employee"
	"github.com/ogurasousui/hr-backoffice/internal/core/role"
	"github.com/ogurasousui/hr-backoffice/internal/core/scope"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service はロール割り当て台帳のユースケースをまとめます。
type Service struct {
	repo      Repository
	employees employee.Repository
	roles     role.Repository
	clock     Clock
	tx        TransactionManager
}

// UseCase はロール割り当て台帳の公開インターフェースです。
type UseCase interface {
	Assign(ctx context.Context, sc scope.Context, in AssignInput) (*RoleAssignment, error)
	End(ctx context.Context, sc scope.Context, in EndInput) (*RoleAssignment, error)
	History(ctx context.Context, sc scope.Context, employeeID string) ([]*RoleAssignment, error)
	Current(ctx context.Context, sc scope.Context, employeeID string) (*RoleAssignment, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees employee.Repository, roles role.Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, employees: employees, roles: roles, clock: clock, tx: tx}
}

// AssignInput はロール割り当て時の入力です。
type AssignInput struct {
	EmployeeID string
	RoleID     string
	StartDate  time.Time
	Notes      string
}

// EndInput は現行割り当てを終了する際の入力です。
type EndInput struct {
	AssignmentID string
	EndDate      time.Time
}

// Assign は新しい現行割り当てを作成します。既存の現行行がある場合は
// 同一トランザクション内で閉じてから挿入し、単一現行の不変条件を守ります。
func (s *Service) Assign(ctx context.Context, sc scope.Context, in AssignInput) (*RoleAssignment, error) {
	employeeID, err := normalizeID(in.EmployeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	roleID, err := normalizeID(in.RoleID, ErrInvalidRoleID)
	if err != nil {
		return nil, err
	}

	if in.StartDate.IsZero() {
		return nil, ErrInvalidStartDate
	}
	startDate := normalizeDate(in.StartDate)
	notes := strings.TrimSpace(in.Notes)

	var created *RoleAssignment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}

		if err := scope.Authorize(sc, emp.CompanyID, scope.RequireAdmin()); err != nil {
			return err
		}

		r, err := s.roles.FindByID(txCtx, roleID)
		if err != nil {
			return err
		}
		if r.CompanyID != sc.CompanyID {
			return role.ErrRoleNotFound
		}

		current, err := s.repo.FindCurrentByEmployee(txCtx, employeeID)
		if err != nil && !errors.Is(err, ErrAssignmentNotFound) {
			return err
		}
		if current != nil {
			if startDate.Before(current.StartDate) {
				return fmt.Errorf("start date precedes current assignment: %w", ErrInvalidStartDate)
			}
			if _, err := s.repo.Close(txCtx, current.ID, current.Version, startDate); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &RoleAssignment{
			EmployeeID: employeeID,
			RoleID:     roleID,
			CompanyID:  emp.CompanyID,
			StartDate:  startDate,
			IsCurrent:  true,
			Notes:      notes,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// End は現行割り当てを後任なしで終了します。
func (s *Service) End(ctx context.Context, sc scope.Context, in EndInput) (*RoleAssignment, error) {
	assignmentID, err := normalizeID(in.AssignmentID, ErrInvalidID)
	if err != nil {
		return nil, err
	}

	if in.EndDate.IsZero() {
		return nil, ErrInvalidEndDate
	}
	endDate := normalizeDate(in.EndDate)

	var closed *RoleAssignment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, assignmentID)
		if err != nil {
			return err
		}

		if err := scope.Authorize(sc, existing.CompanyID, scope.RequireAdmin()); err != nil {
			return err
		}

		if !existing.IsCurrent {
			return ErrAssignmentNotCurrent
		}

		if endDate.Before(existing.StartDate) {
			return ErrInvalidEndDate
		}

		result, err := s.repo.Close(txCtx, existing.ID, existing.Version, endDate)
		if err != nil {
			return err
		}

		closed = result
		return nil
	}); err != nil {
		return nil, err
	}

	return closed, nil
}

// History は社員の全割り当て履歴を開始日の降順で返します。
func (s *Service) History(ctx context.Context, sc scope.Context, employeeID string) ([]*RoleAssignment, error) {
	id, err := normalizeID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	var history []*RoleAssignment
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		if err := scope.Authorize(sc, emp.CompanyID, scope.RequireSelfOrAdmin(emp.ID)); err != nil {
			return err
		}

		result, err := s.repo.ListByEmployee(txCtx, id)
		if err != nil {
			return err
		}

		history = result
		return nil
	}); err != nil {
		return nil, err
	}

	return history, nil
}

// Current は現行割り当てを返します。存在しない場合は nil を返し、エラーにはしません。
func (s *Service) Current(ctx context.Context, sc scope.Context, employeeID string) (*RoleAssignment, error) {
	id, err := normalizeID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	var current *RoleAssignment
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		if err := scope.Authorize(sc, emp.CompanyID, scope.RequireSelfOrAdmin(emp.ID)); err != nil {
			return err
		}

		result, err := s.repo.FindCurrentByEmployee(txCtx, id)
		if err != nil {
			if errors.Is(err, ErrAssignmentNotFound) {
				return nil
			}
			return err
		}

		current = result
		return nil
	}); err != nil {
		return nil, err
	}

	return current, nil
}

func normalizeID(raw string, invalid error) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid
	}
	return trimmed, nil
}

func normalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

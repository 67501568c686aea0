package leave

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ogurasousui/hr-backoffice/internal/core/employee"
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

const (
	defaultListPageSize = 20
	maxListPageSize     = 100
)

// Service は休暇申請の状態機械ユースケースをまとめます。
type Service struct {
	repo          Repository
	employees     employee.Repository
	statusUpdater employee.StatusUpdater
	clock         Clock
	tx            TransactionManager
	logger        *zap.Logger
}

// UseCase は休暇申請ユースケースの公開インターフェースです。
type UseCase interface {
	Submit(ctx context.Context, sc scope.Context, in SubmitInput) (*LeaveRequest, error)
	Decide(ctx context.Context, sc scope.Context, in DecideInput) (*LeaveRequest, error)
	Withdraw(ctx context.Context, sc scope.Context, requestID string) error
	List(ctx context.Context, sc scope.Context, in ListInput) (*ListResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees employee.Repository, statusUpdater employee.StatusUpdater, clock Clock, tx TransactionManager, logger *zap.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:          repo,
		employees:     employees,
		statusUpdater: statusUpdater,
		clock:         clock,
		tx:            tx,
		logger:        logger,
	}
}

// SubmitInput は休暇申請提出時の入力です。
type SubmitInput struct {
	EmployeeID string
	Type       Type
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// DecideInput は休暇申請の承認・却下時の入力です。
type DecideInput struct {
	RequestID          string
	Outcome            Status
	ApproverEmployeeID string
}

// ListInput は一覧取得時の入力です。
type ListInput struct {
	EmployeeID string
	Status     *Status
	Type       *Type
	Page       int
	PageSize   int
}

// ListResult は一覧取得結果を表します。
type ListResult struct {
	Requests   []*LeaveRequest
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// Submit は新しい休暇申請を pending 状態で作成します。
// 管理者以外は自分自身の申請のみ提出できます。
func (s *Service) Submit(ctx context.Context, sc scope.Context, in SubmitInput) (*LeaveRequest, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, ErrInvalidEmployeeID
	}

	if !IsValidType(in.Type) {
		return nil, ErrInvalidType
	}

	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, ErrInvalidDateRange
	}

	startDate := normalizeDate(in.StartDate)
	endDate := normalizeDate(in.EndDate)
	if startDate.After(endDate) {
		return nil, ErrInvalidDateRange
	}

	totalDays := TotalDaysBetween(startDate, endDate)
	if totalDays < 1 {
		return nil, ErrInvalidTotalDays
	}

	reason := strings.TrimSpace(in.Reason)

	var created *LeaveRequest
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}

		if err := scope.Authorize(sc, emp.CompanyID, scope.RequireSelfOrAdmin(emp.ID)); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &LeaveRequest{
			EmployeeID: employeeID,
			CompanyID:  emp.CompanyID,
			Type:       in.Type,
			StartDate:  startDate,
			EndDate:    endDate,
			TotalDays:  totalDays,
			Reason:     reason,
			Status:     StatusPending,
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

// Decide は pending の申請を approved または rejected へ遷移させます。
// 遷移は status = pending を条件とする条件付き更新で、同時決定の一方のみが勝ちます。
// 承認された今日を含む vacation 申請については、コミット後に社員状態を on_leave へ
// 更新します。この後続処理はベストエフォートで、失敗しても承認は取り消されません。
func (s *Service) Decide(ctx context.Context, sc scope.Context, in DecideInput) (*LeaveRequest, error) {
	requestID := strings.TrimSpace(in.RequestID)
	if requestID == "" {
		return nil, ErrInvalidID
	}

	if in.Outcome != StatusApproved && in.Outcome != StatusRejected {
		return nil, ErrInvalidOutcome
	}

	approver := strings.TrimSpace(in.ApproverEmployeeID)
	if approver == "" {
		approver = sc.EmployeeID
	}

	var decided *LeaveRequest
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, requestID)
		if err != nil {
			return err
		}

		if err := scope.Authorize(sc, existing.CompanyID, scope.RequireAdmin()); err != nil {
			return err
		}

		if existing.Status != StatusPending {
			return ErrRequestNotPending
		}

		result, err := s.repo.Decide(txCtx, requestID, in.Outcome, approver, s.clock.Now())
		if err != nil {
			return err
		}

		decided = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.applyStatusSideEffect(ctx, decided)

	return decided, nil
}

func (s *Service) applyStatusSideEffect(ctx context.Context, decided *LeaveRequest) {
	if s.statusUpdater == nil || decided == nil {
		return
	}
	if decided.Status != StatusApproved || decided.Type != TypeVacation {
		return
	}

	today := normalizeDate(s.clock.Now())
	if !decided.ContainsDate(today) {
		return
	}

	if err := s.statusUpdater.MarkOnLeave(ctx, decided.EmployeeID); err != nil {
		s.logger.Warn("failed to mark employee on leave after approval",
			zap.String("leave_request_id", decided.ID),
			zap.String("employee_id", decided.EmployeeID),
			zap.Error(err),
		)
	}
}

// Withdraw は pending の申請を取り下げます。本人または管理者のみが行えます。
func (s *Service) Withdraw(ctx context.Context, sc scope.Context, requestID string) error {
	id := strings.TrimSpace(requestID)
	if id == "" {
		return ErrInvalidID
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		if err := scope.Authorize(sc, existing.CompanyID, scope.RequireSelfOrAdmin(existing.EmployeeID)); err != nil {
			return err
		}

		if existing.Status != StatusPending {
			return ErrRequestNotPending
		}

		return s.repo.DeletePending(txCtx, id)
	})
}

// List は休暇申請の一覧をページングして返します。
// 管理者以外の呼び出しは常に自分自身の申請に限定されます。
func (s *Service) List(ctx context.Context, sc scope.Context, in ListInput) (*ListResult, error) {
	page := in.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}

	pageSize := in.PageSize
	if pageSize == 0 {
		pageSize = defaultListPageSize
	}
	if pageSize < 1 || pageSize > maxListPageSize {
		return nil, ErrInvalidPageSize
	}

	if in.Status != nil && !IsValidStatus(*in.Status) {
		return nil, ErrInvalidStatus
	}
	if in.Type != nil && !IsValidType(*in.Type) {
		return nil, ErrInvalidType
	}

	employeeID := strings.TrimSpace(in.EmployeeID)
	if !sc.IsAdmin {
		employeeID = sc.EmployeeID
	}

	filter := ListFilter{
		CompanyID:  sc.CompanyID,
		EmployeeID: employeeID,
		Status:     in.Status,
		Type:       in.Type,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	}

	var (
		requests []*LeaveRequest
		total    int
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, count, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		requests = result
		total = count
		return nil
	}); err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return &ListResult{
		Requests:   requests,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func normalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

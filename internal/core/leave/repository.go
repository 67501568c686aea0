package leave

import (
	"context"
	"time"
)

// ListFilter は一覧取得用フィルタです。CompanyID は常に必須です。
type ListFilter struct {
	CompanyID  string
	EmployeeID string
	Status     *Status
	Type       *Type
	Limit      int
	Offset     int
}

// Repository は休暇申請永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, r *LeaveRequest) (*LeaveRequest, error)
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	// Decide は status = pending の行にのみ遷移を書き込みます。
	// 条件に一致する行が無い場合は ErrConcurrentDecision を返します。
	Decide(ctx context.Context, id string, outcome Status, approvedBy string, approvedAt time.Time) (*LeaveRequest, error)
	// DeletePending は status = pending の行のみを削除します。
	DeletePending(ctx context.Context, id string) error
	// List は安定した順序（作成日時の降順）で申請一覧と総件数を返します。
	List(ctx context.Context, filter ListFilter) ([]*LeaveRequest, int, error)
}

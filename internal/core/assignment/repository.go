package assignment

import (
	"context"
	"time"
)

// Repository はロール割り当て台帳の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, a *RoleAssignment) (*RoleAssignment, error)
	FindByID(ctx context.Context, id string) (*RoleAssignment, error)
	// FindCurrentByEmployee は現行行が無い場合 ErrAssignmentNotFound を返します。
	FindCurrentByEmployee(ctx context.Context, employeeID string) (*RoleAssignment, error)
	// Close は id と version が一致する現行行にのみ終了日を書き込みます。
	// 条件に一致する行が無い場合は ErrConcurrentModification を返します。
	Close(ctx context.Context, id string, version int64, endDate time.Time) (*RoleAssignment, error)
	// ListByEmployee は start_date の降順で全履歴を返します。
	ListByEmployee(ctx context.Context, employeeID string) ([]*RoleAssignment, error)
}

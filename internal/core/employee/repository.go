package employee

import "context"

// Repository は社員永続化の抽象です。社員レコード自体の管理は
// 外部のバックオフィスが担うため、参照と状態更新のみを公開します。
type Repository interface {
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByUserID(ctx context.Context, userID string) (*Employee, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Employee, error)
}

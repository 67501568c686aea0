package role

import (
	"context"
	"errors"
	"time"
)

// Role は外部のロールカタログが管理する参照専用のエンティティです。
type Role struct {
	ID        string
	CompanyID string
	Title     string
	Level     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

var ErrRoleNotFound = errors.New("role: not found")

// Repository はロールカタログ参照の抽象です。
type Repository interface {
	FindByID(ctx context.Context, id string) (*Role, error)
}

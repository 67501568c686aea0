package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/hr-backoffice/internal/core/role"
	pgdb "github.com/ogurasousui/hr-backoffice/internal/platform/db/postgres"
)

// RoleRepository は PostgreSQL を利用したロールカタログ参照の実装です。
type RoleRepository struct {
	pool pgdb.Queryer
}

// NewRoleRepository は RoleRepository を生成します。
func NewRoleRepository(pool pgdb.Queryer) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// FindByID は ID でロールを取得します。
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*role.Role, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, company_id, title, level, created_at, updated_at
          FROM roles
         WHERE id = $1
         LIMIT 1
    `, id)

	var (
		roleID    string
		companyID string
		title     string
		level     int
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&roleID, &companyID, &title, &level, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, role.ErrRoleNotFound
		}
		return nil, err
	}

	return &role.Role{
		ID:        roleID,
		CompanyID: companyID,
		Title:     title,
		Level:     level,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

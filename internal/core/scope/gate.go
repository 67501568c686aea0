package scope

import (
	"context"
	"errors"
	"strings"

	"github.com/ogurasousui/hr-backoffice/internal/core/employee"
)

// Gate は呼び出し元のアイデンティティをスコープに解決します。
type Gate struct {
	employees employee.Repository
}

// Resolver はスコープ解決の公開インターフェースです。
type Resolver interface {
	Resolve(ctx context.Context, identity Identity) (Context, error)
}

// NewGate は Gate を生成します。
func NewGate(employees employee.Repository) *Gate {
	return &Gate{employees: employees}
}

// Resolve はアイデンティティから社員レコードを 1 回だけ引き、スコープを構築します。
func (g *Gate) Resolve(ctx context.Context, identity Identity) (Context, error) {
	userID := strings.TrimSpace(identity.UserID)
	if userID == "" {
		return Context{}, ErrUnauthenticated
	}

	emp, err := g.employees.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return Context{}, ErrUnauthenticated
		}
		return Context{}, err
	}

	return Context{
		CompanyID:  emp.CompanyID,
		EmployeeID: emp.ID,
		IsAdmin:    emp.IsAdmin,
	}, nil
}

// Constraint は Authorize の追加条件を表します。
type Constraint struct {
	requireAdmin    bool
	ownerEmployeeID string
}

// RequireAdmin は管理者権限を要求する制約を返します。
func RequireAdmin() Constraint {
	return Constraint{requireAdmin: true}
}

// RequireSelfOrAdmin は本人または管理者であることを要求する制約を返します。
func RequireSelfOrAdmin(ownerEmployeeID string) Constraint {
	return Constraint{ownerEmployeeID: ownerEmployeeID}
}

// Authorize はスコープに対してリソースへのアクセス可否を判定します。
// 会社が一致しない場合は権限エラーではなく ErrNotFound を返し、
// 他社リソースの存在を漏らしません。会社チェックは常に権限チェックより先に行います。
func Authorize(sc Context, resourceCompanyID string, c Constraint) error {
	if resourceCompanyID == "" || resourceCompanyID != sc.CompanyID {
		return ErrNotFound
	}

	if c.requireAdmin && !sc.IsAdmin {
		return ErrForbidden
	}

	if c.ownerEmployeeID != "" && !sc.IsAdmin && sc.EmployeeID != c.ownerEmployeeID {
		return ErrForbidden
	}

	return nil
}

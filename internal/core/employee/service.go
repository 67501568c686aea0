package employee

import (
	"context"
	"fmt"
	"strings"
)

// StatusService は社員の状態更新ユースケースをまとめます。
// 休暇承認の後続処理として leave パッケージから利用されます。
type StatusService struct {
	repo Repository
}

// StatusUpdater は状態更新の公開インターフェースです。
type StatusUpdater interface {
	MarkOnLeave(ctx context.Context, employeeID string) error
}

// NewStatusService は StatusService を生成します。
func NewStatusService(repo Repository) *StatusService {
	return &StatusService{repo: repo}
}

// MarkOnLeave は社員の状態を on_leave に更新します。
func (s *StatusService) MarkOnLeave(ctx context.Context, employeeID string) error {
	if strings.TrimSpace(employeeID) == "" {
		return fmt.Errorf("employee id: %w", ErrInvalidID)
	}

	if _, err := s.repo.UpdateStatus(ctx, employeeID, StatusOnLeave); err != nil {
		return err
	}
	return nil
}

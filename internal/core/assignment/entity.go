package assignment

import "time"

// RoleAssignment は社員がロールを保持した期間を表す台帳エントリです。
// 社員ごとに is_current = true の行は高々 1 件で、その行の EndDate は常に nil です。
type RoleAssignment struct {
	ID         string
	EmployeeID string
	RoleID     string
	CompanyID  string
	StartDate  time.Time
	EndDate    *time.Time
	IsCurrent  bool
	Notes      string
	// Version は現行行を閉じる際の楽観ロックに使います。
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Role      *RoleSnapshot
}

// RoleSnapshot は台帳エントリに結合されるロールカタログ情報のスナップショットです。
type RoleSnapshot struct {
	ID    string
	Title string
	Level int
}

package employee

import "time"

// Status は社員の状態を表します。
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusOnLeave    Status = "on_leave"
	StatusTerminated Status = "terminated"
)

// IsValidStatus は status が既知の値かどうかを判定します。
func IsValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive, StatusOnLeave, StatusTerminated:
		return true
	default:
		return false
	}
}

// Employee は社員エンティティです。UserID は外部アイデンティティへの参照です。
type Employee struct {
	ID        string
	CompanyID string
	UserID    string
	IsAdmin   bool
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

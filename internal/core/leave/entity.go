package leave

import "time"

// Type は休暇申請の種別を表します。
type Type string

const (
	TypeVacation       Type = "vacation"
	TypeSickLeave      Type = "sick_leave"
	TypeMaternityLeave Type = "maternity_leave"
	TypePaternityLeave Type = "paternity_leave"
	TypeBereavement    Type = "bereavement"
	TypePersonal       Type = "personal"
	TypeOther          Type = "other"
)

// IsValidType は type が既知の値かどうかを判定します。
func IsValidType(t Type) bool {
	switch t {
	case TypeVacation, TypeSickLeave, TypeMaternityLeave, TypePaternityLeave,
		TypeBereavement, TypePersonal, TypeOther:
		return true
	default:
		return false
	}
}

// Status は休暇申請の状態を表します。
// 遷移は pending → approved と pending → rejected のみで、どちらも終端です。
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValidStatus は status が既知の値かどうかを判定します。
func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// LeaveRequest は休暇申請エンティティです。
type LeaveRequest struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Type       Type
	StartDate  time.Time
	EndDate    time.Time
	TotalDays  int
	Reason     string
	Status     Status
	ApprovedBy *string
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TotalDaysBetween は両端を含む日数を返します。日付は既に日単位に正規化されている前提です。
func TotalDaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// ContainsDate は申請期間 [StartDate, EndDate] が day を含むかどうかを判定します。
func (r *LeaveRequest) ContainsDate(day time.Time) bool {
	return !day.Before(r.StartDate) && !day.After(r.EndDate)
}

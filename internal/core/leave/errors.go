package leave

import "errors"

var (
	ErrInvalidID          = errors.New("leave: invalid id")
	ErrInvalidEmployeeID  = errors.New("leave: invalid employee id")
	ErrInvalidType        = errors.New("leave: invalid leave type")
	ErrInvalidStatus      = errors.New("leave: invalid status")
	ErrInvalidOutcome     = errors.New("leave: invalid decision outcome")
	ErrInvalidDateRange   = errors.New("leave: start date after end date")
	ErrInvalidTotalDays   = errors.New("leave: total days must be at least 1")
	ErrInvalidPage        = errors.New("leave: invalid page")
	ErrInvalidPageSize    = errors.New("leave: invalid page size")
	ErrRequestNotFound    = errors.New("leave: request not found")
	ErrRequestNotPending  = errors.New("leave: request is not pending")
	ErrConcurrentDecision = errors.New("leave: request was decided concurrently")
)

package assignment

import "errors"

var (
	ErrInvalidID              = errors.New("assignment: invalid id")
	ErrInvalidEmployeeID      = errors.New("assignment: invalid employee id")
	ErrInvalidRoleID          = errors.New("assignment: invalid role id")
	ErrInvalidStartDate       = errors.New("assignment: invalid start date")
	ErrInvalidEndDate         = errors.New("assignment: end date before start date")
	ErrAssignmentNotFound     = errors.New("assignment: not found")
	ErrAssignmentNotCurrent   = errors.New("assignment: not a current assignment")
	ErrConcurrentModification = errors.New("assignment: concurrent modification of current assignment")
)

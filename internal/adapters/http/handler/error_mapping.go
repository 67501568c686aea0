package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ogurasousui/hr-backoffice/internal/core/assignment"
	"github.com/ogurasousui/hr-backoffice/internal/core/employee"
	"github.com/ogurasousui/hr-backoffice/internal/core/leave"
	"github.com/ogurasousui/hr-backoffice/internal/core/role"
	"github.com/ogurasousui/hr-backoffice/internal/core/scope"
)

// エンベロープの error.code 値です。
const (
	CodeValidation      = "VALIDATION"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidState    = "INVALID_STATE"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL"
)

// respondError はドメインエラーをエンベロープに変換して書き込みます。
// 分類できないエラーは詳細を漏らさず INTERNAL として返し、サーバー側でログに残します。
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, assignment.ErrInvalidID),
		errors.Is(err, assignment.ErrInvalidEmployeeID),
		errors.Is(err, assignment.ErrInvalidRoleID),
		errors.Is(err, assignment.ErrInvalidStartDate),
		errors.Is(err, assignment.ErrInvalidEndDate),
		errors.Is(err, leave.ErrInvalidID),
		errors.Is(err, leave.ErrInvalidEmployeeID),
		errors.Is(err, leave.ErrInvalidType),
		errors.Is(err, leave.ErrInvalidStatus),
		errors.Is(err, leave.ErrInvalidOutcome),
		errors.Is(err, leave.ErrInvalidDateRange),
		errors.Is(err, leave.ErrInvalidTotalDays),
		errors.Is(err, leave.ErrInvalidPage),
		errors.Is(err, leave.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidStatus):
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, scope.ErrUnauthenticated):
		respondErrorBody(c, http.StatusUnauthorized, CodeUnauthenticated, err.Error())
	case errors.Is(err, scope.ErrForbidden):
		respondErrorBody(c, http.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, scope.ErrNotFound),
		errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, role.ErrRoleNotFound),
		errors.Is(err, assignment.ErrAssignmentNotFound),
		errors.Is(err, leave.ErrRequestNotFound):
		respondErrorBody(c, http.StatusNotFound, CodeNotFound, "resource not found")
	case errors.Is(err, assignment.ErrAssignmentNotCurrent),
		errors.Is(err, leave.ErrRequestNotPending):
		respondErrorBody(c, http.StatusConflict, CodeInvalidState, err.Error())
	case errors.Is(err, assignment.ErrConcurrentModification),
		errors.Is(err, leave.ErrConcurrentDecision):
		respondErrorBody(c, http.StatusConflict, CodeConflict, err.Error())
	default:
		logger.Error("internal error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		respondErrorBody(c, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

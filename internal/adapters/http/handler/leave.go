package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpmw "github.com/ogurasousui/hr-backoffice/internal/adapters/http/middleware"
	"github.com/ogurasousui/hr-backoffice/internal/core/leave"
)

// LeaveHandler は休暇申請状態機械の HTTP 実装です。
type LeaveHandler struct {
	svc    leave.UseCase
	logger *zap.Logger
}

// NewLeaveHandler は LeaveHandler を生成します。
func NewLeaveHandler(svc leave.UseCase, logger *zap.Logger) *LeaveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveHandler{svc: svc, logger: logger}
}

// RegisterRoutes は休暇申請のルートを登録します。
func (h *LeaveHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/leave-requests", h.Submit)
	r.POST("/leave-requests/:id/decision", h.Decide)
	r.DELETE("/leave-requests/:id", h.Withdraw)
	r.GET("/leave-requests", h.List)
}

type submitLeaveRequest struct {
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

type decideLeaveRequest struct {
	Outcome string `json:"outcome"`
}

type leaveResponse struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	CompanyID  string     `json:"company_id"`
	Type       string     `json:"type"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	TotalDays  int        `json:"total_days"`
	Reason     string     `json:"reason,omitempty"`
	Status     string     `json:"status"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toLeaveResponse(r *leave.LeaveRequest) leaveResponse {
	return leaveResponse{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		CompanyID:  r.CompanyID,
		Type:       string(r.Type),
		StartDate:  r.StartDate.Format(dateLayout),
		EndDate:    r.EndDate.Format(dateLayout),
		TotalDays:  r.TotalDays,
		Reason:     r.Reason,
		Status:     string(r.Status),
		ApprovedBy: r.ApprovedBy,
		ApprovedAt: r.ApprovedAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// Submit は新しい休暇申請を提出します。
func (h *LeaveHandler) Submit(c *gin.Context) {
	sc, ok := httpmw.ScopeFromContext(c)
	if !ok {
		respondErrorBody(c, http.StatusUnauthorized, CodeUnauthenticated, "missing scope")
		return
	}

	var req submitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, "malformed request body")
		return
	}

	startDate, err := parseRequiredDate(req.StartDate, "start_date")
	if err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	endDate, err := parseRequiredDate(req.EndDate, "end_date")
	if err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	created, err := h.svc.Submit(c.Request.Context(), sc, leave.SubmitInput{
		EmployeeID: req.EmployeeID,
		Type:       leave.Type(strings.TrimSpace(req.Type)),
		StartDate:  startDate,
		EndDate:    endDate,
		Reason:     req.Reason,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondData(c, http.StatusCreated, toLeaveResponse(created))
}

// Decide は pending の申請を承認または却下します。
func (h *LeaveHandler) Decide(c *gin.Context) {
	sc, ok := httpmw.ScopeFromContext(c)
	if !ok {
		respondErrorBody(c, http.StatusUnauthorized, CodeUnauthenticated, "missing scope")
		return
	}

	var req decideLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, "malformed request body")
		return
	}

	decided, err := h.svc.Decide(c.Request.Context(), sc, leave.DecideInput{
		RequestID: c.Param("id"),
		Outcome:   leave.Status(strings.TrimSpace(req.Outcome)),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondData(c, http.StatusOK, toLeaveResponse(decided))
}

// Withdraw は pending の申請を取り下げます。
func (h *LeaveHandler) Withdraw(c *gin.Context) {
	sc, ok := httpmw.ScopeFromContext(c)
	if !ok {
		respondErrorBody(c, http.StatusUnauthorized, CodeUnauthenticated, "missing scope")
		return
	}

	if err := h.svc.Withdraw(c.Request.Context(), sc, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondData(c, http.StatusOK, nil)
}

// List は休暇申請の一覧をページングして返します。
func (h *LeaveHandler) List(c *gin.Context) {
	sc, ok := httpmw.ScopeFromContext(c)
	if !ok {
		respondErrorBody(c, http.StatusUnauthorized, CodeUnauthenticated, "missing scope")
		return
	}

	in := leave.ListInput{EmployeeID: c.Query("employee_id")}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := leave.Status(raw)
		in.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		leaveType := leave.Type(raw)
		in.Type = &leaveType
	}

	page, err := parseOptionalInt(c.Query("page"), "page")
	if err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	in.Page = page

	pageSize, err := parseOptionalInt(c.Query("page_size"), "page_size")
	if err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	in.PageSize = pageSize

	result, err := h.svc.List(c.Request.Context(), sc, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	responses := make([]leaveResponse, 0, len(result.Requests))
	for _, r := range result.Requests {
		responses = append(responses, toLeaveResponse(r))
	}

	respondList(c, http.StatusOK, responses, Meta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

func parseOptionalInt(raw, field string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return value, nil
}

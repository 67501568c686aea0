package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpmw "github.com/ogurasousui/hr-backoffice/internal/adapters/http/middleware"
	"github.com/ogurasousui/hr-backoffice/internal/core/assignment"
)

const dateLayout = "2006-01-02"

// AssignmentHandler はロール割り当て台帳の HTTP 実装です。
type AssignmentHandler struct {
	svc    assignment.UseCase
	logger *zap.Logger
}

// NewAssignmentHandler は AssignmentHandler を生成します。
func NewAssignmentHandler(svc assignment.UseCase, logger *zap.Logger) *AssignmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentHandler{svc: svc, logger: logger}
}

// RegisterRoutes はロール割り当てのルートを登録します。
func (h *AssignmentHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/role-assignments", h.Assign)
	r.POST("/role-assignments/:id/end", h.End)
	r.GET("/employees/:id/role-assignments", h.History)
	r.GET("/employees/:id/role-assignments/current", h.Current)
}

type assignRequest struct {
	EmployeeID string `json:"employee_id"`
	RoleID     string `json:"role_id"`
	StartDate  string `json:"start_date"`
	Notes      string `json:"notes"`
}

type endAssignmentRequest struct {
	EndDate string `json:"end_date"`
}

type roleSnapshotResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

type assignmentResponse struct {
	ID         string                `json:"id"`
	EmployeeID string                `json:"employee_id"`
	RoleID     string                `json:"role_id"`
	CompanyID  string                `json:"company_id"`
	StartDate  string                `json:"start_date"`
	EndDate    *string               `json:"end_date,omitempty"`
	IsCurrent  bool                  `json:"is_current"`
	Notes      string                `json:"notes,omitempty"`
	Role       *roleSnapshotResponse `json:"role,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func toAssignmentResponse(a *assignment.RoleAssignment) assignmentResponse {
	resp := assignmentResponse{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		RoleID:     a.RoleID,
		CompanyID:  a.CompanyID,
		StartDate:  a.StartDate.Format(dateLayout),
		IsCurrent:  a.IsCurrent,
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.EndDate != nil {
		end := a.EndDate.Format(dateLayout)
		resp.EndDate = &end
	}
	if a.Role != nil {
		resp.Role = &roleSnapshotResponse{ID: a.Role.ID, Title: a.Role.Title, Level: a.Role.Level}
	}
	return resp
}

// Assign は新しいロール割り当てを作成します。
func (h *AssignmentHandler) Assign(c *gin.Context) {
	sc, ok := httpmw.ScopeFromContext(c)
	if !ok {
		respondErrorBody(c, http.StatusUnauthorized, CodeUnauthenticated, "missing scope")
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, "malformed request body")
		return
	}

	startDate, err := parseRequiredDate(req.StartDate, "start_date")
	if err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	created, err := h.svc.Assign(c.Request.Context(), sc, assignment.AssignInput{
		EmployeeID: req.EmployeeID,
		RoleID:     req.RoleID,
		StartDate:  startDate,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondData(c, http.StatusCreated, toAssignmentResponse(created))
}

// End は現行割り当てを終了します。
func (h *AssignmentHandler) End(c *gin.Context) {
	sc, ok := httpmw.ScopeFromContext(c)
	if !ok {
		respondErrorBody(c, http.StatusUnauthorized, CodeUnauthenticated, "missing scope")
		return
	}

	var req endAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, "malformed request body")
		return
	}

	endDate, err := parseRequiredDate(req.EndDate, "end_date")
	if err != nil {
		respondErrorBody(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	closed, err := h.svc.End(c.Request.Context(), sc, assignment.EndInput{
		AssignmentID: c.Param("id"),
		EndDate:      endDate,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondData(c, http.StatusOK, toAssignmentResponse(closed))
}

// History は社員の割り当て履歴を返します。
func (h *AssignmentHandler) History(c *gin.Context) {
	sc, ok := httpmw.ScopeFromContext(c)
	if !ok {
		respondErrorBody(c, http.StatusUnauthorized, CodeUnauthenticated, "missing scope")
		return
	}

	history, err := h.svc.History(c.Request.Context(), sc, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	responses := make([]assignmentResponse, 0, len(history))
	for _, a := range history {
		responses = append(responses, toAssignmentResponse(a))
	}

	respondData(c, http.StatusOK, responses)
}

// Current は社員の現行割り当てを返します。存在しない場合は data が null になります。
func (h *AssignmentHandler) Current(c *gin.Context) {
	sc, ok := httpmw.ScopeFromContext(c)
	if !ok {
		respondErrorBody(c, http.StatusUnauthorized, CodeUnauthenticated, "missing scope")
		return
	}

	current, err := h.svc.Current(c.Request.Context(), sc, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if current == nil {
		// data フィールドを明示的に null で返す。
		respondData(c, http.StatusOK, (*assignmentResponse)(nil))
		return
	}

	respondData(c, http.StatusOK, toAssignmentResponse(current))
}

func parseRequiredDate(raw, field string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}

	parsed, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in %s format", field, dateLayout)
	}
	return parsed, nil
}

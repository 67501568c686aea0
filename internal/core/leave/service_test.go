package leave

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ogurasousui/hr-backoffice/internal/core/employee"
	"github.com/ogurasousui/hr-backoffice/internal/core/scope"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]*employee.Employee
}

func newFakeEmployeeRepo(employees ...*employee.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{employees: make(map[string]*employee.Employee)}
	for _, e := range employees {
		r.employees[e.ID] = e
	}
	return r
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.employees[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *fakeEmployeeRepo) FindByUserID(_ context.Context, userID string) (*employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.employees {
		if e.UserID == userID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) UpdateStatus(_ context.Context, id string, status employee.Status) (*employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.employees[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	e.Status = status
	clone := *e
	return &clone, nil
}

func (r *fakeEmployeeRepo) status(id string) employee.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.employees[id].Status
}

type fakeLeaveRepo struct {
	mu       sync.Mutex
	requests map[string]*LeaveRequest
	sequence int
}

func newFakeLeaveRepo() *fakeLeaveRepo {
	return &fakeLeaveRepo{requests: make(map[string]*LeaveRequest)}
}

func cloneRequest(r *LeaveRequest) *LeaveRequest {
	clone := *r
	if r.ApprovedBy != nil {
		by := *r.ApprovedBy
		clone.ApprovedBy = &by
	}
	if r.ApprovedAt != nil {
		at := *r.ApprovedAt
		clone.ApprovedAt = &at
	}
	return &clone
}

func (r *fakeLeaveRepo) Create(_ context.Context, req *LeaveRequest) (*LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := cloneRequest(req)
	r.sequence++
	clone.ID = fmt.Sprintf("lr-%d", r.sequence)
	r.requests[clone.ID] = clone
	return cloneRequest(clone), nil
}

func (r *fakeLeaveRepo) FindByID(_ context.Context, id string) (*LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return cloneRequest(req), nil
}

func (r *fakeLeaveRepo) Decide(_ context.Context, id string, outcome Status, approvedBy string, approvedAt time.Time) (*LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok || req.Status != StatusPending {
		return nil, ErrConcurrentDecision
	}

	req.Status = outcome
	by := approvedBy
	at := approvedAt
	req.ApprovedBy = &by
	req.ApprovedAt = &at
	req.UpdatedAt = approvedAt
	return cloneRequest(req), nil
}

func (r *fakeLeaveRepo) DeletePending(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok || req.Status != StatusPending {
		return ErrConcurrentDecision
	}
	delete(r.requests, id)
	return nil
}

func (r *fakeLeaveRepo) List(_ context.Context, filter ListFilter) ([]*LeaveRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []*LeaveRequest
	for _, req := range r.requests {
		if req.CompanyID != filter.CompanyID {
			continue
		}
		if filter.EmployeeID != "" && req.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && req.Type != *filter.Type {
			continue
		}
		filtered = append(filtered, cloneRequest(req))
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].ID > filtered[j].ID
	})

	total := len(filtered)
	if filter.Offset >= total {
		return []*LeaveRequest{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return filtered[filter.Offset:end], total, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func adminScope() scope.Context {
	return scope.Context{CompanyID: "company-1", EmployeeID: "emp-admin", IsAdmin: true}
}

func selfScope(employeeID string) scope.Context {
	return scope.Context{CompanyID: "company-1", EmployeeID: employeeID, IsAdmin: false}
}

type leaveFixture struct {
	svc       *Service
	repo      *fakeLeaveRepo
	employees *fakeEmployeeRepo
	clock     *stubClock
}

func newFixture() *leaveFixture {
	employees := newFakeEmployeeRepo(
		&employee.Employee{ID: "emp-1", CompanyID: "company-1", UserID: "user-1", Status: employee.StatusActive},
		&employee.Employee{ID: "emp-2", CompanyID: "company-1", UserID: "user-2", Status: employee.StatusActive},
		&employee.Employee{ID: "emp-admin", CompanyID: "company-1", UserID: "user-admin", IsAdmin: true, Status: employee.StatusActive},
		&employee.Employee{ID: "emp-other", CompanyID: "company-2", UserID: "user-other", Status: employee.StatusActive},
	)
	repo := newFakeLeaveRepo()
	clock := &stubClock{now: time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, employees, employee.NewStatusService(employees), clock, nil, nil)
	return &leaveFixture{svc: svc, repo: repo, employees: employees, clock: clock}
}

func (f *leaveFixture) submit(t *testing.T, sc scope.Context, employeeID string, leaveType Type, start, end time.Time) *LeaveRequest {
	t.Helper()

	created, err := f.svc.Submit(context.Background(), sc, SubmitInput{
		EmployeeID: employeeID,
		Type:       leaveType,
		StartDate:  start,
		EndDate:    end,
		Reason:     "time off",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	return created
}

func TestSubmit_ComputesInclusiveTotalDays(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 1, 10), date(2024, 1, 12))

	if created.TotalDays != 3 {
		t.Errorf("expected total days 3, got %d", created.TotalDays)
	}
	if created.Status != StatusPending {
		t.Errorf("expected pending status, got %s", created.Status)
	}
}

func TestSubmit_SingleDay(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypePersonal, date(2024, 1, 10), date(2024, 1, 10))

	if created.TotalDays != 1 {
		t.Errorf("expected total days 1, got %d", created.TotalDays)
	}
}

func TestSubmit_StartAfterEnd(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.svc.Submit(context.Background(), selfScope("emp-1"), SubmitInput{
		EmployeeID: "emp-1",
		Type:       TypeVacation,
		StartDate:  date(2024, 1, 12),
		EndDate:    date(2024, 1, 10),
	})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestSubmit_UnknownType(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.svc.Submit(context.Background(), selfScope("emp-1"), SubmitInput{
		EmployeeID: "emp-1",
		Type:       Type("sabbatical"),
		StartDate:  date(2024, 1, 10),
		EndDate:    date(2024, 1, 12),
	})
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestSubmit_ForOtherEmployeeRequiresAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture()

	_, err := f.svc.Submit(context.Background(), selfScope("emp-1"), SubmitInput{
		EmployeeID: "emp-2",
		Type:       TypeVacation,
		StartDate:  date(2024, 1, 10),
		EndDate:    date(2024, 1, 12),
	})
	if !errors.Is(err, scope.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if created := f.submit(t, adminScope(), "emp-2", TypeVacation, date(2024, 1, 10), date(2024, 1, 12)); created.EmployeeID != "emp-2" {
		t.Errorf("expected admin submission on behalf of emp-2, got %s", created.EmployeeID)
	}
}

func TestSubmit_CrossCompanyEmployeeIsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.svc.Submit(context.Background(), adminScope(), SubmitInput{
		EmployeeID: "emp-other",
		Type:       TypeVacation,
		StartDate:  date(2024, 1, 10),
		EndDate:    date(2024, 1, 12),
	})
	if !errors.Is(err, scope.ErrNotFound) {
		t.Fatalf("expected scope.ErrNotFound, got %v", err)
	}
}

func TestDecide_ApproveSetsAuditFields(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeSickLeave, date(2024, 2, 1), date(2024, 2, 3))

	decided, err := f.svc.Decide(context.Background(), adminScope(), DecideInput{
		RequestID: created.ID,
		Outcome:   StatusApproved,
	})
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if decided.Status != StatusApproved {
		t.Errorf("expected approved, got %s", decided.Status)
	}
	if decided.ApprovedBy == nil || *decided.ApprovedBy != "emp-admin" {
		t.Errorf("unexpected approved_by: %v", decided.ApprovedBy)
	}
	if decided.ApprovedAt == nil || !decided.ApprovedAt.Equal(f.clock.now) {
		t.Errorf("unexpected approved_at: %v", decided.ApprovedAt)
	}
}

func TestDecide_RequiresAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 1, 10), date(2024, 1, 12))

	// 申請の所有者であっても管理者でなければ決定できません。
	_, err := f.svc.Decide(context.Background(), selfScope("emp-1"), DecideInput{
		RequestID: created.ID,
		Outcome:   StatusApproved,
	})
	if !errors.Is(err, scope.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDecide_AlreadyDecided(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeSickLeave, date(2024, 2, 1), date(2024, 2, 3))
	ctx := context.Background()

	if _, err := f.svc.Decide(ctx, adminScope(), DecideInput{RequestID: created.ID, Outcome: StatusRejected}); err != nil {
		t.Fatalf("first Decide returned error: %v", err)
	}

	for _, outcome := range []Status{StatusApproved, StatusRejected} {
		if _, err := f.svc.Decide(ctx, adminScope(), DecideInput{RequestID: created.ID, Outcome: outcome}); !errors.Is(err, ErrRequestNotPending) {
			t.Errorf("expected ErrRequestNotPending for outcome %s, got %v", outcome, err)
		}
	}
}

func TestDecide_InvalidOutcome(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 1, 10), date(2024, 1, 12))

	_, err := f.svc.Decide(context.Background(), adminScope(), DecideInput{
		RequestID: created.ID,
		Outcome:   StatusPending,
	})
	if !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome, got %v", err)
	}
}

func TestDecide_VacationContainingTodayMarksOnLeave(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 1, 10), date(2024, 1, 12))

	if _, err := f.svc.Decide(context.Background(), adminScope(), DecideInput{RequestID: created.ID, Outcome: StatusApproved}); err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if got := f.employees.status("emp-1"); got != employee.StatusOnLeave {
		t.Errorf("expected employee on_leave, got %s", got)
	}
}

func TestDecide_SickLeaveDoesNotChangeEmployeeStatus(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeSickLeave, date(2024, 1, 10), date(2024, 1, 12))

	if _, err := f.svc.Decide(context.Background(), adminScope(), DecideInput{RequestID: created.ID, Outcome: StatusApproved}); err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if got := f.employees.status("emp-1"); got != employee.StatusActive {
		t.Errorf("expected employee status unchanged, got %s", got)
	}
}

func TestDecide_FutureVacationDoesNotChangeEmployeeStatus(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 3, 1), date(2024, 3, 5))

	if _, err := f.svc.Decide(context.Background(), adminScope(), DecideInput{RequestID: created.ID, Outcome: StatusApproved}); err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if got := f.employees.status("emp-1"); got != employee.StatusActive {
		t.Errorf("expected employee status unchanged for future window, got %s", got)
	}
}

func TestDecide_SideEffectFailureDoesNotRollBackApproval(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 1, 10), date(2024, 1, 12))

	f.employees.mu.Lock()
	delete(f.employees.employees, "emp-1")
	f.employees.mu.Unlock()

	decided, err := f.svc.Decide(context.Background(), adminScope(), DecideInput{RequestID: created.ID, Outcome: StatusApproved})
	if err != nil {
		t.Fatalf("Decide returned error despite side effect failure: %v", err)
	}
	if decided.Status != StatusApproved {
		t.Errorf("expected approval to stand, got %s", decided.Status)
	}
}

func TestDecide_ConcurrentDecisionsExactlyOneWins(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeSickLeave, date(2024, 2, 1), date(2024, 2, 3))
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	outcomes := []Status{StatusApproved, StatusRejected}
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Decide(ctx, adminScope(), DecideInput{RequestID: created.ID, Outcome: outcomes[i]})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, ErrRequestNotPending) && !errors.Is(err, ErrConcurrentDecision) {
			t.Errorf("loser failed with unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winning decision, got %d", successes)
	}

	final, err := f.repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if final.Status == StatusPending {
		t.Error("request left pending after concurrent decisions")
	}
}

func TestWithdraw_PendingByOwner(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 1, 10), date(2024, 1, 12))
	ctx := context.Background()

	if err := f.svc.Withdraw(ctx, selfScope("emp-1"), created.ID); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}

	if _, err := f.repo.FindByID(ctx, created.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected request to be deleted, got %v", err)
	}
}

func TestWithdraw_NotOwnerForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 1, 10), date(2024, 1, 12))

	if err := f.svc.Withdraw(context.Background(), selfScope("emp-2"), created.ID); !errors.Is(err, scope.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestWithdraw_DecidedRequestFails(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created := f.submit(t, selfScope("emp-1"), "emp-1", TypeSickLeave, date(2024, 2, 1), date(2024, 2, 3))
	ctx := context.Background()

	if _, err := f.svc.Decide(ctx, adminScope(), DecideInput{RequestID: created.ID, Outcome: StatusApproved}); err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if err := f.svc.Withdraw(ctx, adminScope(), created.ID); !errors.Is(err, ErrRequestNotPending) {
		t.Fatalf("expected ErrRequestNotPending, got %v", err)
	}

	final, err := f.repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if final.Status != StatusApproved {
		t.Errorf("expected row unchanged, got status %s", final.Status)
	}
}

func TestList_NonAdminScopedToSelf(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 1, 10), date(2024, 1, 12))
	f.submit(t, selfScope("emp-2"), "emp-2", TypeSickLeave, date(2024, 2, 1), date(2024, 2, 3))

	// 他人の employeeID を指定しても自分の申請に強制されます。
	result, err := f.svc.List(context.Background(), selfScope("emp-1"), ListInput{EmployeeID: "emp-2"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if result.TotalItems != 1 {
		t.Fatalf("expected 1 item, got %d", result.TotalItems)
	}
	if result.Requests[0].EmployeeID != "emp-1" {
		t.Errorf("expected only caller's requests, got %s", result.Requests[0].EmployeeID)
	}
}

func TestList_AdminSeesCompanyWithFilters(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.submit(t, selfScope("emp-1"), "emp-1", TypeVacation, date(2024, 1, 10), date(2024, 1, 12))
	f.submit(t, selfScope("emp-2"), "emp-2", TypeSickLeave, date(2024, 2, 1), date(2024, 2, 3))
	ctx := context.Background()

	result, err := f.svc.List(ctx, adminScope(), ListInput{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if result.TotalItems != 2 {
		t.Fatalf("expected 2 items, got %d", result.TotalItems)
	}

	sick := TypeSickLeave
	filtered, err := f.svc.List(ctx, adminScope(), ListInput{Type: &sick})
	if err != nil {
		t.Fatalf("filtered List returned error: %v", err)
	}
	if filtered.TotalItems != 1 || filtered.Requests[0].Type != TypeSickLeave {
		t.Errorf("unexpected filtered result: %+v", filtered)
	}
}

func TestList_Pagination(t *testing.T) {
	t.Parallel()

	f := newFixture()
	for i := 0; i < 5; i++ {
		f.submit(t, selfScope("emp-1"), "emp-1", TypePersonal, date(2024, 3, 1+i), date(2024, 3, 1+i))
	}

	result, err := f.svc.List(context.Background(), adminScope(), ListInput{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if result.TotalItems != 5 {
		t.Errorf("expected 5 total items, got %d", result.TotalItems)
	}
	if result.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", result.TotalPages)
	}
	if len(result.Requests) != 2 {
		t.Errorf("expected 2 items on page 2, got %d", len(result.Requests))
	}
}

func TestList_InvalidPageSize(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if _, err := f.svc.List(context.Background(), adminScope(), ListInput{PageSize: maxListPageSize + 1}); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
}

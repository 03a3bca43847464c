package board

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"servex-board/client"
	"servex-board/domain"
)

type fakeAPI struct {
	mu           sync.Mutex
	statusBodies []map[string]string
	assignBodies []map[string]any
	staffCalls   int
	createCalls  int
	failStatus   bool
	failAssign   bool
	failCreate   bool
}

func (f *fakeAPI) register(e *echo.Echo) {
	e.GET("/api/service/Authority/services", func(c echo.Context) error {
		return c.String(http.StatusOK, `{"data":[
			{"id":"s1","service_name":"Passport Renewal"},
			{"id":"s2","service_name":"Visa Extension"}
		]}`)
	})
	e.GET("/api/process/s1", func(c echo.Context) error {
		return c.String(http.StatusOK, `{"data":{"processes":[
			{"id":"p1","process_name":"DESIGN","order":1,"status":"ACTIVE","assignedRole":{"id":"r1","staffroll":"Designer"}},
			{"id":"p2","process_name":"REVIEW","order":2,"status":"ACTIVE"}
		]}}`)
	})
	e.GET("/api/process/s2", func(c echo.Context) error {
		return c.String(http.StatusOK, `{"data":{"processes":[]}}`)
	})
	e.GET("/api/servicerequested/requested/s1", func(c echo.Context) error {
		return c.String(http.StatusOK, `{"data":[
			{"id":"req1","user":{"name":"Nimal Perera"}},
			{"id":"req2","process_status":"DESIGN","user":{"name":"Kumari Silva"}}
		]}`)
	})
	e.GET("/api/servicerequested/requested/s2", func(c echo.Context) error {
		return c.String(http.StatusOK, `{"data":[]}`)
	})
	e.GET("/api/staff/staff-list/r1", func(c echo.Context) error {
		f.mu.Lock()
		f.staffCalls++
		f.mu.Unlock()
		return c.String(http.StatusOK, `{"staff_list":[{"_id":"st1","name":"Amara","email":"amara@example.lk"}]}`)
	})
	e.PUT("/api/servicerequested/requested/:id", func(c echo.Context) error {
		var body map[string]string
		if err := c.Bind(&body); err != nil {
			return err
		}
		f.mu.Lock()
		f.statusBodies = append(f.statusBodies, body)
		fail := f.failStatus
		f.mu.Unlock()
		if fail {
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "write failed"})
		}
		return c.NoContent(http.StatusOK)
	})
	e.PUT("/api/servicerequested/assignStaff/:id", func(c echo.Context) error {
		var body map[string]any
		if err := c.Bind(&body); err != nil {
			return err
		}
		f.mu.Lock()
		f.assignBodies = append(f.assignBodies, body)
		fail := f.failAssign
		f.mu.Unlock()
		if fail {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.NoContent(http.StatusOK)
	})
	e.POST("/api/tasks", func(c echo.Context) error {
		f.mu.Lock()
		f.createCalls++
		fail := f.failCreate
		f.mu.Unlock()
		if fail {
			return c.NoContent(http.StatusInternalServerError)
		}
		var task domain.Task
		if err := c.Bind(&task); err != nil {
			return err
		}
		task.ID = "server-1"
		return c.JSON(http.StatusCreated, map[string]any{"data": map[string]any{"data": task}})
	})
}

func newTestController(t *testing.T, opts Options) (*Controller, *fakeAPI) {
	t.Helper()

	fake := &fakeAPI{}
	e := echo.New()
	fake.register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	api := client.New(srv.URL, "", time.Second, logger)
	loader := client.NewLoader(api, client.NewMemoryStaffCache(), logger)
	if opts.PersistWorkers == 0 {
		opts.PersistWorkers = -1
	}
	ctrl := NewController(api, loader, logger, opts)
	t.Cleanup(ctrl.Close)
	return ctrl, fake
}

func TestStartSelectsFirstService(t *testing.T) {
	ctrl, _ := newTestController(t, Options{})
	ctrl.Start(context.Background())

	snap := ctrl.Snapshot()
	if snap.SelectedService != "s1" {
		t.Fatalf("expected first service selected, got %q", snap.SelectedService)
	}
	if len(snap.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(snap.Services))
	}
	if len(snap.Processes) != 2 || len(snap.Tasks) != 2 {
		t.Fatalf("board not loaded: %d processes, %d tasks", len(snap.Processes), len(snap.Tasks))
	}
}

func TestDropMovesTaskAndClearsAssignment(t *testing.T) {
	ctrl, fake := newTestController(t, Options{})
	ctrl.Start(context.Background())

	if _, ok := ctrl.AssignStaff("req2", &domain.StaffMember{ID: "st1", Name: "Amara"}); !ok {
		t.Fatal("assign failed")
	}
	moved, ok := ctrl.Drop("req2", "REVIEW")
	if !ok {
		t.Fatal("drop rejected")
	}
	if moved.Status != "REVIEW" {
		t.Fatalf("unexpected status: %s", moved.Status)
	}
	if moved.AssignedStaff != nil {
		t.Fatalf("drop must clear the assignment, got %+v", moved.AssignedStaff)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.statusBodies) != 1 || fake.statusBodies[0]["process_status"] != "REVIEW" {
		t.Fatalf("unexpected persisted status bodies: %v", fake.statusBodies)
	}
}

func TestDropSameColumnStillClearsAssignment(t *testing.T) {
	ctrl, _ := newTestController(t, Options{})
	ctrl.Start(context.Background())

	ctrl.AssignStaff("req2", &domain.StaffMember{ID: "st1"})
	moved, ok := ctrl.Drop("req2", "DESIGN")
	if !ok {
		t.Fatal("drop rejected")
	}
	if moved.Status != "DESIGN" || moved.AssignedStaff != nil {
		t.Fatalf("same-column drop must keep status and clear staff: %+v", moved)
	}
}

func TestDropUnknownColumnRejected(t *testing.T) {
	ctrl, fake := newTestController(t, Options{})
	ctrl.Start(context.Background())

	if _, ok := ctrl.Drop("req2", "SHIPPED"); ok {
		t.Fatal("drop to unknown column must fail")
	}
	task, _ := ctrl.store.Task("req2")
	if task.Status != "DESIGN" {
		t.Fatalf("task mutated by rejected drop: %+v", task)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.statusBodies) != 0 {
		t.Fatalf("rejected drop must not persist: %v", fake.statusBodies)
	}
}

func TestDropKeepsOptimisticValueWhenPersistFails(t *testing.T) {
	ctrl, fake := newTestController(t, Options{})
	ctrl.Start(context.Background())
	fake.mu.Lock()
	fake.failStatus = true
	fake.mu.Unlock()

	if _, ok := ctrl.Drop("req2", "REVIEW"); !ok {
		t.Fatal("drop rejected")
	}
	task, _ := ctrl.store.Task("req2")
	if task.Status != "REVIEW" {
		t.Fatalf("optimistic status must survive a failed persist: %s", task.Status)
	}
}

func TestDropStrictRollbackRevertsOnPersistFailure(t *testing.T) {
	ctrl, fake := newTestController(t, Options{StrictRollback: true})
	ctrl.Start(context.Background())
	ctrl.AssignStaff("req2", &domain.StaffMember{ID: "st1", Name: "Amara"})
	fake.mu.Lock()
	fake.failStatus = true
	fake.mu.Unlock()

	ctrl.Drop("req2", "REVIEW")
	task, _ := ctrl.store.Task("req2")
	if task.Status != "DESIGN" {
		t.Fatalf("strict mode must revert the status, got %s", task.Status)
	}
	if task.AssignedStaff == nil || task.AssignedStaff.ID != "st1" {
		t.Fatalf("strict mode must restore the assignment, got %+v", task.AssignedStaff)
	}
}

func TestAssignStaffNilClears(t *testing.T) {
	ctrl, fake := newTestController(t, Options{})
	ctrl.Start(context.Background())

	assigned, ok := ctrl.AssignStaff("req2", &domain.StaffMember{ID: "st1", Name: "Amara"})
	if !ok || assigned.AssignedStaff == nil {
		t.Fatalf("assign failed: %+v", assigned)
	}
	cleared, ok := ctrl.AssignStaff("req2", nil)
	if !ok {
		t.Fatal("clear failed")
	}
	if cleared.AssignedStaff != nil {
		t.Fatalf("expected cleared assignment, got %+v", cleared.AssignedStaff)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.assignBodies) != 2 {
		t.Fatalf("expected 2 persisted assignments, got %d", len(fake.assignBodies))
	}
	if fake.assignBodies[0]["assignedStaff"] != "st1" {
		t.Fatalf("unexpected first assignment body: %v", fake.assignBodies[0])
	}
	if fake.assignBodies[1]["assignedStaff"] != nil {
		t.Fatalf("clearing must persist an explicit null: %v", fake.assignBodies[1])
	}
}

func TestCreateTaskWhitespaceTitleRejected(t *testing.T) {
	ctrl, fake := newTestController(t, Options{})
	ctrl.Start(context.Background())
	before := len(ctrl.Snapshot().Tasks)

	if _, ok := ctrl.CreateTask(context.Background(), "   \t ", ""); ok {
		t.Fatal("whitespace-only title must be rejected")
	}
	if got := len(ctrl.Snapshot().Tasks); got != before {
		t.Fatalf("rejected create must not add a task: %d != %d", got, before)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.createCalls != 0 {
		t.Fatalf("rejected create must not hit the network, got %d calls", fake.createCalls)
	}
}

func TestCreateTaskUsesServerIdentity(t *testing.T) {
	ctrl, _ := newTestController(t, Options{})
	ctrl.Start(context.Background())

	task, ok := ctrl.CreateTask(context.Background(), "Prepare documents", "")
	if !ok {
		t.Fatal("create failed")
	}
	if task.ID != "server-1" {
		t.Fatalf("expected server identity, got %q", task.ID)
	}
	if task.Status != domain.StatusIntake {
		t.Fatalf("new task must land in intake, got %s", task.Status)
	}
	if task.Priority != DefaultPriority {
		t.Fatalf("unexpected default priority: %s", task.Priority)
	}
	if found, ok := ctrl.store.Task("server-1"); !ok || found.Title != "Prepare documents" {
		t.Fatalf("task not appended to the board: %+v", found)
	}
}

func TestCreateTaskFailureKeepsLocalCopy(t *testing.T) {
	ctrl, fake := newTestController(t, Options{})
	ctrl.Start(context.Background())
	fake.mu.Lock()
	fake.failCreate = true
	fake.mu.Unlock()

	task, ok := ctrl.CreateTask(context.Background(), "Offline task", "")
	if !ok {
		t.Fatal("create must still succeed locally")
	}
	if task.ID == "" {
		t.Fatal("expected a locally synthesized id")
	}
	if task.Status != domain.StatusIntake {
		t.Fatalf("local task must land in intake, got %s", task.Status)
	}
	if _, ok := ctrl.store.Task(task.ID); !ok {
		t.Fatal("local task not on the board")
	}
}

func TestSelectServiceClearsBoardSynchronously(t *testing.T) {
	ctrl, _ := newTestController(t, Options{})
	ctx := context.Background()
	ctrl.Start(ctx)
	if len(ctrl.Snapshot().Tasks) == 0 {
		t.Fatal("expected tasks for s1")
	}

	ctrl.SelectService(ctx, "s2")
	snap := ctrl.Snapshot()
	if snap.SelectedService != "s2" {
		t.Fatalf("unexpected selection: %s", snap.SelectedService)
	}
	if len(snap.Tasks) != 0 || len(snap.Processes) != 0 {
		t.Fatalf("old board leaked into new selection: %d tasks, %d processes", len(snap.Tasks), len(snap.Processes))
	}
}

func TestEnsureStaffMemoizedPerSelection(t *testing.T) {
	ctrl, fake := newTestController(t, Options{})
	ctx := context.Background()
	ctrl.Start(ctx)

	for i := 0; i < 5; i++ {
		ctrl.EnsureStaff("r1")
	}
	waitFor(t, time.Second, func() bool {
		return len(ctrl.StaffFor("r1")) == 1
	})

	fake.mu.Lock()
	calls := fake.staffCalls
	fake.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected one staff fetch, got %d", calls)
	}

	// a new selection resets the memo and the cache
	ctrl.SelectService(ctx, "s1")
	if staff := ctrl.StaffFor("r1"); len(staff) != 0 {
		t.Fatalf("staff cache must reset on service change, got %+v", staff)
	}
}

func TestColumnStaffResolvesRole(t *testing.T) {
	ctrl, _ := newTestController(t, Options{})
	ctrl.Start(context.Background())

	role, ok := ctrl.ColumnRole("DESIGN")
	if !ok || role.ID != "r1" || role.Title != "Designer" {
		t.Fatalf("unexpected role: ok=%v role=%+v", ok, role)
	}
	if _, ok := ctrl.ColumnRole("REVIEW"); ok {
		t.Fatal("column without assigned role must report no role")
	}
	if _, ok := ctrl.ColumnRole(domain.StatusIntake); ok {
		t.Fatal("intake column has no role")
	}

	ctrl.ColumnStaff("DESIGN")
	waitFor(t, time.Second, func() bool {
		return len(ctrl.ColumnStaff("DESIGN")) == 1
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

package board

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"servex-board/client"
	"servex-board/domain"
)

// DefaultPriority tags user-created tasks that chose no explicit priority.
const DefaultPriority = "Design"

// Options tune the controller.
type Options struct {
	// StrictRollback reverts the local mutation when the matching remote
	// write fails. Off by default: the board historically keeps the
	// optimistic value and only logs the failure.
	StrictRollback bool
	// PersistWorkers sizes the background write pool. 0 picks the default;
	// a negative value runs every write inline.
	PersistWorkers int
	PersistBuffer  int
	PersistTimeout time.Duration
	HandoffTimeout time.Duration
}

// Controller owns the board store and is the only writer to it. Transitions
// apply locally first; the matching remote write is best-effort and never
// blocks or fails the board.
type Controller struct {
	store   *Store
	loader  *client.Loader
	api     *client.Client
	log     *log.Logger
	persist *persister
	strict  bool

	selMu     sync.Mutex
	selCtx    context.Context
	selCancel context.CancelFunc

	staffMu        sync.Mutex
	staffRequested map[string]struct{}
}

// NewController wires a controller around the given transport and loader.
func NewController(api *client.Client, loader *client.Loader, logger *log.Logger, opts Options) *Controller {
	if logger == nil {
		logger = log.StandardLogger()
	}
	selCtx, selCancel := context.WithCancel(context.Background())
	return &Controller{
		store:          NewStore(),
		loader:         loader,
		api:            api,
		log:            logger,
		persist:        newPersister(api, logger, opts.PersistWorkers, opts.PersistBuffer, opts.PersistTimeout, opts.HandoffTimeout),
		strict:         opts.StrictRollback,
		selCtx:         selCtx,
		selCancel:      selCancel,
		staffRequested: make(map[string]struct{}),
	}
}

// Snapshot exposes the current board state as a read-only copy.
func (c *Controller) Snapshot() Snapshot {
	return c.store.Snapshot()
}

// Columns derives the current column list.
func (c *Controller) Columns() []Column {
	snap := c.store.Snapshot()
	return Columns(snap.Processes, snap.Tasks)
}

// Start loads the service list and selects the first service when nothing is
// selected yet. A failed load leaves the list empty; the failure was logged
// by the loader.
func (c *Controller) Start(ctx context.Context) {
	services := c.loader.Services(ctx)
	c.store.SetServices(services)
	if c.store.SelectedService() == "" && len(services) > 0 {
		c.SelectService(ctx, services[0].ID)
	}
}

// SelectService switches the board to another service. Processes and tasks
// are cleared synchronously before anything is reloaded, so no render in
// between shows the old service's board. The previous selection's context is
// canceled, which stops any staff fetch still in flight from populating the
// new selection.
func (c *Controller) SelectService(ctx context.Context, serviceID string) {
	c.store.Select(serviceID)
	c.resetSelection()
	if serviceID == "" {
		return
	}
	c.store.SetProcesses(c.loader.Processes(ctx, serviceID), serviceID)
	c.store.ReplaceTasks(c.loader.Tasks(ctx, serviceID), serviceID)
}

func (c *Controller) resetSelection() {
	c.selMu.Lock()
	if c.selCancel != nil {
		c.selCancel()
	}
	selCtx, cancel := context.WithCancel(context.Background())
	c.selCtx = selCtx
	c.selCancel = cancel
	c.selMu.Unlock()

	c.staffMu.Lock()
	c.staffRequested = make(map[string]struct{})
	c.staffMu.Unlock()
	c.loader.ResetStaff(context.Background())
}

func (c *Controller) selectionContext() context.Context {
	c.selMu.Lock()
	defer c.selMu.Unlock()
	return c.selCtx
}

// StaffFor is the pure staff lookup: cached directory for a role, or nil
// when the role has not been loaded. It never fetches.
func (c *Controller) StaffFor(roleID string) []domain.StaffMember {
	staff, _ := c.loader.CachedStaff(context.Background(), roleID)
	return staff
}

// EnsureStaff schedules a staff directory load for a role. Repeated calls
// for the same role within a selection are no-ops, so render passes may call
// it freely. The fetch runs under the selection context and dies with it.
func (c *Controller) EnsureStaff(roleID string) {
	if roleID == "" {
		return
	}
	c.staffMu.Lock()
	if _, ok := c.staffRequested[roleID]; ok {
		c.staffMu.Unlock()
		return
	}
	c.staffRequested[roleID] = struct{}{}
	c.staffMu.Unlock()

	ctx := c.selectionContext()
	go func() {
		c.loader.Staff(ctx, roleID)
	}()
}

// ColumnRole resolves the role attached to a column's process, if any.
func (c *Controller) ColumnRole(columnID string) (domain.RoleRef, bool) {
	process, ok := c.store.ProcessByName(columnID)
	if !ok || process.AssignedRole == nil {
		return domain.RoleRef{}, false
	}
	return *process.AssignedRole, true
}

// ColumnStaff returns the cached staff available for a column and schedules
// the load when the column's role has not been resolved yet.
func (c *Controller) ColumnStaff(columnID string) []domain.StaffMember {
	role, ok := c.ColumnRole(columnID)
	if !ok {
		return nil
	}
	c.EnsureStaff(role.ID)
	return c.StaffFor(role.ID)
}

// Drop applies a drag-and-drop transition: the task moves to the target
// column and its staff assignment is cleared, because assignments are scoped
// to the old column's role. The local mutation always sticks; for tasks
// backed by a service request the new status is persisted best-effort.
func (c *Controller) Drop(taskID, columnID string) (domain.Task, bool) {
	if !c.columnExists(columnID) {
		return domain.Task{}, false
	}
	prev, ok := c.store.Task(taskID)
	if !ok {
		return domain.Task{}, false
	}
	updated, _ := c.store.UpdateTask(taskID, func(t *domain.Task) {
		t.Status = columnID
		t.AssignedStaff = nil
	})
	if updated.FromRequest() {
		job := persistJob{
			name:   "status",
			method: http.MethodPut,
			path:   "/servicerequested/requested/" + taskID,
			body:   map[string]string{"process_status": columnID},
		}
		if c.strict {
			prevStatus, prevStaff := prev.Status, prev.AssignedStaff
			job.revert = func() {
				c.store.UpdateTask(taskID, func(t *domain.Task) {
					t.Status = prevStatus
					t.AssignedStaff = prevStaff
				})
			}
		}
		c.persist.submit(job)
	}
	return updated, true
}

// AssignStaff sets or, with nil, explicitly clears a task's assignment. A
// cleared task is indistinguishable from one never assigned. Request-backed
// tasks persist the assignment best-effort through the role-scoped endpoint.
func (c *Controller) AssignStaff(taskID string, staff *domain.StaffMember) (domain.Task, bool) {
	prev, ok := c.store.Task(taskID)
	if !ok {
		return domain.Task{}, false
	}
	var stored *domain.StaffMember
	if staff != nil {
		cp := *staff
		stored = &cp
	}
	updated, _ := c.store.UpdateTask(taskID, func(t *domain.Task) {
		t.AssignedStaff = stored
	})
	if updated.FromRequest() {
		var staffID any
		if staff != nil {
			staffID = staff.ID
		}
		job := persistJob{
			name:   "assign",
			method: http.MethodPut,
			path:   "/servicerequested/assignStaff/" + taskID,
			body:   map[string]any{"assignedStaff": staffID},
		}
		if c.strict {
			prevStaff := prev.AssignedStaff
			job.revert = func() {
				c.store.UpdateTask(taskID, func(t *domain.Task) {
					t.AssignedStaff = prevStaff
				})
			}
		}
		c.persist.submit(job)
	}
	return updated, true
}

// CreateTask creates a task in the intake column. Whitespace-only titles are
// rejected silently: no task, no network call. When the create endpoint
// fails or returns no identity, the task keeps a locally synthesized id and
// is never reconciled with the server.
func (c *Controller) CreateTask(ctx context.Context, title, priority string) (domain.Task, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, false
	}
	if priority == "" {
		priority = DefaultPriority
	}
	task := domain.Task{
		Title:    title,
		Status:   domain.StatusIntake,
		Priority: priority,
		Created:  time.Now().Format(domain.CreatedDateLayout),
	}
	payload, err := c.api.Request(ctx, http.MethodPost, "/tasks", task, nil)
	if err != nil {
		c.log.Warnf("create task failed, keeping local copy, err: %v", err)
		task.ID = localTaskID()
	} else if created, ok := domain.DecodeCreatedTask(payload); ok {
		task = created
		if task.Status == "" {
			task.Status = domain.StatusIntake
		}
	} else {
		task.ID = localTaskID()
	}
	c.store.AppendTask(task)
	return task, true
}

// Close drains the persistence pool. Pending writes finish first.
func (c *Controller) Close() {
	c.persist.close()
}

func (c *Controller) columnExists(columnID string) bool {
	if columnID == domain.StatusIntake {
		return true
	}
	_, ok := c.store.ProcessByName(columnID)
	return ok
}

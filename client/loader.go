package client

import (
	"context"
	"net/http"
	"sort"

	log "github.com/sirupsen/logrus"

	"servex-board/domain"
)

// Loader fetches board data for the current selection. Every load is
// best-effort: transport and decode failures are logged and surface as an
// empty result so the board degrades instead of crashing.
type Loader struct {
	api   *Client
	staff StaffCache
	log   *log.Logger
}

// NewLoader creates a Loader. A nil cache falls back to the in-memory one.
func NewLoader(api *Client, staff StaffCache, logger *log.Logger) *Loader {
	if staff == nil {
		staff = NewMemoryStaffCache()
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Loader{api: api, staff: staff, log: logger}
}

// Services lists all services available to the current actor.
func (l *Loader) Services(ctx context.Context) []domain.Service {
	payload, err := l.api.Request(ctx, http.MethodGet, "/service/Authority/services", nil, nil)
	if err != nil {
		l.log.Warnf("load services failed, err: %v", err)
		return nil
	}
	services, err := domain.DecodeServices(payload)
	if err != nil {
		l.log.Warnf("decode services failed, err: %v", err)
		return nil
	}
	return services
}

// Processes lists the active processes of a service, ascending by order. An
// empty service id clears the processes without touching the network.
func (l *Loader) Processes(ctx context.Context, serviceID string) []domain.Process {
	if serviceID == "" {
		return nil
	}
	payload, err := l.api.Request(ctx, http.MethodGet, "/process/"+serviceID, nil, nil)
	if err != nil {
		l.log.Warnf("load processes failed, err: %v, service: %s", err, serviceID)
		return nil
	}
	processes, err := domain.DecodeProcesses(payload)
	if err != nil {
		l.log.Warnf("decode processes failed, err: %v, service: %s", err, serviceID)
		return nil
	}
	active := make([]domain.Process, 0, len(processes))
	for _, p := range processes {
		if p.Active() {
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Order < active[j].Order })
	return active
}

// Staff returns the staff directory for a role, served from the cache when
// the role was already resolved for the current selection.
func (l *Loader) Staff(ctx context.Context, roleID string) []domain.StaffMember {
	if roleID == "" {
		return nil
	}
	if cached, ok := l.staff.Get(ctx, roleID); ok {
		return cached
	}
	payload, err := l.api.Request(ctx, http.MethodGet, "/staff/staff-list/"+roleID, nil, nil)
	if err != nil {
		l.log.Warnf("load staff failed, err: %v, role: %s", err, roleID)
		return nil
	}
	staff, err := domain.DecodeStaffList(payload)
	if err != nil {
		l.log.Warnf("decode staff failed, err: %v, role: %s", err, roleID)
		return nil
	}
	l.staff.Put(ctx, roleID, staff)
	return staff
}

// Tasks fetches the outstanding service requests of a service and projects
// each into a task. The result replaces the task collection wholesale.
func (l *Loader) Tasks(ctx context.Context, serviceID string) []domain.Task {
	if serviceID == "" {
		return nil
	}
	payload, err := l.api.Request(ctx, http.MethodGet, "/servicerequested/requested/"+serviceID, nil, nil)
	if err != nil {
		l.log.Warnf("load tasks failed, err: %v, service: %s", err, serviceID)
		return nil
	}
	requests, err := domain.DecodeRequests(payload)
	if err != nil {
		l.log.Warnf("decode tasks failed, err: %v, service: %s", err, serviceID)
		return nil
	}
	tasks := make([]domain.Task, 0, len(requests))
	for _, req := range requests {
		tasks = append(tasks, domain.TaskFromRequest(req))
	}
	return tasks
}

// CachedStaff is the pure half of the staff lookup: it reads the cache and
// never fetches. Callers that want the directory loaded invoke Staff.
func (l *Loader) CachedStaff(ctx context.Context, roleID string) ([]domain.StaffMember, bool) {
	if roleID == "" {
		return nil, false
	}
	return l.staff.Get(ctx, roleID)
}

// ResetStaff invalidates the role staff cache, called on service change.
func (l *Loader) ResetStaff(ctx context.Context) {
	l.staff.Reset(ctx)
}

package board

import (
	"sync"

	"servex-board/domain"
)

// Store owns the board's only mutable state: the service list, the current
// selection, and the process/task collections. Views read copies through
// Snapshot; mutation happens solely through the controller's transitions.
type Store struct {
	mu        sync.RWMutex
	services  []domain.Service
	selected  string
	processes []domain.Process
	tasks     []domain.Task
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot is a read-only copy of the board state.
type Snapshot struct {
	Services        []domain.Service
	SelectedService string
	Processes       []domain.Process
	Tasks           []domain.Task
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{SelectedService: s.selected}
	snap.Services = append([]domain.Service(nil), s.services...)
	snap.Processes = append([]domain.Process(nil), s.processes...)
	snap.Tasks = append([]domain.Task(nil), s.tasks...)
	return snap
}

func (s *Store) SetServices(services []domain.Service) {
	s.mu.Lock()
	s.services = append([]domain.Service(nil), services...)
	s.mu.Unlock()
}

func (s *Store) SelectedService() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select switches the selection and clears processes and tasks in the same
// critical section, so no reader ever sees the old board against the new
// service.
func (s *Store) Select(serviceID string) {
	s.mu.Lock()
	s.selected = serviceID
	s.processes = nil
	s.tasks = nil
	s.mu.Unlock()
}

// SetProcesses installs the processes loaded for a service. Stale results
// for a no-longer-selected service are discarded.
func (s *Store) SetProcesses(processes []domain.Process, forService string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != forService {
		return
	}
	s.processes = append([]domain.Process(nil), processes...)
}

// ReplaceTasks swaps in the task collection loaded for a service, with the
// same staleness guard as SetProcesses.
func (s *Store) ReplaceTasks(tasks []domain.Task, forService string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != forService {
		return
	}
	s.tasks = append([]domain.Task(nil), tasks...)
}

func (s *Store) AppendTask(task domain.Task) {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
}

// Task returns a copy of the task with the given id.
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// UpdateTask applies a mutation to the task with the given id and returns
// the updated copy.
func (s *Store) UpdateTask(id string, apply func(*domain.Task)) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			apply(&s.tasks[i])
			return s.tasks[i], true
		}
	}
	return domain.Task{}, false
}

// ProcessByName resolves a process of the current selection.
func (s *Store) ProcessByName(name string) (domain.Process, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.processes {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Process{}, false
}

// ServiceByID resolves a service from the loaded list.
func (s *Store) ServiceByID(id string) (domain.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, true
		}
	}
	return domain.Service{}, false
}

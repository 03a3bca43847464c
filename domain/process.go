package domain

// Process statuses as issued by the server.
const (
	ProcessActive   = "ACTIVE"
	ProcessInactive = "INACTIVE"
)

// Process is a server-defined workflow stage for a service. Only ACTIVE
// processes participate in the board; Order fixes the column position.
type Process struct {
	ID           string   `json:"id"`
	Name         string   `json:"process_name"`
	Order        int      `json:"order"`
	Status       string   `json:"status"`
	AssignedRole *RoleRef `json:"assignedRole,omitempty"`
}

// Active reports whether the process participates in the board.
func (p Process) Active() bool {
	return p.Status == ProcessActive
}

// RoleRef is a foreign key into the staff role directory, resolved on demand
// through the staff-list endpoint.
type RoleRef struct {
	ID    string `json:"id"`
	Title string `json:"staffroll,omitempty"`
}

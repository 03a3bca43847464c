package domain

import "time"

// StatusIntake is the reserved status of the synthetic intake column. New
// tasks and requests without a stored process status start here. Process
// names are server-controlled and never collide with it.
const StatusIntake = "INTAKE"

// PriorityServiceRequest tags tasks materialized from service requests.
const PriorityServiceRequest = "Service Request"

// CreatedDateLayout is the display format for task dates, e.g. "15 Jul 2023".
const CreatedDateLayout = "2 Jan 2006"

// Task is a single card on the board. Status always names a column identity;
// a task whose status matches no loaded column is simply not rendered.
type Task struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Status        string          `json:"process_status"`
	Priority      string          `json:"priority"`
	Created       string          `json:"date"`
	AssignedStaff *StaffMember    `json:"assignedStaff,omitempty"`
	Comments      int             `json:"comments"`
	Attachments   int             `json:"attachments"`
	Source        *ServiceRequest `json:"serviceRequest,omitempty"`
}

// FromRequest reports whether the task was materialized from a service
// request and therefore has a server record behind it.
func (t Task) FromRequest() bool {
	return t.Source != nil
}

// TaskFromRequest projects a service request into a board task. Requests
// without a stored process status land in the intake column.
func TaskFromRequest(req ServiceRequest) Task {
	status := req.ProcessStatus
	if status == "" {
		status = StatusIntake
	}
	src := req
	return Task{
		ID:       req.ID,
		Title:    "Service Request - " + req.User.Name,
		Status:   status,
		Priority: PriorityServiceRequest,
		Created:  displayDate(req.AppointmentDate),
		Comments: req.FormResponsesCount,
		Source:   &src,
	}
}

// displayDate renders a server timestamp for the card. Unparseable values are
// shown as-is rather than dropped.
func displayDate(raw string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format(CreatedDateLayout)
		}
	}
	return raw
}

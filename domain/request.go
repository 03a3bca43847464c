package domain

// ServiceRequest is an outstanding appointment request fetched from the
// server. The board projects each request into a Task; the original record is
// kept on the task so status and assignment changes can be persisted back.
type ServiceRequest struct {
	ID                 string      `json:"id"`
	ProcessStatus      string      `json:"process_status,omitempty"`
	User               RequestUser `json:"user"`
	AppointmentDate    string      `json:"appointment_date"`
	FormResponsesCount int         `json:"form_responses_count,omitempty"`
}

// RequestUser identifies the customer behind a service request.
type RequestUser struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

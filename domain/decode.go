package domain

import "github.com/bytedance/sonic"

// Payload shapes vary across dashboard endpoints: some return a bare JSON
// array, others wrap the collection in a {"data": ...} envelope, and the
// staff endpoint uses a {"staff_list": ...} key. Decoding tolerates all of
// them; an object missing the expected collection decodes to an empty slice.
// Malformed JSON is a real decode error.

// DecodeServices decodes the service listing payload.
func DecodeServices(payload []byte) ([]Service, error) {
	return decodeCollection[Service](payload)
}

// DecodeRequests decodes the outstanding service-request payload.
func DecodeRequests(payload []byte) ([]ServiceRequest, error) {
	return decodeCollection[ServiceRequest](payload)
}

// DecodeProcesses decodes the process listing payload. The server nests the
// collection as {"data": {"processes": [...]}}.
func DecodeProcesses(payload []byte) ([]Process, error) {
	if startsWithArray(payload) {
		var out []Process
		if err := sonic.Unmarshal(payload, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var env struct {
		Data struct {
			Processes []Process `json:"processes"`
		} `json:"data"`
		Processes []Process `json:"processes"`
	}
	if err := sonic.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	if env.Data.Processes != nil {
		return env.Data.Processes, nil
	}
	return env.Processes, nil
}

// DecodeStaffList decodes the role-scoped staff directory payload.
func DecodeStaffList(payload []byte) ([]StaffMember, error) {
	if startsWithArray(payload) {
		var out []StaffMember
		if err := sonic.Unmarshal(payload, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var env struct {
		StaffList []StaffMember `json:"staff_list"`
	}
	if err := sonic.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	return env.StaffList, nil
}

// DecodeCreatedTask extracts the server's view of a newly created task. The
// create endpoint double-wraps its response; older deployments returned the
// task bare, so every shape is tried. The second return is false when no
// usable task with an identity was found.
func DecodeCreatedTask(payload []byte) (Task, bool) {
	var deep struct {
		Data struct {
			Data *Task `json:"data"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(payload, &deep); err == nil && deep.Data.Data != nil && deep.Data.Data.ID != "" {
		return *deep.Data.Data, true
	}
	var flat struct {
		Data *Task `json:"data"`
	}
	if err := sonic.Unmarshal(payload, &flat); err == nil && flat.Data != nil && flat.Data.ID != "" {
		return *flat.Data, true
	}
	var bare Task
	if err := sonic.Unmarshal(payload, &bare); err == nil && bare.ID != "" {
		return bare, true
	}
	return Task{}, false
}

func decodeCollection[T any](payload []byte) ([]T, error) {
	if startsWithArray(payload) {
		var out []T
		if err := sonic.Unmarshal(payload, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var env struct {
		Data []T `json:"data"`
	}
	if err := sonic.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func startsWithArray(payload []byte) bool {
	for _, b := range payload {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b == '['
	}
	return false
}

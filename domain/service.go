package domain

// Service is a bookable Servex service. Services are created and updated
// server-side; the board only reads them.
type Service struct {
	ID               string   `json:"id"`
	Name             string   `json:"service_name"`
	Fee              float64  `json:"service_fee_lrk"`
	SlotDuration     int      `json:"slot_duration"`
	MaxPeoplePerSlot int      `json:"max_people_per_slot"`
	Icon             *IconRef `json:"service_icon,omitempty"`
	Note             string   `json:"note,omitempty"`
}

// IconRef points at an uploaded service icon.
type IconRef struct {
	FilePath string `json:"file_path"`
}

package domain

// StaffMember is a member of the role-scoped staff directory.
type StaffMember struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// AvatarLabel returns the avatar reference, or the first rune of the name
// when no avatar has been uploaded.
func (s StaffMember) AvatarLabel() string {
	if s.Avatar != "" {
		return s.Avatar
	}
	for _, r := range s.Name {
		return string(r)
	}
	return "?"
}

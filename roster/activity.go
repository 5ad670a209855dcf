package roster

import "slices"

// Activity is the public view of a single extracurricular activity.
type Activity struct {
	Description     string   `json:"description" yaml:"description"`
	Schedule        string   `json:"schedule" yaml:"schedule"`
	MaxParticipants int      `json:"max_participants" yaml:"max_participants"`
	Participants    []string `json:"participants" yaml:"participants"`
}

// HasParticipant reports whether email is on the roster.
func (a Activity) HasParticipant(email string) bool {
	return slices.Contains(a.Participants, email)
}

// SeatsLeft returns how many more participants fit before max_participants is
// reached. It is negative when the roster is over capacity.
func (a Activity) SeatsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// clone returns a deep copy. Participants is never nil so it always encodes
// as a JSON array.
func (a Activity) clone() Activity {
	participants := make([]string, len(a.Participants))
	copy(participants, a.Participants)
	a.Participants = participants
	return a
}

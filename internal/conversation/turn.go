package conversation

import "time"

// Role identifies who authored a turn.
type Role int

const (
	RoleUser Role = iota
	RoleAgent
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// Turn is one rendered message.
type Turn struct {
	Role     Role
	Content  string
	Sequence int
	At       time.Time
}

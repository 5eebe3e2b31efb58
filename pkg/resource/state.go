package resource

// State represents the lifecycle state of a resource.
type State int

const (
	Unresolved State = iota // Before the first fetch has been started
	Pending                 // Fetch in progress
	Ready                   // Latest fetch succeeded
	Errored                 // Latest fetch failed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

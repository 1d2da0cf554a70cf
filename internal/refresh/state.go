package refresh

// State is the position of the coordinator in a refresh cycle.
type State int

const (
	Idle State = iota
	AwaitingConnectivity
	AwaitingLocation
	Fetching
	Applying
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingConnectivity:
		return "awaiting_connectivity"
	case AwaitingLocation:
		return "awaiting_location"
	case Fetching:
		return "fetching"
	case Applying:
		return "applying"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Busy reports whether a cycle is in flight. Idle and Failed accept triggers.
func (s State) Busy() bool {
	return s != Idle && s != Failed
}

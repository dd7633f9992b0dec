package meeting

// ErrKind tags the participant-priming error taxonomy that
// internal/schedule's own error kinds don't cover.
type ErrKind string

const (
	ErrNoStationsNearAddress ErrKind = "NO_STATIONS_NEAR_ADDRESS"
	ErrTooFewParticipants    ErrKind = "TOO_FEW_PARTICIPANTS"
	ErrTooManyParticipants   ErrKind = "TOO_MANY_PARTICIPANTS"
)

// Error wraps an ErrKind with a human-readable message.
type Error struct {
	Kind ErrKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

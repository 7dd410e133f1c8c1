package reckon

import (
	"github.com/m-mizutani/goerr/v2"
)

// Role is the author of a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation. It is immutable once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the append-only, ordered list of turns of one session.
// It has no eviction and no size cap. It is not safe for concurrent use; each session owns its own.
type Transcript struct {
	turns []Turn
}

// NewTranscript creates a transcript seeded with the given turns.
func NewTranscript(turns ...Turn) (*Transcript, error) {
	t := &Transcript{}
	for _, turn := range turns {
		if err := t.Append(turn); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Append adds a turn to the end of the transcript.
func (x *Transcript) Append(turn Turn) error {
	switch turn.Role {
	case RoleUser, RoleAssistant:
	default:
		return goerr.Wrap(ErrInvalidRole, "failed to append turn", goerr.V("role", turn.Role))
	}

	x.turns = append(x.turns, turn)
	return nil
}

// All returns a copy of all turns in order.
func (x *Transcript) All() []Turn {
	if x == nil {
		return nil
	}
	turns := make([]Turn, len(x.turns))
	copy(turns, x.turns)
	return turns
}

// Len returns the number of turns.
func (x *Transcript) Len() int {
	if x == nil {
		return 0
	}
	return len(x.turns)
}

// last returns up to n most recent turns.
func (x *Transcript) last(n int) []Turn {
	if x == nil || n <= 0 {
		return nil
	}
	start := 0
	if len(x.turns) > n {
		start = len(x.turns) - n
	}
	turns := make([]Turn, len(x.turns)-start)
	copy(turns, x.turns[start:])
	return turns
}

package interview

import (
	"errors"
	"strings"
)

type State int32

const (
	Idle State = iota
	AwaitingFirstQuestion
	Listening
	Submitting
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case AwaitingFirstQuestion:
		return "AWAITING_FIRST_QUESTION"
	case Listening:
		return "LISTENING"
	case Submitting:
		return "SUBMITTING"
	case Complete:
		return "COMPLETE"
	}
	return "UNKNOWN"
}

var (
	ErrEmptyAnswer       = errors.New("empty answer")
	ErrSpeechUnsupported = errors.New("speech recognition not supported")
)

// RoleTitle turns a role id like "backend_engineer" into "backend engineer".
func RoleTitle(role string) string {
	return strings.ReplaceAll(strings.TrimSpace(role), "_", " ")
}

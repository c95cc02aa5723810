package interview

type MessageKind int

const (
	System MessageKind = iota
	Interviewer
	Candidate
)

func (k MessageKind) String() string {
	switch k {
	case Interviewer:
		return "interviewer"
	case Candidate:
		return "candidate"
	}
	return "system"
}

// UI is the presentation side of a session. The coordinator calls it only
// from its own goroutine, so implementations need no locking of their own
// against each other, but must not call back into the coordinator
// synchronously.
type UI interface {
	Message(kind MessageKind, text string)
	// SetDraft replaces the answer box with recognized speech.
	SetDraft(text string)
	SetInputEnabled(enabled bool)
	SetMic(available, listening bool)
	SetStatus(text string)
	ShowFeedback(report string, final bool)
	Clear()
}

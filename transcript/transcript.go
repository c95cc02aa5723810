// Package transcript holds the ordered interviewer/candidate log of one interview.
package transcript

import (
	"fmt"
	"sync"
)

type Speaker int

const (
	Interviewer Speaker = iota
	Candidate
)

func (s Speaker) String() string {
	switch s {
	case Interviewer:
		return "Interviewer"
	case Candidate:
		return "Candidate"
	default:
		return fmt.Sprintf("Speaker(%d)", int(s))
	}
}

type Turn struct {
	Speaker Speaker
	Text    string
}

// Line renders the turn the way the backend expects it in history.
func (t Turn) Line() string {
	return t.Speaker.String() + ": " + t.Text
}

// Transcript is append-only between resets. Order is significant: it is sent
// verbatim to the backend as conversation context.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

func New() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(speaker Speaker, text string) {
	t.mu.Lock()
	t.turns = append(t.turns, Turn{Speaker: speaker, Text: text})
	t.mu.Unlock()
}

func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Last returns the most recent turn, or false when empty.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// History returns "Interviewer: ..." / "Candidate: ..." lines in insertion order.
func (t *Transcript) History() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	lines := make([]string, len(t.turns))
	for i, turn := range t.turns {
		lines[i] = turn.Line()
	}
	return lines
}

func (t *Transcript) Reset() {
	t.mu.Lock()
	t.turns = nil
	t.mu.Unlock()
}

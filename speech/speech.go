// Package speech turns a streaming recognizer into listening windows of
// accumulated transcript fragments.
package speech

import (
	"context"
	"fmt"
	"strings"
)

// Result is one hypothesis from a recognizer. Final results are never
// revised; interim ones are replaced by the next result.
type Result struct {
	Text  string
	Final bool
}

// Recognizer streams results to emit until ctx is done or the backend ends
// the stream. A nil return with ctx still live means the backend closed the
// window on its own (long pause) and a new call should continue it.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, emit func(Result)) error
}

type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("speech recognition: %v", e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Fragment is the state of one listening window after a result arrives.
type Fragment struct {
	Window    uint64
	Finalized string
	Interim   string
}

// Display is what the answer box shows while the candidate is speaking.
func (f Fragment) Display() string {
	if f.Interim == "" {
		return f.Finalized
	}
	if f.Finalized == "" {
		return f.Interim
	}
	return f.Finalized + " " + f.Interim
}

func appendFinal(finalized, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return finalized
	}
	if finalized == "" {
		return text
	}
	return finalized + " " + text
}

// Package clipboard copies interview results to the system clipboard.
package clipboard

import (
	"errors"
	"strings"

	cb "github.com/atotto/clipboard"

	"interviewer/transcript"
)

var ErrUnsupported = errors.New("no clipboard utility available (install xclip, xsel or wl-clipboard)")

func Available() bool { return !cb.Unsupported }

func Copy(text string) error {
	if cb.Unsupported {
		return ErrUnsupported
	}
	return cb.WriteAll(text)
}

func Read() (string, error) {
	if cb.Unsupported {
		return "", ErrUnsupported
	}
	return cb.ReadAll()
}

// Report renders a finished or in-progress interview as plain text.
func Report(role string, turns []transcript.Turn, feedback string) string {
	var b strings.Builder
	if role != "" {
		b.WriteString("Mock interview: " + strings.ReplaceAll(role, "_", " ") + "\n\n")
	}
	for _, t := range turns {
		b.WriteString(t.Line())
		b.WriteString("\n")
	}
	if feedback = strings.TrimSpace(feedback); feedback != "" {
		if len(turns) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Feedback:\n")
		b.WriteString(feedback)
		b.WriteString("\n")
	}
	return b.String()
}

package narration

import (
	"context"
	"strings"
	"time"
)

// Paced is a silent synthesizer that takes roughly as long as reading the
// text aloud would, so turn timing matches a voiced session.
type Paced struct {
	PerWord time.Duration
	Min     time.Duration
}

func NewPaced() *Paced {
	return &Paced{PerWord: 300 * time.Millisecond, Min: 500 * time.Millisecond}
}

func (p *Paced) Name() string { return "paced" }

func (p *Paced) Duration(text string) time.Duration {
	d := time.Duration(len(strings.Fields(text))) * p.PerWord
	if d < p.Min {
		d = p.Min
	}
	return d
}

func (p *Paced) Speak(ctx context.Context, text string) error {
	t := time.NewTimer(p.Duration(text))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package narration speaks interviewer questions aloud.
package narration

import (
	"context"
	"strings"
	"sync"
)

// Synthesizer renders text to audio. Speak blocks until playback has
// finished or ctx is done.
type Synthesizer interface {
	Name() string
	Speak(ctx context.Context, text string) error
}

// Player runs one utterance at a time; a new Say preempts the previous one.
type Player struct {
	synth Synthesizer

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewPlayer(synth Synthesizer) *Player {
	return &Player{synth: synth}
}

func (p *Player) Name() string { return p.synth.Name() }

// Say starts speaking text. The returned channel receives exactly one value
// when playback ends: nil, the synthesizer error, or a context error if the
// utterance was preempted or cancelled.
func (p *Player) Say(ctx context.Context, text string) <-chan error {
	done := make(chan error, 1)
	text = strings.TrimSpace(text)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if text == "" {
		p.mu.Unlock()
		done <- nil
		return done
	}
	sctx, cancel := context.WithCancel(ctx)
	p.seq++
	id := p.seq
	p.cancel = cancel
	p.mu.Unlock()

	go func() {
		err := p.synth.Speak(sctx, text)
		p.mu.Lock()
		if p.seq == id {
			p.cancel = nil
		}
		p.mu.Unlock()
		cancel()
		done <- err
	}()
	return done
}

// CancelAll stops whatever is playing.
func (p *Player) CancelAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Player) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"interviewer/log"
)

const (
	DefaultRestartDelay = time.Second
	DefaultMaxFailures  = 5
)

type InputConfig struct {
	RestartDelay time.Duration
	MaxFailures  int // consecutive failures before the window is given up; 0 = never
}

func DefaultInputConfig() InputConfig {
	return InputConfig{RestartDelay: DefaultRestartDelay, MaxFailures: DefaultMaxFailures}
}

// Input runs one listening window at a time on top of a Recognizer.
//
// onFragment and onEnd are called from Input's goroutines and must not
// block on Begin or End.
type Input struct {
	rec        Recognizer
	cfg        InputConfig
	onFragment func(Fragment)
	onEnd      func(window uint64, err error)

	mu     sync.Mutex
	window uint64
	cancel context.CancelFunc
}

func NewInput(rec Recognizer, cfg InputConfig, onFragment func(Fragment), onEnd func(uint64, error)) *Input {
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = DefaultRestartDelay
	}
	if cfg.MaxFailures < 0 {
		cfg.MaxFailures = 0
	}
	if onFragment == nil {
		onFragment = func(Fragment) {}
	}
	if onEnd == nil {
		onEnd = func(uint64, error) {}
	}
	return &Input{rec: rec, cfg: cfg, onFragment: onFragment, onEnd: onEnd}
}

func (in *Input) Name() string { return in.rec.Name() }

// Begin opens a new window with empty finalized text, ending any open one,
// and returns the window id carried by its fragments.
func (in *Input) Begin() uint64 {
	in.mu.Lock()
	if in.cancel != nil {
		in.cancel()
	}
	in.window++
	w := in.window
	ctx, cancel := context.WithCancel(context.Background())
	in.cancel = cancel
	in.mu.Unlock()

	go in.run(ctx, w)
	return w
}

// End stops the current window. It does not wait for the recognizer to
// wind down; fragments arriving afterwards carry the old window id.
func (in *Input) End() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.cancel != nil {
		in.cancel()
		in.cancel = nil
	}
}

func (in *Input) Active() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.cancel != nil
}

func (in *Input) run(ctx context.Context, w uint64) {
	var (
		mu        sync.Mutex
		finalized string
	)
	emit := func(r Result) {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		f := Fragment{Window: w}
		if r.Final {
			finalized = appendFinal(finalized, r.Text)
		} else {
			f.Interim = strings.TrimSpace(r.Text)
		}
		f.Finalized = finalized
		mu.Unlock()
		in.onFragment(f)
	}

	failures := 0
	for {
		err := in.rec.Recognize(ctx, emit)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			failures = 0
			continue
		}

		failures++
		log.Warnf("recognizer %s failed (%d in a row): %v", in.rec.Name(), failures, err)
		if in.cfg.MaxFailures > 0 && failures >= in.cfg.MaxFailures {
			in.finish(w, &RecognitionError{Err: err})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(in.cfg.RestartDelay):
		}
	}
}

func (in *Input) finish(w uint64, err error) {
	in.mu.Lock()
	current := in.window == w && in.cancel != nil
	if current {
		in.cancel()
		in.cancel = nil
	}
	in.mu.Unlock()
	if current {
		in.onEnd(w, err)
	}
}

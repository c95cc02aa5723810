package speech

import (
	"context"
	"sync"
)

type fakeEvent struct {
	res Result
	err error
	end bool
}

// FakeRecognizer is driven by the caller. Events sent while no Recognize
// call is running are dropped.
type FakeRecognizer struct {
	mu     sync.Mutex
	cur    chan fakeEvent
	starts int
}

func NewFakeRecognizer() *FakeRecognizer {
	return &FakeRecognizer{}
}

func (f *FakeRecognizer) Name() string { return "fake" }

func (f *FakeRecognizer) Recognize(ctx context.Context, emit func(Result)) error {
	ch := make(chan fakeEvent, 64)
	f.mu.Lock()
	f.cur = ch
	f.starts++
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		if f.cur == ch {
			f.cur = nil
		}
		f.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-ch:
			switch {
			case ev.err != nil:
				return ev.err
			case ev.end:
				return nil
			default:
				emit(ev.res)
			}
		}
	}
}

func (f *FakeRecognizer) send(ev fakeEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cur == nil {
		return false
	}
	select {
	case f.cur <- ev:
		return true
	default:
		return false
	}
}

// Say delivers a final result. It reports whether a stream was listening.
func (f *FakeRecognizer) Say(text string) bool {
	return f.send(fakeEvent{res: Result{Text: text, Final: true}})
}

func (f *FakeRecognizer) Partial(text string) bool {
	return f.send(fakeEvent{res: Result{Text: text}})
}

// Fail makes the running Recognize call return err.
func (f *FakeRecognizer) Fail(err error) bool {
	return f.send(fakeEvent{err: err})
}

// EndStream makes the running Recognize call return nil, as a backend does
// after a long pause.
func (f *FakeRecognizer) EndStream() bool {
	return f.send(fakeEvent{end: true})
}

func (f *FakeRecognizer) Listening() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur != nil
}

func (f *FakeRecognizer) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

package audio

import (
	"context"
	"sync"
	"time"
)

// FakeContext replays fixed PCM as microphone input and records everything
// handed to Play.
type FakeContext struct {
	pcm       []byte
	chunk     int
	PlayDelay time.Duration

	mu     sync.Mutex
	played [][]byte
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm, chunk: 640}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "Fake Microphone"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, chunk: f.chunk}, nil
}

func (f *FakeContext) Play(ctx context.Context, pcm []byte, _ int) error {
	f.mu.Lock()
	f.played = append(f.played, append([]byte(nil), pcm...))
	f.mu.Unlock()
	if f.PlayDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(f.PlayDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeContext) Played() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.played...)
}

// FakeCapture delivers its PCM in fixed chunks once per Start, then idles.
type FakeCapture struct {
	pcm   []byte
	chunk int

	mu     sync.Mutex
	cb     DataCallback
	stopCh chan struct{}
	done   chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.done = make(chan struct{})
	go func(stop, done chan struct{}) {
		defer close(done)
		for pos := 0; pos < len(f.pcm); pos += f.chunk {
			select {
			case <-stop:
				return
			default:
			}
			end := min(pos+f.chunk, len(f.pcm))
			f.mu.Lock()
			cb := f.cb
			f.mu.Unlock()
			if cb != nil {
				buf := append([]byte(nil), f.pcm[pos:end]...)
				cb(buf, uint32(len(buf)/BytesPerSample))
			}
		}
		<-stop
	}(f.stopCh, f.done)
	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.done
}

func (f *FakeCapture) Close() { f.Stop() }

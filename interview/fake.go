package interview

import (
	"context"
	"sync"

	"interviewer/backend"
)

// FakeBackend answers from canned values. When Gate is non-nil, Next
// blocks until a value is sent on it or ctx is done.
type FakeBackend struct {
	mu sync.Mutex

	StartQuestion string
	StartErr      error

	Responses []backend.NextResponse // consumed in order; the last one repeats
	NextErr   error
	Gate      chan struct{}

	FeedbackReport string
	FeedbackErr    error

	starts    int
	nextCalls []backend.NextRequest
	feedbacks int
}

func (f *FakeBackend) Start(ctx context.Context, role string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.StartQuestion, f.StartErr
}

func (f *FakeBackend) Next(ctx context.Context, req backend.NextRequest) (backend.NextResponse, error) {
	f.mu.Lock()
	f.nextCalls = append(f.nextCalls, req)
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return backend.NextResponse{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NextErr != nil {
		return backend.NextResponse{}, f.NextErr
	}
	if len(f.Responses) == 0 {
		return backend.NextResponse{Status: backend.StatusOngoing}, nil
	}
	resp := f.Responses[0]
	if len(f.Responses) > 1 {
		f.Responses = f.Responses[1:]
	}
	return resp, nil
}

func (f *FakeBackend) Feedback(ctx context.Context, role string, history []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedbacks++
	return f.FeedbackReport, f.FeedbackErr
}

func (f *FakeBackend) NextCalls() []backend.NextRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.NextRequest(nil), f.nextCalls...)
}

func (f *FakeBackend) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

type UIMessage struct {
	Kind MessageKind
	Text string
}

// RecordingUI keeps the latest value of everything the coordinator shows.
type RecordingUI struct {
	mu            sync.Mutex
	messages      []UIMessage
	draft         string
	inputEnabled  bool
	micAvailable  bool
	micListening  bool
	status        string
	feedback      string
	feedbackFinal bool
	clears        int
}

func (u *RecordingUI) Message(kind MessageKind, text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.messages = append(u.messages, UIMessage{kind, text})
}

func (u *RecordingUI) SetDraft(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.draft = text
}

func (u *RecordingUI) SetInputEnabled(enabled bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inputEnabled = enabled
}

func (u *RecordingUI) SetMic(available, listening bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.micAvailable, u.micListening = available, listening
}

func (u *RecordingUI) SetStatus(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = text
}

func (u *RecordingUI) ShowFeedback(report string, final bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.feedback, u.feedbackFinal = report, final
}

func (u *RecordingUI) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.messages = nil
	u.draft = ""
	u.feedback = ""
	u.feedbackFinal = false
	u.clears++
}

func (u *RecordingUI) Messages() []UIMessage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]UIMessage(nil), u.messages...)
}

func (u *RecordingUI) Draft() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.draft
}

func (u *RecordingUI) InputEnabled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inputEnabled
}

func (u *RecordingUI) Mic() (available, listening bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.micAvailable, u.micListening
}

func (u *RecordingUI) Status() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

func (u *RecordingUI) Feedback() (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.feedback, u.feedbackFinal
}

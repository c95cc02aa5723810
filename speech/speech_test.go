package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"interviewer/audio"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type recorder struct {
	mu    sync.Mutex
	frags []Fragment
	ends  []error
}

func (r *recorder) fragment(f Fragment) {
	r.mu.Lock()
	r.frags = append(r.frags, f)
	r.mu.Unlock()
}

func (r *recorder) end(_ uint64, err error) {
	r.mu.Lock()
	r.ends = append(r.ends, err)
	r.mu.Unlock()
}

func (r *recorder) last() Fragment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frags) == 0 {
		return Fragment{}
	}
	return r.frags[len(r.frags)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frags)
}

func (r *recorder) endCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ends)
}

func TestFragmentDisplay(t *testing.T) {
	tests := []struct {
		f    Fragment
		want string
	}{
		{Fragment{Finalized: "hello", Interim: "wor"}, "hello wor"},
		{Fragment{Finalized: "hello"}, "hello"},
		{Fragment{Interim: "wor"}, "wor"},
		{Fragment{}, ""},
	}
	for _, tt := range tests {
		if got := tt.f.Display(); got != tt.want {
			t.Errorf("Display(%+v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestInputAccumulatesFinalized(t *testing.T) {
	rec := NewFakeRecognizer()
	r := &recorder{}
	in := NewInput(rec, DefaultInputConfig(), r.fragment, r.end)

	w := in.Begin()
	waitFor(t, "recognizer", rec.Listening)

	rec.Say("I am")
	rec.Partial("a devel")
	waitFor(t, "interim", func() bool { return r.last().Interim == "a devel" })
	if got := r.last().Display(); got != "I am a devel" {
		t.Errorf("display = %q", got)
	}

	rec.Say("a developer")
	waitFor(t, "final", func() bool { return r.last().Finalized == "I am a developer" })
	if r.last().Interim != "" || r.last().Window != w {
		t.Errorf("fragment = %+v", r.last())
	}
	in.End()
}

func TestInputRestartsAfterBackendEnd(t *testing.T) {
	rec := NewFakeRecognizer()
	r := &recorder{}
	in := NewInput(rec, DefaultInputConfig(), r.fragment, r.end)
	in.Begin()
	defer in.End()

	waitFor(t, "recognizer", rec.Listening)
	rec.Say("first part")
	waitFor(t, "first", func() bool { return r.last().Finalized == "first part" })

	rec.EndStream()
	waitFor(t, "restart", func() bool { return rec.Starts() == 2 && rec.Listening() })

	rec.Say("second part")
	waitFor(t, "second", func() bool { return r.last().Finalized == "first part second part" })
	if r.endCount() != 0 {
		t.Error("onEnd called for a backend-closed stream")
	}
}

func TestInputNewWindowResetsFinalized(t *testing.T) {
	rec := NewFakeRecognizer()
	r := &recorder{}
	in := NewInput(rec, DefaultInputConfig(), r.fragment, r.end)

	in.Begin()
	waitFor(t, "recognizer", rec.Listening)
	rec.Say("old answer")
	waitFor(t, "old", func() bool { return r.last().Finalized == "old answer" })
	in.End()
	waitFor(t, "stop", func() bool { return !rec.Listening() })

	w2 := in.Begin()
	waitFor(t, "recognizer", rec.Listening)
	rec.Say("new")
	waitFor(t, "new", func() bool { return r.last().Window == w2 })
	if r.last().Finalized != "new" {
		t.Errorf("finalized = %q, want new", r.last().Finalized)
	}
	in.End()
}

func TestInputRetriesThenGivesUp(t *testing.T) {
	rec := NewFakeRecognizer()
	r := &recorder{}
	in := NewInput(rec, InputConfig{RestartDelay: 5 * time.Millisecond, MaxFailures: 3}, r.fragment, r.end)
	in.Begin()

	for i := 1; i <= 3; i++ {
		waitFor(t, "recognizer start", func() bool { return rec.Starts() == i && rec.Listening() })
		rec.Fail(errors.New("network down"))
	}

	waitFor(t, "onEnd", func() bool { return r.endCount() == 1 })
	var re *RecognitionError
	if !errors.As(r.ends[0], &re) || !strings.Contains(re.Error(), "network down") {
		t.Errorf("end err = %v", r.ends[0])
	}
	if in.Active() {
		t.Error("input still active after giving up")
	}
	time.Sleep(30 * time.Millisecond)
	if rec.Starts() != 3 {
		t.Errorf("starts = %d, want 3", rec.Starts())
	}
}

func TestInputFailureCountResetsOnSuccess(t *testing.T) {
	rec := NewFakeRecognizer()
	r := &recorder{}
	in := NewInput(rec, InputConfig{RestartDelay: time.Millisecond, MaxFailures: 2}, r.fragment, r.end)
	in.Begin()
	defer in.End()

	waitFor(t, "start 1", func() bool { return rec.Starts() == 1 && rec.Listening() })
	rec.Fail(errors.New("blip"))
	waitFor(t, "start 2", func() bool { return rec.Starts() == 2 && rec.Listening() })
	rec.EndStream()
	waitFor(t, "start 3", func() bool { return rec.Starts() == 3 && rec.Listening() })
	rec.Fail(errors.New("blip"))
	waitFor(t, "start 4", func() bool { return rec.Starts() == 4 && rec.Listening() })

	if r.endCount() != 0 {
		t.Error("window ended although failures were not consecutive")
	}
}

func TestInputEndStopsDelivery(t *testing.T) {
	rec := NewFakeRecognizer()
	r := &recorder{}
	in := NewInput(rec, DefaultInputConfig(), r.fragment, r.end)
	in.Begin()
	waitFor(t, "recognizer", rec.Listening)
	in.End()
	waitFor(t, "stop", func() bool { return !rec.Listening() })

	if rec.Say("too late") {
		t.Error("fake accepted a result with no stream")
	}
	if r.count() != 0 || r.endCount() != 0 {
		t.Errorf("frags=%d ends=%d after End", r.count(), r.endCount())
	}
	if in.Active() {
		t.Error("Active after End")
	}
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Result
		ok   bool
	}{
		{"interim", `{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":" hello "}]}}`, Result{Text: "hello"}, true},
		{"final", `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"hello world"}]}}`, Result{Text: "hello world", Final: true}, true},
		{"empty", `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":""}]}}`, Result{}, false},
		{"metadata", `{"type":"Metadata","request_id":"x"}`, Result{}, false},
		{"utterance end", `{"type":"UtteranceEnd"}`, Result{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := parseResult([]byte(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if ok != tt.ok || got != tt.want {
				t.Errorf("got %+v %v, want %+v %v", got, ok, tt.want, tt.ok)
			}
		})
	}

	if _, _, err := parseResult([]byte("{")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestDeepgramListenURL(t *testing.T) {
	d := NewDeepgram("key", audio.NewFakeContext(nil), nil)
	d.Language = "en-GB"
	u, err := d.listenURL()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"interim_results=true", "encoding=linear16", "sample_rate=16000", "language=en-GB", "model=nova-3"} {
		if !strings.Contains(u, want) {
			t.Errorf("url %q missing %q", u, want)
		}
	}
}

func TestDeepgramStream(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		ctx := r.Context()
		if typ, _, err := conn.Read(ctx); err != nil || typ != websocket.MessageBinary {
			t.Errorf("expected audio frame, got %v %v", typ, err)
			return
		}
		conn.Write(ctx, websocket.MessageText, []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"what is"}]}}`))
		conn.Write(ctx, websocket.MessageText, []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"what is REST"}]}}`))
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	d := NewDeepgram("secret", audio.NewFakeContext(make([]byte, 640)), nil)
	d.endpoint = "ws" + strings.TrimPrefix(srv.URL, "http")

	var mu sync.Mutex
	var results []Result
	err := d.Recognize(context.Background(), func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if gotAuth != "Token secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(results) != 2 || results[1] != (Result{Text: "what is REST", Final: true}) {
		t.Errorf("results = %+v", results)
	}
}

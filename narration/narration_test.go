package narration

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSayResolvesWhenDone(t *testing.T) {
	f := NewFake()
	p := NewPlayer(f)

	if err := <-p.Say(context.Background(), "Tell me about yourself"); err != nil {
		t.Fatalf("Say: %v", err)
	}
	if got := f.Spoken(); len(got) != 1 || got[0] != "Tell me about yourself" {
		t.Errorf("spoken = %v", got)
	}
	if p.Speaking() {
		t.Error("still speaking after completion")
	}
}

func TestSayEmptyTextResolvesImmediately(t *testing.T) {
	f := NewFake()
	p := NewPlayer(f)
	if err := <-p.Say(context.Background(), "   "); err != nil {
		t.Fatal(err)
	}
	if len(f.Spoken()) != 0 {
		t.Error("synthesizer called for empty text")
	}
}

func TestSayPreemptsPrevious(t *testing.T) {
	f := &Fake{Delay: time.Hour}
	p := NewPlayer(f)

	first := p.Say(context.Background(), "first")
	for deadline := time.Now().Add(2 * time.Second); len(f.Spoken()) == 0; {
		if time.Now().After(deadline) {
			t.Fatal("first utterance never started")
		}
		time.Sleep(time.Millisecond)
	}
	f.mu.Lock()
	f.Delay = 0
	f.mu.Unlock()
	second := p.Say(context.Background(), "second")

	select {
	case err := <-first:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("first err = %v, want canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first utterance not preempted")
	}
	if err := <-second; err != nil {
		t.Errorf("second err = %v", err)
	}
}

func TestCancelAll(t *testing.T) {
	p := NewPlayer(&Fake{Delay: time.Hour})
	done := p.Say(context.Background(), "a long question")
	p.CancelAll()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("CancelAll did not stop playback")
	}
	p.CancelAll()
}

func TestSynthesizerErrorPropagates(t *testing.T) {
	boom := errors.New("no audio device")
	p := NewPlayer(&Fake{Err: boom})
	if err := <-p.Say(context.Background(), "hi"); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestPacedDuration(t *testing.T) {
	p := &Paced{PerWord: 100 * time.Millisecond, Min: 250 * time.Millisecond}
	if d := p.Duration("one"); d != 250*time.Millisecond {
		t.Errorf("short text = %v", d)
	}
	if d := p.Duration("one two three four five"); d != 500*time.Millisecond {
		t.Errorf("five words = %v", d)
	}
}

func TestPacedHonoursCancel(t *testing.T) {
	p := &Paced{PerWord: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Speak(ctx, "hello there"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestDeepgramTTS(t *testing.T) {
	var gotBody, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody, gotQuery, gotAuth = string(b), r.URL.RawQuery, r.Header.Get("Authorization")
		w.Write([]byte{1, 0, 2, 0})
	}))
	defer srv.Close()

	var played []byte
	var rate int
	d := &DeepgramTTS{
		apiKey:   "k",
		Voice:    DefaultVoice,
		endpoint: srv.URL,
		client:   srv.Client(),
		play: func(_ context.Context, pcm []byte, r int) error {
			played, rate = pcm, r
			return nil
		},
	}

	if err := d.Speak(context.Background(), "What is REST?"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if !strings.Contains(gotBody, `"text":"What is REST?"`) {
		t.Errorf("body = %s", gotBody)
	}
	if !strings.Contains(gotQuery, "encoding=linear16") || !strings.Contains(gotQuery, "model="+DefaultVoice) {
		t.Errorf("query = %s", gotQuery)
	}
	if gotAuth != "Token k" {
		t.Errorf("auth = %q", gotAuth)
	}
	if len(played) != 4 || rate != speakSampleRate {
		t.Errorf("played %d bytes at %d", len(played), rate)
	}
}

func TestDeepgramTTSHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := &DeepgramTTS{endpoint: srv.URL, client: srv.Client(), play: func(context.Context, []byte, int) error {
		t.Error("play called on error")
		return nil
	}}
	if err := d.Speak(context.Background(), "hi"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v", err)
	}
}

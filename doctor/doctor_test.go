package doctor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interviewer/audio"
)

func TestPingBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	msg, err := pingBackend(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("pingBackend: %v", err)
	}
	if !strings.Contains(msg, srv.URL) {
		t.Errorf("msg = %q", msg)
	}
}

func TestPingBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := pingBackend(context.Background(), url); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestRMS(t *testing.T) {
	if rms(nil) != 0 {
		t.Error("rms of nothing not zero")
	}
	pcm := make([]byte, 200)
	if rms(pcm) != 0 {
		t.Error("rms of silence not zero")
	}
	for i := 0; i < 100; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(16384)))
	}
	if got := rms(pcm); got < 0.49 || got > 0.51 {
		t.Errorf("rms = %v, want 0.5", got)
	}
}

func TestSkipCarriesReason(t *testing.T) {
	err := fmt.Errorf("recognition: %w", skip("no key"))
	var s skipped
	if !errors.As(err, &s) || s.reason != "no key" {
		t.Fatalf("err = %v", err)
	}
}

func TestRecordFromFake(t *testing.T) {
	f := audio.NewFakeContext(make([]byte, 3200))
	pcm, err := record(f, nil, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if len(pcm) != 3200 {
		t.Errorf("recorded %d bytes", len(pcm))
	}
}

func TestToneSynthPlays(t *testing.T) {
	f := audio.NewFakeContext(nil)
	if err := (toneSynth{f}).Speak(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if p := f.Played(); len(p) != 1 || len(p[0]) != 24000 {
		t.Errorf("played = %d chunks", len(p))
	}
}

package audio

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestIsBluetooth(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"Bose QC35 II", true},
		{"USB Audio (BT)", true},
		{"Built-in Microphone", false},
		{"alsa_input.pci-0000_00_1f.3.analog-stereo", false},
	}
	for _, tt := range tests {
		if got := IsBluetooth(tt.name); got != tt.want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStep(t *testing.T) {
	up := []byte{0x1b, '[', 'A'}
	down := []byte{0x1b, '[', 'B'}

	c, done, cancel := step(down, 0, 3)
	if c != 1 || done || cancel {
		t.Fatalf("down: got %d %v %v", c, done, cancel)
	}
	if c, _, _ = step(down, 2, 3); c != 2 {
		t.Errorf("down at bottom moved to %d", c)
	}
	if c, _, _ = step(up, 0, 3); c != 0 {
		t.Errorf("up at top moved to %d", c)
	}
	if c, _, _ = step([]byte{'k'}, 2, 3); c != 1 {
		t.Errorf("k: got %d", c)
	}
	if _, done, _ = step([]byte{13}, 1, 3); !done {
		t.Error("enter did not confirm")
	}
	if _, _, cancel = step([]byte{3}, 1, 3); !cancel {
		t.Error("ctrl+c did not cancel")
	}
}

func TestDuration(t *testing.T) {
	pcm := make([]byte, 48000) // 24000 samples
	if d := Duration(pcm, 24000); d != 1 {
		t.Errorf("Duration = %v, want 1", d)
	}
	if d := Duration(pcm, 0); d != 0 {
		t.Errorf("Duration with zero rate = %v", d)
	}
}

func TestFakeCaptureDeliversChunks(t *testing.T) {
	pcm := make([]byte, 2000)
	ctx := NewFakeContext(pcm)
	dev, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: CaptureRate, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	total := 0
	got := make(chan struct{})
	dev.SetCallback(func(data []byte, _ uint32) {
		mu.Lock()
		total += len(data)
		if total == len(pcm) {
			close(got)
		}
		mu.Unlock()
	})
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("capture did not deliver all PCM")
	}
	dev.Stop()
	dev.Close()
}

func TestFakePlayRecordsAndCancels(t *testing.T) {
	f := NewFakeContext(nil)
	if err := f.Play(context.Background(), []byte{1, 2, 3, 4}, 24000); err != nil {
		t.Fatal(err)
	}
	if len(f.Played()) != 1 {
		t.Fatalf("played = %d", len(f.Played()))
	}

	f.PlayDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Play(ctx, []byte{1, 2}, 24000); err == nil {
		t.Error("expected cancellation error")
	}
}

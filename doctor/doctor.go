// Package doctor walks through the pieces an interview depends on and
// reports which ones work on this machine.
package doctor

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"interviewer/audio"
	"interviewer/backend"
	"interviewer/clipboard"
	"interviewer/hotkey"
	"interviewer/narration"
	"interviewer/speech"
)

type Options struct {
	BackendURL  string
	DeepgramKey string
	Device      string // capture device name; empty = system default
}

type check struct {
	name string
	run  func(*runner) error
}

type runner struct {
	opts   Options
	in     *bufio.Reader
	audio  audio.Context
	device *audio.DeviceInfo
}

// Run executes the checks in order and returns an exit code (0 = all pass).
func Run(opts Options) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("interviewer doctor - system diagnostics")
	fmt.Println("=======================================")

	r := &runner{opts: opts, in: bufio.NewReader(os.Stdin)}
	defer func() {
		if r.audio != nil {
			r.audio.Close()
		}
	}()

	checks := []check{
		{"Interview backend", (*runner).checkBackend},
		{"Global hotkey", (*runner).checkHotkey},
		{"Microphone", (*runner).checkMicrophone},
		{"Speech recognition", (*runner).checkRecognition},
		{"Speech playback", (*runner).checkPlayback},
		{"Clipboard", (*runner).checkClipboard},
	}

	failed := 0
	for i, c := range checks {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(checks), c.name)
		if err := c.run(r); err != nil {
			var s skipped
			if errors.As(err, &s) {
				fmt.Printf("  SKIP: %s\n", s.reason)
				continue
			}
			fmt.Printf("  FAIL: %v\n", err)
			failed++
		}
	}

	fmt.Println()
	if failed > 0 {
		fmt.Printf("%d check(s) failed. See details above.\n", failed)
		return 1
	}
	fmt.Println("All checks passed!")
	return 0
}

type skipped struct{ reason string }

func (s skipped) Error() string { return "skipped: " + s.reason }

func skip(reason string) error { return skipped{reason} }

func (r *runner) checkBackend() error {
	msg, err := pingBackend(context.Background(), r.opts.BackendURL)
	if err != nil {
		return err
	}
	fmt.Printf("  PASS: %s\n", msg)
	return nil
}

func pingBackend(ctx context.Context, url string) (string, error) {
	c := backend.New(url, 5*time.Second)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := c.Ping(ctx); err != nil {
		return "", fmt.Errorf("cannot reach %s: %w", c.URL(), err)
	}
	return fmt.Sprintf("%s answered in %dms", c.URL(), time.Since(start).Milliseconds()), nil
}

func (r *runner) checkHotkey() error {
	msg, err := hotkey.Diagnose()
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", msg)

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		return fmt.Errorf("could not register hotkey: %w", err)
	}
	defer hk.Unregister()

	fmt.Printf("  Press %s...\n", hotkey.Combo)
	select {
	case <-hk.Pressed():
		resetTerminal()
		fmt.Println("  PASS: hotkey detected")
		return nil
	case <-time.After(10 * time.Second):
		return errors.New("timeout waiting for hotkey")
	}
}

func (r *runner) openAudio() error {
	if r.audio != nil {
		return nil
	}
	actx, err := audio.NewContext()
	if err != nil {
		return fmt.Errorf("cannot connect to audio: %w", err)
	}
	r.audio = actx

	if r.opts.Device == "" {
		return nil
	}
	devices, err := actx.Devices()
	if err != nil {
		return fmt.Errorf("cannot list devices: %w", err)
	}
	for i := range devices {
		if devices[i].Name == r.opts.Device {
			r.device = &devices[i]
			return nil
		}
	}
	return fmt.Errorf("device %q not found", r.opts.Device)
}

func (r *runner) checkMicrophone() error {
	if err := r.openAudio(); err != nil {
		return err
	}
	name := "system default"
	if r.device != nil {
		name = r.device.Name
	}
	fmt.Printf("  Using %s\n", name)
	fmt.Print("  Press Enter and speak for 3 seconds...")
	r.in.ReadString('\n')

	pcm, err := record(r.audio, r.device, 3*time.Second)
	if err != nil {
		return fmt.Errorf("recording error: %w", err)
	}
	if len(pcm) == 0 {
		return errors.New("no audio captured")
	}
	level := rms(pcm)
	fmt.Printf("  Captured %.1fs, level %.3f\n", audio.Duration(pcm, audio.CaptureRate), level)
	if level < 0.005 {
		return errors.New("input is silent; check the selected device and its volume")
	}
	fmt.Println("  PASS: microphone picks up sound")
	return nil
}

func (r *runner) checkRecognition() error {
	if r.opts.DeepgramKey == "" {
		return skip("DEEPGRAM_API_KEY not set, answers will be typed")
	}
	if err := r.openAudio(); err != nil {
		return err
	}

	fmt.Print("  Press Enter and say a short sentence...")
	r.in.ReadString('\n')

	rec := speech.NewDeepgram(r.opts.DeepgramKey, r.audio, r.device)
	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	defer cancel()

	var mu sync.Mutex
	var heard []string
	err := rec.Recognize(ctx, func(res speech.Result) {
		if res.Final {
			mu.Lock()
			heard = append(heard, res.Text)
			mu.Unlock()
		}
	})
	if err != nil {
		return err
	}

	mu.Lock()
	text := strings.Join(heard, " ")
	mu.Unlock()
	if text == "" {
		return errors.New("no speech recognized")
	}
	fmt.Printf("  Heard: %s\n", text)
	if !r.confirm("Is this correct?") {
		return errors.New("recognition not confirmed")
	}
	fmt.Println("  PASS: recognition verified")
	return nil
}

func (r *runner) checkPlayback() error {
	if err := r.openAudio(); err != nil {
		return err
	}

	var synth narration.Synthesizer
	if r.opts.DeepgramKey != "" {
		synth = narration.NewDeepgramTTS(r.opts.DeepgramKey, r.audio)
	} else {
		fmt.Println("  DEEPGRAM_API_KEY not set, playing a tone instead")
		synth = toneSynth{r.audio}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := <-narration.NewPlayer(synth).Say(ctx, "Tell me about yourself."); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	if !r.confirm("Did you hear it?") {
		return errors.New("playback not confirmed")
	}
	fmt.Println("  PASS: playback verified")
	return nil
}

func (r *runner) checkClipboard() error {
	if !clipboard.Available() {
		return clipboard.ErrUnsupported
	}
	const probe = "interviewer-doctor-test"
	if err := clipboard.Copy(probe); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	got, err := clipboard.Read()
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if got != probe {
		return fmt.Errorf("read back %q, want %q", got, probe)
	}
	fmt.Println("  PASS: feedback can be copied")
	return nil
}

func (r *runner) confirm(question string) bool {
	resetTerminal()
	fmt.Printf("  %s [y/n]: ", question)
	answer, _ := r.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func record(actx audio.Context, device *audio.DeviceInfo, d time.Duration) ([]byte, error) {
	capture, err := actx.NewCapture(device, audio.CaptureConfig{SampleRate: audio.CaptureRate, Channels: 1})
	if err != nil {
		return nil, err
	}
	defer capture.Close()

	var mu sync.Mutex
	var pcm []byte
	capture.SetCallback(func(data []byte, _ uint32) {
		mu.Lock()
		pcm = append(pcm, data...)
		mu.Unlock()
	})
	if err := capture.Start(); err != nil {
		return nil, err
	}

	fmt.Print("  Recording")
	ticker := time.NewTicker(500 * time.Millisecond)
	deadline := time.After(d)
loop:
	for {
		select {
		case <-ticker.C:
			fmt.Print(".")
		case <-deadline:
			break loop
		}
	}
	ticker.Stop()
	capture.Stop()
	capture.ClearCallback()
	fmt.Println(" done")

	mu.Lock()
	defer mu.Unlock()
	return pcm, nil
}

// rms is the root-mean-square level of s16le PCM, normalised to 0..1.
func rms(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) / 32768.0
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

// toneSynth stands in for TTS when no key is configured.
type toneSynth struct{ audio audio.Context }

func (toneSynth) Name() string { return "tone" }

func (t toneSynth) Speak(ctx context.Context, _ string) error {
	const rate = 24000
	n := rate / 2
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16(math.Sin(2*math.Pi*440*float64(i)/rate) * 0.3 * 32767)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return t.audio.Play(ctx, pcm, rate)
}

// Package beep plays short cues when the microphone opens or closes.
package beep

import (
	"context"
	"math"
	"sync"
	"time"

	"interviewer/audio"
)

const (
	sampleRate = 24000

	// open: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// close: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var (
	mu       sync.Mutex
	player   audio.Context
	disabled bool

	startSamples []byte
	endSamples   []byte
	errorSamples []byte
	soundOnce    sync.Once
)

func Disable() {
	mu.Lock()
	disabled = true
	mu.Unlock()
}

// Init sets the output used for cues. Without it every Play call is a no-op.
func Init(actx audio.Context) {
	soundOnce.Do(initSound)
	mu.Lock()
	player = actx
	mu.Unlock()
}

func initSound() {
	startSamples = tick(startFreq, 0.06, startVolume, startDecay)
	endSamples = tick(endFreq, 0.08, endVolume, endDecay)
	errorSamples = doubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
}

func tick(freq, duration, volume, decay float64) []byte {
	n := int(sampleRate * duration)
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		s := int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

func doubleBeep(freq, beepDur, gapDur, volume, decay float64) []byte {
	b := tick(freq, beepDur, volume, decay)
	gap := make([]byte, int(sampleRate*gapDur)*2)
	out := make([]byte, 0, len(b)*2+len(gap))
	out = append(out, b...)
	out = append(out, gap...)
	return append(out, b...)
}

func play(samples []byte) {
	mu.Lock()
	p, off := player, disabled
	mu.Unlock()
	if p == nil || off || len(samples) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		p.Play(ctx, samples, sampleRate)
	}()
}

func PlayStart() { play(startSamples) }

func PlayEnd() { play(endSamples) }

func PlayError() { play(errorSamples) }

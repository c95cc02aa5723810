// Package audio captures microphone PCM and plays back synthesized speech.
// All samples are signed 16-bit little-endian mono.
package audio

import (
	"context"
	"errors"
	"strings"
)

const (
	CaptureRate    = 16000
	BytesPerSample = 2
)

var ErrNoDevice = errors.New("no capture devices found")

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "plantronics", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether capture goes over a
// headset profile, which drops the mic to 8-16 kHz narrowband.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	// Play blocks until pcm has been played or ctx is done.
	Play(ctx context.Context, pcm []byte, sampleRate int) error
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}

// Duration returns how long pcm takes to play at sampleRate.
func Duration(pcm []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(pcm)/BytesPerSample) / float64(sampleRate)
}

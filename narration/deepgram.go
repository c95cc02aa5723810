package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"interviewer/audio"
	"interviewer/log"
)

const (
	deepgramSpeakURL = "https://api.deepgram.com/v1/speak"
	speakSampleRate  = 24000
	DefaultVoice     = "aura-2-thalia-en"
)

type playFunc func(ctx context.Context, pcm []byte, sampleRate int) error

// DeepgramTTS fetches raw linear16 audio from Deepgram Aura and plays it.
type DeepgramTTS struct {
	apiKey   string
	Voice    string
	endpoint string
	client   *http.Client
	play     playFunc
}

func NewDeepgramTTS(apiKey string, actx audio.Context) *DeepgramTTS {
	return &DeepgramTTS{
		apiKey:   apiKey,
		Voice:    DefaultVoice,
		endpoint: deepgramSpeakURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		play:     actx.Play,
	}
}

func (d *DeepgramTTS) Name() string { return "deepgram-aura" }

func (d *DeepgramTTS) Speak(ctx context.Context, text string) error {
	pcm, err := d.synthesize(ctx, text)
	if err != nil {
		return err
	}
	return d.play(ctx, pcm, speakSampleRate)
}

func (d *DeepgramTTS) synthesize(ctx context.Context, text string) ([]byte, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("model", d.Voice)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", speakSampleRate))
	q.Set("container", "none")
	u.RawQuery = q.Encode()

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram speak: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepgram speak: %w", err)
	}
	log.Request("speak", resp.StatusCode, log.RequestTimings{TotalMs: float64(time.Since(start).Microseconds()) / 1000})

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram speak: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(pcm))
	}
	return pcm, nil
}

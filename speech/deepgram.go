package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"

	"interviewer/audio"
)

const (
	deepgramListenURL = "wss://api.deepgram.com/v1/listen"
	keepAliveInterval = 5 * time.Second
)

var errStreamClosed = errors.New("stream closed by server")

// Deepgram streams microphone audio to Deepgram's live transcription API.
type Deepgram struct {
	apiKey   string
	audio    audio.Context
	device   *audio.DeviceInfo
	Language string
	Model    string
	endpoint string
}

func NewDeepgram(apiKey string, actx audio.Context, device *audio.DeviceInfo) *Deepgram {
	return &Deepgram{
		apiKey:   apiKey,
		audio:    actx,
		device:   device,
		Language: "en-US",
		Model:    "nova-3",
		endpoint: deepgramListenURL,
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) listenURL() (string, error) {
	endpoint, err := url.Parse(d.endpoint)
	if err != nil {
		return "", err
	}
	q := endpoint.Query()
	q.Set("model", d.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", audio.CaptureRate))
	q.Set("channels", "1")
	q.Set("interim_results", "true")
	q.Set("smart_format", "true")
	if d.Language != "" {
		q.Set("language", d.Language)
	}
	endpoint.RawQuery = q.Encode()
	return endpoint.String(), nil
}

func (d *Deepgram) Recognize(ctx context.Context, emit func(Result)) error {
	u, err := d.listenURL()
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	dialCtx, cancelDial := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, u, &websocket.DialOptions{HTTPHeader: headers})
	cancelDial()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("deepgram dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	capture, err := d.audio.NewCapture(d.device, audio.CaptureConfig{SampleRate: audio.CaptureRate, Channels: 1})
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	defer capture.Close()

	frames := make(chan []byte, 64)
	capture.SetCallback(func(data []byte, _ uint32) {
		select {
		case frames <- data:
		default:
		}
	})
	defer capture.ClearCallback()

	if err := capture.Start(); err != nil {
		return fmt.Errorf("start microphone: %w", err)
	}
	defer capture.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case pcm := <-frames:
				if err := conn.Write(gctx, websocket.MessageBinary, pcm); err != nil {
					return err
				}
			case <-keepAlive.C:
				if err := conn.Write(gctx, websocket.MessageText, []byte(`{"type":"KeepAlive"}`)); err != nil {
					return err
				}
			}
		}
	})

	g.Go(func() error {
		for {
			_, data, err := conn.Read(gctx)
			if err != nil {
				if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
					return errStreamClosed
				}
				return err
			}
			r, ok, err := parseResult(data)
			if err != nil {
				return err
			}
			if ok {
				emit(r)
			}
		}
	})

	err = g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	conn.Write(closeCtx, websocket.MessageText, []byte(`{"type":"CloseStream"}`))
	cancel()

	if ctx.Err() != nil || errors.Is(err, errStreamClosed) {
		return nil
	}
	return err
}

type deepgramResponse struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// parseResult extracts a transcript hypothesis from one server message.
// Metadata, SpeechStarted and UtteranceEnd messages and empty transcripts
// are skipped.
func parseResult(data []byte) (Result, bool, error) {
	var resp deepgramResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Result{}, false, fmt.Errorf("deepgram response: %w", err)
	}
	if resp.Type != "" && resp.Type != "Results" {
		return Result{}, false, nil
	}
	if len(resp.Channel.Alternatives) == 0 {
		return Result{}, false, nil
	}
	text := strings.TrimSpace(resp.Channel.Alternatives[0].Transcript)
	if text == "" {
		return Result{}, false, nil
	}
	return Result{Text: text, Final: resp.IsFinal}, true, nil
}

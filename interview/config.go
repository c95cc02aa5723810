package interview

import (
	"time"

	"interviewer/silence"
	"interviewer/speech"
)

const (
	DefaultListenDelay    = 500 * time.Millisecond
	DefaultSubmitPause    = 1500 * time.Millisecond
	DefaultRequestTimeout = 60 * time.Second

	DefaultFeedbackFallback = "No feedback received."
	DefaultClosingRemark    = "Your final interview feedback report is ready."
	DefaultFinalQuestion    = "Interview complete."
)

type Config struct {
	SilenceTimeout time.Duration
	// ListenDelay is how long after entering LISTENING capture opens, so
	// the tail of the narration is not picked up.
	ListenDelay    time.Duration
	SubmitPause    time.Duration
	RequestTimeout time.Duration

	FeedbackFallback string
	ClosingRemark    string

	// AutoListen opens the microphone whenever an answer is expected.
	// When false the candidate turns it on with ToggleMic.
	AutoListen bool

	Speech speech.InputConfig
}

func DefaultConfig() Config {
	return Config{
		SilenceTimeout:   silence.DefaultTimeout,
		ListenDelay:      DefaultListenDelay,
		SubmitPause:      DefaultSubmitPause,
		RequestTimeout:   DefaultRequestTimeout,
		FeedbackFallback: DefaultFeedbackFallback,
		ClosingRemark:    DefaultClosingRemark,
		AutoListen:       true,
		Speech:           speech.DefaultInputConfig(),
	}
}

func (c Config) withDefaults() Config {
	if c.SilenceTimeout <= 0 {
		c.SilenceTimeout = silence.DefaultTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ListenDelay < 0 {
		c.ListenDelay = 0
	}
	if c.SubmitPause < 0 {
		c.SubmitPause = 0
	}
	if c.FeedbackFallback == "" {
		c.FeedbackFallback = DefaultFeedbackFallback
	}
	return c
}

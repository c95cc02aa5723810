// Package interview runs the turn-taking loop of one mock interview: it
// asks the backend for questions, narrates them, listens for the answer and
// submits it when the candidate stops talking.
package interview

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"interviewer/backend"
	"interviewer/log"
	"interviewer/narration"
	"interviewer/silence"
	"interviewer/speech"
	"interviewer/transcript"
)

type Backend interface {
	Start(ctx context.Context, role string) (string, error)
	Next(ctx context.Context, req backend.NextRequest) (backend.NextResponse, error)
	Feedback(ctx context.Context, role string, history []string) (string, error)
}

// Coordinator owns the session state. All fields below events are touched
// only from the Run goroutine; everything else reaches them by posting a
// closure.
type Coordinator struct {
	cfg        Config
	backend    Backend
	input      *speech.Input
	player     *narration.Player
	ui         UI
	transcript *transcript.Transcript
	recName    string

	events  chan func()
	done    chan struct{}
	current atomic.Int32

	state         State
	role          string
	session       uint64
	sessionCtx    context.Context
	sessionCancel context.CancelFunc
	inFlight      bool

	micOn       bool
	capturing   bool
	captureTok  uint64
	window      uint64
	finalized   string
	listenTimer *time.Timer
	detector    *silence.Detector
}

// New builds a coordinator. rec may be nil when no recognizer is available;
// answers are then typed only.
func New(cfg Config, b Backend, rec speech.Recognizer, synth narration.Synthesizer, ui UI) *Coordinator {
	if synth == nil {
		synth = &narration.Paced{}
	}
	c := &Coordinator{
		cfg:        cfg.withDefaults(),
		backend:    b,
		player:     narration.NewPlayer(synth),
		ui:         ui,
		transcript: transcript.New(),
		events:     make(chan func(), 64),
		done:       make(chan struct{}),
		micOn:      cfg.AutoListen,
		recName:    "none",
	}
	if rec != nil {
		c.recName = rec.Name()
		c.input = speech.NewInput(rec, c.cfg.Speech, c.onFragment, c.onCaptureEnd)
	} else {
		log.Warnf("%v: answers must be typed", ErrSpeechUnsupported)
	}
	c.sessionCtx, c.sessionCancel = context.WithCancel(context.Background())
	return c
}

// Run processes commands until ctx is done. It must be called exactly once.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.done)
	defer c.shutdown()

	c.ui.SetInputEnabled(false)
	c.ui.SetMic(c.input != nil, false)
	c.ui.SetStatus("Choose a role and start the interview to begin.")

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-c.events:
			fn()
		}
	}
}

func (c *Coordinator) shutdown() {
	c.closeCapture()
	c.player.CancelAll()
	c.sessionCancel()
	if c.state != Idle && c.state != Complete {
		log.SessionEnd(c.transcript.Len())
	}
}

func (c *Coordinator) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

// Start begins an interview for role. Ignored unless the session is idle.
func (c *Coordinator) Start(role string) { c.post(func() { c.start(role) }) }

// Submit sends a typed (or edited) answer.
func (c *Coordinator) Submit(text string) { c.post(func() { c.submit(text) }) }

// ToggleMic turns speech capture off or on for the current and later turns.
func (c *Coordinator) ToggleMic() { c.post(c.toggleMic) }

// Reset abandons the current session and returns to IDLE.
func (c *Coordinator) Reset() { c.post(c.reset) }

func (c *Coordinator) State() State { return State(c.current.Load()) }

func (c *Coordinator) Transcript() []transcript.Turn { return c.transcript.Turns() }

func (c *Coordinator) SpeechSupported() bool { return c.input != nil }

func (c *Coordinator) setState(s State) {
	if s == c.state {
		return
	}
	log.State(c.state.String(), s.String())
	c.state = s
	c.current.Store(int32(s))
}

func (c *Coordinator) appendTurn(speaker transcript.Speaker, text string) {
	c.transcript.Append(speaker, text)
	log.Turn(speaker.String(), text)
}

func (c *Coordinator) start(role string) {
	if c.state != Idle {
		log.Warnf("start ignored in %s", c.state)
		return
	}
	role = strings.TrimSpace(role)
	if role == "" {
		c.ui.SetStatus("Choose a role to begin.")
		return
	}

	c.role = role
	c.transcript.Reset()
	c.ui.Clear()
	c.setState(AwaitingFirstQuestion)
	c.ui.SetInputEnabled(false)
	c.ui.Message(System, "Starting interview for: "+strings.ToUpper(RoleTitle(role)))
	c.ui.SetStatus("Preparing interview for " + RoleTitle(role) + "...")
	log.SessionStart(role, c.recName, c.player.Name())

	sess, ctx := c.session, c.sessionCtx
	go func() {
		rctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		q, err := c.backend.Start(rctx, role)
		cancel()
		c.post(func() { c.onStarted(sess, q, err) })
	}()
}

func (c *Coordinator) onStarted(sess uint64, question string, err error) {
	if sess != c.session || c.state != AwaitingFirstQuestion {
		return
	}
	question = strings.TrimSpace(question)
	if err == nil && question == "" {
		err = errors.New("backend returned no question")
	}
	if err != nil {
		log.Errorf("start interview: %v", err)
		log.Capture(err)
		c.ui.SetStatus("Error starting interview. Please check the backend.")
		c.setState(Idle)
		return
	}

	c.ui.Message(Interviewer, question)
	c.narrate(sess, question, func() {
		c.appendTurn(transcript.Interviewer, question)
		c.enterListening()
	})
}

// narrate speaks text and runs then on the loop once playback ends,
// unless the session changed meanwhile.
func (c *Coordinator) narrate(sess uint64, text string, then func()) {
	done := c.player.Say(c.sessionCtx, text)
	go func() {
		err := <-done
		c.post(func() {
			if sess != c.session {
				return
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warnf("narration: %v", err)
			}
			if then != nil {
				then()
			}
		})
	}()
}

func (c *Coordinator) enterListening() {
	c.setState(Listening)
	c.inFlight = false
	c.ui.SetInputEnabled(true)

	switch {
	case c.input == nil:
		c.ui.SetMic(false, false)
		c.ui.SetStatus("Your turn. Type your answer.")
	case !c.micOn:
		c.ui.SetMic(true, false)
		c.ui.SetStatus("Your turn. Answer when ready.")
	default:
		c.openCapture()
	}
}

// openCapture (re)starts a listening window after ListenDelay.
func (c *Coordinator) openCapture() {
	c.closeCapture()
	c.capturing = true
	c.finalized = ""
	tok := c.captureTok

	c.ui.SetDraft("")
	c.ui.SetMic(true, true)
	c.ui.SetStatus("Listening...")

	if c.cfg.ListenDelay > 0 {
		c.listenTimer = time.AfterFunc(c.cfg.ListenDelay, func() {
			c.post(func() { c.beginWindow(tok) })
		})
		return
	}
	c.beginWindow(tok)
}

func (c *Coordinator) beginWindow(tok uint64) {
	if tok != c.captureTok || !c.capturing || c.state != Listening {
		return
	}
	c.listenTimer = nil
	c.window = c.input.Begin()
	c.detector = silence.New(c.cfg.SilenceTimeout, func() {
		// Runs under the detector lock; hop off it before touching the loop.
		go c.post(func() { c.onSilence(tok) })
	})
}

// closeCapture stops speech input and the silence countdown. Anything they
// have already posted is dropped by the token and window checks.
func (c *Coordinator) closeCapture() {
	if c.listenTimer != nil {
		c.listenTimer.Stop()
		c.listenTimer = nil
	}
	if c.detector != nil {
		c.detector.Cancel()
		c.detector = nil
	}
	if c.capturing && c.input != nil {
		c.input.End()
	}
	c.capturing = false
	c.window = 0
	c.captureTok++
}

func (c *Coordinator) onFragment(f speech.Fragment) {
	c.post(func() {
		if !c.capturing || f.Window != c.window || c.state != Listening {
			return
		}
		c.finalized = f.Finalized
		c.ui.SetDraft(f.Display())
		if c.detector != nil {
			c.detector.Notify()
		}
	})
}

func (c *Coordinator) onSilence(tok uint64) {
	if tok != c.captureTok || !c.capturing || c.state != Listening {
		return
	}
	c.submit(c.finalized)
}

func (c *Coordinator) onCaptureEnd(window uint64, err error) {
	c.post(func() {
		if !c.capturing || window != c.window {
			return
		}
		log.Errorf("speech input stopped: %v", err)
		log.Capture(err)
		c.closeCapture()
		c.micOn = false
		c.ui.SetMic(true, false)
		c.ui.SetStatus("Microphone error, type your answer instead.")
	})
}

func (c *Coordinator) toggleMic() {
	if c.input == nil {
		c.ui.SetMic(false, false)
		c.ui.SetStatus("Voice recognition not supported. Type your answer.")
		return
	}
	if c.state == Complete {
		return
	}
	c.micOn = !c.micOn
	if c.state != Listening || c.inFlight {
		c.ui.SetMic(true, false)
		return
	}
	if c.micOn {
		c.openCapture()
		return
	}
	c.closeCapture()
	c.ui.SetMic(true, false)
	c.ui.SetStatus("Microphone off. Type your answer.")
}

func (c *Coordinator) submit(text string) {
	if c.state != Listening || c.inFlight {
		log.Infof("submit ignored in %s", c.state)
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Infof("submit: %v", ErrEmptyAnswer)
		if c.capturing {
			c.openCapture()
		}
		return
	}

	c.inFlight = true
	c.closeCapture()
	c.setState(Submitting)

	c.ui.Message(Candidate, text)
	c.ui.SetDraft("")
	c.appendTurn(transcript.Candidate, text)
	c.ui.SetInputEnabled(false)
	c.ui.SetMic(c.input != nil, false)
	c.ui.SetStatus("Processing your response...")

	req := backend.NextRequest{
		Role:       c.role,
		UserAnswer: text,
		History:    c.transcript.History(),
	}
	sess, ctx := c.session, c.sessionCtx
	go c.roundTrip(ctx, sess, req)
}

// roundTrip asks for the next question and the running feedback together.
// Only a /next failure fails the turn.
func (c *Coordinator) roundTrip(ctx context.Context, sess uint64, req backend.NextRequest) {
	if c.cfg.SubmitPause > 0 {
		t := time.NewTimer(c.cfg.SubmitPause)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}

	var next backend.NextResponse
	feedback := c.cfg.FeedbackFallback

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rctx, cancel := context.WithTimeout(gctx, c.cfg.RequestTimeout)
		defer cancel()
		resp, err := c.backend.Next(rctx, req)
		if err != nil {
			return err
		}
		next = resp
		return nil
	})
	g.Go(func() error {
		rctx, cancel := context.WithTimeout(gctx, c.cfg.RequestTimeout)
		defer cancel()
		report, err := c.backend.Feedback(rctx, req.Role, req.History)
		if err != nil {
			log.Warnf("feedback: %v", err)
			return nil
		}
		if strings.TrimSpace(report) != "" {
			feedback = report
		}
		return nil
	})
	err := g.Wait()

	c.post(func() { c.onAnswered(sess, next, feedback, err) })
}

func (c *Coordinator) onAnswered(sess uint64, next backend.NextResponse, feedback string, err error) {
	if sess != c.session || c.state != Submitting {
		return
	}
	if err != nil {
		log.Errorf("next question: %v", err)
		log.Capture(err)
		c.ui.Message(System, "Connection error: Could not reach the interview bot.")
		c.enterListening()
		c.ui.SetStatus("Connection error. Try again.")
		return
	}

	question := strings.TrimSpace(next.Question)
	if question == "" {
		question = DefaultFinalQuestion
	}
	c.appendTurn(transcript.Interviewer, question)
	c.ui.Message(Interviewer, question)

	if next.Done() {
		c.complete(sess, question, feedback)
		return
	}

	c.ui.ShowFeedback(feedback, false)
	c.narrate(sess, question, c.enterListening)
}

func (c *Coordinator) complete(sess uint64, question, feedback string) {
	c.setState(Complete)
	c.closeCapture()
	c.inFlight = false

	c.ui.SetMic(false, false)
	c.ui.SetInputEnabled(false)
	c.ui.SetStatus("Interview complete. Final feedback below.")
	c.ui.ShowFeedback(feedback, true)
	log.SessionEnd(c.transcript.Len())

	c.narrate(sess, question, func() {
		if c.cfg.ClosingRemark != "" {
			c.player.Say(c.sessionCtx, c.cfg.ClosingRemark)
		}
	})
}

func (c *Coordinator) reset() {
	if c.state != Idle && c.state != Complete {
		log.SessionEnd(c.transcript.Len())
	}

	c.session++
	c.sessionCancel()
	c.sessionCtx, c.sessionCancel = context.WithCancel(context.Background())

	c.closeCapture()
	c.player.CancelAll()
	c.transcript.Reset()
	c.inFlight = false
	c.role = ""
	c.micOn = c.cfg.AutoListen
	c.setState(Idle)

	c.ui.Clear()
	c.ui.SetInputEnabled(false)
	c.ui.SetMic(c.input != nil, false)
	c.ui.SetStatus("Choose a role and start the interview to begin.")
}

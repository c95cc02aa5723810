package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"interviewer/beep"
	"interviewer/interview"
	"interviewer/narration"
	"interviewer/speech"
)

const (
	testWaitTimeout   = 30 * time.Second
	testListenTimeout = 5 * time.Second
)

// lineUI prints every UI update as one line, for scripted runs.
type lineUI struct {
	mu  sync.Mutex
	out io.Writer
}

func (u *lineUI) printf(format string, args ...any) {
	u.mu.Lock()
	fmt.Fprintf(u.out, format+"\n", args...)
	u.mu.Unlock()
}

func (u *lineUI) Message(kind interview.MessageKind, text string) {
	u.printf("MESSAGE %s: %s", kind, text)
}

func (u *lineUI) SetDraft(text string) { u.printf("DRAFT %s", text) }

func (u *lineUI) SetInputEnabled(enabled bool) { u.printf("INPUT %t", enabled) }

func (u *lineUI) SetMic(available, listening bool) {
	u.printf("MIC available=%t listening=%t", available, listening)
}

func (u *lineUI) SetStatus(text string) { u.printf("STATUS %s", text) }

func (u *lineUI) ShowFeedback(report string, final bool) {
	kind := "live"
	if final {
		kind = "final"
	}
	u.printf("FEEDBACK %s: %s", kind, strings.ReplaceAll(report, "\n", " "))
}

func (u *lineUI) Clear() { u.printf("CLEAR") }

// runTestMode drives a coordinator from commands on in, one per line:
//
//	START <role>      start an interview
//	HEAR <text>       recognizer hears a finalized phrase
//	PARTIAL <text>    recognizer hears an interim phrase
//	SUBMIT <text>     type and send an answer
//	MIC               toggle the microphone
//	RESET             abandon the session
//	WAIT <STATE>      block until the coordinator reaches STATE
//	SLEEP <ms>
//	QUIT
//
// Speech comes from a fake recognizer and questions are "spoken" with a
// short paced delay. The exit code is non-zero if a command fails.
func runTestMode(ctx context.Context, cfg interview.Config, b interview.Backend, in io.Reader, out io.Writer) int {
	beep.Disable()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rec := speech.NewFakeRecognizer()
	synth := &narration.Paced{PerWord: 5 * time.Millisecond, Min: 20 * time.Millisecond}
	ui := &lineUI{out: out}
	coord := interview.New(cfg, b, rec, synth, ui)

	done := make(chan struct{})
	go func() {
		coord.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToUpper(cmd) {
		case "START":
			coord.Start(arg)
		case "HEAR", "PARTIAL":
			if !waitFor(ctx, testListenTimeout, rec.Listening) {
				ui.printf("ERROR %s: recognizer is not listening", cmd)
				return 1
			}
			if strings.ToUpper(cmd) == "HEAR" {
				rec.Say(arg)
			} else {
				rec.Partial(arg)
			}
		case "SUBMIT":
			coord.Submit(arg)
		case "MIC":
			coord.ToggleMic()
		case "RESET":
			coord.Reset()
		case "WAIT":
			want, ok := parseState(arg)
			if !ok {
				ui.printf("ERROR unknown state %q", arg)
				return 1
			}
			if !waitFor(ctx, testWaitTimeout, func() bool { return coord.State() == want }) {
				ui.printf("ERROR timeout waiting for %s (in %s)", want, coord.State())
				return 1
			}
		case "SLEEP":
			ms, err := strconv.Atoi(arg)
			if err != nil {
				ui.printf("ERROR bad SLEEP %q", arg)
				return 1
			}
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
			}
		case "QUIT":
			return 0
		default:
			ui.printf("ERROR unknown command %q", cmd)
			return 1
		}
		if ctx.Err() != nil {
			return 1
		}
	}
	if err := scanner.Err(); err != nil {
		ui.printf("ERROR reading commands: %v", err)
		return 1
	}
	return 0
}

func parseState(name string) (interview.State, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for s := interview.Idle; s <= interview.Complete; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

func waitFor(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for !cond() {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
		}
	}
	return true
}

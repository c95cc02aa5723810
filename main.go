package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"interviewer/audio"
	"interviewer/backend"
	"interviewer/beep"
	"interviewer/doctor"
	"interviewer/hotkey"
	"interviewer/interview"
	"interviewer/log"
	"interviewer/narration"
	"interviewer/shutdown"
	"interviewer/silence"
	"interviewer/speech"
)

var version = "dev"

type options struct {
	backendURL  string
	role        string
	setup       bool
	device      string
	silence     time.Duration
	listenDelay time.Duration
	submitPause time.Duration
	lang        string
	voice       string
	noMic       bool
	noTTS       bool
	hotkey      bool
	logPath     string
	doctor      bool
	test        bool
	version     bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	defURL := os.Getenv("INTERVIEW_BACKEND_URL")
	if defURL == "" {
		defURL = backend.DefaultURL
	}
	fs.StringVar(&o.backendURL, "backend", defURL, "Interview backend base URL")
	fs.StringVar(&o.role, "role", "", "Interview role, e.g. backend_engineer (default: ask)")
	fs.BoolVar(&o.setup, "setup", false, "Pick role and microphone interactively")
	fs.StringVar(&o.device, "device", "", "Use named microphone device")
	fs.DurationVar(&o.silence, "silence", silence.DefaultTimeout, "Pause after speech that submits the answer")
	fs.DurationVar(&o.listenDelay, "listen-delay", interview.DefaultListenDelay, "Delay before the microphone opens after a question")
	fs.DurationVar(&o.submitPause, "submit-pause", interview.DefaultSubmitPause, "Pause before an answer is sent to the backend")
	fs.StringVar(&o.lang, "lang", "en-US", "Recognition language")
	fs.StringVar(&o.voice, "voice", narration.DefaultVoice, "Deepgram voice used to read questions")
	fs.BoolVar(&o.noMic, "nomic", false, "Disable speech recognition; answers are typed")
	fs.BoolVar(&o.noTTS, "notts", false, "Do not speak questions aloud")
	fs.BoolVar(&o.hotkey, "hotkey", false, "Toggle the microphone with a global "+hotkey.Combo)
	fs.StringVar(&o.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.BoolVar(&o.doctor, "doctor", false, "Run system diagnostics and exit")
	fs.BoolVar(&o.test, "test", false, "Test mode (headless, stdin-driven)")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	err := fs.Parse(args)
	return o, err
}

func (o options) interviewConfig() interview.Config {
	cfg := interview.DefaultConfig()
	cfg.SilenceTimeout = o.silence
	cfg.ListenDelay = o.listenDelay
	cfg.SubmitPause = o.submitPause
	return cfg
}

func run() {
	// A missing .env is fine; real environment variables win.
	_ = godotenv.Load()

	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if opts.version {
		fmt.Printf("interviewer %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(opts.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	dgKey := os.Getenv("DEEPGRAM_API_KEY")

	if opts.doctor {
		os.Exit(doctor.Run(doctor.Options{
			BackendURL:  opts.backendURL,
			DeepgramKey: dgKey,
			Device:      opts.device,
		}))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	if err := log.InitSentry(os.Getenv("SENTRY_DSN"), os.Getenv("SENTRY_ENVIRONMENT"), version); err != nil {
		log.Warnf("%v", err)
	}

	client := backend.New(opts.backendURL, interview.DefaultRequestTimeout)

	if opts.test {
		ctx, stop := shutdown.Context(context.Background())
		code := runTestMode(ctx, opts.interviewConfig(), client, os.Stdin, os.Stdout)
		stop()
		log.Close()
		os.Exit(code)
	}

	role := opts.role
	if role == "" || opts.setup {
		role, err = pickRole()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: audio unavailable (%v); answers must be typed\n", err)
	} else {
		defer actx.Close()
		beep.Init(actx)
	}

	var device *audio.DeviceInfo
	if actx != nil {
		device, err = resolveDevice(actx, opts)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\nFalling back to default device\n", err)
		}
	}

	rec := newRecognizer(opts, dgKey, actx, device)
	synth := newSynthesizer(opts, dgKey, actx)

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	ui := &teaUI{}
	coord := interview.New(opts.interviewConfig(), client, rec, synth, withCues(ui))
	p := tea.NewProgram(newTUIModel(coord, role), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.p = p

	go coord.Run(ctx)

	if opts.hotkey && rec != nil {
		go listenHotkey(ctx, coord)
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Errorf("TUI error: %v", err)
	}
	stop()
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func resolveDevice(actx audio.Context, opts options) (*audio.DeviceInfo, error) {
	if opts.device != "" {
		devices, err := actx.Devices()
		if err != nil {
			return nil, err
		}
		for i := range devices {
			if devices[i].Name == opts.device {
				return &devices[i], nil
			}
		}
		return nil, fmt.Errorf("%w: %q", audio.ErrNoDevice, opts.device)
	}
	if opts.setup {
		return audio.SelectDevice(actx)
	}
	return nil, nil
}

func newRecognizer(opts options, key string, actx audio.Context, device *audio.DeviceInfo) speech.Recognizer {
	switch {
	case opts.noMic:
		return nil
	case key == "":
		log.Warn("DEEPGRAM_API_KEY not set; speech recognition disabled")
		return nil
	case actx == nil:
		return nil
	}
	dg := speech.NewDeepgram(key, actx, device)
	if opts.lang != "" {
		dg.Language = opts.lang
	}
	return dg
}

func newSynthesizer(opts options, key string, actx audio.Context) narration.Synthesizer {
	if opts.noTTS || key == "" || actx == nil {
		return narration.NewPaced()
	}
	tts := narration.NewDeepgramTTS(key, actx)
	if opts.voice != "" {
		tts.Voice = opts.voice
	}
	return tts
}

type micToggler interface {
	ToggleMic()
}

func listenHotkey(ctx context.Context, c micToggler) {
	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Warnf("hotkey unavailable: %v", err)
		return
	}
	defer hk.Unregister()
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Pressed():
			c.ToggleMic()
		}
	}
}

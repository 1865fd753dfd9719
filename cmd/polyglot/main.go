// Command polyglot translates, speaks and analyzes text through a polyglot
// job service.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/ZaguanLabs/polyglot"
	"github.com/ZaguanLabs/polyglot/audio"
	"github.com/ZaguanLabs/polyglot/backend"
	"github.com/ZaguanLabs/polyglot/cache"
	"github.com/ZaguanLabs/polyglot/logging"
	"github.com/ZaguanLabs/polyglot/render"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = polyglot.Version
	commit    = polyglot.GitCommit
	buildDate = polyglot.BuildDate
)

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

// errReported marks an error the view has already printed.
type errReported struct {
	err error
}

func (e *errReported) Error() string { return e.err.Error() }
func (e *errReported) Unwrap() error { return e.err }

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var reported *errReported
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

const usage = `Usage: polyglot [flags] <command> [command flags] [TEXT]

Commands:
  translate   Translate TEXT into one or more target languages
  listen      Synthesize speech for TEXT and play it
  analyze     Analyze a word or phrase within TEXT
  model       Show the model behind analysis
  shell       Read commands interactively

TEXT may be "-" or omitted to read standard input.

Flags:
`

func run(args []string, stdout, stderr io.Writer) error {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := loadConfig(os.Getenv)
	fs := flag.NewFlagSet("polyglot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	cfg.register(fs)
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", polyglot.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("a command is required")
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	command, rest := fs.Arg(0), fs.Args()[1:]
	switch command {
	case "translate", "listen", "analyze", "model", "shell":
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	in := bufio.NewReader(stdin)
	a, err := newApp(cfg, in, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	switch command {
	case "translate":
		return a.translate(ctx, rest)
	case "listen":
		return a.listen(ctx, rest)
	case "analyze":
		return a.analyze(ctx, rest)
	case "model":
		return a.model(ctx)
	default:
		return a.shell(ctx, rest)
	}
}

// app wires a Client to the terminal.
type app struct {
	cfg     config
	client  *polyglot.Client
	speaker *audio.Manager
	cache   polyglot.ResultCache
	prompt  *promptConfirmer
	logger  *zap.Logger
	in      *bufio.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func newApp(cfg config, in *bufio.Reader, stdout, stderr io.Writer) (*app, error) {
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile, Console: stderr})
	if err != nil {
		return nil, err
	}

	hb, err := backend.NewHTTPBackend(backend.HTTPConfig{
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
		Logger:  logger.Named("backend"),
	})
	if err != nil {
		return nil, err
	}
	var b polyglot.Backend = hb
	if cfg.RPM > 0 {
		b = polyglot.NewRateLimitedBackend(hb, polyglot.RateLimitConfig{RequestsPerMinute: cfg.RPM, BurstSize: 1})
	}

	a := &app{
		cfg:    cfg,
		prompt: &promptConfirmer{in: in, out: stderr, yes: cfg.Yes},
		logger: logger,
		in:     in,
		stdout: stdout,
		stderr: stderr,
	}

	opts := []polyglot.ClientOption{
		polyglot.WithLogger(logger),
		polyglot.WithView(newTerminalView(stdout, stderr)),
		polyglot.WithConfirmer(a.prompt),
		polyglot.WithRenderer(newRenderer(cfg)),
	}

	if c := a.openCache(); c != nil {
		a.cache = c
		opts = append(opts, polyglot.WithCache(c))
	}

	if cfg.Player != "" {
		player, err := audio.NewCommandPlayer(cfg.Player, nil)
		if err != nil {
			return nil, err
		}
		a.speaker = audio.NewManager(player, audio.WithLogger(logger.Named("audio")))
		opts = append(opts, polyglot.WithSpeaker(a.speaker))
	}

	a.client = polyglot.NewClient(b, opts...)
	return a, nil
}

func newRenderer(cfg config) polyglot.Renderer {
	switch {
	case cfg.TrustedHTML:
		return render.NewHTMLRenderer(render.WithTrustedAnalysis())
	case cfg.HTML:
		return render.NewHTMLRenderer()
	default:
		return render.NewTextRenderer(true)
	}
}

// openCache prefers Redis when configured and falls back to memory. An
// unreachable Redis only costs the cache.
func (a *app) openCache() polyglot.ResultCache {
	if a.cfg.CacheTTL <= 0 {
		return nil
	}
	if a.cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			URL:    a.cfg.RedisURL,
			TTL:    a.cfg.CacheTTL,
			Logger: a.logger.Named("cache"),
		})
		if err == nil {
			return rc
		}
		a.logger.Warn("redis cache unavailable, using memory", zap.Error(err))
	}
	return cache.NewInMemoryCache(a.cfg.CacheTTL)
}

func (a *app) close() {
	if a.speaker != nil {
		_ = a.speaker.Stop()
	}
	_ = a.client.Close()
	if rc, ok := a.cache.(*cache.RedisCache); ok {
		_ = rc.Close()
	}
	_ = a.logger.Sync()
}

// startSession opens the session and shows its short id.
func (a *app) startSession(ctx context.Context) error {
	if _, err := a.client.StartSession(ctx); err != nil {
		return err
	}
	dimColor.Fprintf(a.stderr, "Session: %s\n", a.client.ShortSessionID())
	return nil
}

func (a *app) translate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	source := fs.String("source", "en", "Source language code")
	to := fs.String("to", strings.Join(polyglot.TargetLanguages, ","), "Comma-separated target languages")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text, err := a.readText(fs.Args())
	if err != nil {
		return err
	}
	if err := a.startSession(ctx); err != nil {
		return err
	}

	job, err := a.client.Translate(ctx, polyglot.TranslateInput{
		Text:            text,
		SourceLanguage:  *source,
		TargetLanguages: splitList(*to),
	})
	if err != nil {
		return reported(err)
	}
	_, err = a.await(ctx, job)
	return err
}

func (a *app) listen(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	source := fs.String("source", "en", "Language of the text")
	rate := fs.Float64("rate", 1.0, "Speaking rate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text, err := a.readText(fs.Args())
	if err != nil {
		return err
	}
	if err := a.startSession(ctx); err != nil {
		return err
	}

	job, err := a.client.Listen(ctx, polyglot.ListenInput{Text: text, Language: *source, SpeakingRate: *rate})
	if err != nil {
		return reported(err)
	}
	if _, err := a.await(ctx, job); err != nil {
		return err
	}
	a.waitPlayback(ctx)
	return nil
}

func (a *app) analyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	source := fs.String("source", "en", "Language of the text")
	output := fs.String("output-lang", "en", "Language of the analysis")
	selected := fs.String("select", "", "Word or phrase to analyze (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text, err := a.readText(fs.Args())
	if err != nil {
		return err
	}
	if strings.TrimSpace(*selected) == "" {
		return fmt.Errorf("--select is required")
	}
	if !strings.Contains(text, strings.TrimSpace(*selected)) {
		return fmt.Errorf("selection %q does not occur in the text", *selected)
	}
	if err := a.startSession(ctx); err != nil {
		return err
	}

	if model := a.client.AnalysisModel(ctx); model != "" {
		dimColor.Fprintf(a.stderr, "Model: %s\n", model)
	}

	a.client.Select(*selected, text)
	job, err := a.client.Analyze(ctx, polyglot.AnalyzeInput{InputLanguage: *source, OutputLanguage: *output})
	if err != nil {
		return reported(err)
	}
	_, err = a.await(ctx, job)
	return err
}

func (a *app) model(ctx context.Context) error {
	model := a.client.AnalysisModel(ctx)
	if model == "" {
		return fmt.Errorf("analysis model unavailable")
	}
	fmt.Fprintln(a.stdout, model)
	return nil
}

// await blocks until job is terminal or ctx ends. Failures were already shown
// by the view.
func (a *app) await(ctx context.Context, job *polyglot.Job) (polyglot.Outcome, error) {
	out, err := job.Wait(ctx)
	if err != nil {
		job.Cancel()
		return out, err
	}
	if !out.OK() {
		return out, &errReported{err: out.Err}
	}
	if out.Cached {
		dimColor.Fprintln(a.stderr, "(cached)")
	}
	return out, nil
}

// waitPlayback keeps the process alive until the current clip finishes.
func (a *app) waitPlayback(ctx context.Context) {
	if a.speaker == nil {
		return
	}
	pb := a.speaker.Current()
	if pb == nil {
		return
	}
	select {
	case <-pb.Done():
	case <-ctx.Done():
	}
}

// readText joins args into the input text, reading stdin for "-" or none.
func (a *app) readText(args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(a.in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	// Stdin is spent, so warnings can no longer be confirmed interactively.
	a.prompt.in = nil
	return string(data), nil
}

// reported marks client errors the view has shown. A declined confirmation
// is not shown there, so it is left for main to print.
func reported(err error) error {
	if errors.Is(err, polyglot.ErrNotConfirmed) || errors.Is(err, polyglot.ErrClientClosed) {
		return err
	}
	return &errReported{err: err}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

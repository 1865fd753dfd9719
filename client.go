package polyglot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Backend is the interface for the remote job service.
type Backend interface {
	ResultFetcher
	StartSession(ctx context.Context) (*SessionResponse, error)
	Submit(ctx context.Context, req JobRequest) (*SubmitResponse, error)
	AnalysisModel(ctx context.Context) (string, error)
}

// View is the surface a Client renders into. Each job kind has its own
// region and its own trigger control.
type View interface {
	// SetBusy disables (busy) or restores the control that triggers kind.
	SetBusy(kind JobKind, busy bool)
	// ShowLoading replaces the kind's region with a progress message.
	ShowLoading(kind JobKind, message string)
	// ShowResult replaces the kind's region with rendered content.
	ShowResult(kind JobKind, content string)
	// ShowError reports a failure of the current action for kind.
	ShowError(kind JobKind, err error)
}

// Confirmer asks the user whether to continue despite validation warnings.
type Confirmer interface {
	Confirm(kind JobKind, warnings []string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(kind JobKind, warnings []string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(kind JobKind, warnings []string) bool {
	return f(kind, warnings)
}

// Speaker plays synthesized audio. Play starts playback of url, stopping
// whatever was playing before, and returns once playback has started.
type Speaker interface {
	Play(ctx context.Context, url string) error
}

// Renderer turns result payloads into view content.
type Renderer interface {
	Translations(items []Translation) (string, error)
	Analysis(fragment string) (string, error)
}

// ResultCache is the interface for result caching.
type ResultCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// Client submits jobs for one session and renders their results. It replaces
// page-global state: session, selection, in-flight jobs and audio output all
// belong to the Client.
type Client struct {
	backend   Backend
	poller    *Poller
	logger    *zap.Logger
	view      View
	confirmer Confirmer
	speaker   Speaker
	renderer  Renderer
	cache     ResultCache

	pollConfig PollConfig
	pollOpts   []PollerOption

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	sessionID string
	selection Selection
	jobs      map[JobKind]*Job
	closed    bool
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithLogger sets the client's logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithView sets the view results are rendered into.
func WithView(view View) ClientOption {
	return func(c *Client) {
		c.view = view
	}
}

// WithConfirmer sets how validation warnings are confirmed. Without one,
// any warning cancels the action.
func WithConfirmer(confirmer Confirmer) ClientOption {
	return func(c *Client) {
		c.confirmer = confirmer
	}
}

// WithSpeaker sets the audio output for speech results.
func WithSpeaker(speaker Speaker) ClientOption {
	return func(c *Client) {
		c.speaker = speaker
	}
}

// WithRenderer sets the result renderer.
func WithRenderer(renderer Renderer) ClientOption {
	return func(c *Client) {
		c.renderer = renderer
	}
}

// WithCache sets the result cache.
func WithCache(cache ResultCache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithPollConfig overrides the polling budget.
func WithPollConfig(cfg PollConfig) ClientOption {
	return func(c *Client) {
		c.pollConfig = cfg
	}
}

// WithClock sets the clock used between poll cycles.
func WithClock(clock Clock) ClientOption {
	return func(c *Client) {
		c.pollOpts = append(c.pollOpts, WithPollClock(clock))
	}
}

// WithObserver registers a poll state observer.
func WithObserver(observer PollObserver) ClientOption {
	return func(c *Client) {
		c.pollOpts = append(c.pollOpts, WithPollObserver(observer))
	}
}

// NewClient creates a Client for the given backend.
func NewClient(backend Backend, opts ...ClientOption) *Client {
	c := &Client{
		backend:    backend,
		logger:     zap.NewNop(),
		view:       nopView{},
		confirmer:  ConfirmFunc(func(JobKind, []string) bool { return false }),
		renderer:   plainRenderer{},
		pollConfig: DefaultPollConfig(),
		jobs:       make(map[JobKind]*Job),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.base, c.cancel = context.WithCancel(context.Background())
	pollOpts := append([]PollerOption{WithPollLogger(c.logger)}, c.pollOpts...)
	c.poller = NewPoller(backend, c.pollConfig, pollOpts...)

	return c
}

// ActiveJob returns the in-flight job of a kind, or nil.
func (c *Client) ActiveJob(kind JobKind) *Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs[kind]
}

// Close cancels every in-flight job and waits for their pollers to stop.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// start launches the poll task for an accepted job. An in-flight job of the
// same kind is cancelled first.
func (c *Client) start(kind JobKind, requestID, cacheKey string) (*Job, error) {
	ctx, cancel := context.WithCancel(c.base)
	job := newJob(kind, requestID, cancel)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return nil, ErrClientClosed
	}
	c.supersedeLocked(kind)
	c.jobs[kind] = job
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer cancel()

		out := c.poller.Poll(ctx, kind, requestID)
		if out.OK() && cacheKey != "" {
			c.store(cacheKey, out)
		}
		// A job replaced while its last poll was in flight must not
		// overwrite its successor's result.
		if c.current(kind, job) {
			c.present(out)
		}

		c.mu.Lock()
		if c.jobs[kind] == job {
			delete(c.jobs, kind)
		}
		c.mu.Unlock()

		job.finish(out)
	}()

	return job, nil
}

// supersedeLocked cancels and forgets the in-flight job of kind. c.mu must
// be held.
func (c *Client) supersedeLocked(kind JobKind) {
	prev := c.jobs[kind]
	if prev == nil {
		return
	}
	c.logger.Debug("superseding in-flight job",
		zap.String("kind", kind.String()),
		zap.String("request_id", prev.RequestID))
	prev.Cancel()
	delete(c.jobs, kind)
}

func (c *Client) current(kind JobKind, job *Job) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs[kind] == job
}

// present renders a terminal outcome with the kind's renderer.
func (c *Client) present(out Outcome) {
	switch out.State {
	case StateSuccess:
	case StateCancelled:
		return
	default:
		c.view.ShowError(out.Kind, out.Err)
		return
	}

	switch out.Kind {
	case KindTranslation:
		content, err := c.renderer.Translations(out.Translations)
		if err != nil {
			c.view.ShowError(out.Kind, err)
			return
		}
		c.view.ShowResult(out.Kind, content)

	case KindAnalysis:
		content, err := c.renderer.Analysis(out.AnalysisHTML)
		if err != nil {
			c.view.ShowError(out.Kind, err)
			return
		}
		c.view.ShowResult(out.Kind, content)

	case KindSpeech:
		c.view.ShowResult(out.Kind, out.AudioURL)
		if c.speaker == nil {
			return
		}
		c.logger.Debug("playing audio", zap.String("url", truncate(out.AudioURL, 50)))
		if err := c.speaker.Play(c.base, out.AudioURL); err != nil {
			c.logger.Warn("error playing audio", zap.Error(err))
			c.view.ShowError(out.Kind, &PlaybackError{URL: out.AudioURL, Cause: err})
		}
	}
}

// cachedResult is the cached form of a successful outcome.
type cachedResult struct {
	Translations []Translation `json:"translations,omitempty"`
	AnalysisHTML string        `json:"analysisHtml,omitempty"`
}

func (c *Client) store(key string, out Outcome) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(cachedResult{Translations: out.Translations, AnalysisHTML: out.AnalysisHTML})
	if err != nil {
		return
	}
	if err := c.cache.Set(key, string(data)); err != nil {
		c.logger.Warn("result cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// fromCache returns an already-finished job when key is cached.
func (c *Client) fromCache(kind JobKind, key string) *Job {
	if c.cache == nil {
		return nil
	}
	raw, ok := c.cache.Get(key)
	if !ok {
		return nil
	}
	var cached cachedResult
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.logger.Warn("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}

	out := Outcome{
		Kind:         kind,
		State:        StateSuccess,
		Translations: cached.Translations,
		AnalysisHTML: cached.AnalysisHTML,
		Cached:       true,
	}
	c.logger.Debug("serving result from cache", zap.String("kind", kind.String()), zap.String("key", key))

	// A cache hit is a new job like any other and replaces the in-flight one.
	c.mu.Lock()
	c.supersedeLocked(kind)
	c.mu.Unlock()
	c.present(out)

	job := newJob(kind, "", func() {})
	job.finish(out)
	return job
}

// fail reports err in the kind's region and returns it. A declined
// confirmation is not an error worth showing.
func (c *Client) fail(kind JobKind, err error) error {
	if !errors.Is(err, ErrNotConfirmed) {
		c.view.ShowError(kind, err)
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type nopView struct{}

func (nopView) SetBusy(JobKind, bool) {}
func (nopView) ShowLoading(JobKind, string) {}
func (nopView) ShowResult(JobKind, string) {}
func (nopView) ShowError(JobKind, error) {}

// plainRenderer is used when no Renderer is configured.
type plainRenderer struct{}

func (plainRenderer) Translations(items []Translation) (string, error) {
	lines := make([]string, len(items))
	for i, t := range items {
		lines[i] = LanguageLabel(t.Language) + ": " + t.Text
	}
	return strings.Join(lines, "\n"), nil
}

func (plainRenderer) Analysis(fragment string) (string, error) {
	return fragment, nil
}

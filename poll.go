package polyglot

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// State is a position in the per-job polling state machine.
type State int

const (
	// StatePending means the job has not produced a result yet.
	StatePending State = iota
	// StateNetworkErrorRetrying means the last poll failed and another is scheduled.
	StateNetworkErrorRetrying
	// StateSuccess is terminal: the job produced its payload.
	StateSuccess
	// StateFailure is terminal: the server reported an error, or polling kept failing.
	StateFailure
	// StateTimedOut is terminal: the attempt budget ran out or the result was unrecognized.
	StateTimedOut
	// StateCancelled is terminal: the job was superseded or its client closed.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateNetworkErrorRetrying:
		return "network_error_retrying"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	case StateTimedOut:
		return "timed_out"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further poll cycles follow this state.
func (s State) Terminal() bool {
	return s >= StateSuccess
}

// PollConfig holds the polling budget shared by all job kinds.
type PollConfig struct {
	MaxAttempts int           // Result endpoint calls before giving up
	Interval    time.Duration // Fixed delay between calls
}

// DefaultPollConfig returns the service contract: 30 calls, one second apart.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		MaxAttempts: 30,
		Interval:    1 * time.Second,
	}
}

// Clock schedules the delay between poll cycles.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

// ResultFetcher fetches the current result of a job.
type ResultFetcher interface {
	Result(ctx context.Context, kind JobKind, requestID string) (*ResultResponse, error)
}

// Transition is reported to a PollObserver on every state change.
type Transition struct {
	Kind      JobKind
	RequestID string
	State     State
	Attempt   int
}

// PollObserver receives state transitions as they happen.
type PollObserver func(Transition)

// Poller runs the poll state machine for one job at a time. A Poller holds no
// per-job state and may be shared by concurrent jobs.
type Poller struct {
	fetcher  ResultFetcher
	config   PollConfig
	clock    Clock
	logger   *zap.Logger
	observer PollObserver
}

// PollerOption is a functional option for configuring the Poller.
type PollerOption func(*Poller)

// WithPollClock sets the clock used between cycles.
func WithPollClock(clock Clock) PollerOption {
	return func(p *Poller) {
		p.clock = clock
	}
}

// WithPollLogger sets the poller's logger.
func WithPollLogger(logger *zap.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithPollObserver registers a transition observer.
func WithPollObserver(observer PollObserver) PollerOption {
	return func(p *Poller) {
		p.observer = observer
	}
}

// NewPoller creates a Poller. A non-positive budget or interval falls back to
// DefaultPollConfig.
func NewPoller(fetcher ResultFetcher, cfg PollConfig, opts ...PollerOption) *Poller {
	def := DefaultPollConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}

	p := &Poller{
		fetcher: fetcher,
		config:  cfg,
		clock:   RealClock(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the poller's budget.
func (p *Poller) Config() PollConfig {
	return p.config
}

// Poll queries the result endpoint until the job reaches a terminal state and
// returns that outcome. Cycles run strictly one after another; cancelling ctx
// ends polling with StateCancelled.
func (p *Poller) Poll(ctx context.Context, kind JobKind, requestID string) Outcome {
	out := Outcome{Kind: kind, RequestID: requestID}
	log := p.logger.With(zap.String("kind", kind.String()), zap.String("request_id", requestID))

	p.enter(&out, StatePending)

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return p.cancelled(out, ctx.Err())
		}
		out.Attempts = attempt

		res, err := p.fetcher.Result(ctx, kind, requestID)
		if err != nil {
			if ctx.Err() != nil {
				return p.cancelled(out, ctx.Err())
			}
			log.Warn("polling error", zap.Int("attempt", attempt), zap.Error(err))
			if attempt >= p.config.MaxAttempts {
				out.Err = &PollNetworkError{Kind: kind, RequestID: requestID, Attempts: attempt, Cause: err}
				return p.finish(out, StateFailure)
			}
			p.enter(&out, StateNetworkErrorRetrying)
			if !p.wait(ctx) {
				return p.cancelled(out, ctx.Err())
			}
			p.enter(&out, StatePending)
			continue
		}

		if res == nil {
			// No body at all is as unrecognizable as an unknown one.
			res = &ResultResponse{}
		}

		log.Debug("polling response",
			zap.Int("attempt", attempt),
			zap.Boolp("success", res.Success),
			zap.String("status", res.Status))

		switch {
		case res.Success != nil:
			return p.settle(out, res)

		case res.Status == StatusNotFound:
			if attempt >= p.config.MaxAttempts {
				out.Err = &PollTimeoutError{Kind: kind, RequestID: requestID, Attempts: attempt}
				return p.finish(out, StateTimedOut)
			}
			if !p.wait(ctx) {
				return p.cancelled(out, ctx.Err())
			}

		default:
			out.Err = &PollTimeoutError{Kind: kind, RequestID: requestID, Attempts: attempt, Unrecognized: true}
			return p.finish(out, StateTimedOut)
		}
	}
}

// settle turns a response carrying a success flag into a terminal outcome.
func (p *Poller) settle(out Outcome, res *ResultResponse) Outcome {
	failure := func() Outcome {
		msg := res.Error
		if msg == "" {
			msg = "Unknown error"
		}
		out.Err = &JobError{Kind: out.Kind, RequestID: out.RequestID, Message: msg}
		return p.finish(out, StateFailure)
	}

	if !*res.Success {
		return failure()
	}

	switch out.Kind {
	case KindTranslation:
		out.Translations = res.Translations
	case KindSpeech:
		if res.AudioURL == "" {
			return failure()
		}
		out.AudioURL = res.AudioURL
	case KindAnalysis:
		out.AnalysisHTML = res.AnalysisHTML
	}
	return p.finish(out, StateSuccess)
}

func (p *Poller) cancelled(out Outcome, err error) Outcome {
	out.Err = err
	return p.finish(out, StateCancelled)
}

func (p *Poller) finish(out Outcome, state State) Outcome {
	p.enter(&out, state)
	fields := []zap.Field{
		zap.String("kind", out.Kind.String()),
		zap.String("request_id", out.RequestID),
		zap.String("state", state.String()),
		zap.Int("attempts", out.Attempts),
	}
	if out.Err != nil {
		p.logger.Info("job finished", append(fields, zap.Error(out.Err))...)
	} else {
		p.logger.Info("job finished", fields...)
	}
	return out
}

func (p *Poller) enter(out *Outcome, state State) {
	out.State = state
	if p.observer != nil {
		p.observer(Transition{
			Kind:      out.Kind,
			RequestID: out.RequestID,
			State:     state,
			Attempt:   out.Attempts,
		})
	}
}

// wait sleeps one interval. It returns false if ctx ended first.
func (p *Poller) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(p.config.Interval):
		return true
	}
}

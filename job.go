package polyglot

import (
	"context"
	"sync"
)

// Job is the handle of an accepted submission. Its poll task runs in the
// background until a terminal outcome; Cancel stops it early.
type Job struct {
	Kind      JobKind
	RequestID string

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	outcome Outcome
}

func newJob(kind JobKind, requestID string, cancel context.CancelFunc) *Job {
	return &Job{
		Kind:      kind,
		RequestID: requestID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Done is closed once the job has a terminal outcome.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel stops polling. The job finishes with StateCancelled unless it was
// already terminal.
func (j *Job) Cancel() {
	j.cancel()
}

// Wait blocks until the job is terminal or ctx ends.
func (j *Job) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-j.done:
		return j.Outcome(), nil
	}
}

// Outcome returns the terminal outcome, or a pending one while polling.
func (j *Job) Outcome() Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.outcome.Kind == "" {
		return Outcome{Kind: j.Kind, RequestID: j.RequestID, State: StatePending}
	}
	return j.outcome
}

func (j *Job) finish(out Outcome) {
	j.mu.Lock()
	j.outcome = out
	j.mu.Unlock()
	close(j.done)
}

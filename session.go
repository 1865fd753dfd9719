package polyglot

import (
	"context"

	"go.uber.org/zap"
)

// StartSession obtains a session id from the backend and keeps it for the
// life of the client. Once a session exists further calls return it without
// contacting the backend. On failure the session stays unset and every
// submission is refused with ErrSessionNotStarted.
func (c *Client) StartSession(ctx context.Context) (string, error) {
	if id := c.SessionID(); id != "" {
		return id, nil
	}

	resp, err := c.backend.StartSession(ctx)
	if err != nil {
		c.logger.Error("failed to start session", zap.Error(err))
		return "", &SessionError{Message: "request failed", Cause: err}
	}
	if !resp.Success || resp.SessionID == "" {
		msg := resp.Error
		if msg == "" {
			msg = "backend did not issue a session"
		}
		c.logger.Error("failed to start session", zap.String("error", msg))
		return "", &SessionError{Message: msg}
	}

	c.mu.Lock()
	if c.sessionID == "" {
		c.sessionID = resp.SessionID
	}
	id := c.sessionID
	c.mu.Unlock()

	c.logger.Info("session started", zap.String("session", ShortID(id)))
	return id, nil
}

// SessionID returns the current session id, or "" before StartSession succeeds.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// ShortSessionID returns the display form of the session id ("1a2b3c4d...").
func (c *Client) ShortSessionID() string {
	id := c.SessionID()
	if id == "" {
		return ""
	}
	return ShortID(id)
}

// ShortID truncates an id to its first 8 characters followed by "...".
func ShortID(id string) string {
	r := []rune(id)
	if len(r) > 8 {
		r = r[:8]
	}
	return string(r) + "..."
}

// AnalysisModel returns the name of the model behind analysis jobs. It is
// best effort: any failure yields "".
func (c *Client) AnalysisModel(ctx context.Context) string {
	model, err := c.backend.AnalysisModel(ctx)
	if err != nil {
		c.logger.Debug("could not fetch model name", zap.Error(err))
		return ""
	}
	return model
}

func (c *Client) requireSession(kind JobKind) (string, error) {
	id := c.SessionID()
	if id == "" {
		return "", &SubmissionError{Kind: kind, Message: "please refresh the session", Cause: ErrSessionNotStarted}
	}
	return id, nil
}

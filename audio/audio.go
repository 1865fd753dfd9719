// Package audio plays synthesized speech, one clip at a time.
package audio

import (
	"context"
	"errors"
	"sync"

	"github.com/ZaguanLabs/polyglot"
	"go.uber.org/zap"
)

// ErrNoAudio is returned by Play for an empty URL.
var ErrNoAudio = errors.New("no audio URL")

// Player starts playback of an audio URL.
type Player interface {
	Start(ctx context.Context, url string) (Playback, error)
}

// Playback is one running clip.
type Playback interface {
	// Stop halts playback and releases its resources. Stopping a finished
	// playback is a no-op.
	Stop() error
	// Done is closed when playback ends for any reason.
	Done() <-chan struct{}
	// Err returns the error playback ended with, once Done is closed.
	Err() error
}

// Manager owns the current playback. Starting a clip always stops the
// previous one first, so at most one clip plays at any time.
type Manager struct {
	player Player
	logger *zap.Logger

	mu      sync.Mutex
	current Playback
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager around a player.
func NewManager(player Player, opts ...ManagerOption) *Manager {
	m := &Manager{
		player: player,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Play stops the current clip, if any, and starts url.
func (m *Manager) Play(ctx context.Context, url string) error {
	if url == "" {
		return ErrNoAudio
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stopLocked(); err != nil {
		m.logger.Debug("failed to stop previous playback", zap.Error(err))
	}

	pb, err := m.player.Start(ctx, url)
	if err != nil {
		return err
	}
	m.current = pb

	go m.watch(pb)
	return nil
}

// Stop halts the current clip.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

// Current returns the playing clip, or nil.
func (m *Manager) Current() Playback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) stopLocked() error {
	if m.current == nil {
		return nil
	}
	err := m.current.Stop()
	m.current = nil
	return err
}

// watch clears a clip that finishes on its own and logs how it ended.
func (m *Manager) watch(pb Playback) {
	<-pb.Done()
	if err := pb.Err(); err != nil {
		m.logger.Warn("audio playback ended with error", zap.Error(err))
	}

	m.mu.Lock()
	if m.current == pb {
		m.current = nil
	}
	m.mu.Unlock()
}

// Verify Manager implements polyglot.Speaker
var _ polyglot.Speaker = (*Manager)(nil)

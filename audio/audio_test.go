package audio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayback struct {
	url     string
	done    chan struct{}
	once    sync.Once
	stopped bool
	err     error
}

func (p *fakePlayback) Stop() error {
	p.once.Do(func() {
		p.stopped = true
		close(p.done)
	})
	return nil
}

func (p *fakePlayback) Done() <-chan struct{} { return p.done }

func (p *fakePlayback) Err() error { return p.err }

func (p *fakePlayback) finish(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

type fakePlayer struct {
	mu      sync.Mutex
	started []*fakePlayback
	err     error
}

func (f *fakePlayer) Start(_ context.Context, url string) (Playback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	pb := &fakePlayback{url: url, done: make(chan struct{})}
	f.started = append(f.started, pb)
	return pb, nil
}

func TestManager_PlayStopsPrevious(t *testing.T) {
	player := &fakePlayer{}
	m := NewManager(player)

	require.NoError(t, m.Play(context.Background(), "https://example.com/a.mp3"))
	require.NoError(t, m.Play(context.Background(), "https://example.com/b.mp3"))

	require.Len(t, player.started, 2)
	assert.True(t, player.started[0].stopped, "first clip should be stopped")
	assert.False(t, player.started[1].stopped, "second clip should still play")
	assert.Same(t, player.started[1], m.Current())
}

func TestManager_EmptyURL(t *testing.T) {
	m := NewManager(&fakePlayer{})
	err := m.Play(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoAudio)
}

func TestManager_StartError(t *testing.T) {
	startErr := errors.New("no player")
	m := NewManager(&fakePlayer{err: startErr})

	err := m.Play(context.Background(), "https://example.com/a.mp3")
	assert.ErrorIs(t, err, startErr)
	assert.Nil(t, m.Current())
}

func TestManager_Stop(t *testing.T) {
	player := &fakePlayer{}
	m := NewManager(player)

	require.NoError(t, m.Play(context.Background(), "https://example.com/a.mp3"))
	require.NoError(t, m.Stop())

	assert.True(t, player.started[0].stopped)
	assert.Nil(t, m.Current())
	assert.NoError(t, m.Stop(), "stopping twice should be a no-op")
}

func TestManager_ClearsFinishedClip(t *testing.T) {
	player := &fakePlayer{}
	m := NewManager(player)

	require.NoError(t, m.Play(context.Background(), "https://example.com/a.mp3"))
	player.started[0].finish(nil)

	assert.Eventually(t, func() bool { return m.Current() == nil }, time.Second, 5*time.Millisecond)
}

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		mediaType string
		wantErr   bool
	}{
		{"base64", "data:audio/mpeg;base64,SGVsbG8=", "Hello", "audio/mpeg", false},
		{"with params", "data:audio/ogg;codecs=opus;base64,SGk=", "Hi", "audio/ogg", false},
		{"plain", "data:text/plain,a%20b", "a b", "text/plain", false},
		{"no comma", "data:audio/mpeg;base64", "", "", true},
		{"bad base64", "data:audio/mpeg;base64,!!!", "", "", true},
		{"not data", "https://example.com", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mediaType, err := DecodeDataURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
			assert.Equal(t, tt.mediaType, mediaType)
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".mp3", extension("audio/mpeg"))
	assert.Equal(t, ".wav", extension("audio/wav; charset=binary"))
	assert.Equal(t, ".ogg", extension("AUDIO/OGG"))
	assert.Equal(t, ".audio", extension(""))
}

func TestNewCommandPlayer_Empty(t *testing.T) {
	_, err := NewCommandPlayer("   ", nil)
	assert.Error(t, err)
}

func TestCommandPlayer_FetchBypassesCache(t *testing.T) {
	var gotCacheControl, gotPragma string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCacheControl = r.Header.Get("Cache-Control")
		gotPragma = r.Header.Get("Pragma")
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3"))
	}))
	defer server.Close()

	p, err := NewCommandPlayer(DefaultCommand, server.Client())
	require.NoError(t, err)
	p.tempDir = t.TempDir()

	path, cleanup, err := p.fetch(context.Background(), server.URL+"/audio.mp3")
	require.NoError(t, err)

	assert.Contains(t, gotCacheControl, "no-cache")
	assert.Equal(t, "no-cache", gotPragma)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(data))
	assert.Contains(t, path, ".mp3")

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cleanup should remove the temp file")
}

func TestCommandPlayer_FetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p, err := NewCommandPlayer(DefaultCommand, server.Client())
	require.NoError(t, err)

	_, _, err = p.fetch(context.Background(), server.URL+"/missing.mp3")
	assert.Error(t, err)
}

func TestCommandPlayer_FetchDataURL(t *testing.T) {
	p, err := NewCommandPlayer(DefaultCommand, nil)
	require.NoError(t, err)
	p.tempDir = t.TempDir()

	path, cleanup, err := p.fetch(context.Background(), "data:audio/wav;base64,UklGRg==")
	require.NoError(t, err)
	defer cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
}

func TestCommandPlayer_UnsupportedScheme(t *testing.T) {
	p, err := NewCommandPlayer(DefaultCommand, nil)
	require.NoError(t, err)

	_, _, err = p.fetch(context.Background(), "ftp://example.com/a.mp3")
	assert.Error(t, err)
}

func TestCommandPlayer_MissingProgram(t *testing.T) {
	p, err := NewCommandPlayer("polyglot-no-such-player-binary", nil)
	require.NoError(t, err)
	p.tempDir = t.TempDir()

	_, err = p.Start(context.Background(), "data:audio/wav;base64,UklGRg==")
	assert.Error(t, err)
}

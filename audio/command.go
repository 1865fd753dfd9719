package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/ZaguanLabs/polyglot"
)

// DefaultCommand plays a file without a window and exits at the end.
const DefaultCommand = "ffplay -nodisp -autoexit -loglevel quiet"

// CommandPlayer plays audio with an external program. The clip is fetched
// to a temporary file first, bypassing HTTP caches, and the program is run
// with the file path as its last argument.
type CommandPlayer struct {
	name       string
	args       []string
	httpClient *http.Client
	tempDir    string
}

// NewCommandPlayer parses a command line such as DefaultCommand.
func NewCommandPlayer(cmdline string, httpClient *http.Client) (*CommandPlayer, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, errors.New("empty player command")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CommandPlayer{
		name:       fields[0],
		args:       fields[1:],
		httpClient: httpClient,
	}, nil
}

// Start fetches url and launches the player on it.
func (p *CommandPlayer) Start(ctx context.Context, rawURL string) (Playback, error) {
	path, cleanup, err := p.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	args := append(append([]string(nil), p.args...), path)
	cmd := exec.CommandContext(ctx, p.name, args...) // #nosec G204 - player command is user configuration
	if err := cmd.Start(); err != nil {
		cleanup()
		return nil, fmt.Errorf("starting %s: %w", p.name, err)
	}

	pb := &commandPlayback{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		cleanup()
		pb.mu.Lock()
		if !pb.stopped {
			pb.err = err
		}
		pb.mu.Unlock()
		close(pb.done)
	}()
	return pb, nil
}

// fetch materializes the clip as a local file.
func (p *CommandPlayer) fetch(ctx context.Context, rawURL string) (string, func(), error) {
	noop := func() {}

	if strings.HasPrefix(rawURL, "data:") {
		data, mediaType, err := DecodeDataURL(rawURL)
		if err != nil {
			return "", noop, err
		}
		return p.writeTemp(mediaType, strings.NewReader(string(data)))
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", noop, fmt.Errorf("parsing audio URL: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", noop, err
		}
		req.Header.Set("Cache-Control", "no-cache, no-store")
		req.Header.Set("Pragma", "no-cache")
		req.Header.Set("User-Agent", polyglot.UserAgent())

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return "", noop, fmt.Errorf("fetching audio: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", noop, fmt.Errorf("fetching audio: HTTP %d", resp.StatusCode)
		}
		return p.writeTemp(resp.Header.Get("Content-Type"), resp.Body)

	case "file":
		return u.Path, noop, nil

	case "":
		return rawURL, noop, nil

	default:
		return "", noop, fmt.Errorf("unsupported audio URL scheme %q", u.Scheme)
	}
}

func (p *CommandPlayer) writeTemp(mediaType string, r io.Reader) (string, func(), error) {
	f, err := os.CreateTemp(p.tempDir, "polyglot-*"+extension(mediaType))
	if err != nil {
		return "", func() {}, fmt.Errorf("creating audio file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("writing audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("writing audio file: %w", err)
	}
	return f.Name(), cleanup, nil
}

// DecodeDataURL decodes a "data:[<mediatype>][;base64],<data>" URL.
func DecodeDataURL(raw string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return nil, "", errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("malformed data URL")
	}

	isBase64 := strings.HasSuffix(meta, ";base64")
	mediaType := strings.TrimSuffix(meta, ";base64")
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}

	if !isBase64 {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decoding data URL: %w", err)
		}
		return []byte(decoded), mediaType, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding data URL: %w", err)
	}
	return data, mediaType, nil
}

func extension(mediaType string) string {
	mediaType, _, _ = strings.Cut(mediaType, ";")
	switch strings.TrimSpace(strings.ToLower(mediaType)) {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg", "audio/opus":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/aac":
		return ".aac"
	default:
		return ".audio"
	}
}

type commandPlayback struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.Mutex
	stopped bool
	err     error
}

func (p *commandPlayback) Stop() error {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		return nil
	default:
	}
	p.stopped = true
	p.mu.Unlock()

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-p.done
	return nil
}

func (p *commandPlayback) Done() <-chan struct{} {
	return p.done
}

func (p *commandPlayback) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Verify CommandPlayer implements Player
var _ Player = (*CommandPlayer)(nil)

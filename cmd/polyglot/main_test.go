package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ZaguanLabs/polyglot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService is a minimal job service whose jobs finish on the first poll.
type fakeService struct {
	mu       sync.Mutex
	requests map[string][]map[string]interface{}
	results  map[string]string
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	s := &fakeService{
		requests: make(map[string][]map[string]interface{}),
		results: map[string]string{
			"/api/translate/result/t-1": `{"success":true,"translations":[["ru","Привет"],["de","Hallo"]]}`,
			"/api/tts/result/s-1":       `{"success":true,"audioUrl":"https://cdn.example.com/a.mp3"}`,
			"/api/analyze/result/a-1":   `{"success":true,"analysisHtml":"<p>noun</p><script>x()</script>"}`,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/session/start", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"sessionId":"abcdef0123456789"}`))
	})
	mux.HandleFunc("/api/analysis/model", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"test-model-1"}`))
	})
	submit := func(id string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			s.mu.Lock()
			s.requests[r.URL.Path] = append(s.requests[r.URL.Path], body)
			s.mu.Unlock()
			w.Write([]byte(`{"requestId":"` + id + `"}`))
		}
	}
	mux.HandleFunc("/api/translate", submit("t-1"))
	mux.HandleFunc("/api/tts", submit("s-1"))
	mux.HandleFunc("/api/analyze", submit("a-1"))
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		body, ok := s.results[r.URL.Path]
		s.mu.Unlock()
		if !ok {
			body = `{"status":"not_found"}`
		}
		w.Write([]byte(body))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *fakeService) submitted(path string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *fakeService) setResult(path, body string) {
	s.mu.Lock()
	s.results[path] = body
	s.mu.Unlock()
}

// isolate clears the environment the command reads and disables audio.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{envURL, envLogFile, envLogLevel, envRedisURL, envCacheTTL, envRPM} {
		t.Setenv(key, "")
	}
	t.Setenv(envPlayer, "none")
}

func withStdin(t *testing.T, input string) {
	t.Helper()
	old := stdin
	stdin = strings.NewReader(input)
	t.Cleanup(func() { stdin = old })
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"--version"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), polyglot.Name) {
		t.Errorf("expected version output, got: %s", stdout.String())
	}
}

func TestRun_MissingCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "command is required") {
		t.Fatalf("expected missing command error, got: %v", err)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("expected usage on stderr, got: %s", stderr.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"summarize"}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), `unknown command "summarize"`) {
		t.Fatalf("expected unknown command error, got: %v", err)
	}
}

func TestRun_Translate(t *testing.T) {
	isolate(t)
	svc, srv := newFakeService(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "translate", "--to", "ru,de", "Hello"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), "RU (Russian)\n  Привет")
	assert.Contains(t, stdout.String(), "DE (German)\n  Hallo")
	assert.Contains(t, stderr.String(), "Session: abcdef01")

	reqs := svc.submitted("/api/translate")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Hello", reqs[0]["text"])
	assert.Equal(t, "en", reqs[0]["sourceLanguage"])
	assert.Equal(t, "abcdef0123456789", reqs[0]["sessionId"])
	assert.Equal(t, []interface{}{"ru", "de"}, reqs[0]["targetLanguages"])
}

func TestRun_TranslateHTML(t *testing.T) {
	isolate(t)
	_, srv := newFakeService(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "--html", "translate", "--to", "ru", "Hello"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), `<div class="translation-item" lang="ru" dir="ltr">`)
}

func TestRun_TranslateFromStdin(t *testing.T) {
	isolate(t)
	svc, srv := newFakeService(t)
	withStdin(t, "Good morning\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "translate", "-"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	reqs := svc.submitted("/api/translate")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Good morning", reqs[0]["text"])
	// The source language is never a target
	assert.Len(t, reqs[0]["targetLanguages"], len(polyglot.TargetLanguages)-1)
}

func TestRun_TranslateWarningsNeedConfirmation(t *testing.T) {
	isolate(t)
	svc, srv := newFakeService(t)
	withStdin(t, "Hello\uFEFF world")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "translate"}, &stdout, &stderr)

	require.Error(t, err)
	assert.True(t, errors.Is(err, polyglot.ErrNotConfirmed))
	assert.Contains(t, stderr.String(), "warning:")
	assert.Contains(t, stderr.String(), "--yes")
	assert.Empty(t, svc.submitted("/api/translate"))
}

func TestRun_TranslateWarningsWithYes(t *testing.T) {
	isolate(t)
	svc, srv := newFakeService(t)
	withStdin(t, "Hello\uFEFF world")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "--yes", "translate"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	reqs := svc.submitted("/api/translate")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Hello world", reqs[0]["text"])
}

func TestRun_TranslateJobFailure(t *testing.T) {
	isolate(t)
	svc, srv := newFakeService(t)
	svc.setResult("/api/translate/result/t-1", `{"success":false,"error":"quota exceeded"}`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "translate", "Hello"}, &stdout, &stderr)

	require.Error(t, err)
	var rep *errReported
	assert.True(t, errors.As(err, &rep), "failure should be reported by the view")
	assert.Contains(t, stderr.String(), "quota exceeded")
	assert.Empty(t, stdout.String())
}

func TestRun_Listen(t *testing.T) {
	isolate(t)
	svc, srv := newFakeService(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "listen", "--source", "de", "--rate", "0.8", "Guten", "Tag"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stderr.String(), "Audio ready: https://cdn.example.com/a.mp3")
	reqs := svc.submitted("/api/tts")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Guten Tag", reqs[0]["text"])
	assert.Equal(t, "de", reqs[0]["language"])
	assert.Equal(t, 0.8, reqs[0]["speakingRate"])
}

func TestRun_Analyze(t *testing.T) {
	isolate(t)
	svc, srv := newFakeService(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "analyze", "--select", "bank", "--output-lang", "de", "The river bank"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Equal(t, "noun\n", stdout.String())
	assert.Contains(t, stderr.String(), "Model: test-model-1")

	reqs := svc.submitted("/api/analyze")
	require.Len(t, reqs, 1)
	assert.Equal(t, "bank", reqs[0]["textToAnalyze"])
	assert.Equal(t, "The river bank", reqs[0]["contextText"])
	assert.Equal(t, "de", reqs[0]["outputLanguage"])
}

func TestRun_AnalyzeRequiresSelection(t *testing.T) {
	isolate(t)
	_, srv := newFakeService(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "analyze", "The river bank"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "--select is required") {
		t.Fatalf("expected --select error, got: %v", err)
	}

	err = run([]string{"--url", srv.URL, "analyze", "--select", "lake", "The river bank"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "does not occur") {
		t.Fatalf("expected selection error, got: %v", err)
	}
}

func TestRun_Model(t *testing.T) {
	isolate(t)
	_, srv := newFakeService(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "model"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "test-model-1\n", stdout.String())
}

func TestRun_Shell(t *testing.T) {
	isolate(t)
	svc, srv := newFakeService(t)
	withStdin(t, "help\ntranslate The river bank\nwait\nselect bank\nanalyze\nselect lake\nbogus\nquit\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "shell", "--to", "ru"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), "Привет")
	assert.Contains(t, stdout.String(), "noun")
	assert.Contains(t, stderr.String(), `Selected "bank"`)
	assert.Contains(t, stderr.String(), `"lake" does not occur`)
	assert.Contains(t, stderr.String(), `unknown command "bogus"`)

	reqs := svc.submitted("/api/analyze")
	require.Len(t, reqs, 1)
	assert.Equal(t, "The river bank", reqs[0]["contextText"])
}

func TestRun_ShellEOFWaitsForJobs(t *testing.T) {
	isolate(t)
	_, srv := newFakeService(t)
	withStdin(t, "t Hello")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "shell"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "Привет")
}

func TestRun_SessionUnavailable(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"success":false,"error":"maintenance"}`))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", srv.URL, "translate", "Hello"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "maintenance") {
		t.Fatalf("expected session error, got: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		envURL:      "https://polyglot.example.com",
		envPlayer:   "mpv --no-video",
		envCacheTTL: "60",
		envRPM:      "20",
		envRedisURL: "redis://localhost:6379/1",
		envLogLevel: "debug",
	}
	cfg := loadConfig(func(k string) string { return env[k] })

	assert.Equal(t, "https://polyglot.example.com", cfg.URL)
	assert.Equal(t, "mpv --no-video", cfg.Player)
	assert.Equal(t, 60, cfg.CacheTTL)
	assert.Equal(t, 20, cfg.RPM)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadConfig(func(string) string { return "" })

	assert.Equal(t, defaultURL, cfg.URL)
	assert.NotEmpty(t, cfg.Player)
	assert.Positive(t, cfg.CacheTTL)
	assert.Zero(t, cfg.RPM)
}

func TestLoadConfig_PlayerNone(t *testing.T) {
	cfg := loadConfig(func(k string) string {
		if k == envPlayer {
			return "None"
		}
		return ""
	})
	assert.Empty(t, cfg.Player)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	cfg := loadConfig(func(k string) string {
		if k == envURL {
			return "https://env.example.com"
		}
		return ""
	})
	fs := newTestFlagSet()
	cfg.register(fs)
	require.NoError(t, fs.Parse([]string{"--url", "https://flag.example.com", "--cache-ttl", "0"}))

	assert.Equal(t, "https://flag.example.com", cfg.URL)
	assert.Zero(t, cfg.CacheTTL)
}

func newTestFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		noIn   bool
		yes    bool
		want   bool
		output string
	}{
		{name: "yes flag", yes: true, want: true},
		{name: "answer y", input: "y\n", want: true, output: "[y/N]"},
		{name: "answer yes", input: " YES \n", want: true},
		{name: "answer no", input: "n\n", want: false},
		{name: "empty answer", input: "\n", want: false},
		{name: "eof", input: "", want: false},
		{name: "no input", noIn: true, want: false, output: "--yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &promptConfirmer{out: &out, yes: tt.yes}
			if !tt.noIn {
				p.in = bufio.NewReader(strings.NewReader(tt.input))
			}

			got := p.Confirm(polyglot.KindTranslation, []string{polyglot.WarnInvalidUnicode})
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), polyglot.WarnInvalidUnicode) {
				t.Errorf("warning not shown: %q", out.String())
			}
			if tt.output != "" && !strings.Contains(out.String(), tt.output) {
				t.Errorf("output %q should contain %q", out.String(), tt.output)
			}
		})
	}
}

func TestTerminalView(t *testing.T) {
	var stdout, stderr bytes.Buffer
	v := newTerminalView(&stdout, &stderr)

	v.ShowLoading(polyglot.KindTranslation, "Translating...")
	v.ShowResult(polyglot.KindTranslation, "RU\n  Привет\n")
	v.ShowResult(polyglot.KindAnalysis, "noun")
	v.ShowResult(polyglot.KindSpeech, "data:audio/mpeg;base64,AAAA")
	v.ShowError(polyglot.KindSpeech, errors.New("boom"))

	assert.Equal(t, "RU\n  Привет\nnoun\n", stdout.String())
	assert.Contains(t, stderr.String(), "Translating...")
	assert.Contains(t, stderr.String(), "Audio ready (inline, 27 bytes)")
	assert.Contains(t, stderr.String(), "error: boom")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"ru", "de"}, splitList(" ru, ,de ,"))
	assert.Nil(t, splitList(""))
}

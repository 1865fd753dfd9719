package main

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/ZaguanLabs/polyglot/audio"
	"github.com/ZaguanLabs/polyglot/cache"
)

// Environment variables read before flags. A .env file in the working
// directory is loaded first and never overrides the real environment.
const (
	envURL      = "POLYGLOT_URL"
	envPlayer   = "POLYGLOT_PLAYER"
	envLogFile  = "POLYGLOT_LOG_FILE"
	envLogLevel = "POLYGLOT_LOG_LEVEL"
	envRedisURL = "POLYGLOT_REDIS_URL"
	envCacheTTL = "POLYGLOT_CACHE_TTL"
	envRPM      = "POLYGLOT_RPM"
)

const defaultURL = "http://localhost:8080"

// config holds the global settings shared by every command.
type config struct {
	URL         string
	Timeout     time.Duration
	Yes         bool
	HTML        bool
	TrustedHTML bool
	Player      string
	LogFile     string
	LogLevel    string
	CacheTTL    int
	RedisURL    string
	RPM         int
	NoColor     bool
}

// loadConfig builds the defaults from the environment.
func loadConfig(getenv func(string) string) config {
	cfg := config{
		URL:      defaultURL,
		Timeout:  30 * time.Second,
		Player:   audio.DefaultCommand,
		CacheTTL: cache.DefaultTTL,
	}

	if v := getenv(envURL); v != "" {
		cfg.URL = v
	}
	if v, ok := lookup(getenv, envPlayer); ok {
		cfg.Player = v
	}
	cfg.LogFile = getenv(envLogFile)
	cfg.LogLevel = getenv(envLogLevel)
	cfg.RedisURL = getenv(envRedisURL)
	if n, err := strconv.Atoi(getenv(envCacheTTL)); err == nil {
		cfg.CacheTTL = n
	}
	if n, err := strconv.Atoi(getenv(envRPM)); err == nil {
		cfg.RPM = n
	}
	return cfg
}

// lookup distinguishes an unset variable from one set to "none", which
// disables the feature it names.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	if v == "" {
		return "", false
	}
	if strings.EqualFold(v, "none") {
		return "", true
	}
	return v, true
}

// register binds the global flags, using the current values as defaults.
func (c *config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.URL, "url", c.URL, "Backend base URL (env "+envURL+")")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Per-request HTTP timeout")
	fs.BoolVar(&c.Yes, "yes", c.Yes, "Continue past validation warnings without asking")
	fs.BoolVar(&c.HTML, "html", c.HTML, "Print HTML fragments instead of terminal text")
	fs.BoolVar(&c.TrustedHTML, "trusted-html", c.TrustedHTML, "Print analysis HTML exactly as received (implies --html)")
	fs.StringVar(&c.Player, "player", c.Player, "Audio player command, empty to disable (env "+envPlayer+")")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Write JSON logs to this file (env "+envLogFile+")")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error (env "+envLogLevel+")")
	fs.IntVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "Result cache TTL in seconds, 0 to disable (env "+envCacheTTL+")")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "Share cached results through Redis (env "+envRedisURL+")")
	fs.IntVar(&c.RPM, "rpm", c.RPM, "Limit submissions per minute, 0 for no limit (env "+envRPM+")")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "Disable colored output")
}

package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit applied to one route pattern.
type EndpointConfig struct {
	Path   string        // "*" matches one segment, a trailing "/" matches a prefix
	Method string
	Limit  int           // requests per Window
	Window time.Duration
	Burst  int           // defaults to Limit when 0
}

// Per-minute defaults for the two form tiers.
const (
	DefaultSubmitLimit = 30
	DefaultEditLimit   = 600
)

// env reads RATE_LIMIT_* variables. Unparsable values fall back to the default.
type env struct {
	prefix string
	lookup func(string) string
}

func (e env) raw(name string) string {
	return strings.TrimSpace(e.lookup(e.prefix + name))
}

func (e env) intOr(name string, def int) int {
	if n, err := strconv.Atoi(e.raw(name)); err == nil && n > 0 {
		return n
	}
	return def
}

func (e env) boolOr(name string, def bool) bool {
	if b, err := strconv.ParseBool(e.raw(name)); err == nil {
		return b
	}
	return def
}

func (e env) durationOr(name string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.raw(name)); err == nil && d > 0 {
		return d
	}
	return def
}

// clients parses a comma separated list of client IPs.
func (e env) clients(name string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(e.raw(name), ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}

// LoadConfig builds the limiter configuration from RATE_LIMIT_* variables.
// RATE_LIMIT_SUBMIT_LIMIT and RATE_LIMIT_EDIT_LIMIT tune the form tiers.
func LoadConfig() *Config {
	e := env{prefix: "RATE_LIMIT_", lookup: os.Getenv}

	if !e.boolOr("ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    e.intOr("DEFAULT_LIMIT", 1000),
		DefaultWindow:   e.durationOr("DEFAULT_WINDOW", time.Minute),
		CleanupInterval: e.durationOr("CLEANUP_INTERVAL", 5*time.Minute),
		IdleTimeout:     e.durationOr("IDLE_TIMEOUT", time.Hour),
		Whitelist:       e.clients("WHITELIST"),
		Blacklist:       e.clients("BLACKLIST"),
		EndpointConfigs: formEndpoints(
			e.intOr("SUBMIT_LIMIT", DefaultSubmitLimit),
			e.intOr("EDIT_LIMIT", DefaultEditLimit),
		),
	}
}

// DefaultEndpointConfigs returns the form routes with their default limits.
func DefaultEndpointConfigs() []EndpointConfig {
	return formEndpoints(DefaultSubmitLimit, DefaultEditLimit)
}

// formEndpoints orders routes most specific first. Submissions and new forms
// reach the job posting API; everything else under /forms only touches the
// session store. Reads and /health are not listed.
func formEndpoints(submit, edit int) []EndpointConfig {
	burst := func(limit int) int { return max(1, limit/10) }
	return []EndpointConfig{
		{Path: "/forms/*/submit", Method: "POST", Limit: submit, Window: time.Minute, Burst: max(1, submit/6)},
		{Path: "/forms", Method: "POST", Limit: 2 * submit, Window: time.Minute, Burst: burst(2 * submit)},
		{Path: "/forms/", Method: "POST", Limit: edit, Window: time.Minute, Burst: burst(edit)},
		{Path: "/forms/", Method: "PATCH", Limit: edit, Window: time.Minute, Burst: burst(edit)},
		{Path: "/forms/", Method: "DELETE", Limit: edit / 2, Window: time.Minute, Burst: burst(edit / 2)},
	}
}

package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-shexform/pkg/orchestrator"
)

const (
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = time.Minute
	defaultMaxSessions   = 1000
)

// Option customises a Server.
type Option func(*Server)

// WithOrchestrator injects the orchestrator used to open and render
// sessions.
func WithOrchestrator(orch *orchestrator.Orchestrator) Option {
	return func(s *Server) {
		s.orch = orch
	}
}

// WithDefaults sets the request every new session starts from: the schema
// source, start shape, root URI and theme.
func WithDefaults(req orchestrator.Request) Option {
	return func(s *Server) {
		s.defaults = req
	}
}

// WithIdleTimeout forgets sessions unused for d. Zero keeps them until
// deleted.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.idleTimeout = d
	}
}

// WithSweepInterval sets how often idle sessions are collected.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Server) {
		s.sweepInterval = d
	}
}

// WithMaxSessions bounds the sessions held in memory.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		s.maxSessions = n
	}
}

// WithBasePath prefixes the URLs written into rendered forms, for servers
// mounted below the root.
func WithBasePath(path string) Option {
	return func(s *Server) {
		s.basePath = strings.TrimRight(path, "/")
	}
}

// WithoutLive disables the websocket endpoint and the live-editing script.
func WithoutLive() Option {
	return func(s *Server) {
		s.live = false
	}
}

// WithOriginPatterns sets the hosts allowed to open websocket connections
// from another origin.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) {
		s.originPatterns = append([]string(nil), patterns...)
	}
}

// WithInputPolicy replaces the policy submitted values are cleaned with.
// Nil keeps values untouched.
func WithInputPolicy(policy *bluemonday.Policy) Option {
	return func(s *Server) {
		s.inputPolicy = policy
		s.inputPolicySet = true
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

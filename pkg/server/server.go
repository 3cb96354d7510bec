package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-shexform/pkg/orchestrator"
	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/renderers/jsonld"
	"github.com/goliatone/go-shexform/pkg/renderers/vanilla"
	"github.com/goliatone/go-shexform/pkg/session"
)

const staleMessage = "The form changed since it was loaded. Review it and submit again."

// Server serves form sessions over HTTP: an HTML form posting back to its
// session, a websocket for live edits and the produced document as JSON-LD.
// Sessions live in memory only.
type Server struct {
	orch           *orchestrator.Orchestrator
	defaults       orchestrator.Request
	sessions       *Manager
	idleTimeout    time.Duration
	sweepInterval  time.Duration
	maxSessions    int
	basePath       string
	live           bool
	originPatterns []string
	inputPolicy    *bluemonday.Policy
	inputPolicySet bool
	logger         *slog.Logger
}

// New prepares a server. The schema named by the defaults is loaded once so
// every session shares it.
func New(ctx context.Context, options ...Option) (*Server, error) {
	s := &Server{
		idleTimeout:   defaultIdleTimeout,
		sweepInterval: defaultSweepInterval,
		maxSessions:   defaultMaxSessions,
		live:          true,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.orch == nil {
		s.orch = orchestrator.New(orchestrator.WithLogger(s.logger))
	}
	if err := s.orch.Err(); err != nil {
		return nil, err
	}
	if !s.inputPolicySet {
		s.inputPolicy = bluemonday.StrictPolicy()
	}

	if s.defaults.Schema == nil {
		sch, err := s.orch.Schema(slogcontext.NewCtx(ctx, s.logger), s.defaults)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.defaults.Schema = sch
	}
	s.sessions = NewManager(s.idleTimeout, s.maxSessions)
	return s, nil
}

// Sessions exposes the session manager.
func (s *Server) Sessions() *Manager {
	return s.sessions
}

// Run sweeps idle sessions until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.sessions.Run(ctx, s.sweepInterval, func(removed int) {
		s.logger.Info("idle sessions removed", "count", removed, "remaining", s.sessions.Len())
	})
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.withLogger)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
	})
	r.Get("/assets/{name}", s.handleAsset)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.loadSession)
			r.Get("/", s.handleShow)
			r.Post("/", s.handleSubmit)
			r.Delete("/", s.handleDelete)
			r.Get("/document", s.handleDocument)
			if s.live {
				r.Get("/ws", s.handleLive)
			}
		})
	})
	return r
}

type entryKey struct{}

func entryFrom(ctx context.Context) *Entry {
	entry, _ := ctx.Value(entryKey{}).(*Entry)
	return entry
}

func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry, ok := s.sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found or expired")
			return
		}
		ctx := context.WithValue(r.Context(), entryKey{}, entry)
		ctx = slogcontext.NewCtx(ctx, slogcontext.FromCtx(ctx).With("session", entry.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(slogcontext.NewCtx(r.Context(), logger)))
		logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	entry, err := s.open(r, r.URL.Query().Get("start"))
	if err != nil {
		s.openFailed(w, r, err)
		return
	}
	http.Redirect(w, r, s.sessionURL(entry.ID, ""), http.StatusSeeOther)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", err.Error())
		return
	}
	entry, err := s.open(r, r.FormValue("start"))
	if err != nil {
		s.openFailed(w, r, err)
		return
	}

	location := s.sessionURL(entry.ID, "")
	if !wantsJSON(r) {
		http.Redirect(w, r, location, http.StatusSeeOther)
		return
	}
	links := map[string]any{
		"id":       entry.ID,
		"form":     location,
		"document": s.sessionURL(entry.ID, "/document"),
		"start":    entry.Session.StartShape(),
	}
	if s.live {
		links["live"] = s.sessionURL(entry.ID, "/ws")
	}
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusCreated, links)
}

func (s *Server) open(r *http.Request, start string) (*Entry, error) {
	req := s.defaults
	if start = strings.TrimSpace(start); start != "" {
		req.Start = start
	}
	sess, err := s.orch.NewSession(r.Context(), req)
	if err != nil {
		return nil, err
	}
	entry := s.sessions.Add(sess)
	slogcontext.FromCtx(r.Context()).Info("session created", "session", entry.ID, "start", sess.StartShape())
	return entry, nil
}

func (s *Server) openFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrUnknownShape) {
		writeError(w, http.StatusBadRequest, "UNKNOWN_SHAPE", err.Error())
		return
	}
	slogcontext.FromCtx(r.Context()).Error("open session", "error", err)
	writeError(w, http.StatusInternalServerError, "SESSION_FAILED", "could not open a form session")
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, entryFrom(r.Context()), nil, http.StatusOK)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	entry := entryFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", err.Error())
		return
	}
	feedback, status, err := s.submit(r.Context(), entry, r.PostForm)
	if err != nil {
		writeError(w, status, "INVALID_SUBMISSION", err.Error())
		return
	}
	s.writePage(w, r, entry, feedback, status)
}

// submit applies posted values to the entry's session. Stale posts are not
// applied and answered with a conflict and a form-level message.
func (s *Server) submit(ctx context.Context, entry *Entry, values url.Values) (map[string][]string, int, error) {
	sub, err := ParseSubmission(values, s.clean)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	entry.mu.Lock()
	feedback, err := sub.Apply(entry.Session)
	version := entry.Session.Version()
	entry.mu.Unlock()

	logger := slogcontext.FromCtx(ctx)
	if errors.Is(err, ErrStaleVersion) {
		logger.Info("stale submission", "submitted", sub.Version, "current", version)
		return map[string][]string{"": {staleMessage}}, http.StatusConflict, nil
	}
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	logger.Debug("submission applied", "version", version, "action", sub.Action, "feedback", len(feedback))
	return feedback, http.StatusOK, nil
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	entry := entryFrom(r.Context())
	s.sessions.Remove(entry.ID)
	slogcontext.FromCtx(r.Context()).Info("session deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	entry := entryFrom(r.Context())
	doc := entry.Session.Document()

	digest, err := jsonld.Digest(doc)
	if err != nil {
		slogcontext.FromCtx(r.Context()).Error("document digest", "error", err)
		writeError(w, http.StatusInternalServerError, "DOCUMENT_FAILED", "could not serialise the document")
		return
	}
	etag := `"` + digest + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	out, err := jsonld.Canonical(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DOCUMENT_FAILED", "could not serialise the document")
		return
	}
	w.Header().Set("Content-Type", "application/ld+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, vanilla.AssetsFS(), name)
}

// writePage renders the entry with the renderer the query names (HTML by
// default).
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, entry *Entry, feedback map[string][]string, status int) {
	out, contentType, err := s.renderEntry(r, entry, feedback)
	if err != nil {
		slogcontext.FromCtx(r.Context()).Error("render session", "error", err)
		writeError(w, http.StatusInternalServerError, "RENDER_FAILED", "could not render the form")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (s *Server) renderEntry(r *http.Request, entry *Entry, feedback map[string][]string) ([]byte, string, error) {
	query := r.URL.Query()
	req := s.defaults
	req.Renderer = query.Get("renderer")
	if req.Renderer == "" {
		if renderer, ok := s.orch.Registry().Negotiate(r.Header.Get("Accept")); ok {
			req.Renderer = renderer.Name()
		}
	}
	if name := query.Get("theme"); name != "" {
		req.ThemeName, req.ThemeVariant = name, query.Get("variant")
	}
	req.RenderOptions = render.RenderOptions{
		Action: s.sessionURL(entry.ID, ""),
		Errors: feedback,
	}
	if s.live {
		req.RenderOptions.LiveURL = s.sessionURL(entry.ID, "/ws")
	}

	renderer, err := s.orch.RendererFor(req.Renderer)
	if err != nil {
		return nil, "", err
	}
	out, err := s.orch.Render(r.Context(), entry.Session, req)
	if err != nil {
		return nil, "", err
	}
	return out, renderer.ContentType(), nil
}

func (s *Server) sessionURL(id, suffix string) string {
	return s.basePath + "/sessions/" + id + suffix
}

// clean strips markup from submitted text. Entities the policy escapes are
// turned back into text since values are stored, not echoed as HTML.
func (s *Server) clean(raw string) string {
	if s.inputPolicy == nil {
		return raw
	}
	return html.UnescapeString(s.inputPolicy.Sanitize(raw))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

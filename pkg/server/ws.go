package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/renderers/vanilla/components"
)

const liveWriteTimeout = 10 * time.Second

// LiveMessage is sent by the browser for every change or button press.
// Fields carries the form values by input name.
type LiveMessage struct {
	Version int                 `json:"version"`
	Action  string              `json:"action,omitempty"`
	Fields  map[string][]string `json:"fields"`
}

// LiveReply carries the re-rendered page after a message was applied.
type LiveReply struct {
	Version int    `json:"version"`
	Status  int    `json:"status"`
	HTML    string `json:"html,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleLive upgrades to a websocket and applies messages in order until
// the client leaves or the session expires.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	entry := entryFrom(r.Context())
	logger := slogcontext.FromCtx(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		logger.Warn("websocket accept", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	logger.Debug("live connection opened")
	for {
		var msg LiveMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				logger.Debug("live connection closed", "status", status)
			} else {
				logger.Debug("live read", "error", err)
			}
			return
		}

		if _, ok := s.sessions.Get(entry.ID); !ok {
			conn.Close(websocket.StatusPolicyViolation, "session expired")
			return
		}

		reply := s.applyLive(r, entry, msg)
		if err := s.send(ctx, conn, reply); err != nil {
			logger.Debug("live write", "error", err)
			return
		}
	}
}

func (s *Server) applyLive(r *http.Request, entry *Entry, msg LiveMessage) LiveReply {
	values := url.Values{}
	for name, all := range msg.Fields {
		values[name] = all
	}
	values.Set(render.FieldVersion, strconv.Itoa(msg.Version))
	values.Del(components.FieldAction)
	if msg.Action != "" {
		values.Set(components.FieldAction, msg.Action)
	}

	feedback, status, err := s.submit(r.Context(), entry, values)
	if err != nil {
		return LiveReply{Version: entry.Session.Version(), Status: status, Error: err.Error()}
	}
	out, _, err := s.renderEntry(r, entry, feedback)
	if err != nil {
		slogcontext.FromCtx(r.Context()).Error("render session", "error", err)
		return LiveReply{Version: entry.Session.Version(), Status: http.StatusInternalServerError, Error: "could not render the form"}
	}
	return LiveReply{Version: entry.Session.Version(), Status: status, HTML: string(out)}
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, reply LiveReply) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, reply)
}

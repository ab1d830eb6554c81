// Package web exposes liveness, metrics and the reaction ingress endpoint.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"memocal/internal/config"
	"memocal/internal/dispatch"
	appLog "memocal/internal/log"
)

// ReactionHandler consumes decoded toggle signals. *dispatch.Dispatcher
// satisfies it.
type ReactionHandler interface {
	HandleReaction(ctx context.Context, r dispatch.Reaction) error
}

// Server provides the HTTP surface: /health, /metrics, and
// POST /api/reactions for the gateway relay that forwards reaction events.
type Server struct {
	cfg       *config.Config
	reactions ReactionHandler
	mux       *http.ServeMux
}

func NewServer(cfg *config.Config, reactions ReactionHandler) *Server {
	s := &Server{
		cfg:       cfg,
		reactions: reactions,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health is always exposed unauthenticated.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="memocal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/reactions", s.handleReactions)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// reactionEvent is the wire form of one toggle signal from the relay.
type reactionEvent struct {
	Emoji       string `json:"emoji"`
	Direction   string `json:"direction"` // "add" | "remove"
	MessageID   string `json:"message_id"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	GuildID     string `json:"guild_id"`
	UserID      string `json:"user_id"`
}

func (s *Server) handleReactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ev reactionEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if ev.MessageID == "" || ev.ChannelID == "" {
		http.Error(w, "message_id and channel_id are required", http.StatusBadRequest)
		return
	}
	dir := dispatch.Direction(ev.Direction)
	if dir != dispatch.DirectionAdd && dir != dispatch.DirectionRemove {
		http.Error(w, "direction must be add or remove", http.StatusBadRequest)
		return
	}

	err := s.reactions.HandleReaction(r.Context(), dispatch.Reaction{
		Emoji:       ev.Emoji,
		Direction:   dir,
		MessageID:   ev.MessageID,
		ChannelID:   ev.ChannelID,
		ChannelName: ev.ChannelName,
		GuildID:     ev.GuildID,
		UserID:      ev.UserID,
	})
	if err != nil {
		appLog.Error("toggle reconciliation failed", err,
			"message_id", ev.MessageID, "direction", ev.Direction)
		http.Error(w, "reconciliation failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

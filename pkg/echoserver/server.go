// Package echoserver is a local chat endpoint speaking the widget's wire
// contract. It answers every POST /chat according to a fixed Mode, which makes
// each client path reachable by hand.
package echoserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/chatwidget/pkg/dispatch"
)

type Mode string

const (
	// ModeEcho replies {"response": "You said: ..."}.
	ModeEcho Mode = "echo"
	// ModeMessage replies under the secondary "message" field only.
	ModeMessage Mode = "message"
	// ModeEmpty replies with an empty object.
	ModeEmpty Mode = "empty"
	// ModeError fails every request with status 500.
	ModeError Mode = "error500"
	// ModeInvalid replies 200 with a body that is not JSON.
	ModeInvalid Mode = "invalid"
)

var Modes = []Mode{ModeEcho, ModeMessage, ModeEmpty, ModeError, ModeInvalid}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errors.Errorf("unknown mode %q", s)
}

const ChatPath = "/chat"

type Server struct {
	mode    Mode
	delay   time.Duration
	httpSrv *http.Server
}

type Option func(*Server)

// WithDelay holds every reply back by d, which keeps the client's loading
// state visible.
func WithDelay(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

func WithMode(m Mode) Option {
	return func(s *Server) { s.mode = m }
}

func New(addr string, opts ...Option) *Server {
	s := &Server{mode: ModeEcho}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(ChatPath, s.handleChat)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

func (s *Server) Mode() Mode { return s.mode }

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dispatch.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		log.Debug().Err(err).Str("component", "echoserver").Msg("bad request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	log.Debug().
		Str("component", "echoserver").
		Str("mode", string(s.mode)).
		Int("history", len(req.History)).
		Msg("chat request")

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	switch s.mode {
	case ModeError:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	case ModeInvalid:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "this is not json")
	case ModeEmpty:
		writeJSON(w, map[string]any{})
	case ModeMessage:
		writeJSON(w, map[string]any{"message": "You said: " + req.Message})
	default:
		writeJSON(w, map[string]any{"response": "You said: " + req.Message})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Str("component", "echoserver").Msg("write reply")
	}
}

// Run serves until ctx is done or the process receives an interrupt, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("ctx is nil")
	}
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			log.Info().Msg("received interrupt signal, shutting down gracefully...")
		case <-egCtx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
			return err
		}
		log.Info().Msg("server shutdown complete")
		return nil
	})

	eg.Go(func() error {
		log.Info().Str("addr", s.httpSrv.Addr).Str("mode", string(s.mode)).Msg("starting chat endpoint")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server listen error")
			return errors.Wrap(err, "listen")
		}
		return nil
	})

	return eg.Wait()
}

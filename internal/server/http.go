package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"cow-orderbook/internal/config"
	"cow-orderbook/internal/dashboard"
	"cow-orderbook/internal/state"
	"cow-orderbook/internal/tokens"
)

// Builder renders the order book for a token name.
type Builder interface {
	Build(ctx context.Context, focusName string) (*dashboard.View, error)
	Registry() *tokens.Registry
}

type HTTPServer struct {
	cfg    config.Config
	st     *state.State
	svc    Builder
	hub    *hub
	log    *slog.Logger
	router *mux.Router
}

func NewHTTPServer(cfg config.Config, st *state.State, svc Builder, logger *slog.Logger) *HTTPServer {
	s := &HTTPServer{
		cfg:    cfg,
		st:     st,
		svc:    svc,
		hub:    newHub(logger),
		log:    logger,
		router: mux.NewRouter(),
	}
	s.routes()
	go s.hub.run()
	return s
}

// Handler returns the router wrapped with CORS for the configured origins.
func (s *HTTPServer) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// --------- WS broadcasts ----------

func (s *HTTPServer) BroadcastStatus() {
	at, lastErr := s.st.LastRender()
	s.hub.broadcast <- marshalWS("status", map[string]any{
		"focus":        s.st.Focus(),
		"lastRenderOK": s.st.LastRenderOK(),
		"lastRenderAt": at,
		"lastError":    lastErr,
	})
}

func (s *HTTPServer) BroadcastBook(v *dashboard.View) {
	s.hub.broadcast <- marshalWS("book", v)
}

func (s *HTTPServer) BroadcastError(msg string) {
	s.hub.broadcast <- marshalWS("error", map[string]string{"message": msg})
}

// --------- Routes ----------

func (s *HTTPServer) routes() {
	// SPA
	s.router.HandleFunc("/", s.serveStatic("index.html", "text/html; charset=utf-8")).Methods(http.MethodGet)
	s.router.HandleFunc("/index.html", s.serveStatic("index.html", "text/html; charset=utf-8")).Methods(http.MethodGet)
	s.router.HandleFunc("/app.js", s.serveStatic("app.js", "text/javascript; charset=utf-8")).Methods(http.MethodGet)
	s.router.HandleFunc("/styles.css", s.serveStatic("styles.css", "text/css; charset=utf-8")).Methods(http.MethodGet)

	// WS
	s.router.HandleFunc("/ws", s.hub.serveWS)

	// API
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.apiHealth).Methods(http.MethodGet)
	api.HandleFunc("/config", s.apiConfig).Methods(http.MethodGet)
	api.HandleFunc("/tokens", s.apiTokens).Methods(http.MethodGet)
	api.HandleFunc("/book", s.apiBook).Methods(http.MethodGet)
	api.HandleFunc("/focus", s.apiFocus).Methods(http.MethodPost)
	api.HandleFunc("/refresh", s.apiRefresh).Methods(http.MethodPost)
}

func (s *HTTPServer) serveStatic(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(filepath.Join(s.cfg.WebDir, name))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(b)
	}
}

func (s *HTTPServer) apiHealth(w http.ResponseWriter, r *http.Request) {
	at, lastErr := s.st.LastRender()
	writeJSON(w, map[string]any{
		"ok":           true,
		"lastRenderOK": s.st.LastRenderOK(),
		"lastRenderAt": at,
		"lastError":    lastErr,
	})
}

func (s *HTTPServer) apiConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"defaultToken":       s.cfg.DefaultToken,
		"currentToken":       s.st.Focus(),
		"numeraireAddress":   s.cfg.NumeraireAddress,
		"explorerAddressURL": s.cfg.ExplorerAddressURL,
		"auctionURL":         s.cfg.AuctionURL,
	})
}

func (s *HTTPServer) apiTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.Registry().Tokens())
}

// GET /api/book?token=<name>; the current focus is used when token is omitted.
func (s *HTTPServer) apiBook(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("token")
	if name == "" {
		name = s.st.Focus()
	}
	v, err := s.render(r.Context(), name)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, v)
}

// POST /api/focus { "token": "<name>" }
func (s *HTTPServer) apiFocus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if _, err := s.svc.Registry().FindAddressByName(req.Token); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.st.SetFocus(req.Token)
	s.BroadcastStatus()
	writeJSON(w, map[string]any{"ok": true, "token": s.st.Focus()})
}

// POST /api/refresh renders the current focus and pushes it to WS clients.
func (s *HTTPServer) apiRefresh(w http.ResponseWriter, r *http.Request) {
	v, err := s.render(r.Context(), s.st.Focus())
	if err != nil {
		s.BroadcastError(err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.BroadcastBook(v)
	writeJSON(w, map[string]any{"ok": true, "generatedAt": v.GeneratedAt, "shown": v.Stats.Shown})
}

func (s *HTTPServer) render(ctx context.Context, name string) (*dashboard.View, error) {
	v, err := s.svc.Build(ctx, name)
	if isSelectionError(err) {
		return nil, err
	}
	s.st.RecordRender(time.Now(), err)
	if err != nil {
		s.log.Error("render failed", slog.String("token", name), slog.String("err", err.Error()))
	}
	return v, err
}

func isSelectionError(err error) bool {
	return errors.Is(err, tokens.ErrUnknownToken) || errors.Is(err, tokens.ErrAmbiguousName)
}

func statusFor(err error) int {
	if isSelectionError(err) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

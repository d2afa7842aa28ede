// Package api provides the HTTP REST API server for CurveWatch.
//
// It exposes endpoints for yield curve analytics, spreads, implied
// forwards, shape classification, curve refresh, snapshot history,
// rates news, and WebSocket streaming of curve updates.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/curvewatch/curvewatch/internal/config"
	"github.com/curvewatch/curvewatch/internal/curve"
	"github.com/curvewatch/curvewatch/internal/datasource"
	"github.com/curvewatch/curvewatch/internal/history"
	"github.com/curvewatch/curvewatch/internal/report"
	"github.com/curvewatch/curvewatch/web"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	log     *zap.Logger
	agg     *datasource.Aggregator
	history *history.Log

	mu    sync.RWMutex
	store *curve.Store
	vocab curve.Vocabulary

	wsHub   *WSHub
	serveUI bool // when true, serve the embedded dashboard at /
	version string
}

// NewServer creates a configured API server with all routes and
// middleware. It starts with an empty curve store; Refresh (or
// POST /api/v1/refresh) loads the first curve.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	vocab, err := curve.VocabularyByName(cfg.Curve.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("server setup failed: %w", err)
	}

	srv := &Server{
		cfg:     cfg,
		log:     log.Named("api"),
		agg:     datasource.NewAggregatorFromConfig(cfg, log),
		history: history.NewLog(0, log),
		store:   curve.NewStore(vocab),
		vocab:   vocab,
		wsHub:   NewWSHub(),
		serveUI: cfg.Server.ServeUI,
		version: "dev",
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// SetVersion sets the version string reported by the health endpoint.
// Must be called before ListenAndServe.
func (s *Server) SetVersion(v string) {
	s.version = v
}

// SetServeUI controls whether the embedded dashboard is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.log.Info("server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-done:
	}

	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.Server.CORSOrigins) > 0 {
		origins = s.cfg.Server.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Curve analytics
		r.Get("/curve", s.handleCurve)
		r.Get("/curve/points", s.handlePoints)
		r.Get("/curve/yield", s.handleYield)
		r.Get("/curve/spread", s.handleSpread)
		r.Get("/curve/forward", s.handleForward)
		r.Get("/curve/shape", s.handleShape)

		// Refresh
		r.Post("/refresh", s.handleRefresh)

		// History
		r.Get("/history", s.handleHistory)

		// News
		r.Get("/news", s.handleNews)

		// Configuration
		r.Get("/config", s.handleGetConfig)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	// WebSocket (also at root for the dashboard)
	r.Get("/ws", s.handleWebSocket)

	// Serve embedded dashboard (SPA with fallback to index.html)
	if s.serveUI {
		s.mountSPA(r, web.DistFS())
	}

	return r
}

// mountSPA serves the embedded dashboard as a single-page app. Files
// present in the embedded FS are served directly; all other paths fall
// back to index.html for client-side routing.
func (s *Server) mountSPA(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, r, distFS)
			return
		}
		f.Close()

		if rPath == "index.html" || strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}

		fileServer.ServeHTTP(w, r)
	})
}

// serveIndexHTML reads and serves the embedded index.html for SPA fallback.
func serveIndexHTML(w http.ResponseWriter, r *http.Request, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "dashboard not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HistoryEntry is the compact view of one recorded snapshot returned
// by GET /api/v1/history.
type HistoryEntry struct {
	Date        string    `json:"date"`
	Points      int       `json:"points"`
	Shape       string    `json:"shape"`
	Spread2s10s float64   `json:"2s10s_bps"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ============================================================
// Curve state
// ============================================================

// Store returns the currently loaded curve store. Stores are immutable
// once loaded; Refresh swaps in a fresh one rather than mutating.
func (s *Server) Store() *curve.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Refresh fetches the latest curve rows, loads them into a fresh store,
// swaps it in, records a history snapshot, and notifies WebSocket
// clients. The old store keeps serving readers until the swap.
func (s *Server) Refresh(ctx context.Context) (*curve.Store, error) {
	data, err := s.agg.FetchCurve(ctx)
	if err != nil {
		return nil, err
	}
	return s.installCurve(data)
}

// Warmup primes the server at startup: curve and news feeds are
// fetched concurrently so the first dashboard hit is served from
// cache, then the curve is installed exactly like a refresh.
func (s *Server) Warmup(ctx context.Context) (*curve.Store, error) {
	w, err := s.agg.FetchAll(ctx, s.cfg.News.Limit)
	if err != nil {
		return nil, err
	}
	if w.Curve == nil {
		return nil, fmt.Errorf("no curve data fetched")
	}
	return s.installCurve(w.Curve)
}

// installCurve loads rows into a fresh store, swaps it in, records a
// history snapshot, and broadcasts the refresh.
func (s *Server) installCurve(data *datasource.CurveData) (*curve.Store, error) {
	st := curve.NewStore(s.vocab)
	if !st.Load(data.Rows, s.cfg.Data.DateFilter) {
		return nil, fmt.Errorf("no usable curve rows in fetched data")
	}

	s.mu.Lock()
	s.store = st
	s.mu.Unlock()

	s.history.Record(st.Date(), st.Points(), st.Shape(), st.Spread(2, 10)*100)

	s.log.Info("curve refreshed",
		zap.String("date", st.Date()),
		zap.Int("points", st.Len()))

	s.wsHub.Broadcast(WSMessage{
		Type: "curve_refresh",
		Data: map[string]interface{}{
			"date":   st.Date(),
			"points": st.Len(),
		},
	})

	return st, nil
}

// reportConfig maps the application config onto the report settings.
func (s *Server) reportConfig() report.Config {
	rc := report.DefaultConfig()
	if s.cfg.Curve.CouponRate > 0 {
		rc.CouponRate = s.cfg.Curve.CouponRate
	}
	return rc
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.Store()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    s.version,
			"curve_date": st.Date(),
			"points":     st.Len(),
		},
	})
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	st, ok := s.storeOr404(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report.BuildExport(st, s.reportConfig()),
	})
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	st, ok := s.storeOr404(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    st.Points(),
	})
}

func (s *Server) handleYield(w http.ResponseWriter, r *http.Request) {
	st, ok := s.storeOr404(w)
	if !ok {
		return
	}

	maturity, err := queryFloat(r, "maturity")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"maturity": maturity,
			"yield":    st.YieldAt(maturity),
		},
	})
}

func (s *Server) handleSpread(w http.ResponseWriter, r *http.Request) {
	st, ok := s.storeOr404(w)
	if !ok {
		return
	}

	m1, err := queryFloat(r, "m1")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m2, err := queryFloat(r, "m2")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	spread := st.Spread(m1, m2)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"m1":         m1,
			"m2":         m2,
			"spread":     spread,
			"spread_bps": spread * 100,
		},
	})
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	st, ok := s.storeOr404(w)
	if !ok {
		return
	}

	t1, err := queryFloat(r, "t1")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t2, err := queryFloat(r, "t2")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fwd, err := st.ForwardRate(t1, t2)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"t1":           t1,
			"t2":           t2,
			"forward_rate": fwd,
		},
	})
}

func (s *Server) handleShape(w http.ResponseWriter, r *http.Request) {
	st, ok := s.storeOr404(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"shape":             st.Shape(),
			"steepness":         st.Steepness(),
			"recession_warning": st.RecessionWarning(),
			"term_premium_bps":  st.TermPremium() * 100,
		},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	st, err := s.Refresh(ctx)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"date":   st.Date(),
			"points": st.Len(),
		},
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snaps := s.history.List()
	entries := make([]HistoryEntry, 0, len(snaps))
	for _, snap := range snaps {
		entries = append(entries, HistoryEntry{
			Date:        snap.Date,
			Points:      len(snap.Points),
			Shape:       snap.Shape,
			Spread2s10s: snap.Spread2s10s,
			RecordedAt:  snap.RecordedAt,
		})
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    entries,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.News.Limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", raw))
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	articles, err := s.agg.NewsSource().GetMarketNews(ctx, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    articles,
	})
}

// ============================================================
// Helpers
// ============================================================

// storeOr404 returns the loaded store, or writes a 404 when no curve
// has been loaded yet.
func (s *Server) storeOr404(w http.ResponseWriter) (*curve.Store, bool) {
	st := s.Store()
	if st == nil || st.Len() == 0 {
		writeError(w, http.StatusNotFound, "no curve loaded; POST /api/v1/refresh first")
		return nil, false
	}
	return st, true
}

// queryFloat parses a required float query parameter.
func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

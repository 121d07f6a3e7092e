package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"rbcal/internal/calendar"
	"rbcal/internal/config"
	"rbcal/internal/ics"
	"rbcal/internal/interact"
	appLog "rbcal/internal/log"
	"rbcal/internal/model"
)

const (
	// maxLayoutBody bounds POST /api/layout/day payloads.
	maxLayoutBody = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// Server exposes the calendar layouts over HTTP and keeps the event
// snapshot fresh on the configured cron schedule.
type Server struct {
	cfg     *config.Config
	cal     *calendar.Calendar
	loader  *ics.Loader
	sources []ics.Source
	metrics *metrics
	mux     *http.ServeMux

	// reloadMu serializes reloads triggered by cron and by startup.
	reloadMu   sync.Mutex
	lastReload time.Time
}

// NewServer constructs a new Server. loader may be nil.
func NewServer(cfg *config.Config, cal *calendar.Calendar, loader *ics.Loader) *Server {
	if loader == nil {
		loader = ics.NewLoader(nil)
	}
	s := &Server{
		cfg:     cfg,
		cal:     cal,
		loader:  loader,
		sources: calendar.Sources(cfg),
		metrics: newMetrics(),
		mux:     http.NewServeMux(),
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

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials disable it.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="rbcal", charset="UTF-8"`)
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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /api/day", s.instrument("day", s.handleDay))
	s.mux.Handle("GET /api/week", s.instrument("week", s.handleWeek))
	s.mux.Handle("GET /api/month", s.instrument("month", s.handleMonth))
	s.mux.Handle("POST /api/layout/day", s.instrument("layout_day", s.handleLayoutDay))
	s.mux.Handle("POST /api/drag/column", s.instrument("drag_column", s.handleDragColumn))
	s.mux.Handle("GET /metrics", s.metrics.handler())
}

// Run loads the sources, schedules the reloads and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.Reload(ctx)

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.RefreshCron, func() { s.Reload(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.cfg.RefreshCron, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "refresh", s.cfg.RefreshCron)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Reload refreshes the event snapshot from the configured sources.
func (s *Server) Reload(ctx context.Context) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	n, errs := s.cal.Reload(ctx, s.loader, s.sources)
	s.metrics.events.Set(float64(n))
	if len(errs) > 0 {
		s.metrics.reloads.WithLabelValues("error").Inc()
		appLog.Error("reload: one or more sources failed", errors.Join(errs...), "error_count", len(errs))
	} else {
		s.metrics.reloads.WithLabelValues("ok").Inc()
	}
	s.lastReload = time.Now()
}

type healthResponse struct {
	Status     string    `json:"status"`
	Events     int       `json:"events"`
	LastReload time.Time `json:"last_reload,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.reloadMu.Lock()
	last := s.lastReload
	s.reloadMu.Unlock()
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Events: len(s.cal.Events()), LastReload: last})
}

// handleDay returns the layout of one day.
//
// GET /api/day?date=2024-03-04 (default: today in the configured timezone)
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.parseDate(w, r)
	if !ok {
		return
	}
	v, err := s.cal.Day(date)
	if err != nil {
		appLog.Error("api day: layout failed", err, "date", date.Format(time.DateOnly))
		writeError(w, http.StatusInternalServerError, "failed to lay out day")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleWeek returns the time grid of the week containing date.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	date, ok := s.parseDate(w, r)
	if !ok {
		return
	}
	v, err := s.cal.Week(date)
	if err != nil {
		appLog.Error("api week: layout failed", err, "date", date.Format(time.DateOnly))
		writeError(w, http.StatusInternalServerError, "failed to lay out week")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleMonth returns the month grid of the month containing date.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	date, ok := s.parseDate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.cal.Month(date))
}

// layoutRequest is the body of POST /api/layout/day.
type layoutRequest struct {
	Date   string       `json:"date"`
	Events []eventInput `json:"events"`
}

type eventInput struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	AllDay     bool      `json:"all_day"`
	ResourceID string    `json:"resource_id"`
}

// handleLayoutDay lays out the posted events in one day column without
// touching the snapshot.
func (s *Server) handleLayoutDay(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLayoutBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	date, err := parseDay(req.Date, s.cal.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := make([]model.Event, 0, len(req.Events))
	for _, in := range req.Events {
		events = append(events, in.occurrence())
	}

	v, err := s.cal.LayoutColumn(date, events)
	if err != nil {
		appLog.Error("api layout: failed", err)
		writeError(w, http.StatusInternalServerError, "failed to lay out events")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (in eventInput) occurrence() *model.Occurrence {
	return &model.Occurrence{
		UID:      in.ID,
		Summary:  in.Title,
		StartsAt: in.Start,
		EndsAt:   in.End,
		IsAllDay: in.AllDay,
		Resource: in.ResourceID,
	}
}

// dragRequest is the body of POST /api/drag/column: one pointer gesture
// over a day column, in container pixels.
type dragRequest struct {
	Date       string              `json:"date"`
	Event      *eventInput         `json:"event"`
	Action     interact.DragAction `json:"action"`
	Direction  interact.Direction  `json:"direction"`
	Column     interact.Rect       `json:"column"`
	EventBox   *interact.Rect      `json:"event_box"`
	Points     []interact.Point    `json:"points"`
	ResourceID string              `json:"resource_id"`
	Drop       bool                `json:"drop"`
}

// handleDragColumn replays a drag gesture and returns the preview and,
// when requested, the drop. Nothing is stored.
func (s *Server) handleDragColumn(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLayoutBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Event == nil {
		writeError(w, http.StatusBadRequest, "event is required")
		return
	}

	date, err := parseDay(req.Date, s.cal.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v, err := s.cal.DragColumn(date, calendar.ColumnGesture{
		Event:      req.Event.occurrence(),
		Action:     req.Action,
		Direction:  req.Direction,
		Column:     req.Column,
		EventBox:   req.EventBox,
		Points:     req.Points,
		ResourceID: req.ResourceID,
		Drop:       req.Drop,
	})
	switch {
	case errors.Is(err, calendar.ErrNoPoints), errors.Is(err, calendar.ErrNoEvent), errors.Is(err, calendar.ErrBadAction):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		appLog.Error("api drag: failed", err)
		writeError(w, http.StatusInternalServerError, "failed to replay drag")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := parseDay(r.URL.Query().Get("date"), s.cal.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return date, true
}

// parseDay parses a YYYY-MM-DD date in loc. An empty value means today.
func parseDay(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

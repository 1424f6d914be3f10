package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"relboard/internal/config"
	appLog "relboard/internal/log"
	"relboard/internal/model"
	"relboard/internal/store"
	"relboard/internal/timeline"
)

// RefreshFunc re-imports the configured feeds into the store. The server
// invokes it on POST /api/refresh; the periodic path is cron-driven in
// cmd/relboard.
type RefreshFunc func(ctx context.Context) error

// Server provides the HTTP JSON API consumed by the dashboard rendering
// layer: raw releases, computed timeline layouts, and the calendar grid.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	refresh RefreshFunc
	mux     *http.ServeMux

	// Computed timeline layouts are cached per anchor/zoom for a short TTL;
	// a successful refresh drops the whole cache.
	cacheMu       sync.RWMutex
	timelineCache map[string]timelineCacheEntry

	// now is injectable for deterministic handler tests.
	now func() time.Time
}

// timelineCacheTTL bounds how stale a served layout can be relative to the
// store snapshot it was computed from.
const timelineCacheTTL = 30 * time.Second

type timelineCacheEntry struct {
	resp      timelineResponse
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store, refresh RefreshFunc) *Server {
	s := &Server{
		cfg:           cfg,
		store:         st,
		refresh:       refresh,
		mux:           http.NewServeMux(),
		timelineCache: make(map[string]timelineCacheEntry),
		now:           time.Now,
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

// StartServer starts an HTTP server bound to cfg.Listen.
func StartServer(_ context.Context, cfg *config.Config, st *store.Store, refresh RefreshFunc) error {
	s := NewServer(cfg, st, refresh)
	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	return http.ListenAndServe(cfg.Listen, s.Handler())
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
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
		// /health stays reachable for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="relboard", charset="UTF-8"`)
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
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/releases", s.handleReleases)
	s.mux.HandleFunc("/api/timeline", s.handleTimeline)
	s.mux.HandleFunc("/api/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// releaseDTO is the JSON-friendly view of a release.
type releaseDTO struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	StatusCategory string `json:"statusCategory"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
}

func toReleaseDTO(r model.Release) releaseDTO {
	return releaseDTO{
		ID:             r.ID,
		Label:          r.Label,
		StatusCategory: r.Status,
		StartDate:      r.Start.Format(model.DateLayout),
		EndDate:        r.End.Format(model.DateLayout),
	}
}

// releasesResponse is the JSON response shape for /api/releases.
type releasesResponse struct {
	Releases    []releaseDTO `json:"releases"`
	RefreshedAt *time.Time   `json:"refreshedAt,omitempty"`
}

func (s *Server) handleReleases(w http.ResponseWriter, _ *http.Request) {
	releases, refreshed := s.store.Snapshot()

	dtos := make([]releaseDTO, 0, len(releases))
	for _, r := range releases {
		dtos = append(dtos, toReleaseDTO(r))
	}

	resp := releasesResponse{Releases: dtos}
	if !refreshed.IsZero() {
		resp.RefreshedAt = &refreshed
	}
	writeJSON(w, http.StatusOK, resp)
}

type columnDTO struct {
	Date      string `json:"date"`
	Index     int    `json:"index"`
	IsToday   bool   `json:"isToday"`
	IsWeekend bool   `json:"isWeekend"`
}

type barDTO struct {
	releaseDTO
	LeftPx  float64 `json:"leftPx"`
	WidthPx float64 `json:"widthPx"`
	Row     int     `json:"rowIndex"`
}

// timelineResponse is the JSON response shape for /api/timeline.
type timelineResponse struct {
	Zoom         string      `json:"zoom"`
	WeekStart    string      `json:"weekStart"`
	WindowStart  string      `json:"windowStart"`
	WindowEnd    string      `json:"windowEnd"`
	Columns      []columnDTO `json:"columns"`
	Bars         []barDTO    `json:"bars"`
	TotalWidthPx float64     `json:"totalWidthPx"`
	TodayPx      *float64    `json:"todayPx,omitempty"`
}

// handleTimeline computes the full layout for an anchor date and zoom level.
//
// GET /api/timeline?anchor=2025-01-15&zoom=week
//   - anchor: ISO date driving the visible window (default: today)
//   - zoom:   day | week | month (default: week)
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	loc := resolveLocationOrUTC(s.cfg.Timezone)
	now := s.now().In(loc)

	anchor := timeline.DateOf(now)
	if v := q.Get("anchor"); v != "" {
		t, err := time.ParseInLocation(model.DateLayout, v, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid anchor date: "+v)
			return
		}
		anchor = t
	}

	zoom := timeline.ZoomWeek
	if v := q.Get("zoom"); v != "" {
		z, err := timeline.ParseZoom(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zoom = z
	}

	// The layout also depends on today's date (column flags, marker), so
	// the cache key carries it and entries stop matching at midnight.
	cacheKey := timeline.DateOf(now).Format(model.DateLayout) + "|" +
		anchor.Format(model.DateLayout) + "|" + zoom.String()

	s.cacheMu.RLock()
	entry, ok := s.timelineCache[cacheKey]
	s.cacheMu.RUnlock()
	if ok && s.now().Sub(entry.updatedAt) < timelineCacheTTL {
		writeJSON(w, http.StatusOK, entry.resp)
		return
	}

	releases, _ := s.store.Snapshot()

	layout, err := timeline.Build(releases, anchor, zoom, s.layoutOptions(now))
	if err != nil {
		// Invalid release data in the snapshot; surface, don't crash.
		appLog.Error("timeline build failed", err, "anchor", anchor.Format(model.DateLayout), "zoom", zoom)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := timelineResponse{
		Zoom:         zoom.String(),
		WeekStart:    s.cfg.WeekStart,
		WindowStart:  layout.Window.Start.Format(model.DateLayout),
		WindowEnd:    layout.Window.End.Format(model.DateLayout),
		Columns:      make([]columnDTO, 0, len(layout.Columns)),
		Bars:         make([]barDTO, 0, len(layout.Bars)),
		TotalWidthPx: layout.TotalWidthPx,
	}
	for _, c := range layout.Columns {
		resp.Columns = append(resp.Columns, columnDTO{
			Date:      c.Anchor.Format(model.DateLayout),
			Index:     c.Index,
			IsToday:   c.IsToday,
			IsWeekend: c.IsWeekend,
		})
	}
	for _, b := range layout.Bars {
		resp.Bars = append(resp.Bars, barDTO{
			releaseDTO: toReleaseDTO(b.Release),
			LeftPx:     b.LeftPx,
			WidthPx:    b.WidthPx,
			Row:        b.Row,
		})
	}
	if layout.HasToday {
		today := layout.TodayPx
		resp.TodayPx = &today
	}

	s.cacheMu.Lock()
	s.timelineCache[cacheKey] = timelineCacheEntry{resp: resp, updatedAt: s.now()}
	s.cacheMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// calendarResponse is the JSON response shape for /api/calendar.
type calendarResponse struct {
	Month     string                  `json:"month"`
	WeekStart string                  `json:"weekStart"`
	Days      []string                `json:"days"`
	Buckets   map[string][]releaseDTO `json:"buckets"`
}

// handleCalendar returns the day-keyed bucket map for the month grid view.
//
// GET /api/calendar?month=2025-02 (default: current month)
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	loc := resolveLocationOrUTC(s.cfg.Timezone)
	now := s.now().In(loc)

	anchor := timeline.DateOf(now)
	if v := r.URL.Query().Get("month"); v != "" {
		t, err := time.ParseInLocation("2006-01", v, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month: "+v)
			return
		}
		anchor = t
	}

	ws := timeline.ParseWeekStart(s.cfg.WeekStart)
	releases, _ := s.store.Snapshot()

	days := timeline.GridDays(anchor, ws)
	buckets := timeline.BucketByDay(releases, anchor, ws)

	resp := calendarResponse{
		Month:     anchor.Format("2006-01"),
		WeekStart: ws.String(),
		Days:      make([]string, 0, len(days)),
		Buckets:   make(map[string][]releaseDTO, len(buckets)),
	}
	for _, d := range days {
		resp.Days = append(resp.Days, d.Format(model.DateLayout))
	}
	for key, rs := range buckets {
		dtos := make([]releaseDTO, 0, len(rs))
		for _, rel := range rs {
			dtos = append(dtos, toReleaseDTO(rel))
		}
		resp.Buckets[key] = dtos
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh forces a feed re-import.
//
// POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.refresh == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh not configured")
		return
	}

	if err := s.refresh(r.Context()); err != nil {
		appLog.Error("manual refresh failed", err)
		writeError(w, http.StatusBadGateway, "refresh failed: "+err.Error())
		return
	}
	s.invalidateTimelineCache()

	type refreshResp struct {
		Releases int `json:"releases"`
	}
	writeJSON(w, http.StatusOK, refreshResp{Releases: s.store.Len()})
}

// invalidateTimelineCache drops all cached layouts; called after any
// successful store refresh so new data shows up immediately.
func (s *Server) invalidateTimelineCache() {
	s.cacheMu.Lock()
	s.timelineCache = make(map[string]timelineCacheEntry)
	s.cacheMu.Unlock()
}

func (s *Server) layoutOptions(now time.Time) timeline.Options {
	return timeline.Options{
		WeekStart: timeline.ParseWeekStart(s.cfg.WeekStart),
		PixelsPerColumn: timeline.PixelScale{
			Day:   s.cfg.PixelsPerColumn.Day,
			Week:  s.cfg.PixelsPerColumn.Week,
			Month: s.cfg.PixelsPerColumn.Month,
		},
		MinBarWidthPx: s.cfg.MinBarWidth,
		Now:           now,
	}
}

func resolveLocationOrUTC(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to UTC", err, "name", name)
		return time.UTC
	}
	return loc
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

package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"trainics/internal/config"
	"trainics/internal/format"
	"trainics/internal/hafas"
	"trainics/internal/ics"
	appLog "trainics/internal/log"
	"trainics/internal/model"
	"trainics/internal/source"
	"trainics/internal/transform"
)

const renderCacheTTL = 30 * time.Second

// JourneyLoader loads the journey served by the calendar endpoints.
type JourneyLoader interface {
	Load(ctx context.Context, src source.Source) (*hafas.Journey, error)
}

// Server exposes the configured journey as an iCalendar feed.
type Server struct {
	cfg    *config.Config
	loader JourneyLoader
	mux    *http.ServeMux
	now    func() time.Time

	cacheMu sync.RWMutex
	cache   map[renderKey]*renderCache
}

// renderKey identifies one combination of per-request overrides.
type renderKey struct {
	offset int
	links  format.Links
}

// renderCache holds a converted calendar and its timestamp.
type renderCache struct {
	cal       model.Calendar
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, loader JourneyLoader) *Server {
	s := &Server{
		cfg:    cfg,
		loader: loader,
		mux:    http.NewServeMux(),
		now:    time.Now,
		cache:  make(map[renderKey]*renderCache),
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

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

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
			w.Header().Set("WWW-Authenticate", `Basic realm="trainics", charset="UTF-8"`)
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
	s.mux.HandleFunc("/calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("/api/events", s.handleEvents)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCalendar serves the configured journey as text/calendar.
//
// GET /calendar.ics?offset=0&traewelling=1&travelynx=0&marudor=1
//   - offset: departure timezone correction in minutes (default: config)
//   - traewelling / travelynx / marudor: link toggles (default: config)
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.render(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="journey.ics"`)
	w.WriteHeader(http.StatusOK)
	if err := ics.Write(w, cal, s.now()); err != nil {
		appLog.Error("failed to write calendar response", err)
	}
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Name     string     `json:"name"`
	TimeZone string     `json:"timezone"`
	Events   []eventDTO `json:"events"`
}

// eventDTO is a JSON-friendly view of model.Event.
type eventDTO struct {
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// handleEvents returns the converted events as JSON. It accepts the same
// query parameters as /calendar.ics.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.render(w, r)
	if !ok {
		return
	}

	dtos := make([]eventDTO, 0, len(cal.Events))
	for _, ev := range cal.Events {
		dtos = append(dtos, eventDTO{
			UID:         ev.UID,
			Summary:     ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
			Start:       ev.Start,
			End:         ev.End,
		})
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Name:     cal.Name,
		TimeZone: cal.TimeZone,
		Events:   dtos,
	})
}

// render loads and converts the journey for the request's overrides. On
// failure it writes the error response itself and returns false.
func (s *Server) render(w http.ResponseWriter, r *http.Request) (model.Calendar, bool) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return model.Calendar{}, false
	}

	key, err := s.parseKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.Calendar{}, false
	}

	s.cacheMu.RLock()
	rc := s.cache[key]
	s.cacheMu.RUnlock()
	if rc != nil && s.now().Sub(rc.updatedAt) < renderCacheTTL {
		return rc.cal, true
	}

	src := source.Source{File: s.cfg.Journey.File, URL: s.cfg.Journey.URL}
	if src.File == "" && src.URL == "" {
		writeError(w, http.StatusServiceUnavailable, "no journey configured")
		return model.Calendar{}, false
	}

	journey, err := s.loader.Load(r.Context(), src)
	if err != nil {
		appLog.Error("journey load failed", err, "source", src.String())
		writeError(w, http.StatusBadGateway, "failed to load journey")
		return model.Calendar{}, false
	}

	cal, err := transform.ToCalendar(journey, s.cfg.Timezone, transform.Options{
		DepartureTZOffset: key.offset,
		Links:             key.links,
		Location:          s.cfg.Location(),
	})
	if err != nil {
		appLog.Error("journey conversion failed", err, "source", src.String())
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return model.Calendar{}, false
	}

	appLog.Info("calendar rendered", "name", cal.Name, "events", len(cal.Events), "offset", key.offset)

	s.storeRender(key, cal)

	return cal, true
}

// storeRender caches cal under key and drops every expired entry.
func (s *Server) storeRender(key renderKey, cal model.Calendar) {
	now := s.now()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	for k, rc := range s.cache {
		if now.Sub(rc.updatedAt) >= renderCacheTTL {
			delete(s.cache, k)
		}
	}
	s.cache[key] = &renderCache{cal: cal, updatedAt: now}
}

func (s *Server) parseKey(r *http.Request) (renderKey, error) {
	q := r.URL.Query()
	offset := parseIntDefault(q.Get("offset"), s.cfg.DepartureTZOffset)
	if !config.ValidDepartureTZOffset(offset) {
		return renderKey{}, fmt.Errorf("offset must be between -%d and %d minutes", config.MaxDepartureTZOffset, config.MaxDepartureTZOffset)
	}
	return renderKey{
		offset: offset,
		links: format.Links{
			Traewelling: parseBoolDefault(q.Get("traewelling"), s.cfg.Links.Traewelling),
			Travelynx:   parseBoolDefault(q.Get("travelynx"), s.cfg.Links.Travelynx),
			Marudor:     parseBoolDefault(q.Get("marudor"), s.cfg.Links.Marudor),
		},
	}, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"namozvaqti/internal/config"
	"namozvaqti/internal/domain"
	"namozvaqti/internal/metrics"
	"namozvaqti/internal/models"
	"namozvaqti/internal/prayer"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pinger reports storage health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatsProvider returns user counters.
type StatsProvider interface {
	Stats(ctx context.Context) (*models.UserStats, error)
}

// HTTPServer exposes health, metrics and a small read-only API next to the bot.
type HTTPServer struct {
	cfg    config.APIConfig
	db     Pinger
	stats  StatsProvider
	prayer domain.PrayerClient
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	db Pinger,
	stats StatsProvider,
	prayerClient domain.PrayerClient,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:    cfg,
		db:     db,
		stats:  stats,
		prayer: prayerClient,
		auth:   NewHTTPAuth(cfg),
		logger: logger,
	}

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/v1/prayer-times", srv.handlePrayerTimes)
	apiMux.HandleFunc("/api/v1/stats", srv.handleStats)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/api/", srv.auth.Wrap(apiMux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("healthz")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handlePrayerTimes(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("prayer_times")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	region := strings.TrimSpace(r.URL.Query().Get("region"))
	if err := models.ValidateCity(region); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("region must be one of: %s", strings.Join(models.Cities, ", ")))
		return
	}

	report, err := s.prayer.Fetch(r.Context(), region)
	if err != nil {
		if errors.Is(err, prayer.ErrLookup) {
			writeError(w, http.StatusBadGateway, "prayer times are temporarily unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("stats")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load stats")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

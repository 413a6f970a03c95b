package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/utakatalp/league-predictor/internal/league"
)

// LeagueService is the part of league.Service the handlers use.
type LeagueService interface {
	StartGameweek(ctx context.Context, leagueID string, gw int) (*league.League, int, int, error)
	Standings(ctx context.Context, leagueID string, gw int) (*league.Table, error)
}

type handler struct {
	svc LeagueService
	log *zap.Logger
}

type startResponse struct {
	LeagueID  string `json:"league_id"`
	Name      string `json:"name,omitempty"`
	CurrentGw int    `json:"current_gw"`
	StartGw   int    `json:"start_gw"`
	Disabled  bool   `json:"disabled"`
}

type standingRow struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
	Played       int    `json:"played"`
	GameweekWins int    `json:"gameweek_wins"`
	LastGwPoints int    `json:"last_gw_points"`
	Points       int    `json:"points"`
}

type standingsResponse struct {
	startResponse
	Table []standingRow `json:"table"`
}

// NewRouter wires the HTTP routes.
func NewRouter(svc LeagueService, log *zap.Logger) *mux.Router {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{svc: svc, log: log}

	r := mux.NewRouter()
	r.Use(h.requestLogger)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/leagues/{id}/start-gameweek", h.startGameweek).Methods(http.MethodGet)
	r.HandleFunc("/leagues/{id}/standings", h.standings).Methods(http.MethodGet)
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) startGameweek(w http.ResponseWriter, r *http.Request) {
	gw, ok := gwParam(w, r)
	if !ok {
		return
	}
	l, start, current, err := h.svc.StartGameweek(r.Context(), mux.Vars(r)["id"], gw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{
		LeagueID:  l.ID,
		Name:      l.Name,
		CurrentGw: current,
		StartGw:   start,
		Disabled:  league.Disabled(start),
	})
}

func (h *handler) standings(w http.ResponseWriter, r *http.Request) {
	gw, ok := gwParam(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Standings(r.Context(), mux.Vars(r)["id"], gw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := standingsResponse{
		startResponse: startResponse{
			LeagueID:  t.League.ID,
			Name:      t.League.Name,
			CurrentGw: t.CurrentGw,
			StartGw:   t.StartGw,
			Disabled:  league.Disabled(t.StartGw),
		},
		Table: make([]standingRow, 0, len(t.Entries)),
	}
	for i, e := range t.Entries {
		resp.Table = append(resp.Table, standingRow{
			Rank:         i + 1,
			UserID:       e.Member.UserID,
			DisplayName:  e.Member.DisplayName,
			Played:       e.Played,
			GameweekWins: e.GameweekWins,
			LastGwPoints: e.LastGameweekPt,
			Points:       e.Points,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// gwParam reads the optional ?gw= query value; 0 means "current".
func gwParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("gw")
	if raw == "" {
		return 0, true
	}
	gw, err := strconv.Atoi(raw)
	if err != nil || gw < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gw must be a non-negative integer"})
		return 0, false
	}
	return gw, true
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, league.ErrLeagueNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	h.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", w.Header().Get("X-Request-ID")),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		h.log.Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, readHeaderTimeout time.Duration, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

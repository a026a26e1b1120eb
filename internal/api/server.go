package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hathordice/internal/metrics"
	"hathordice/internal/odds"
	"hathordice/internal/wallet"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type OddsResponse struct {
	Multiplier  string `json:"multiplier"`
	Probability string `json:"probability_percent"`
	MinBet      string `json:"min_bet"`
	MaxBet      string `json:"max_bet"`
	MinRoll     int    `json:"min_roll"`
}

type PoolResponse struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
}

// Server exposes metrics, health and read-only bot state over HTTP.
type Server struct {
	table   *odds.Table
	pools   []*wallet.Pool
	metrics *metrics.Recorder
	apiKey  string
	log     *zap.Logger
}

func NewServer(table *odds.Table, pools []*wallet.Pool, rec *metrics.Recorder, apiKey string, log *zap.Logger) *Server {
	return &Server{table: table, pools: pools, metrics: rec, apiKey: apiKey, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// AuthMiddleware requires the X-API-Key header when an API key is configured.
func (s *Server) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Missing API Key"})
			return
		}
		if key != s.apiKey {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid API Key"})
			return
		}
		next(w, r)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) HandleOdds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries := s.table.All()
	resp := make([]OddsResponse, 0, len(entries))
	for _, o := range entries {
		resp = append(resp, OddsResponse{
			Multiplier:  o.Label(),
			Probability: o.PercentProb(),
			MinBet:      o.MinBet().String(),
			MaxBet:      o.MaxBet().String(),
			MinRoll:     o.MinRoll(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandlePools reports every shared pool and refreshes the balance gauges.
func (s *Server) HandlePools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	resp := make([]PoolResponse, 0, len(s.pools))
	for _, p := range s.pools {
		addr, err := p.Address(ctx)
		if err != nil {
			s.log.Error("pool address", zap.String("pool", p.Name()), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "wallet unavailable"})
			return
		}
		bal, err := p.Balance(ctx)
		if err != nil {
			s.log.Error("pool balance", zap.String("pool", p.Name()), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "wallet unavailable"})
			return
		}
		avail, err := p.Available(ctx)
		if err != nil {
			s.log.Error("pool available", zap.String("pool", p.Name()), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "wallet unavailable"})
			return
		}
		s.metrics.Pool(p.Name(), bal)
		resp = append(resp, PoolResponse{
			Name:      p.Name(),
			Address:   addr,
			Balance:   bal.StringFixed(2),
			Available: avail.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.HandleHealth)
	mux.HandleFunc("/api/v1/odds", s.AuthMiddleware(s.HandleOdds))
	mux.HandleFunc("/api/v1/pools", s.AuthMiddleware(s.HandlePools))
	if reg := s.metrics.Registry(); reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("starting API server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

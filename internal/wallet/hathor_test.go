package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHathorWallet(t *testing.T) {
	var polls atomic.Int32
	var sent map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Wallet-Id") != "discord-bets" {
			t.Errorf("missing wallet id header, got %q", r.Header.Get("X-Wallet-Id"))
		}
		switch r.URL.Path {
		case "/start":
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		case "/wallet/status":
			code := 2
			if polls.Add(1) > 1 {
				code = 3
			}
			json.NewEncoder(w).Encode(map[string]any{"statusCode": code, "statusMessage": "x", "network": "testnet"})
		case "/wallet/address":
			json.NewEncoder(w).Encode(map[string]any{"address": "WaddrX"})
		case "/wallet/balance":
			json.NewEncoder(w).Encode(map[string]any{"available": 1234, "locked": 0})
		case "/wallet/simple-send-tx":
			json.NewDecoder(r.Body).Decode(&sent)
			json.NewEncoder(w).Encode(map[string]any{"success": true, "hash": "00ab"})
		case "/wallet/tx-history":
			if r.URL.Query().Get("limit") != "1" {
				t.Errorf("history limit = %q", r.URL.Query().Get("limit"))
			}
			json.NewEncoder(w).Encode([]map[string]any{{"tx_id": "00ab"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := NewHathor(HathorConfig{BaseURL: srv.URL, SeedKey: "default", Network: "testnet", PollInterval: time.Millisecond}, zap.NewNop())
	w := h.Open("discord-bets")
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	addr, err := w.Address(ctx)
	if err != nil || addr != "WaddrX" {
		t.Fatalf("address = %q, %v", addr, err)
	}
	bal, err := w.Balance(ctx)
	if err != nil || !bal.Equal(d("12.34")) {
		t.Fatalf("balance = %s, %v", bal, err)
	}
	if err := w.SendTo(ctx, "Wdest", d("2.5")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent["address"] != "Wdest" || sent["value"] != float64(250) {
		t.Fatalf("unexpected send body %v", sent)
	}
	if ok, err := w.(HistoryChecker).HasHistory(ctx); err != nil || !ok {
		t.Fatalf("history = %v, %v", ok, err)
	}
}

func TestHathorStartFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		network string
		want    string
	}{
		{"closed", 0, "mainnet", "closed"},
		{"error", 4, "mainnet", "error state"},
		{"unknown", 42, "mainnet", "unknown state"},
		{"wrong network", 3, "testnet", "expected mainnet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/start" {
					json.NewEncoder(w).Encode(map[string]any{"success": false, "errorCode": "WALLET_ALREADY_STARTED"})
					return
				}
				json.NewEncoder(w).Encode(map[string]any{"statusCode": tt.status, "network": tt.network})
			}))
			defer srv.Close()

			h := NewHathor(HathorConfig{BaseURL: srv.URL, Network: "mainnet"}, zap.NewNop())
			err := h.Open("w").Start(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestHathorSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Insufficient amount of tokens"})
	}))
	defer srv.Close()

	w := NewHathor(HathorConfig{BaseURL: srv.URL}, zap.NewNop()).Open("u")
	err := w.SendTo(context.Background(), "Wdest", d("1"))
	if err == nil || !strings.Contains(err.Error(), "Insufficient amount") {
		t.Fatalf("expected rejection, got %v", err)
	}
}

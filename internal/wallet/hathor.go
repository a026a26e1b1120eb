package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Wallet states reported by the Hathor wallet-headless service.
const (
	hathorClosed     = 0
	hathorConnecting = 1
	hathorSyncing    = 2
	hathorReady      = 3
	hathorError      = 4
	hathorProcessing = 5
)

// HathorConfig points at a running wallet-headless service.
type HathorConfig struct {
	BaseURL      string
	APIKey       string
	SeedKey      string
	Network      string
	PollInterval time.Duration
}

// Hathor opens wallets on a wallet-headless service. Every wallet shares the
// configured seed and is scoped by its name used as passphrase.
type Hathor struct {
	cfg    HathorConfig
	client *http.Client
	log    *zap.Logger
}

func NewHathor(cfg HathorConfig, log *zap.Logger) *Hathor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	return &Hathor{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

func (h *Hathor) Open(name string) Wallet {
	return &hathorWallet{h: h, id: name}
}

type hathorWallet struct {
	h  *Hathor
	id string
}

type startResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

type statusResponse struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Network       string `json:"network"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type balanceResponse struct {
	Available int64 `json:"available"`
	Locked    int64 `json:"locked"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Hash    string `json:"hash"`
	Error   string `json:"error"`
}

// Start asks the service to load the wallet and blocks until it is ready.
// A closed wallet, an error state or an unknown state is fatal for the wallet.
func (w *hathorWallet) Start(ctx context.Context) error {
	var start startResponse
	body := map[string]string{
		"wallet-id":  w.id,
		"seedKey":    w.h.cfg.SeedKey,
		"passphrase": w.id,
	}
	if err := w.do(ctx, http.MethodPost, "/start", body, &start); err != nil {
		return err
	}
	if !start.Success && start.ErrorCode != "WALLET_ALREADY_STARTED" {
		return fmt.Errorf("hathor: start wallet:%s: %s", w.id, start.Message)
	}

	ticker := time.NewTicker(w.h.cfg.PollInterval)
	defer ticker.Stop()
	for {
		var st statusResponse
		if err := w.do(ctx, http.MethodGet, "/wallet/status", nil, &st); err != nil {
			return err
		}
		switch st.StatusCode {
		case hathorReady:
			if w.h.cfg.Network != "" && st.Network != w.h.cfg.Network {
				return fmt.Errorf("hathor: wallet:%s is on %s, expected %s", w.id, st.Network, w.h.cfg.Network)
			}
			w.h.log.Info("wallet ready", zap.String("wallet", w.id))
			return nil
		case hathorClosed:
			return fmt.Errorf("hathor: wallet:%s closed", w.id)
		case hathorConnecting, hathorSyncing, hathorProcessing:
			w.h.log.Debug("wallet loading", zap.String("wallet", w.id), zap.String("state", st.StatusMessage))
		case hathorError:
			return fmt.Errorf("hathor: wallet:%s error state: %s", w.id, st.StatusMessage)
		default:
			return fmt.Errorf("hathor: wallet:%s unknown state %d", w.id, st.StatusCode)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *hathorWallet) Address(ctx context.Context) (string, error) {
	var resp addressResponse
	if err := w.do(ctx, http.MethodGet, "/wallet/address", nil, &resp); err != nil {
		return "", err
	}
	if resp.Address == "" {
		return "", fmt.Errorf("hathor: wallet:%s returned no address", w.id)
	}
	return resp.Address, nil
}

// Balance is the available HTR balance; the service reports cents.
func (w *hathorWallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	var resp balanceResponse
	if err := w.do(ctx, http.MethodGet, "/wallet/balance", nil, &resp); err != nil {
		return decimal.Zero, err
	}
	return FromCents(resp.Available), nil
}

func (w *hathorWallet) SendTo(ctx context.Context, address string, amount decimal.Decimal) error {
	cents, err := ToCents(amount)
	if err != nil || cents <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	w.h.log.Debug("send", zap.String("wallet", w.id), zap.String("to", address), zap.Int64("cents", cents))

	var resp sendResponse
	body := map[string]any{"address": address, "value": cents}
	if err := w.do(ctx, http.MethodPost, "/wallet/simple-send-tx", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: wallet:%s: %s", ErrTransferRejected, w.id, resp.Error)
	}
	w.h.log.Info("transaction sent", zap.String("wallet", w.id), zap.String("hash", resp.Hash))
	return nil
}

// HasHistory asks the headless wallet for its most recent transaction.
func (w *hathorWallet) HasHistory(ctx context.Context) (bool, error) {
	var txs []json.RawMessage
	if err := w.do(ctx, http.MethodGet, "/wallet/tx-history?limit=1", nil, &txs); err != nil {
		return false, err
	}
	return len(txs) > 0, nil
}

func (w *hathorWallet) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, w.h.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Wallet-Id", w.id)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if w.h.cfg.APIKey != "" {
		req.Header.Set("X-API-KEY", w.h.cfg.APIKey)
	}

	resp, err := w.h.client.Do(req)
	if err != nil {
		return fmt.Errorf("hathor: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hathor: %s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("hathor: decode %s: %w", path, err)
	}
	return nil
}

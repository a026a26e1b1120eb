package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Payload struct {
	Event      string    `json:"event"`
	BetID      string    `json:"bet_id"`
	Platform   string    `json:"platform"`
	UserID     string    `json:"user_id"`
	Multiplier string    `json:"multiplier"`
	Amount     string    `json:"amount"`
	Prize      string    `json:"prize"`
	Roll       int       `json:"roll"`
	MinRoll    int       `json:"min_roll"`
	Won        bool      `json:"won"`
	Balance    string    `json:"balance"`
	Timestamp  time.Time `json:"timestamp"`
}

// Sender posts settled bets to an external URL. A nil *Sender or an empty URL
// sends nothing.
type Sender struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewSender(url string, log *zap.Logger) *Sender {
	if url == "" {
		return nil
	}
	return &Sender{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

// SendBetNotification posts p asynchronously; failures are only logged.
func (s *Sender) SendBetNotification(p Payload) {
	if s == nil {
		return
	}
	if p.Event == "" {
		p.Event = "bet_settled"
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}

	go func() {
		if err := s.Send(context.Background(), p); err != nil {
			s.log.Warn("failed to trigger bet webhook", zap.String("bet", p.BetID), zap.Error(err))
		}
	}()
}

// Send posts p and waits for the response.
func (s *Sender) Send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}

// TestWebhook sends a "test" event, used at startup to check the URL.
func (s *Sender) TestWebhook(ctx context.Context) error {
	return s.Send(ctx, Payload{Event: "test", Timestamp: time.Now()})
}

package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSendBetNotification(t *testing.T) {
	got := make(chan Payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
		}
		got <- p
	}))
	defer srv.Close()

	s := NewSender(srv.URL, zap.NewNop())
	s.SendBetNotification(Payload{BetID: "b1", Multiplier: "2x", Amount: "10", Roll: 30, MinRoll: 50, Won: true})

	select {
	case p := <-got:
		if p.Event != "bet_settled" || p.BetID != "b1" || !p.Won {
			t.Fatalf("unexpected payload %+v", p)
		}
		if p.Timestamp.IsZero() {
			t.Fatal("timestamp not set")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not called")
	}
}

func TestSendReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewSender(srv.URL, zap.NewNop()).TestWebhook(context.Background()); err == nil {
		t.Fatal("expected an error for a 502")
	}
}

func TestNilSender(t *testing.T) {
	s := NewSender("", zap.NewNop())
	if s != nil {
		t.Fatal("empty url gives a nil sender")
	}
	s.SendBetNotification(Payload{})
}

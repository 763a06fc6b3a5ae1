package stream

import (
	"testing"

	"tradedesk_go/internal/domain"

	"github.com/shopspring/decimal"
)

func TestWorker_HandleMessage(t *testing.T) {
	var got []domain.LiveQuote
	w := NewWorker("wss://example.com/ws", []string{"BTC"}, func(q domain.LiveQuote) {
		got = append(got, q)
	})

	w.handleMessage([]byte(`{"type":"ticker","symbol":"btc","price":50123.5,"change_24h":-1.2,"ts":1700000000000}`))

	if len(got) != 1 {
		t.Fatalf("quotes = %d, want 1", len(got))
	}
	q := got[0]
	if q.Symbol != "BTC" {
		t.Errorf("symbol = %q, want upper-cased BTC", q.Symbol)
	}
	if !q.Price.Equal(decimal.NewFromFloat(50123.5)) {
		t.Errorf("price = %s", q.Price)
	}
	if q.Ts != 1700000000000 {
		t.Errorf("ts = %d", q.Ts)
	}
}

func TestWorker_HandleMessageIgnoresNonTicker(t *testing.T) {
	var calls int
	w := NewWorker("wss://example.com/ws", nil, func(domain.LiveQuote) { calls++ })

	w.handleMessage([]byte(`{"type":"pong"}`))
	w.handleMessage([]byte(`{"type":"ticker","symbol":""}`))
	w.handleMessage([]byte(`not json`))

	if calls != 0 {
		t.Errorf("callback fired %d times for junk frames", calls)
	}
}

func TestWorker_StartsDisconnected(t *testing.T) {
	w := NewWorker("wss://example.com/ws", []string{"BTC"}, nil)
	if w.IsConnected() {
		t.Error("worker must report disconnected before Connect")
	}
}

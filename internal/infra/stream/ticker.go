package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tradedesk_go/internal/domain"
	"tradedesk_go/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	maxRetries  = 10
	readTimeout = 60 * time.Second
	dialTimeout = 10 * time.Second
	maxSymbols  = 50
)

// tickerMessage is the wire format of one price update frame.
type tickerMessage struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
	Ts        int64   `json:"ts"`
}

// Worker maintains the live price WebSocket connection with automatic
// reconnection, and forwards parsed quotes to a callback. Implements
// domain.StreamWorker.
type Worker struct {
	url       string
	symbols   []string
	onQuote   func(domain.LiveQuote)
	logger    *slog.Logger
	metrics   *infra.Metrics
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a stream worker for the given endpoint and symbols.
func NewWorker(url string, symbols []string, onQuote func(domain.LiveQuote)) *Worker {
	return &Worker{
		url:     url,
		symbols: symbols,
		onQuote: onQuote,
		logger:  slog.Default().With("module", "stream"),
		metrics: infra.GlobalMetrics,
	}
}

// Connect starts the connection loop. Returns immediately; reconnection
// runs in the background until Disconnect or context cancellation.
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.connectionLoop(ctx)

	return nil
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Stream panic recovered", slog.Any("panic", r))
		}
	}()

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stream connection loop stopped")
			return
		default:
		}

		err := w.connect(ctx)
		if err != nil {
			w.logger.Warn("Stream connection failed",
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				w.logger.Error("Stream max retries exceeded, resetting counter")
				retryCount = 0
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retryCount = 0

		w.readLoop(ctx)
	}
}

// connect dials the endpoint and subscribes to the configured symbols.
func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: dialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	w.metrics.SetStreamState(true)

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	w.logger.Info("Stream connected", slog.Int("symbols", len(w.symbols)))

	return nil
}

func (w *Worker) subscribe() error {
	symbols := w.symbols
	if len(symbols) > maxSymbols {
		w.logger.Warn("Stream symbol limit exceeded", slog.Int("count", len(symbols)))
		symbols = symbols[:maxSymbols]
	}

	codes := make([]string, len(symbols))
	for i, symbol := range symbols {
		codes[i] = strings.ToUpper(symbol)
	}

	subscribeMsg := map[string]interface{}{
		"op":      "subscribe",
		"channel": "ticker",
		"symbols": codes,
	}

	msgBytes, err := json.Marshal(subscribeMsg)
	if err != nil {
		return err
	}

	return w.threadSafeWrite(websocket.TextMessage, msgBytes)
}

func (w *Worker) threadSafeWrite(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	return conn.WriteMessage(messageType, data)
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.logger.Warn("Stream read error", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}

		w.handleMessage(message)
	}
}

func (w *Worker) handleMessage(message []byte) {
	var msg tickerMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		w.logger.Debug("Stream message parse error", slog.Any("error", err))
		return
	}

	if msg.Type != "ticker" || msg.Symbol == "" {
		return
	}

	quote := domain.LiveQuote{
		Symbol:    strings.ToUpper(msg.Symbol),
		Price:     decimal.NewFromFloat(msg.Price),
		Change24h: decimal.NewFromFloat(msg.Change24h),
		Ts:        msg.Ts,
	}

	if w.onQuote != nil {
		w.onQuote(quote)
	}
}

// closeConnection safely closes the WebSocket connection.
func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
	w.metrics.SetStreamState(false)
}

// Disconnect closes the connection and stops the loop.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
	w.logger.Info("Stream disconnected")
}

// IsConnected returns connection status.
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	applogger "SignalForge/pkg/logger"
)

// Stream implements a PriceStream backed by the market provider's WebSocket
// feed. Ticks drive decision outcome tracking; dropped ticks under
// backpressure are acceptable since only the latest price matters.
type Stream struct {
	apiKey         string
	websocketURL   string
	tokens         []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *applogger.Logger

	conn      *websocket.Conn
	connected bool
}

// NewStream creates a price stream for the configured tokens.
func NewStream(apiKey, websocketURL string, tokens []string, reconnectDelay, pingInterval time.Duration, logger *applogger.Logger) drepo.PriceStream {
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		tokens:         tokens,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         logger,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("market stream connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	if s.logger != nil {
		s.logger.Info("market stream connected")
	}
	return nil
}

// Subscribe subscribes to price updates for the configured tokens.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("market stream not connected")
	}
	for _, token := range s.tokens {
		msg := map[string]string{"type": "subscribe", "token": token}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", token, err)
		}
		if s.logger != nil {
			s.logger.Debug("subscribed token", applogger.String("token", token))
		}
	}
	return nil
}

type wsTick struct {
	Token    string  `json:"token"`
	PriceUSD float64 `json:"price_usd"`
	T        int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string   `json:"type"`
	Data []wsTick `json:"data"`
}

// Read streams price updates and errors.
func (s *Stream) Read(ctx context.Context) (<-chan *models.PriceUpdate, <-chan error) {
	updates := make(chan *models.PriceUpdate, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(updates)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("market stream conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("market stream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-tick frames
					continue
				}
				if m.Type != "tick" {
					continue
				}
				for _, d := range m.Data {
					update := &models.PriceUpdate{
						Token:     d.Token,
						PriceUSD:  d.PriceUSD,
						Timestamp: d.T / 1000,
					}
					select {
					case updates <- update:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return updates, errs
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }

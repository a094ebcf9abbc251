package market

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"trade-engine-go/internal/logger"

	"github.com/gorilla/websocket"
)

// PriceStream maintains a websocket subscription to a symbol's aggTrade
// stream and exposes the last traded price. It reconnects on any read error
// and stops only when Stop is called.
type PriceStream struct {
	wsBaseURL string
	symbol    string

	mu        sync.RWMutex
	lastPrice float64

	conn     *websocket.Conn
	stopChan chan struct{}
}

func NewPriceStream(wsBaseURL, symbol string) *PriceStream {
	return &PriceStream{
		wsBaseURL: wsBaseURL,
		symbol:    symbol,
		stopChan:  make(chan struct{}),
	}
}

// Price returns the last traded price, or 0 before the first message.
func (s *PriceStream) Price() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPrice
}

// Start launches the connect/read/reconnect loop.
func (s *PriceStream) Start() {
	go s.loop()
}

// Stop shuts the stream down.
func (s *PriceStream) Stop() {
	close(s.stopChan)
}

func (s *PriceStream) loop() {
	for {
		select {
		case <-s.stopChan:
			logger.S().Infof("price stream for %s stopped", s.symbol)
			return
		default:
			if err := s.connect(); err != nil {
				logger.S().Warnf("price stream connect failed for %s: %v, retrying in 5s", s.symbol, err)
				select {
				case <-s.stopChan:
				case <-time.After(5 * time.Second):
				}
				continue
			}
			logger.S().Infof("price stream connected for %s", s.symbol)
			if err := s.readMessages(); err != nil {
				logger.S().Warnf("price stream error for %s: %v", s.symbol, err)
			}
			if s.conn != nil {
				s.conn.Close()
			}
			select {
			case <-s.stopChan:
			case <-time.After(5 * time.Second):
			}
		}
	}
}

func (s *PriceStream) connect() error {
	wsURL := fmt.Sprintf("%s/ws/%s@aggTrade", s.wsBaseURL, strings.ToLower(s.symbol))
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// readMessages blocks until the connection breaks or the stream is stopped.
// The server pings us; answering and refreshing the read deadline is the
// whole keepalive. All frames written here go through WriteControl, which is
// safe to call concurrently with the read loop.
func (s *PriceStream) readMessages() error {
	const (
		readWait     = 70 * time.Second
		controlGrace = 10 * time.Second
	)

	conn := s.conn
	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPingHandler(func(payload string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return conn.WriteControl(websocket.PongMessage, []byte(payload), time.Now().Add(controlGrace))
	})

	// Stop must interrupt a blocked ReadMessage: say goodbye with a close
	// frame and tear the connection down under the reader.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.stopChan:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(controlGrace))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopChan:
				return nil
			default:
			}
			return fmt.Errorf("reading message: %w", err)
		}

		var trade struct {
			Price json.Number `json:"p"`
		}
		if err := json.Unmarshal(message, &trade); err != nil {
			logger.S().Debugf("unparseable stream message for %s: %v", s.symbol, err)
			continue
		}
		price, err := trade.Price.Float64()
		if err != nil {
			continue
		}

		s.mu.Lock()
		s.lastPrice = price
		s.mu.Unlock()
	}
}

package engine

import (
	"sync"
	"time"

	"trade-engine-go/internal/execution"
	"trade-engine-go/internal/models"
)

// mockRepo is an in-memory Repository that also records every appended event
// so tests can assert on the event stream.
type mockRepo struct {
	sync.Mutex
	trades map[string]*models.Trade
	orders []*models.Order
	events []models.Event

	saveTradeErr error
	equityErr    error
}

func newMockRepo() *mockRepo {
	return &mockRepo{trades: make(map[string]*models.Trade)}
}

func (m *mockRepo) SaveTrade(t *models.Trade) error {
	m.Lock()
	defer m.Unlock()
	if m.saveTradeErr != nil {
		return m.saveTradeErr
	}
	cp := *t
	m.trades[t.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateTrade(t *models.Trade) error {
	return m.SaveTrade(t)
}

func (m *mockRepo) GetTrade(id string) (*models.Trade, error) {
	m.Lock()
	defer m.Unlock()
	t, ok := m.trades[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) SaveOrder(o *models.Order) error {
	m.Lock()
	defer m.Unlock()
	cp := *o
	m.orders = append(m.orders, &cp)
	return nil
}

func (m *mockRepo) AppendEvent(eventType, level string, payload map[string]interface{}, publicSafe bool) error {
	m.Lock()
	defer m.Unlock()
	m.events = append(m.events, models.Event{
		Seq:        uint64(len(m.events) + 1),
		Type:       eventType,
		Level:      level,
		Payload:    payload,
		PublicSafe: publicSafe,
	})
	return nil
}

func (m *mockRepo) CalculateEquity(startingCash float64) (float64, error) {
	m.Lock()
	defer m.Unlock()
	if m.equityErr != nil {
		return 0, m.equityErr
	}
	equity := startingCash
	for _, t := range m.trades {
		if t.Status == models.TradeClosed {
			equity += t.RealizedPnL
		}
	}
	return equity, nil
}

func (m *mockRepo) GetTodayRealizedPnL(loc *time.Location) (float64, error) {
	m.Lock()
	defer m.Unlock()
	var pnl float64
	for _, t := range m.trades {
		if t.Status == models.TradeClosed {
			pnl += t.RealizedPnL
		}
	}
	return pnl, nil
}

func (m *mockRepo) GetTodayClosedTrades(loc *time.Location) ([]*models.Trade, error) {
	return m.GetClosedTrades()
}

func (m *mockRepo) GetClosedTrades() ([]*models.Trade, error) {
	m.Lock()
	defer m.Unlock()
	var out []*models.Trade
	for _, t := range m.trades {
		if t.Status == models.TradeClosed {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) GetOpenTrades() ([]*models.Trade, error) {
	m.Lock()
	defer m.Unlock()
	var out []*models.Trade
	for _, t := range m.trades {
		if t.Status == models.TradeOpen {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) Close() error { return nil }

// eventTypes returns the recorded event types in order.
func (m *mockRepo) eventTypes() []string {
	m.Lock()
	defer m.Unlock()
	out := make([]string, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Type
	}
	return out
}

func (m *mockRepo) hasEvent(eventType string) bool {
	for _, t := range m.eventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

// stubMarket serves a fixed candle window and a book synthesized around a
// settable price.
type stubMarket struct {
	sync.Mutex
	candles    []models.Candle
	price      float64
	candlesErr error
	bookErr    error
}

func (s *stubMarket) setPrice(p float64) {
	s.Lock()
	defer s.Unlock()
	s.price = p
}

func (s *stubMarket) GetCandles(symbol, timeframe string, limit int) ([]models.Candle, error) {
	s.Lock()
	defer s.Unlock()
	if s.candlesErr != nil {
		return nil, s.candlesErr
	}
	out := make([]models.Candle, len(s.candles))
	copy(out, s.candles)
	return out, nil
}

func (s *stubMarket) GetOrderbook(symbol string, depth int) (*models.Orderbook, error) {
	s.Lock()
	defer s.Unlock()
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return &models.Orderbook{
		Symbol: symbol,
		Bids:   []models.BookLevel{{Price: s.price - 0.01, Size: 1000}},
		Asks:   []models.BookLevel{{Price: s.price + 0.01, Size: 1000}},
	}, nil
}

// stubSignal always returns the configured signal.
type stubSignal struct {
	sig models.Signal
	err error
}

func (s *stubSignal) GenerateSignal(symbol string, candles []models.Candle, ob *models.Orderbook) (models.Signal, error) {
	if s.err != nil {
		return models.Signal{}, s.err
	}
	return s.sig, nil
}

// failingExecution returns errors on demand, for the loop's error paths.
type failingExecution struct {
	inner    execution.Engine
	entryErr error
	exitErr  error
}

func (f *failingExecution) ExecuteEntry(plan *models.TradePlan) (*execution.EntryResult, error) {
	if f.entryErr != nil {
		return nil, f.entryErr
	}
	return f.inner.ExecuteEntry(plan)
}

func (f *failingExecution) CheckExits(tradeID string, price float64) (*execution.ExitResult, error) {
	if f.exitErr != nil {
		return nil, f.exitErr
	}
	return f.inner.CheckExits(tradeID, price)
}

func (f *failingExecution) UpdateStop(tradeID string, stop float64) error {
	return f.inner.UpdateStop(tradeID, stop)
}

func (f *failingExecution) ReconcileState(open []*models.Trade) error {
	return f.inner.ReconcileState(open)
}

func trendingCandles(start, end float64, n int, volume float64) []models.Candle {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	step := (end - start) / float64(n-1)
	for i := range candles {
		c := start + step*float64(i)
		candles[i] = models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     c - step,
			High:     c + 0.05,
			Low:      c - 0.05,
			Close:    c,
			Volume:   volume,
		}
	}
	return candles
}

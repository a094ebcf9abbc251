package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"trade-engine-go/internal/clock"
	"trade-engine-go/internal/models"

	"github.com/dgraph-io/badger/v3"
)

const (
	tradePrefix = "trade:"
	orderPrefix = "order:"
	eventPrefix = "event:"
)

// badgerRepository is the BadgerDB implementation of Repository.
type badgerRepository struct {
	db    *badger.DB
	clk   clock.Clock
	seq   *badger.Sequence
}

// NewBadgerRepository opens (or creates) a BadgerDB database at dbPath. The
// clock decides what "today" means for the daily queries, so backtests can
// run against simulated time.
func NewBadgerRepository(dbPath string, clk clock.Clock) (Repository, error) {
	opts := badger.DefaultOptions(dbPath)
	// Badger's own logging is noisy; errors still surface from operations.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	seq, err := db.GetSequence([]byte("event_seq"), 128)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &badgerRepository{db: db, clk: clk, seq: seq}, nil
}

// NewInMemoryRepository opens a Badger instance with no disk backing. Used
// by backtests, which have no reason to persist across runs.
func NewInMemoryRepository(clk clock.Clock) (Repository, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	seq, err := db.GetSequence([]byte("event_seq"), 128)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &badgerRepository{db: db, clk: clk, seq: seq}, nil
}

func (r *badgerRepository) SaveTrade(t *models.Trade) error {
	return r.put(tradePrefix+t.ID, t)
}

func (r *badgerRepository) UpdateTrade(t *models.Trade) error {
	return r.put(tradePrefix+t.ID, t)
}

func (r *badgerRepository) GetTrade(id string) (*models.Trade, error) {
	var trade models.Trade
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tradePrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &trade)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

func (r *badgerRepository) SaveOrder(o *models.Order) error {
	return r.put(fmt.Sprintf("%s%s:%s", orderPrefix, o.TradeID, o.ID), o)
}

func (r *badgerRepository) AppendEvent(eventType, level string, payload map[string]interface{}, publicSafe bool) error {
	seq, err := r.seq.Next()
	if err != nil {
		return err
	}
	ev := models.Event{
		Seq:        seq,
		Type:       eventType,
		Level:      level,
		Payload:    payload,
		PublicSafe: publicSafe,
		Time:       r.clk.Now(),
	}
	return r.put(fmt.Sprintf("%s%020d", eventPrefix, seq), &ev)
}

func (r *badgerRepository) CalculateEquity(startingCash float64) (float64, error) {
	equity := startingCash
	err := r.forEachTrade(func(t *models.Trade) {
		if t.Status == models.TradeClosed {
			equity += t.RealizedPnL
		}
	})
	if err != nil {
		return 0, err
	}
	return equity, nil
}

func (r *badgerRepository) GetTodayRealizedPnL(loc *time.Location) (float64, error) {
	trades, err := r.GetTodayClosedTrades(loc)
	if err != nil {
		return 0, err
	}
	var pnl float64
	for _, t := range trades {
		pnl += t.RealizedPnL
	}
	return pnl, nil
}

func (r *badgerRepository) GetTodayClosedTrades(loc *time.Location) ([]*models.Trade, error) {
	today := r.clk.Now().In(loc).Format("2006-01-02")

	var trades []*models.Trade
	err := r.forEachTrade(func(t *models.Trade) {
		if t.Status != models.TradeClosed {
			return
		}
		if t.CloseTime.In(loc).Format("2006-01-02") == today {
			trades = append(trades, t)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(trades, func(i, j int) bool {
		return trades[i].CloseTime.Before(trades[j].CloseTime)
	})
	return trades, nil
}

func (r *badgerRepository) GetClosedTrades() ([]*models.Trade, error) {
	var trades []*models.Trade
	err := r.forEachTrade(func(t *models.Trade) {
		if t.Status == models.TradeClosed {
			trades = append(trades, t)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].CloseTime.Before(trades[j].CloseTime)
	})
	return trades, nil
}

func (r *badgerRepository) GetOpenTrades() ([]*models.Trade, error) {
	var trades []*models.Trade
	err := r.forEachTrade(func(t *models.Trade) {
		if t.Status == models.TradeOpen {
			trades = append(trades, t)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].OpenTime.Before(trades[j].OpenTime)
	})
	return trades, nil
}

func (r *badgerRepository) Close() error {
	if err := r.seq.Release(); err != nil {
		return err
	}
	return r.db.Close()
}

func (r *badgerRepository) put(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (r *badgerRepository) forEachTrade(fn func(t *models.Trade)) error {
	return r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(tradePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var t models.Trade
				if err := json.Unmarshal(val, &t); err != nil {
					return err
				}
				fn(&t)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

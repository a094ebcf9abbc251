package gates

import (
	"sync"

	"trade-engine-go/internal/models"
)

// StreakSizer reduces position size while a symbol is on a losing streak.
// It is not a pass/fail gate; the pipeline applies its multiplier to the
// sizer's output.
type StreakSizer struct {
	mu        sync.Mutex
	minLosses int
	reduction float64
	streaks   map[string]int
}

func NewStreakSizer(cfg models.StreakConfig) *StreakSizer {
	return &StreakSizer{
		minLosses: cfg.MinConsecutiveLosses,
		reduction: cfg.ReductionFactor,
		streaks:   make(map[string]int),
	}
}

func (s *StreakSizer) RecordLoss(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaks[symbol]++
}

func (s *StreakSizer) RecordWin(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaks[symbol] = 0
}

// GetMultiplier returns the sizing multiplier for the symbol: the reduction
// factor once the streak reaches the configured minimum, otherwise 1.0.
func (s *StreakSizer) GetMultiplier(symbol string) float64 {
	if s.minLosses <= 0 {
		return 1.0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaks[symbol] >= s.minLosses {
		if s.reduction < 0 {
			return 0
		}
		return s.reduction
	}
	return 1.0
}

// Losses returns the current consecutive-loss count for the symbol.
func (s *StreakSizer) Losses(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaks[symbol]
}

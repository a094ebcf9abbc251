package reporter

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"trade-engine-go/internal/models"
)

// Metrics holds the performance figures computed from a set of closed trades.
type Metrics struct {
	StartingCash  float64
	FinalEquity   float64
	TotalPnL      float64
	ReturnPct     float64
	TotalFees     float64
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	AvgWin        float64
	AvgLoss       float64
	ProfitFactor  float64
	MaxDrawdown   float64 // fraction of peak equity
	ExitCounts    map[models.ExitReason]int
	StartTime     time.Time
	EndTime       time.Time
}

// Calculate derives session metrics from closed trades in close order.
func Calculate(trades []*models.Trade, startingCash float64) *Metrics {
	m := &Metrics{
		StartingCash: startingCash,
		ExitCounts:   make(map[models.ExitReason]int),
	}

	var grossWin, grossLoss float64
	equity := startingCash
	peak := startingCash
	for i, t := range trades {
		if t.Status != models.TradeClosed {
			continue
		}
		m.TotalTrades++
		m.TotalPnL += t.RealizedPnL
		m.TotalFees += t.Fees
		m.ExitCounts[t.ExitReason]++

		if t.RealizedPnL > 0 {
			m.WinningTrades++
			grossWin += t.RealizedPnL
		} else {
			m.LosingTrades++
			grossLoss += -t.RealizedPnL
		}

		equity += t.RealizedPnL
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak
			if dd > m.MaxDrawdown {
				m.MaxDrawdown = dd
			}
		}

		if i == 0 {
			m.StartTime = t.OpenTime
		}
		if t.CloseTime.After(m.EndTime) {
			m.EndTime = t.CloseTime
		}
	}

	m.FinalEquity = startingCash + m.TotalPnL
	if startingCash > 0 {
		m.ReturnPct = m.TotalPnL / startingCash * 100
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}
	if m.WinningTrades > 0 {
		m.AvgWin = grossWin / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = grossLoss / float64(m.LosingTrades)
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossWin / grossLoss
	} else if grossWin > 0 {
		m.ProfitFactor = math.Inf(1)
	}
	return m
}

// Render writes the session report as a formatted table.
func Render(w io.Writer, m *Metrics, title string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)

	if !m.StartTime.IsZero() {
		t.AppendRow(table.Row{"Period",
			fmt.Sprintf("%s to %s", m.StartTime.Format("2006-01-02 15:04"), m.EndTime.Format("2006-01-02 15:04"))})
		t.AppendSeparator()
	}
	t.AppendRows([]table.Row{
		{"Starting cash", fmt.Sprintf("%.2f USD", m.StartingCash)},
		{"Final equity", fmt.Sprintf("%.2f USD", m.FinalEquity)},
		{"Total PnL", fmt.Sprintf("%.2f USD", m.TotalPnL)},
		{"Return", fmt.Sprintf("%.2f%%", m.ReturnPct)},
		{"Total fees", fmt.Sprintf("%.2f USD", m.TotalFees)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Trades", m.TotalTrades},
		{"Wins / Losses", fmt.Sprintf("%d / %d", m.WinningTrades, m.LosingTrades)},
		{"Win rate", fmt.Sprintf("%.2f%%", m.WinRate)},
		{"Avg win / avg loss", fmt.Sprintf("%.2f / %.2f", m.AvgWin, m.AvgLoss)},
		{"Profit factor", formatProfitFactor(m.ProfitFactor)},
		{"Max drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown*100)},
	})

	if len(m.ExitCounts) > 0 {
		t.AppendSeparator()
		reasons := make([]string, 0, len(m.ExitCounts))
		for r := range m.ExitCounts {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			t.AppendRow(table.Row{"Exits: " + r, m.ExitCounts[models.ExitReason(r)]})
		}
	}

	t.Render()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}

package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"trade-engine-go/internal/models"

	"github.com/adshao/go-binance/v2"
)

// BinanceProvider implements Provider against the Binance REST API. Public
// endpoints only, so no API keys are required.
type BinanceProvider struct {
	client *binance.Client
}

func NewBinanceProvider(apiURL string) *BinanceProvider {
	client := binance.NewClient("", "")
	if apiURL != "" {
		client.BaseURL = apiURL
	}
	return &BinanceProvider{client: client}
}

func (p *BinanceProvider) GetCandles(symbol, timeframe string, limit int) ([]models.Candle, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(limit).
		Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("fetching klines for %s: %w", symbol, err)
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		open, err1 := strconv.ParseFloat(k.Open, 64)
		high, err2 := strconv.ParseFloat(k.High, 64)
		low, err3 := strconv.ParseFloat(k.Low, 64)
		closeP, err4 := strconv.ParseFloat(k.Close, 64)
		volume, err5 := strconv.ParseFloat(k.Volume, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return nil, fmt.Errorf("parsing kline for %s at %d", symbol, k.OpenTime)
		}
		candles = append(candles, models.Candle{
			OpenTime: time.UnixMilli(k.OpenTime),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closeP,
			Volume:   volume,
		})
	}
	return candles, nil
}

func (p *BinanceProvider) GetOrderbook(symbol string, depth int) (*models.Orderbook, error) {
	res, err := p.client.NewDepthService().
		Symbol(symbol).
		Limit(depth).
		Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("fetching depth for %s: %w", symbol, err)
	}

	ob := &models.Orderbook{Symbol: symbol, Time: time.Now()}
	for _, b := range res.Bids {
		price, err1 := strconv.ParseFloat(b.Price, 64)
		size, err2 := strconv.ParseFloat(b.Quantity, 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("parsing bid level for %s", symbol)
		}
		ob.Bids = append(ob.Bids, models.BookLevel{Price: price, Size: size})
	}
	for _, a := range res.Asks {
		price, err1 := strconv.ParseFloat(a.Price, 64)
		size, err2 := strconv.ParseFloat(a.Quantity, 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("parsing ask level for %s", symbol)
		}
		ob.Asks = append(ob.Asks, models.BookLevel{Price: price, Size: size})
	}
	return ob, nil
}

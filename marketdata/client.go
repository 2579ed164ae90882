// Package marketdata talks to the broker's REST gateway for candles, last
// prices and futures margin requirements. All price math downstream is
// decimal, so quotations are converted exactly from units and nanos.
package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/papersim/trader/market"
)

const (
	marketDataService  = "/tinkoff.public.invest.api.contract.v1.MarketDataService"
	instrumentsService = "/tinkoff.public.invest.api.contract.v1.InstrumentsService"
)

// quotation is the wire representation of a decimal price.
type quotation struct {
	Units string `json:"units"`
	Nano  int32  `json:"nano"`
}

func (q quotation) decimal() (decimal.Decimal, error) {
	units, err := decimal.NewFromString(q.Units)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse quotation units %q: %w", q.Units, err)
	}
	nano := decimal.New(int64(q.Nano), -9)
	return units.Add(nano), nil
}

type apiCandle struct {
	Open   quotation `json:"open"`
	High   quotation `json:"high"`
	Low    quotation `json:"low"`
	Close  quotation `json:"close"`
	Volume string    `json:"volume"`
	Time   time.Time `json:"time"`
}

type candlesResponse struct {
	Candles []apiCandle `json:"candles"`
}

type lastPricesResponse struct {
	LastPrices []struct {
		FIGI  string    `json:"figi"`
		Price quotation `json:"price"`
	} `json:"lastPrices"`
}

type instrumentResponse struct {
	Instrument struct {
		FIGI              string    `json:"figi"`
		Ticker            string    `json:"ticker"`
		Name              string    `json:"name"`
		Lot               int64     `json:"lot"`
		MinPriceIncrement quotation `json:"minPriceIncrement"`
	} `json:"instrument"`
}

type marginResponse struct {
	InitialMarginOnBuy  quotation `json:"initialMarginOnBuy"`
	InitialMarginOnSell quotation `json:"initialMarginOnSell"`
}

type cachedMargin struct {
	buy  decimal.Decimal
	sell decimal.Decimal
}

// Client implements market.Feed and market.MarginProvider over REST.
type Client struct {
	http *resty.Client
	log  zerolog.Logger

	marginCache map[string]cachedMargin
}

// NewClient builds a REST client. The token goes into the Authorization
// header of every request.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	httpc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Client{
		http:        httpc,
		log:         log,
		marginCache: make(map[string]cachedMargin),
	}
}

var intervalNames = map[market.Interval]string{
	market.Min1:  "CANDLE_INTERVAL_1_MIN",
	market.Min5:  "CANDLE_INTERVAL_5_MIN",
	market.Min15: "CANDLE_INTERVAL_15_MIN",
	market.Hour1: "CANDLE_INTERVAL_HOUR",
	market.Day:   "CANDLE_INTERVAL_DAY",
}

// Candles fetches OHLCV history for a FIGI in [from, to].
func (c *Client) Candles(ctx context.Context, figi string, from, to time.Time, interval market.Interval) ([]market.Candle, error) {
	name, ok := intervalNames[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported candle interval %q", interval)
	}

	var out candlesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"figi":     figi,
			"from":     from.Format(time.RFC3339),
			"to":       to.Format(time.RFC3339),
			"interval": name,
		}).
		SetResult(&out).
		Post(marketDataService + "/GetCandles")
	if err != nil {
		return nil, fmt.Errorf("get candles %s: %w", figi, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get candles %s: status %s", figi, resp.Status())
	}

	candles := make([]market.Candle, 0, len(out.Candles))
	for _, ac := range out.Candles {
		candle, err := ac.toCandle()
		if err != nil {
			return nil, fmt.Errorf("candle for %s: %w", figi, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func (ac apiCandle) toCandle() (market.Candle, error) {
	var candle market.Candle
	for _, f := range []struct {
		q   quotation
		dst *float64
	}{
		{ac.Open, &candle.Open},
		{ac.High, &candle.High},
		{ac.Low, &candle.Low},
		{ac.Close, &candle.Close},
	} {
		d, err := f.q.decimal()
		if err != nil {
			return market.Candle{}, err
		}
		*f.dst, _ = d.Float64()
	}
	if ac.Volume != "" {
		v, err := strconv.ParseFloat(ac.Volume, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("parse volume %q: %w", ac.Volume, err)
		}
		candle.Volume = v
	}
	candle.Time = ac.Time
	return candle, nil
}

// LastPrice fetches the most recent trade price for a FIGI.
func (c *Client) LastPrice(ctx context.Context, figi string) (decimal.Decimal, error) {
	var out lastPricesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"figi": []string{figi}}).
		SetResult(&out).
		Post(marketDataService + "/GetLastPrices")
	if err != nil {
		return decimal.Zero, fmt.Errorf("get last price %s: %w", figi, err)
	}
	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("get last price %s: status %s", figi, resp.Status())
	}

	for _, lp := range out.LastPrices {
		if lp.FIGI == figi {
			return lp.Price.decimal()
		}
	}
	return decimal.Zero, fmt.Errorf("no last price for %s", figi)
}

// FutureByTicker resolves a futures contract by its exchange ticker.
func (c *Client) FutureByTicker(ctx context.Context, ticker string) (market.Instrument, error) {
	var out instrumentResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"idType":    "INSTRUMENT_ID_TYPE_TICKER",
			"classCode": "SPBFUT",
			"id":        ticker,
		}).
		SetResult(&out).
		Post(instrumentsService + "/FutureBy")
	if err != nil {
		return market.Instrument{}, fmt.Errorf("resolve future %s: %w", ticker, err)
	}
	if resp.IsError() {
		return market.Instrument{}, fmt.Errorf("resolve future %s: status %s", ticker, resp.Status())
	}

	tick, err := out.Instrument.MinPriceIncrement.decimal()
	if err != nil {
		return market.Instrument{}, fmt.Errorf("future %s: %w", ticker, err)
	}
	return market.Instrument{
		Ticker:   out.Instrument.Ticker,
		FIGI:     out.Instrument.FIGI,
		Name:     out.Instrument.Name,
		Lot:      int(out.Instrument.Lot),
		TickSize: tick,
	}, nil
}

// MarginPerLot returns the initial margin for one futures contract. The
// broker quote is cached per FIGI; on failure it returns zero so the
// caller falls back to its conservative estimate.
func (c *Client) MarginPerLot(ctx context.Context, figi string, long bool) (decimal.Decimal, error) {
	if cached, ok := c.marginCache[figi]; ok {
		if long {
			return cached.buy, nil
		}
		return cached.sell, nil
	}

	var out marginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"figi": figi}).
		SetResult(&out).
		Post(instrumentsService + "/GetFuturesMargin")
	if err != nil {
		c.log.Warn().Err(err).Str("figi", figi).Msg("margin lookup failed, falling back to estimate")
		return decimal.Zero, nil
	}
	if resp.IsError() {
		c.log.Warn().Str("figi", figi).Str("status", resp.Status()).Msg("margin lookup failed, falling back to estimate")
		return decimal.Zero, nil
	}

	buy, err := out.InitialMarginOnBuy.decimal()
	if err != nil {
		return decimal.Zero, fmt.Errorf("margin for %s: %w", figi, err)
	}
	sell, err := out.InitialMarginOnSell.decimal()
	if err != nil {
		return decimal.Zero, fmt.Errorf("margin for %s: %w", figi, err)
	}

	c.marginCache[figi] = cachedMargin{buy: buy, sell: sell}
	if long {
		return buy, nil
	}
	return sell, nil
}

package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	httpClient "github.com/Alias1177/SignalEngine/internal/platform/http"
	"github.com/Alias1177/SignalEngine/models"
	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.twelvedata.com"

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	interval   string
	count      int
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	Interval        string
	CandleCount     int
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
	Logger          zerolog.Logger
}

// timeSeriesResponse is the body of the time_series endpoint
type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values  []timeSeriesValue `json:"values"`
	Status  string            `json:"status"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
}

// Prices arrive as strings. Volume is absent for FX and some indices.
type timeSeriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume,omitempty"`
}

// APIError is an error reported in a Twelve Data response body
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Twelve Data API error %d: %s", e.Code, e.Message)
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	// Apply defaults if not set
	if httpOpts.Timeout == 0 {
		httpOpts.Timeout = 30 * time.Second
	}
	if httpOpts.RequestsPerSec == 0 {
		httpOpts.RequestsPerSec = 5
	}
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	if options.Interval == "" {
		options.Interval = "1day"
	}
	if options.CandleCount <= 0 {
		options.CandleCount = 200
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    options.BaseURL,
		interval:   options.Interval,
		count:      options.CandleCount,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     options.Logger.With().Str("component", "twelvedata_client").Logger(),
	}
}

// FetchBars returns the configured history for symbol, oldest bar first
func (c *Client) FetchBars(ctx context.Context, symbol string) (models.Series, error) {
	return c.GetCandles(ctx, symbol, c.interval, c.count)
}

// GetCandles fetches candle data from Twelve Data API
func (c *Client) GetCandles(ctx context.Context, symbol string, interval string, count int) (models.Series, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("outputsize", strconv.Itoa(count))
	query.Set("timezone", "UTC")
	c.logger.Debug().Str("symbol", symbol).Str("interval", interval).Int("count", count).Msg("Fetching candles")
	query.Set("apikey", c.apiKey)

	// Create a new request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/time_series?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Status == "error" {
		c.logger.Error().Int("code", data.Code).Str("message", data.Message).Msg("Twelve Data API error")
		return nil, &APIError{Code: data.Code, Message: data.Message}
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No candles in response")
		return nil, fmt.Errorf("empty data returned for %s", symbol)
	}

	series := make(models.Series, 0, len(data.Values))
	for i, v := range data.Values {
		bar, err := v.bar()
		if err != nil {
			return nil, fmt.Errorf("value %d of %s: %w", i, symbol, err)
		}
		series = append(series, bar)
	}

	// Sort candles by datetime (oldest first for proper calculations)
	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	c.logger.Debug().Str("symbol", symbol).Int("count", len(series)).Msg("Fetched candles")
	return series, nil
}

// GetHistoricalCandles fetches enough candles to cover the given number of days
func (c *Client) GetHistoricalCandles(ctx context.Context, symbol string, interval string, days int) (models.Series, error) {
	return c.GetCandles(ctx, symbol, interval, models.CandlesForDays(interval, days))
}

func (v timeSeriesValue) bar() (models.Bar, error) {
	ts, err := models.ParseTimestamp(v.Datetime)
	if err != nil {
		return models.Bar{}, err
	}

	var fields [5]float64
	for i, raw := range [...]string{v.Open, v.High, v.Low, v.Close, v.Volume} {
		if raw == "" && i == 4 {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("%w: bad number %q", models.ErrInvalidInput, raw)
		}
		fields[i] = f
	}

	return models.Bar{
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

package cowapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"cow-orderbook/internal/orderbook"
	"cow-orderbook/internal/tokens"
)

// ErrMalformedAuction is returned when the response lacks the orders or
// prices keys. Nothing can be rendered from such a snapshot.
var ErrMalformedAuction = errors.New("malformed auction response")

// Source returns a complete order-book snapshot or fails.
type Source interface {
	FetchAuction(ctx context.Context) (*orderbook.Auction, error)
}

type Client struct {
	url     string
	retries int
	httpc   *http.Client
	logger  *slog.Logger
}

func NewClient(url string, timeout time.Duration, retries int, logger *slog.Logger) *Client {
	return &Client{
		url:     url,
		retries: retries,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) URL() string { return c.url }

type auctionWire struct {
	ID     int64                      `json:"id"`
	Block  int64                      `json:"block"`
	Orders []orderbook.RawOrder       `json:"orders"`
	Prices map[string]decimal.Decimal `json:"prices"`
}

// FetchAuction performs one GET with a single retry on transport errors and
// 5xx responses. Decoding problems are not retried.
func (c *Client) FetchAuction(ctx context.Context) (*orderbook.Auction, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("auction fetch retry", slog.Int("attempt", attempt), slog.String("err", lastErr.Error()))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
		a, retry, err := c.fetchOnce(ctx)
		if err == nil {
			return a, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context) (*orderbook.Auction, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("auction unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("auction status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("auction status %d", resp.StatusCode)
	}
	a, err := Decode(resp.Body)
	return a, false, err
}

// Decode parses an auction document. Price keys are lowercased so they line
// up with registry addresses.
func Decode(r io.Reader) (*orderbook.Auction, error) {
	var w auctionWire
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAuction, err)
	}
	if w.Orders == nil {
		return nil, fmt.Errorf("%w: missing orders", ErrMalformedAuction)
	}
	if w.Prices == nil {
		return nil, fmt.Errorf("%w: missing prices", ErrMalformedAuction)
	}
	prices := make(map[string]decimal.Decimal, len(w.Prices))
	for k, v := range w.Prices {
		prices[tokens.NormalizeAddress(k)] = v
	}
	return &orderbook.Auction{
		ID:     w.ID,
		Block:  w.Block,
		Orders: w.Orders,
		Prices: prices,
	}, nil
}

// ---------- Static source (handy for tests & offline demos) ----------

type StaticSource struct {
	Auction *orderbook.Auction
	Err     error
	Calls   int
}

func (s *StaticSource) FetchAuction(ctx context.Context) (*orderbook.Auction, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Auction, nil
}

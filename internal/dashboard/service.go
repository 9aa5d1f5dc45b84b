// Package dashboard runs one render: fetch the auction, normalize prices,
// enrich the focus token's orders and build its depth chart.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cow-orderbook/internal/cowapi"
	"cow-orderbook/internal/depth"
	"cow-orderbook/internal/orderbook"
	"cow-orderbook/internal/tokens"
)

type Stats struct {
	AuctionID int64 `json:"auctionId"`
	Received  int   `json:"received"` // orders in the auction
	Shown     int   `json:"shown"`    // enriched rows for the focus token
	Dropped   int   `json:"dropped"`  // focus token orders that failed the join
}

type View struct {
	GeneratedAt time.Time                 `json:"generatedAt"`
	Focus       tokens.TokenInfo          `json:"focus"`
	Numeraire   tokens.TokenInfo          `json:"numeraire"`
	Orders      []orderbook.EnrichedOrder `json:"orders"`
	Depth       []depth.DepthPoint        `json:"depth"`
	Stats       Stats                     `json:"stats"`
}

type Service struct {
	src       cowapi.Source
	reg       *tokens.Registry
	numeraire string
	link      orderbook.LinkFunc
	log       *slog.Logger
	now       func() time.Time
}

func NewService(src cowapi.Source, reg *tokens.Registry, numeraire, explorerURL string, logger *slog.Logger) *Service {
	return &Service{
		src:       src,
		reg:       reg,
		numeraire: tokens.NormalizeAddress(numeraire),
		link:      orderbook.ExplorerLink(explorerURL),
		log:       logger,
		now:       time.Now,
	}
}

func (s *Service) Registry() *tokens.Registry { return s.reg }

// Build resolves focusName and renders its order book. Lookup errors are
// returned before anything is fetched.
func (s *Service) Build(ctx context.Context, focusName string) (*View, error) {
	focusAddr, err := s.reg.FindAddressByName(focusName)
	if err != nil {
		return nil, err
	}
	focus, _ := s.reg.Lookup(focusAddr)
	numeraire, ok := s.reg.Lookup(s.numeraire)
	if !ok {
		numeraire = tokens.TokenInfo{Address: s.numeraire, Decimals: orderbook.NumeraireDecimals}
	}

	auction, err := s.src.FetchAuction(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch auction: %w", err)
	}
	return s.render(auction, focus, numeraire)
}

func (s *Service) render(a *orderbook.Auction, focus, numeraire tokens.TokenInfo) (*View, error) {
	prices, err := orderbook.NormalizePrices(a.Prices, s.reg, s.numeraire)
	if err != nil {
		return nil, err
	}
	rows, dropped := orderbook.EnrichAll(a.Orders, s.reg, prices, focus.Address, s.link)
	points := depth.Aggregate(rows, focus.Address)

	v := &View{
		GeneratedAt: s.now(),
		Focus:       focus,
		Numeraire:   numeraire,
		Orders:      rows,
		Depth:       points,
		Stats: Stats{
			AuctionID: a.ID,
			Received:  len(a.Orders),
			Shown:     len(rows),
			Dropped:   dropped,
		},
	}
	s.log.Debug("rendered order book",
		slog.String("focus", focus.Name),
		slog.Int64("auction_id", a.ID),
		slog.Int("received", v.Stats.Received),
		slog.Int("shown", v.Stats.Shown),
		slog.Int("dropped", v.Stats.Dropped),
		slog.Int("depth_points", len(points)),
	)
	return v, nil
}

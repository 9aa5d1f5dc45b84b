package orderbook

import (
	"github.com/shopspring/decimal"
)

// Side is relative to the focus token: SideSell orders sell it, SideBuy orders buy it.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// RawOrder is one open order as returned by the auction endpoint. Amounts are
// in the token's smallest unit.
type RawOrder struct {
	UID               string          `json:"uid"`
	SellToken         string          `json:"sellToken"`
	BuyToken          string          `json:"buyToken"`
	SellAmount        decimal.Decimal `json:"sellAmount"`
	BuyAmount         decimal.Decimal `json:"buyAmount"`
	Owner             string          `json:"owner"`
	Kind              string          `json:"kind"`
	Class             string          `json:"class"`
	ValidTo           int64           `json:"validTo"`
	PartiallyFillable bool            `json:"partiallyFillable"`
}

// Auction is a complete snapshot of the order book. Prices are keyed by
// lowercase token address and denominated in the auction's reference currency.
type Auction struct {
	ID     int64
	Block  int64
	Orders []RawOrder
	Prices map[string]decimal.Decimal
}

// Prices maps a token address to its price in numeraire units per whole token.
type Prices map[string]decimal.Decimal

// EnrichedOrder is a RawOrder joined with token names and prices, oriented
// around the focus token and scaled to whole-token units.
type EnrichedOrder struct {
	UID        string          `json:"uid"`
	SellToken  string          `json:"sellToken"`
	BuyToken   string          `json:"buyToken"`
	SellName   string          `json:"sellName"`
	BuyName    string          `json:"buyName"`
	SellAmount decimal.Decimal `json:"sellAmount"`
	BuyAmount  decimal.Decimal `json:"buyAmount"`
	SellPrice  decimal.Decimal `json:"sellPrice"`
	BuyPrice   decimal.Decimal `json:"buyPrice"`
	Price      decimal.Decimal `json:"price"`  // numeraire per focus token, 3 decimals
	Volume     decimal.Decimal `json:"volume"` // focus token amount
	Side       Side            `json:"side"`
	Owner      string          `json:"owner"`
	OwnerLink  string          `json:"ownerLink"`
}

package orderbook

import (
	"slices"

	"github.com/shopspring/decimal"

	"cow-orderbook/internal/tokens"
)

// PriceDecimals is the number of fractional digits kept in EnrichedOrder.Price.
// Rounding is half away from zero, i.e. half-up for the non-negative prices
// that survive enrichment.
const PriceDecimals = 3

// LinkFunc renders the owner address into a display link.
type LinkFunc func(owner string) string

// ExplorerLink returns a LinkFunc that appends the owner to prefix.
func ExplorerLink(prefix string) LinkFunc {
	return func(owner string) string { return prefix + owner }
}

// Enrich joins one order with token metadata and normalized prices. The
// second return value is false when the order is dropped: it does not touch
// the focus token, trades the focus token against itself, misses metadata or
// a price on either side, or has a degenerate amount.
func Enrich(o RawOrder, reg TokenLookup, prices Prices, focus string, link LinkFunc) (EnrichedOrder, bool) {
	focus = tokens.NormalizeAddress(focus)
	sellAddr := tokens.NormalizeAddress(o.SellToken)
	buyAddr := tokens.NormalizeAddress(o.BuyToken)

	var side Side
	switch {
	case sellAddr == focus && buyAddr == focus:
		return EnrichedOrder{}, false
	case sellAddr == focus:
		side = SideSell
	case buyAddr == focus:
		side = SideBuy
	default:
		return EnrichedOrder{}, false
	}

	sellTok, ok1 := reg.Lookup(sellAddr)
	buyTok, ok2 := reg.Lookup(buyAddr)
	sellPrice, ok3 := prices[sellAddr]
	buyPrice, ok4 := prices[buyAddr]
	if !ok1 || !ok2 || !ok3 || !ok4 || sellTok.Name == "" || buyTok.Name == "" {
		return EnrichedOrder{}, false
	}
	if o.SellAmount.IsNegative() || o.BuyAmount.IsNegative() {
		return EnrichedOrder{}, false
	}

	sellAmount := o.SellAmount.Shift(-sellTok.Decimals)
	buyAmount := o.BuyAmount.Shift(-buyTok.Decimals)

	var num, den, volume decimal.Decimal
	if side == SideSell {
		num, den, volume = buyAmount.Mul(buyPrice), sellAmount, sellAmount
	} else {
		num, den, volume = sellAmount.Mul(sellPrice), buyAmount, buyAmount
	}
	if degenerate(den) {
		return EnrichedOrder{}, false
	}
	// Rounded once, from the exact quotient.
	price := num.DivRound(den, PriceDecimals)
	if price.IsNegative() {
		return EnrichedOrder{}, false
	}

	e := EnrichedOrder{
		UID:        o.UID,
		SellToken:  sellAddr,
		BuyToken:   buyAddr,
		SellName:   sellTok.Name,
		BuyName:    buyTok.Name,
		SellAmount: sellAmount,
		BuyAmount:  buyAmount,
		SellPrice:  sellPrice,
		BuyPrice:   buyPrice,
		Price:      price,
		Volume:     volume,
		Side:       side,
		Owner:      o.Owner,
	}
	if link != nil {
		e.OwnerLink = link(o.Owner)
	}
	return e, true
}

// degenerate reports whether den cannot be used as a price denominator.
func degenerate(den decimal.Decimal) bool {
	return !den.IsPositive()
}

// EnrichAll enriches every order and returns the survivors sorted by Price
// ascending, together with the number of focus-token orders that were dropped.
func EnrichAll(orders []RawOrder, reg TokenLookup, prices Prices, focus string, link LinkFunc) ([]EnrichedOrder, int) {
	focus = tokens.NormalizeAddress(focus)
	out := make([]EnrichedOrder, 0, len(orders))
	dropped := 0
	for _, o := range orders {
		e, ok := Enrich(o, reg, prices, focus, link)
		if !ok {
			if touches(o, focus) {
				dropped++
			}
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b EnrichedOrder) int { return a.Price.Cmp(b.Price) })
	return out, dropped
}

func touches(o RawOrder, focus string) bool {
	return tokens.NormalizeAddress(o.SellToken) == focus || tokens.NormalizeAddress(o.BuyToken) == focus
}

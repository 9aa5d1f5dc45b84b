package depth

import (
	"slices"

	"github.com/shopspring/decimal"

	"cow-orderbook/internal/orderbook"
	"cow-orderbook/internal/tokens"
)

// Curves groups enriched orders by price for each side of the focus token and
// accumulates volume outward from the best price: bids descending, asks
// ascending. Orders are classified by buyToken first, so a row can never land
// on both sides.
func Curves(orders []orderbook.EnrichedOrder, focus string) (buy, sell []Level) {
	focus = tokens.NormalizeAddress(focus)
	var bids, asks []orderbook.EnrichedOrder
	for _, o := range orders {
		switch {
		case tokens.NormalizeAddress(o.BuyToken) == focus:
			bids = append(bids, o)
		case tokens.NormalizeAddress(o.SellToken) == focus:
			asks = append(asks, o)
		}
	}
	buy = accumulate(bids, true)
	sell = accumulate(asks, false)
	return buy, sell
}

func accumulate(orders []orderbook.EnrichedOrder, descending bool) []Level {
	// decimal.Decimal values that are numerically equal can carry different
	// exponents ("10" vs "10.000"), so group on a canonical string key.
	sumByKey := map[string]decimal.Decimal{}
	priceByKey := map[string]decimal.Decimal{}
	for _, o := range orders {
		k := canonicalPriceKey(o.Price)
		sumByKey[k] = sumByKey[k].Add(o.Volume)
		if _, ok := priceByKey[k]; !ok {
			priceByKey[k] = o.Price
		}
	}

	keys := make([]string, 0, len(sumByKey))
	for k := range sumByKey {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(ka, kb string) int {
		pa, pb := priceByKey[ka], priceByKey[kb]
		if descending {
			return pb.Cmp(pa)
		}
		return pa.Cmp(pb)
	})

	levels := make([]Level, 0, len(keys))
	cum := decimal.Zero
	for _, k := range keys {
		cum = cum.Add(sumByKey[k])
		levels = append(levels, Level{
			Price:      priceByKey[k],
			Volume:     sumByKey[k],
			Cumulative: cum,
		})
	}
	return levels
}

// Aggregate builds the merged depth chart series, ascending by price. A price
// present on one side only leaves the other side's cumulative invalid.
func Aggregate(orders []orderbook.EnrichedOrder, focus string) []DepthPoint {
	buy, sell := Curves(orders, focus)

	byKey := make(map[string]*DepthPoint, len(buy)+len(sell))
	points := make([]*DepthPoint, 0, len(buy)+len(sell))
	point := func(p decimal.Decimal) *DepthPoint {
		k := canonicalPriceKey(p)
		if dp, ok := byKey[k]; ok {
			return dp
		}
		dp := &DepthPoint{Price: p}
		byKey[k] = dp
		points = append(points, dp)
		return dp
	}
	for _, l := range buy {
		point(l.Price).BuyCumulative = decimal.NewNullDecimal(l.Cumulative)
	}
	for _, l := range sell {
		point(l.Price).SellCumulative = decimal.NewNullDecimal(l.Cumulative)
	}

	out := make([]DepthPoint, 0, len(points))
	for _, dp := range points {
		out = append(out, *dp)
	}
	slices.SortFunc(out, func(a, b DepthPoint) int { return a.Price.Cmp(b.Price) })
	return out
}

// canonicalPriceKey normalizes a Decimal so numerically equal values hash to the same key.
// String() drops redundant trailing zeros ("100.00" -> "100").
func canonicalPriceKey(p decimal.Decimal) string {
	return p.String()
}

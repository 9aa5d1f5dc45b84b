package depth

import (
	"github.com/shopspring/decimal"
)

// Level is one price bucket of a single side.
type Level struct {
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`     // focus token volume at this price
	Cumulative decimal.Decimal `json:"cumulative"` // running sum from the best price outward
}

// DepthPoint merges both curves at one price. An invalid cumulative means the
// side has no liquidity at or beyond this price and encodes as JSON null.
type DepthPoint struct {
	Price          decimal.Decimal     `json:"price"`
	BuyCumulative  decimal.NullDecimal `json:"buyCumulative"`
	SellCumulative decimal.NullDecimal `json:"sellCumulative"`
}

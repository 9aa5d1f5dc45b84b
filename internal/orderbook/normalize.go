package orderbook

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"cow-orderbook/internal/tokens"
)

// NumeraireDecimals is the decimal count of the reference token (USDC).
// Auction prices are quoted per smallest unit, so a token with d decimals is
// shifted by d-6 to land in whole-numeraire per whole-token units. This only
// holds for a 6-decimal numeraire and is deliberately not configurable.
const NumeraireDecimals = 6

// divisionScale is the number of fractional digits kept by intermediate divisions.
const divisionScale = 18

var ErrNumerairePrice = errors.New("numeraire price unavailable")

// TokenLookup resolves token metadata by address.
type TokenLookup interface {
	Lookup(address string) (tokens.TokenInfo, bool)
}

// NormalizePrices converts raw auction prices into numeraire units per whole
// token. Tokens without metadata are left out; orders touching them will not
// survive enrichment.
func NormalizePrices(raw map[string]decimal.Decimal, reg TokenLookup, numeraire string) (Prices, error) {
	numeraire = tokens.NormalizeAddress(numeraire)
	ref, ok := lookupPrice(raw, numeraire)
	if !ok {
		return nil, fmt.Errorf("%w: no price for %s", ErrNumerairePrice, numeraire)
	}
	if !ref.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive price %s for %s", ErrNumerairePrice, ref, numeraire)
	}
	out := make(Prices, len(raw))
	for addr, p := range raw {
		ti, ok := reg.Lookup(addr)
		if !ok {
			continue
		}
		out[ti.Address] = NormalizePrice(p, ti.Decimals, ref)
	}
	return out, nil
}

// NormalizePrice computes raw / ref * 10^(decimals-6).
func NormalizePrice(raw decimal.Decimal, decimals int32, ref decimal.Decimal) decimal.Decimal {
	return raw.Shift(decimals - NumeraireDecimals).DivRound(ref, divisionScale)
}

func lookupPrice(raw map[string]decimal.Decimal, addr string) (decimal.Decimal, bool) {
	if p, ok := raw[addr]; ok {
		return p, true
	}
	for k, p := range raw {
		if tokens.NormalizeAddress(k) == addr {
			return p, true
		}
	}
	return decimal.Decimal{}, false
}

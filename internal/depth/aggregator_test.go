package depth

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cow-orderbook/internal/orderbook"
)

const (
	focus = "0x00000000000000000000000000000000000000aa"
	quote = "0x00000000000000000000000000000000000000bb"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bid(price, vol string) orderbook.EnrichedOrder {
	return orderbook.EnrichedOrder{SellToken: quote, BuyToken: focus, Price: d(price), Volume: d(vol), Side: orderbook.SideBuy}
}

func ask(price, vol string) orderbook.EnrichedOrder {
	return orderbook.EnrichedOrder{SellToken: focus, BuyToken: quote, Price: d(price), Volume: d(vol), Side: orderbook.SideSell}
}

func TestDuplicatePriceLevelsSum(t *testing.T) {
	buy, sell := Curves([]orderbook.EnrichedOrder{
		bid("10.000", "3.0"),
		bid("10", "5.0"),
	}, focus)
	if len(sell) != 0 {
		t.Fatalf("sell curve got %d levels want 0", len(sell))
	}
	if len(buy) != 1 {
		t.Fatalf("buy curve got %d levels want 1", len(buy))
	}
	if !buy[0].Price.Equal(d("10")) || !buy[0].Volume.Equal(d("8")) || !buy[0].Cumulative.Equal(d("8")) {
		t.Fatalf("got %+v want (10, 8, 8)", buy[0])
	}
}

func TestCurvesSortAndAccumulateOutward(t *testing.T) {
	orders := []orderbook.EnrichedOrder{
		bid("9", "1"), bid("11", "2"), bid("10", "4"), bid("11", "1"),
		ask("14", "5"), ask("12", "1"), ask("13", "2"),
	}
	buy, sell := Curves(orders, focus)

	wantBuy := [][3]string{{"11", "3", "3"}, {"10", "4", "7"}, {"9", "1", "8"}}
	wantSell := [][3]string{{"12", "1", "1"}, {"13", "2", "3"}, {"14", "5", "8"}}
	check := func(side string, got []Level, want [][3]string) {
		if len(got) != len(want) {
			t.Fatalf("%s: got %d levels want %d", side, len(got), len(want))
		}
		for i, w := range want {
			if !got[i].Price.Equal(d(w[0])) || !got[i].Volume.Equal(d(w[1])) || !got[i].Cumulative.Equal(d(w[2])) {
				t.Fatalf("%s[%d]: got (%s,%s,%s) want %v", side, i, got[i].Price, got[i].Volume, got[i].Cumulative, w)
			}
			if i > 0 && got[i].Cumulative.LessThan(got[i-1].Cumulative) {
				t.Fatalf("%s: cumulative decreased at %d", side, i)
			}
		}
	}
	check("buy", buy, wantBuy)
	check("sell", sell, wantSell)

	// Volume conservation per side.
	var bidTotal, askTotal decimal.Decimal
	for _, o := range orders {
		if o.Side == orderbook.SideBuy {
			bidTotal = bidTotal.Add(o.Volume)
		} else {
			askTotal = askTotal.Add(o.Volume)
		}
	}
	if !buy[len(buy)-1].Cumulative.Equal(bidTotal) || !sell[len(sell)-1].Cumulative.Equal(askTotal) {
		t.Fatal("cumulative totals do not match order volume")
	}
}

func TestAggregateGapsAndOrder(t *testing.T) {
	points := Aggregate([]orderbook.EnrichedOrder{
		bid("10", "2"), bid("11", "1"),
		ask("11", "4"), ask("12", "3"),
	}, focus)
	if len(points) != 3 {
		t.Fatalf("got %d points want 3", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Price.LessThan(points[i].Price) {
			t.Fatalf("points not ascending at %d", i)
		}
	}
	// 10: bid only
	if !points[0].BuyCumulative.Valid || !points[0].BuyCumulative.Decimal.Equal(d("3")) {
		t.Fatalf("buy cum at 10 got %+v want 3", points[0].BuyCumulative)
	}
	if points[0].SellCumulative.Valid {
		t.Fatal("sell cum at 10 should be absent")
	}
	// 11: both sides
	if !points[1].BuyCumulative.Decimal.Equal(d("1")) || !points[1].SellCumulative.Decimal.Equal(d("4")) {
		t.Fatalf("point 11 got %+v", points[1])
	}
	// 12: ask only
	if points[2].BuyCumulative.Valid || !points[2].SellCumulative.Decimal.Equal(d("7")) {
		t.Fatalf("point 12 got %+v", points[2])
	}

	b, err := json.Marshal(points[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"sellCumulative":null`) {
		t.Fatalf("absent side should encode as null: %s", b)
	}
}

func TestAggregateEmptyAndSingleLevel(t *testing.T) {
	points := Aggregate(nil, focus)
	if points == nil || len(points) != 0 {
		t.Fatalf("empty input got %#v want empty slice", points)
	}
	points = Aggregate([]orderbook.EnrichedOrder{ask("5", "2.5")}, focus)
	if len(points) != 1 || !points[0].SellCumulative.Decimal.Equal(d("2.5")) {
		t.Fatalf("single level got %+v", points)
	}
}

func TestAggregateIgnoresOtherTokens(t *testing.T) {
	other := orderbook.EnrichedOrder{SellToken: quote, BuyToken: quote, Price: d("1"), Volume: d("1")}
	if got := Aggregate([]orderbook.EnrichedOrder{other}, focus); len(got) != 0 {
		t.Fatalf("got %d points want 0", len(got))
	}
}

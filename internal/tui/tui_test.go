package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rivo/tview"
	"github.com/shopspring/decimal"

	"cow-orderbook/internal/dashboard"
	"cow-orderbook/internal/depth"
	"cow-orderbook/internal/orderbook"
	"cow-orderbook/internal/tokens"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFillOrders(t *testing.T) {
	v := &dashboard.View{
		Orders: []orderbook.EnrichedOrder{
			{SellName: "Safe Token", BuyName: "USD Coin", Volume: d("2"), Price: d("1.5"), Owner: "0xo1"},
			{SellName: "USD Coin", BuyName: "Safe Token", Volume: d("3.25"), Price: d("1.25"), Owner: "0xo2"},
		},
	}
	table := tview.NewTable()
	fillOrders(table, v)
	if table.GetRowCount() != 3 {
		t.Fatalf("rows got %d want 3", table.GetRowCount())
	}
	if got := table.GetCell(0, 3).Text; got != "Price" {
		t.Fatalf("header got %q", got)
	}
	if got := table.GetCell(1, 3).Text; got != "1.500" {
		t.Fatalf("price cell got %q want 1.500", got)
	}
	if got := table.GetCell(2, 2).Text; got != "3.2500" {
		t.Fatalf("volume cell got %q want 3.2500", got)
	}
}

func TestFillDepthLeavesGapsBlank(t *testing.T) {
	table := tview.NewTable()
	fillDepth(table, []depth.DepthPoint{
		{Price: d("1"), BuyCumulative: decimal.NewNullDecimal(d("5"))},
		{Price: d("2"), SellCumulative: decimal.NewNullDecimal(d("7"))},
	})
	if table.GetRowCount() != 3 {
		t.Fatalf("rows got %d want 3", table.GetRowCount())
	}
	if got := table.GetCell(1, 2).Text; got != "" {
		t.Fatalf("absent sell got %q want blank", got)
	}
	if got := table.GetCell(2, 1).Text; got != "" {
		t.Fatalf("absent buy got %q want blank", got)
	}
	if got := table.GetCell(2, 2).Text; got != "7.0000" {
		t.Fatalf("sell cum got %q", got)
	}
}

func TestStatusLine(t *testing.T) {
	v := &dashboard.View{
		Focus:       tokens.TokenInfo{Name: "Safe Token"},
		GeneratedAt: time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC),
		Stats:       dashboard.Stats{Shown: 4, Dropped: 1},
	}
	got := statusLine(v)
	if !strings.Contains(got, "Safe Token - 09/03/2024 14:05:06") || !strings.Contains(got, "4 shown, 1 dropped") {
		t.Fatalf("status got %q", got)
	}
}

type stubBuilder struct{ reg *tokens.Registry }

func (b stubBuilder) Build(context.Context, string) (*dashboard.View, error) {
	return &dashboard.View{}, nil
}

func (b stubBuilder) Registry() *tokens.Registry { return b.reg }

func testApp() *App {
	reg := tokens.New([]tokens.TokenInfo{
		{Address: "0x00000000000000000000000000000000000000aa", Name: "Safe Token", Decimals: 18},
		{Address: "0x00000000000000000000000000000000000000bb", Name: "USD Coin", Decimals: 6},
		{Address: "0x00000000000000000000000000000000000000cc", Name: "USD Coin", Decimals: 6},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(stubBuilder{reg: reg}, "USD Coin", time.Second, logger)
}

func TestPickerListsDistinctNames(t *testing.T) {
	a := testApp()
	if got := a.picker.GetOptionCount(); got != 2 {
		t.Fatalf("options got %d want 2", got)
	}
	if _, text := a.picker.GetCurrentOption(); text != "USD Coin" {
		t.Fatalf("current option got %q want USD Coin", text)
	}
}

func TestChooseSwitchesFocus(t *testing.T) {
	a := testApp()
	if a.choose("USD Coin") {
		t.Fatal("choosing the current token should be a no-op")
	}
	if a.choose("") {
		t.Fatal("empty name accepted")
	}
	if !a.choose("Safe Token") || a.focus != "Safe Token" {
		t.Fatalf("focus got %q want Safe Token", a.focus)
	}
}

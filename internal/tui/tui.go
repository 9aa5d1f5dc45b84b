// Package tui renders the order table and depth curves in a terminal.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/shopspring/decimal"

	"cow-orderbook/internal/dashboard"
	"cow-orderbook/internal/depth"
	"cow-orderbook/internal/tokens"
)

// Builder renders the order book for a token name.
type Builder interface {
	Build(ctx context.Context, focusName string) (*dashboard.View, error)
	Registry() *tokens.Registry
}

type App struct {
	svc     Builder
	focus   string
	timeout time.Duration
	log     *slog.Logger

	app    *tview.Application
	picker *tview.DropDown
	orders *tview.Table
	depth  *tview.Table
	status *tview.TextView
}

func New(svc Builder, focus string, timeout time.Duration, logger *slog.Logger) *App {
	a := &App{
		svc:     svc,
		focus:   focus,
		timeout: timeout,
		log:     logger,
		app:     tview.NewApplication(),
		picker:  tview.NewDropDown().SetLabel("Token: "),
		orders:  tview.NewTable().SetFixed(1, 0).SetSelectable(true, false),
		depth:   tview.NewTable().SetFixed(1, 0),
		status:  tview.NewTextView().SetDynamicColors(true),
	}
	a.orders.SetBorder(true).SetTitle("Orders")
	a.depth.SetBorder(true).SetTitle("Depth")

	names := tokenNames(svc.Registry().Tokens())
	a.picker.SetOptions(names, nil)
	if i := slices.Index(names, focus); i >= 0 {
		a.picker.SetCurrentOption(i)
	}
	a.picker.SetDoneFunc(func(tcell.Key) { a.app.SetFocus(a.orders) })
	// Set after the initial option so it does not trigger a render.
	a.picker.SetSelectedFunc(func(text string, _ int) {
		a.app.SetFocus(a.orders)
		if a.choose(text) {
			go a.refresh(text)
		}
	})

	grid := tview.NewGrid().
		SetRows(1, 0, 1).
		SetColumns(0, 0).
		AddItem(a.picker, 0, 0, 1, 2, 0, 0, false).
		AddItem(a.orders, 1, 0, 1, 1, 0, 0, true).
		AddItem(a.depth, 1, 1, 1, 1, 0, 0, false).
		AddItem(a.status, 2, 0, 1, 2, 0, 0, false)

	a.app.SetRoot(grid, true).SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		// The open token list owns the keyboard.
		if a.picker.HasFocus() {
			return ev
		}
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Rune() == 'q':
			a.app.Stop()
			return nil
		case ev.Rune() == 'r':
			go a.refresh(a.focus)
			return nil
		case ev.Rune() == 't':
			a.app.SetFocus(a.picker)
			return nil
		}
		return ev
	})
	return a
}

// Run renders once and blocks until the user quits.
func (a *App) Run() error {
	go a.refresh(a.focus)
	return a.app.Run()
}

// choose switches the focus token. It runs on the UI goroutine and reports
// whether the token changed.
func (a *App) choose(name string) bool {
	if name == "" || name == a.focus {
		return false
	}
	a.focus = name
	return true
}

// tokenNames lists the distinct token names in registry order.
func tokenNames(infos []tokens.TokenInfo) []string {
	names := make([]string, 0, len(infos))
	for _, t := range infos {
		names = append(names, t.Name)
	}
	return slices.Compact(names)
}

func (a *App) refresh(name string) {
	a.app.QueueUpdateDraw(func() { a.status.SetText("[yellow]loading " + tview.Escape(name) + "...") })
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	v, err := a.svc.Build(ctx, name)
	a.app.QueueUpdateDraw(func() {
		if name != a.focus {
			return
		}
		if err != nil {
			a.log.Error("render failed", slog.String("err", err.Error()))
			a.status.SetText("[red]" + tview.Escape(err.Error()) + "[-]  r: retry  t: token  q: quit")
			return
		}
		fillOrders(a.orders, v)
		fillDepth(a.depth, v.Depth)
		a.status.SetText(statusLine(v))
	})
}

func statusLine(v *dashboard.View) string {
	return fmt.Sprintf("CoW Swap order book - %s - %s  (%d shown, %d dropped)  r: refresh  t: token  q: quit",
		v.Focus.Name, v.GeneratedAt.Format("02/01/2006 15:04:05"), v.Stats.Shown, v.Stats.Dropped)
}

func header(t *tview.Table, cols ...string) {
	for i, c := range cols {
		t.SetCell(0, i, tview.NewTableCell(c).SetTextColor(tcell.ColorYellow).SetSelectable(false))
	}
}

func fillOrders(t *tview.Table, v *dashboard.View) {
	t.Clear()
	header(t, "Sell", "Buy", "Volume", "Price", "Seller")
	for i, o := range v.Orders {
		row := i + 1
		t.SetCell(row, 0, tview.NewTableCell(tview.Escape(o.SellName)))
		t.SetCell(row, 1, tview.NewTableCell(tview.Escape(o.BuyName)))
		t.SetCell(row, 2, tview.NewTableCell(o.Volume.StringFixed(4)).SetAlign(tview.AlignRight))
		t.SetCell(row, 3, tview.NewTableCell(o.Price.StringFixed(3)).SetAlign(tview.AlignRight))
		t.SetCell(row, 4, tview.NewTableCell(o.Owner))
	}
	t.ScrollToBeginning()
}

func fillDepth(t *tview.Table, points []depth.DepthPoint) {
	t.Clear()
	header(t, "Price", "Buy Volume", "Sell Volume")
	for i, p := range points {
		row := i + 1
		t.SetCell(row, 0, tview.NewTableCell(p.Price.StringFixed(3)).SetAlign(tview.AlignRight))
		t.SetCell(row, 1, tview.NewTableCell(cumulative(p.BuyCumulative)).SetTextColor(tcell.ColorRed).SetAlign(tview.AlignRight))
		t.SetCell(row, 2, tview.NewTableCell(cumulative(p.SellCumulative)).SetTextColor(tcell.ColorBlue).SetAlign(tview.AlignRight))
	}
}

// cumulative renders an absent side as blank so the column shows a gap.
func cumulative(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(4)
}

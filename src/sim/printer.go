package sim

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"lob-engine/src/engine"
)

// Dollars converts a tick (cent) price to dollars for display.
func Dollars(ticks int64) float64 {
	return float64(ticks) / 100
}

// Printer renders book, trade and stats views of an engine. Ask rows print in
// red and bid rows in green when stdout is a terminal.
type Printer struct {
	w   io.Writer
	bid *color.Color
	ask *color.Color
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:   w,
		bid: color.New(color.FgGreen),
		ask: color.New(color.FgRed),
	}
}

// PrintBook renders both sides of the book to the given depth: asks top-down
// toward the spread, then the spread/mid banner, then bids best-first.
func (p *Printer) PrintBook(e *engine.Engine, depth int) {
	fmt.Fprintf(p.w, "\n=== Order Book ===\n")

	fmt.Fprintf(p.w, "\n--- ASKS (Sell) ---\n")
	fmt.Fprintf(p.w, "%12s%15s%15s\n", "Price", "Quantity", "Orders")
	fmt.Fprintln(p.w, strings.Repeat("-", 42))

	asks := e.Depth(engine.SideSell, depth)
	for i := len(asks) - 1; i >= 0; i-- {
		level := asks[i]
		p.ask.Fprintf(p.w, "%12.2f%15d%15d\n", Dollars(level.Price), level.Quantity, level.Orders)
	}

	fmt.Fprintf(p.w, "\n%s\n", strings.Repeat("=", 42))
	if spread, ok := e.Spread(); ok {
		mid, _ := e.MidPrice()
		fmt.Fprintf(p.w, "Spread: $%.2f | Mid: $%.2f\n", Dollars(spread), mid/100)
	} else {
		fmt.Fprintf(p.w, "Spread: - | Mid: -\n")
	}
	fmt.Fprintf(p.w, "%s\n\n", strings.Repeat("=", 42))

	fmt.Fprintf(p.w, "--- BIDS (Buy) ---\n")
	fmt.Fprintf(p.w, "%12s%15s%15s\n", "Price", "Quantity", "Orders")
	fmt.Fprintln(p.w, strings.Repeat("-", 42))

	for _, level := range e.Depth(engine.SideBuy, depth) {
		p.bid.Fprintf(p.w, "%12.2f%15d%15d\n", Dollars(level.Price), level.Quantity, level.Orders)
	}
	fmt.Fprintln(p.w)
}

// PrintRecentTrades renders the last n trades in emission order.
func (p *Printer) PrintRecentTrades(e *engine.Engine, n int) {
	fmt.Fprintf(p.w, "=== Recent Trades ===\n")
	fmt.Fprintf(p.w, "%12s%12s%12s%12s\n", "Buy ID", "Sell ID", "Price", "Quantity")
	fmt.Fprintln(p.w, strings.Repeat("-", 48))

	for _, trade := range e.RecentTrades(n) {
		fmt.Fprintf(p.w, "%12d%12d%12.2f%12d\n",
			trade.BuyOrderID, trade.SellOrderID, Dollars(trade.Price), trade.Quantity)
	}
	fmt.Fprintln(p.w)
}

// PrintStats renders the engine counters and top of book.
func (p *Printer) PrintStats(e *engine.Engine) {
	stats := e.Stats()

	fmt.Fprintf(p.w, "=== Order Book Statistics ===\n")
	fmt.Fprintf(p.w, "Total orders processed: %d\n", stats.OrdersProcessed)
	fmt.Fprintf(p.w, "Total trades executed: %d\n", stats.TradesExecuted)
	fmt.Fprintf(p.w, "Active resting orders: %d\n", stats.ActiveOrders)

	if price, _, ok := e.BestBid(); ok {
		fmt.Fprintf(p.w, "Best bid: $%.2f\n", Dollars(price))
	} else {
		fmt.Fprintf(p.w, "Best bid: -\n")
	}
	if price, _, ok := e.BestAsk(); ok {
		fmt.Fprintf(p.w, "Best ask: $%.2f\n", Dollars(price))
	} else {
		fmt.Fprintf(p.w, "Best ask: -\n")
	}
	if spread, ok := e.Spread(); ok {
		fmt.Fprintf(p.w, "Spread: $%.2f\n", Dollars(spread))
	} else {
		fmt.Fprintf(p.w, "Spread: -\n")
	}
	fmt.Fprintln(p.w)
}

package sim

import (
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"

	"lob-engine/src/engine"
)

// Cents converts a dollar price to integer ticks, rounding to the grid. Prices
// must be normalized here before they reach the engine.
func Cents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

type scenarioOrder struct {
	side     engine.OrderSide
	price    float64
	quantity int64
}

var openingAsks = []scenarioOrder{
	{engine.SideSell, 100.50, 100},
	{engine.SideSell, 100.60, 150},
	{engine.SideSell, 100.70, 200},
	{engine.SideSell, 100.80, 175},
	{engine.SideSell, 100.90, 125},
}

var openingBids = []scenarioOrder{
	{engine.SideBuy, 100.40, 120},
	{engine.SideBuy, 100.30, 180},
	{engine.SideBuy, 100.20, 150},
	{engine.SideBuy, 100.10, 200},
	{engine.SideBuy, 100.00, 100},
}

// RunDemo plays the reference scenario script against a fresh engine and
// renders the book after each stage. The engine is returned for inspection.
func RunDemo(w io.Writer, depth int, log zerolog.Logger) *engine.Engine {
	e := engine.NewEngine(log)
	p := NewPrinter(w)

	fmt.Fprintf(w, "=== Limit Order Book Simulator ===\n\n")
	fmt.Fprintf(w, "Building initial order book...\n")

	for _, o := range openingAsks {
		mustAdd(e, o.side, engine.TypeLimit, Cents(o.price), o.quantity)
	}
	for _, o := range openingBids {
		mustAdd(e, o.side, engine.TypeLimit, Cents(o.price), o.quantity)
	}
	p.PrintBook(e, depth)

	fmt.Fprintf(w, "\n>>> Executing MARKET BUY order for 250 shares <<<\n")
	mustAdd(e, engine.SideBuy, engine.TypeMarket, 0, 250)
	p.PrintBook(e, depth)
	p.PrintRecentTrades(e, 3)

	fmt.Fprintf(w, "\n>>> Adding LIMIT BUY at $100.65 for 180 shares (inside the spread) <<<\n")
	mustAdd(e, engine.SideBuy, engine.TypeLimit, Cents(100.65), 180)
	p.PrintBook(e, depth)
	p.PrintRecentTrades(e, 3)

	fmt.Fprintf(w, "\n>>> Adding passive LIMIT orders <<<\n")
	mustAdd(e, engine.SideBuy, engine.TypeLimit, Cents(100.35), 100)
	mustAdd(e, engine.SideSell, engine.TypeLimit, Cents(100.95), 150)
	p.PrintBook(e, depth)

	p.PrintStats(e)
	return e
}

func mustAdd(e *engine.Engine, side engine.OrderSide, orderType engine.OrderType, price, quantity int64) uint64 {
	id, err := e.AddOrder(side, orderType, price, quantity)
	if err != nil {
		// the script only submits valid orders
		panic(err)
	}
	return id
}

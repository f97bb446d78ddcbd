package engine_test

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"lob-engine/src/engine"
)

func newEngine() *engine.Engine {
	return engine.NewEngine(zerolog.Nop())
}

func mustAdd(t *testing.T, e *engine.Engine, side engine.OrderSide, orderType engine.OrderType, price, quantity int64) uint64 {
	t.Helper()
	id, err := e.AddOrder(side, orderType, price, quantity)
	if err != nil {
		t.Fatalf("AddOrder failed: %v", err)
	}
	return id
}

// buildPassiveBook submits the reference opening orders: three asks, two bids.
func buildPassiveBook(t *testing.T, e *engine.Engine) (askIDs, bidIDs []uint64) {
	t.Helper()
	askIDs = append(askIDs,
		mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10050, 100),
		mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10060, 150),
		mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10070, 200),
	)
	bidIDs = append(bidIDs,
		mustAdd(t, e, engine.SideBuy, engine.TypeLimit, 10040, 120),
		mustAdd(t, e, engine.SideBuy, engine.TypeLimit, 10030, 180),
	)
	return askIDs, bidIDs
}

func TestPassiveBuildUp(t *testing.T) {
	e := newEngine()
	buildPassiveBook(t, e)

	if e.TradeCount() != 0 {
		t.Fatalf("Expected 0 trades, got: %d", e.TradeCount())
	}

	bid, _, ok := e.BestBid()
	if !ok || bid != 10040 {
		t.Errorf("Expected best bid 10040, got: %d (ok=%v)", bid, ok)
	}

	ask, _, ok := e.BestAsk()
	if !ok || ask != 10050 {
		t.Errorf("Expected best ask 10050, got: %d (ok=%v)", ask, ok)
	}

	mid, ok := e.MidPrice()
	if !ok || mid != 10045 {
		t.Errorf("Expected mid 10045, got: %v (ok=%v)", mid, ok)
	}

	spread, ok := e.Spread()
	if !ok || spread != 10 {
		t.Errorf("Expected spread 10, got: %d (ok=%v)", spread, ok)
	}
}

func TestMarketBuySweepsTwoLevels(t *testing.T) {
	e := newEngine()
	askIDs, _ := buildPassiveBook(t, e)

	marketID := mustAdd(t, e, engine.SideBuy, engine.TypeMarket, 0, 250)

	trades := e.Trades(0, e.TradeCount())
	if len(trades) != 2 {
		t.Fatalf("Expected 2 trades, got: %d", len(trades))
	}

	if trades[0].SellOrderID != askIDs[0] || trades[0].Price != 10050 || trades[0].Quantity != 100 {
		t.Errorf("Unexpected first trade: %+v", trades[0])
	}
	if trades[1].SellOrderID != askIDs[1] || trades[1].Price != 10060 || trades[1].Quantity != 150 {
		t.Errorf("Unexpected second trade: %+v", trades[1])
	}
	for _, trade := range trades {
		if trade.BuyOrderID != marketID {
			t.Errorf("Trade should name the market buy %d: %+v", marketID, trade)
		}
	}

	ask, quantity, ok := e.BestAsk()
	if !ok || ask != 10070 || quantity != 200 {
		t.Errorf("Expected best ask 10070 x 200, got: %d x %d (ok=%v)", ask, quantity, ok)
	}

	bid, _, ok := e.BestBid()
	if !ok || bid != 10040 {
		t.Errorf("Best bid should be unchanged at 10040, got: %d (ok=%v)", bid, ok)
	}
}

func TestAggressiveLimitBlockedByPriceGate(t *testing.T) {
	e := newEngine()
	buildPassiveBook(t, e)
	mustAdd(t, e, engine.SideBuy, engine.TypeMarket, 0, 250)

	tradesBefore := e.TradeCount()
	mustAdd(t, e, engine.SideBuy, engine.TypeLimit, 10065, 180)

	// 100.65 is below the remaining best ask 100.70, so nothing crosses
	if e.TradeCount() != tradesBefore {
		t.Fatalf("Expected no new trades, got: %d", e.TradeCount()-tradesBefore)
	}

	bid, quantity, ok := e.BestBid()
	if !ok || bid != 10065 || quantity != 180 {
		t.Errorf("Expected order resting as best bid 10065 x 180, got: %d x %d (ok=%v)", bid, quantity, ok)
	}
}

func TestAggressiveLimitCrossesAndRests(t *testing.T) {
	e := newEngine()
	askID := mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10050, 100)

	buyID := mustAdd(t, e, engine.SideBuy, engine.TypeLimit, 10060, 150)

	trades := e.Trades(0, e.TradeCount())
	if len(trades) != 1 {
		t.Fatalf("Expected 1 trade, got: %d", len(trades))
	}
	trade := trades[0]
	// execution at the resting order's price, not the aggressor's limit
	if trade.Price != 10050 || trade.Quantity != 100 {
		t.Errorf("Expected 100 @ 10050, got: %d @ %d", trade.Quantity, trade.Price)
	}
	if trade.BuyOrderID != buyID || trade.SellOrderID != askID {
		t.Errorf("Trade names wrong orders: %+v", trade)
	}

	bid, quantity, ok := e.BestBid()
	if !ok || bid != 10060 || quantity != 50 {
		t.Errorf("Expected residual 50 resting at 10060, got: %d x %d (ok=%v)", bid, quantity, ok)
	}

	if _, _, ok := e.BestAsk(); ok {
		t.Error("Ask side should be empty")
	}
}

func TestCancelOrder(t *testing.T) {
	e := newEngine()
	id := mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10100, 50)

	if !e.CancelOrder(id) {
		t.Fatal("First cancel should succeed")
	}
	if e.CancelOrder(id) {
		t.Fatal("Second cancel should fail")
	}

	if _, _, ok := e.BestAsk(); ok {
		t.Error("Ask side should be empty after cancel")
	}
	if e.TradeCount() != 0 {
		t.Errorf("Cancel must not emit trades, log has: %d", e.TradeCount())
	}
}

func TestTimePriority(t *testing.T) {
	e := newEngine()
	idA := mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10050, 50)
	idB := mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10050, 50)

	mustAdd(t, e, engine.SideBuy, engine.TypeMarket, 0, 70)

	trades := e.Trades(0, e.TradeCount())
	if len(trades) != 2 {
		t.Fatalf("Expected 2 trades, got: %d", len(trades))
	}
	if trades[0].SellOrderID != idA || trades[0].Quantity != 50 {
		t.Errorf("First fill should be 50 from order %d, got: %+v", idA, trades[0])
	}
	if trades[1].SellOrderID != idB || trades[1].Quantity != 20 {
		t.Errorf("Second fill should be 20 from order %d, got: %+v", idB, trades[1])
	}

	resting, ok := e.GetOrder(idB)
	if !ok {
		t.Fatal("Order B should still be resting")
	}
	if resting.RemainingQuantity() != 30 {
		t.Errorf("Expected order B remaining 30, got: %d", resting.RemainingQuantity())
	}
}

func TestLimitEqualToOppositeBestMatches(t *testing.T) {
	e := newEngine()
	mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10050, 100)

	mustAdd(t, e, engine.SideBuy, engine.TypeLimit, 10050, 100)

	if e.TradeCount() != 1 {
		t.Fatalf("Inclusive cross should match, got %d trades", e.TradeCount())
	}
	if _, _, ok := e.BestAsk(); ok {
		t.Error("Ask side should be empty")
	}
	if _, _, ok := e.BestBid(); ok {
		t.Error("Bid side should be empty")
	}
}

func TestLimitOneTickInsideRests(t *testing.T) {
	e := newEngine()
	mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10050, 100)

	mustAdd(t, e, engine.SideBuy, engine.TypeLimit, 10049, 100)

	if e.TradeCount() != 0 {
		t.Fatalf("Expected no trades, got: %d", e.TradeCount())
	}
	bid, _, ok := e.BestBid()
	if !ok || bid != 10049 {
		t.Errorf("Expected order resting at 10049, got: %d (ok=%v)", bid, ok)
	}
}

func TestMarketOrderAgainstEmptyBook(t *testing.T) {
	e := newEngine()

	id := mustAdd(t, e, engine.SideSell, engine.TypeMarket, 0, 100)
	if id == 0 {
		t.Fatal("Market order should be accepted and assigned an id")
	}

	if e.TradeCount() != 0 {
		t.Errorf("Expected no trades, got: %d", e.TradeCount())
	}
	if _, ok := e.GetOrder(id); ok {
		t.Error("Market residual must never rest in the book")
	}
	if unfilled := e.Stats().MarketUnfilled; unfilled != 100 {
		t.Errorf("Expected 100 unfilled market quantity, got: %d", unfilled)
	}
}

func TestInvalidOrdersRejectedWithoutMutation(t *testing.T) {
	e := newEngine()

	if _, err := e.AddOrder(engine.SideBuy, engine.TypeLimit, 10050, 0); err != engine.ErrInvalidQuantity {
		t.Errorf("Expected ErrInvalidQuantity, got: %v", err)
	}
	if _, err := e.AddOrder(engine.SideBuy, engine.TypeLimit, 0, 100); err != engine.ErrInvalidPrice {
		t.Errorf("Expected ErrInvalidPrice, got: %v", err)
	}
	if _, err := e.AddOrder(engine.SideSell, engine.TypeLimit, -5, 100); err != engine.ErrInvalidPrice {
		t.Errorf("Expected ErrInvalidPrice for negative price, got: %v", err)
	}
	if _, err := e.AddOrder(engine.SideSell, engine.TypeMarket, 0, -1); err != engine.ErrInvalidQuantity {
		t.Errorf("Expected ErrInvalidQuantity for negative quantity, got: %v", err)
	}

	// rejections consume no ids and leave no state behind
	if stats := e.Stats(); stats.OrdersProcessed != 0 || stats.ActiveOrders != 0 {
		t.Errorf("Rejected orders must not mutate the engine: %+v", stats)
	}
	id := mustAdd(t, e, engine.SideBuy, engine.TypeLimit, 10050, 100)
	if id != 1 {
		t.Errorf("First accepted order should get id 1, got: %d", id)
	}

	// a market order's price argument is ignored, even when negative
	if _, err := e.AddOrder(engine.SideSell, engine.TypeMarket, -1, 10); err != nil {
		t.Errorf("Market order must ignore price, got: %v", err)
	}
}

func TestAddThenCancelRestoresBook(t *testing.T) {
	e := newEngine()
	buildPassiveBook(t, e)

	bidsBefore := e.Depth(engine.SideBuy, 10)
	asksBefore := e.Depth(engine.SideSell, 10)
	tradesBefore := e.TradeCount()

	id := mustAdd(t, e, engine.SideBuy, engine.TypeLimit, 10045, 60)
	if !e.CancelOrder(id) {
		t.Fatal("Cancel should succeed")
	}

	bidsAfter := e.Depth(engine.SideBuy, 10)
	asksAfter := e.Depth(engine.SideSell, 10)

	if len(bidsAfter) != len(bidsBefore) {
		t.Fatalf("Bid depth changed: %d -> %d levels", len(bidsBefore), len(bidsAfter))
	}
	for i := range bidsBefore {
		if bidsBefore[i] != bidsAfter[i] {
			t.Errorf("Bid level %d changed: %+v -> %+v", i, bidsBefore[i], bidsAfter[i])
		}
	}
	for i := range asksBefore {
		if asksBefore[i] != asksAfter[i] {
			t.Errorf("Ask level %d changed: %+v -> %+v", i, asksBefore[i], asksAfter[i])
		}
	}
	if e.TradeCount() != tradesBefore {
		t.Errorf("Trade log changed: %d -> %d", tradesBefore, e.TradeCount())
	}
}

func TestCancelUnknownIDIsNoOp(t *testing.T) {
	e := newEngine()
	if e.CancelOrder(12345) {
		t.Fatal("Cancel of an unknown id should return false")
	}
	if e.CancelOrder(12345) {
		t.Fatal("Repeated cancel should still return false")
	}
	if stats := e.Stats(); stats.OrdersCancelled != 0 {
		t.Errorf("Unknown cancels must not count: %+v", stats)
	}
}

func TestCancelFilledOrderFails(t *testing.T) {
	e := newEngine()
	askID := mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10050, 100)
	mustAdd(t, e, engine.SideBuy, engine.TypeMarket, 0, 100)

	if e.CancelOrder(askID) {
		t.Fatal("Cancel of a fully filled order should return false")
	}
}

func TestOrderIDsStrictlyIncreasing(t *testing.T) {
	e := newEngine()

	var last uint64
	for i := 0; i < 50; i++ {
		side := engine.SideBuy
		if i%2 == 0 {
			side = engine.SideSell
		}
		id := mustAdd(t, e, side, engine.TypeLimit, 10000+int64(i), 10)
		if id <= last {
			t.Fatalf("Order id not strictly increasing: %d after %d", id, last)
		}
		last = id
	}
}

func TestTradeTimestampsNonDecreasing(t *testing.T) {
	e := newEngine()
	for i := 0; i < 10; i++ {
		mustAdd(t, e, engine.SideSell, engine.TypeLimit, 10050, 10)
	}
	mustAdd(t, e, engine.SideBuy, engine.TypeMarket, 0, 95)

	trades := e.Trades(0, e.TradeCount())
	for i := 1; i < len(trades); i++ {
		if trades[i].Timestamp < trades[i-1].Timestamp {
			t.Fatalf("Trade timestamps decreased at %d: %d < %d", i, trades[i].Timestamp, trades[i-1].Timestamp)
		}
	}
}

// TestRandomCommandsInvariants drives a seeded random command stream and
// checks the uncrossed-book and conservation invariants after every command.
func TestRandomCommandsInvariants(t *testing.T) {
	e := newEngine()
	rng := rand.New(rand.NewSource(7))

	initial := make(map[uint64]int64)
	cancelled := make(map[uint64]int64)
	var live []uint64

	checkUncrossed := func() {
		bid, _, hasBid := e.BestBid()
		ask, _, hasAsk := e.BestAsk()
		if hasBid && hasAsk && bid >= ask {
			t.Fatalf("Crossed book: best bid %d >= best ask %d", bid, ask)
		}
	}

	for i := 0; i < 2000; i++ {
		switch {
		case rng.Intn(10) < 7: // limit order
			side := engine.SideBuy
			if rng.Intn(2) == 1 {
				side = engine.SideSell
			}
			price := int64(9950 + rng.Intn(101))
			quantity := int64(1 + rng.Intn(200))
			id := mustAdd(t, e, side, engine.TypeLimit, price, quantity)
			initial[id] = quantity
			live = append(live, id)
		case rng.Intn(2) == 0: // market order
			side := engine.SideBuy
			if rng.Intn(2) == 1 {
				side = engine.SideSell
			}
			quantity := int64(1 + rng.Intn(300))
			id := mustAdd(t, e, side, engine.TypeMarket, 0, quantity)
			initial[id] = quantity
		default: // cancel a random known id
			if len(live) == 0 {
				continue
			}
			id := live[rng.Intn(len(live))]
			if order, ok := e.GetOrder(id); ok {
				remaining := order.RemainingQuantity()
				if !e.CancelOrder(id) {
					t.Fatalf("Cancel of resting order %d failed", id)
				}
				cancelled[id] = remaining
			}
		}
		checkUncrossed()
	}

	// conservation: fills + resting remainder + cancelled remainder +
	// discarded market residual account for every accepted quantity
	filled := make(map[uint64]int64)
	for _, trade := range e.Trades(0, e.TradeCount()) {
		filled[trade.BuyOrderID] += trade.Quantity
		filled[trade.SellOrderID] += trade.Quantity
	}

	var discarded int64
	for id, quantity := range initial {
		acc := filled[id] + cancelled[id]
		if order, ok := e.GetOrder(id); ok {
			acc += order.RemainingQuantity()
		}
		if acc > quantity {
			t.Fatalf("Order %d overfilled: accounted %d > initial %d", id, acc, quantity)
		}
		discarded += quantity - acc
	}
	if discarded != e.Stats().MarketUnfilled {
		t.Fatalf("Unaccounted quantity %d != discarded market residual %d", discarded, e.Stats().MarketUnfilled)
	}
}

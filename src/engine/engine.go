package engine

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine is a single-book matching engine processing commands serially. All
// state belongs to the one goroutine driving it; callers wanting concurrent
// reads must bring their own reader-writer discipline.
type Engine struct {
	book   *OrderBook
	trades []Trade

	nextOrderID uint64
	clock       uint64 // monotonic event counter stamped on orders and trades

	ordersProcessed uint64
	ordersCancelled uint64
	marketUnfilled  int64

	log zerolog.Logger
}

// Stats is a point-in-time snapshot of the engine's counters.
type Stats struct {
	OrdersProcessed uint64
	TradesExecuted  uint64
	OrdersCancelled uint64
	ActiveOrders    int
	MarketUnfilled  int64 // total market-order quantity discarded for lack of liquidity
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		book:        NewOrderBook(),
		trades:      make([]Trade, 0),
		nextOrderID: 1,
		log:         log,
	}
}

// AddOrder accepts a new order, matches it against the opposite side and
// returns the assigned id. A limit residual rests in the book; a market
// residual is discarded. Rejected orders consume no id and mutate nothing.
func (e *Engine) AddOrder(side OrderSide, orderType OrderType, price, quantity int64) (uint64, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	if orderType == TypeLimit && price <= 0 {
		return 0, ErrInvalidPrice
	}

	e.clock++
	order := &Order{
		ID:        e.nextOrderID,
		Side:      side,
		Type:      orderType,
		Price:     price,
		Quantity:  quantity,
		Status:    StatusAccepted,
		Timestamp: e.clock,
	}
	e.nextOrderID++
	e.ordersProcessed++

	e.match(order)

	if remaining := order.RemainingQuantity(); remaining > 0 {
		if order.Type == TypeLimit {
			e.book.AddOrder(order)
		} else {
			// market residual is dropped, observable here and in Stats
			e.marketUnfilled += remaining
			e.log.Debug().
				Uint64("order_id", order.ID).
				Str("side", string(order.Side)).
				Int64("residual", remaining).
				Msg("Market order residual discarded")
		}
	}

	e.log.Debug().
		Uint64("order_id", order.ID).
		Str("side", string(side)).
		Str("type", string(orderType)).
		Int64("price", price).
		Int64("quantity", quantity).
		Int64("filled", order.FilledQuantity).
		Str("status", string(order.Status)).
		Msg("Order processed")

	return order.ID, nil
}

// match drives the aggressor against the best passive levels until the price
// gate stops it, the book side exhausts, or the order fills.
func (e *Engine) match(order *Order) {
	passive := order.Side.Opposite()

	for order.RemainingQuantity() > 0 {
		level, ok := e.book.Best(passive)
		if !ok {
			break
		}

		// edge case: price gate applies to limits only and uses strict
		// inequality, so a limit equal to the opposite best still matches
		if order.Type == TypeLimit {
			if order.Side == SideBuy && order.Price < level.Price {
				break
			}
			if order.Side == SideSell && order.Price > level.Price {
				break
			}
		}

		for order.RemainingQuantity() > 0 && level.size > 0 {
			resting := level.Head()

			fillQty := order.RemainingQuantity()
			if restingQty := resting.RemainingQuantity(); restingQty < fillQty {
				fillQty = restingQty
			}

			e.clock++
			trade := Trade{
				TradeID:   uuid.New().String(),
				Price:     level.Price,
				Quantity:  fillQty,
				Timestamp: e.clock,
			}
			if order.Side == SideBuy {
				trade.BuyOrderID = order.ID
				trade.SellOrderID = resting.ID
			} else {
				trade.BuyOrderID = resting.ID
				trade.SellOrderID = order.ID
			}
			e.trades = append(e.trades, trade)

			order.fill(fillQty)
			resting.fill(fillQty)

			e.log.Debug().
				Str("trade_id", trade.TradeID).
				Uint64("buy_order_id", trade.BuyOrderID).
				Uint64("sell_order_id", trade.SellOrderID).
				Int64("price", trade.Price).
				Int64("quantity", trade.Quantity).
				Msg("Trade executed")

			if resting.IsFilled() {
				e.book.PopHead(passive, level)
			}
		}
	}
}

// CancelOrder removes a resting order's remainder from the book. Returns false
// for ids that never existed, already filled, or already cancelled.
func (e *Engine) CancelOrder(orderID uint64) bool {
	order, ok := e.book.RemoveOrder(orderID)
	if !ok {
		return false
	}
	order.Status = StatusCancelled
	e.ordersCancelled++

	e.log.Debug().
		Uint64("order_id", orderID).
		Int64("remaining", order.RemainingQuantity()).
		Msg("Order cancelled")

	return true
}

// BestBid returns the best bid price and its aggregate quantity.
func (e *Engine) BestBid() (price, quantity int64, ok bool) {
	level, ok := e.book.BestBid()
	if !ok {
		return 0, 0, false
	}
	return level.Price, level.TotalQuantity(), true
}

// BestAsk returns the best ask price and its aggregate quantity.
func (e *Engine) BestAsk() (price, quantity int64, ok bool) {
	level, ok := e.book.BestAsk()
	if !ok {
		return 0, 0, false
	}
	return level.Price, level.TotalQuantity(), true
}

// MidPrice is the bid/ask midpoint in ticks; it can land on a half tick.
func (e *Engine) MidPrice() (float64, bool) {
	bid, ok := e.book.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := e.book.BestAsk()
	if !ok {
		return 0, false
	}
	return float64(bid.Price+ask.Price) / 2, true
}

// Spread is best ask minus best bid in ticks.
func (e *Engine) Spread() (int64, bool) {
	bid, ok := e.book.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := e.book.BestAsk()
	if !ok {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// Depth snapshots up to the given number of levels, best price first.
func (e *Engine) Depth(side OrderSide, levels int) []DepthLevel {
	return e.book.Depth(side, levels)
}

func (e *Engine) GetOrder(orderID uint64) (*Order, bool) {
	return e.book.GetOrder(orderID)
}

// TradeCount is the length of the trade log.
func (e *Engine) TradeCount() int {
	return len(e.trades)
}

// Trades returns the log slice [from, to); the range is clamped to the log.
func (e *Engine) Trades(from, to int) []Trade {
	if from < 0 {
		from = 0
	}
	if to > len(e.trades) {
		to = len(e.trades)
	}
	if from >= to {
		return nil
	}
	out := make([]Trade, to-from)
	copy(out, e.trades[from:to])
	return out
}

// RecentTrades returns the last n trades in emission order.
func (e *Engine) RecentTrades(n int) []Trade {
	if n > len(e.trades) {
		n = len(e.trades)
	}
	return e.Trades(len(e.trades)-n, len(e.trades))
}

func (e *Engine) Stats() Stats {
	return Stats{
		OrdersProcessed: e.ordersProcessed,
		TradesExecuted:  uint64(len(e.trades)),
		OrdersCancelled: e.ordersCancelled,
		ActiveOrders:    e.book.ActiveOrders(),
		MarketUnfilled:  e.marketUnfilled,
	}
}

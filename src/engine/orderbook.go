package engine

import (
	"fmt"

	"github.com/google/btree"
)

// orderNode is one slot in a price level's FIFO queue. The order index keeps a
// pointer to the node so a cancel detaches in O(1) instead of scanning the level.
type orderNode struct {
	order *Order
	prev  *orderNode
	next  *orderNode
}

// PriceLevel holds all resting orders at one price on one side, as a
// doubly-linked FIFO: head is first to fill.
type PriceLevel struct {
	Price int64
	head  *orderNode
	tail  *orderNode
	size  int
}

func (pl *PriceLevel) pushTail(order *Order) *orderNode {
	node := &orderNode{order: order, prev: pl.tail}
	if pl.tail != nil {
		pl.tail.next = node
	} else {
		pl.head = node
	}
	pl.tail = node
	pl.size++
	return node
}

func (pl *PriceLevel) remove(node *orderNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		pl.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		pl.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	pl.size--
}

// Head returns the first-to-fill resting order, or nil when the level is empty.
func (pl *PriceLevel) Head() *Order {
	if pl.head == nil {
		return nil
	}
	return pl.head.order
}

func (pl *PriceLevel) OrderCount() int {
	return pl.size
}

func (pl *PriceLevel) TotalQuantity() int64 {
	var total int64
	for n := pl.head; n != nil; n = n.next {
		total += n.order.RemainingQuantity()
	}
	return total
}

type bidLevelItem struct {
	Level *PriceLevel
}

func (b *bidLevelItem) Less(than btree.Item) bool {
	other := than.(*bidLevelItem)
	return b.Level.Price > other.Level.Price
}

type askLevelItem struct {
	Level *PriceLevel
}

func (a *askLevelItem) Less(than btree.Item) bool {
	other := than.(*askLevelItem)
	return a.Level.Price < other.Level.Price
}

// OrderBook is the two-sided price-level store plus the order index. Bids sort
// descending and asks ascending, so Min() on either tree is the best level.
type OrderBook struct {
	Bids   *btree.BTree
	Asks   *btree.BTree
	orders map[uint64]*orderNode
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		Bids:   btree.New(32),
		Asks:   btree.New(32),
		orders: make(map[uint64]*orderNode),
	}
}

func (ob *OrderBook) probe(side OrderSide, price int64) btree.Item {
	if side == SideBuy {
		return &bidLevelItem{Level: &PriceLevel{Price: price}}
	}
	return &askLevelItem{Level: &PriceLevel{Price: price}}
}

func (ob *OrderBook) tree(side OrderSide) *btree.BTree {
	if side == SideBuy {
		return ob.Bids
	}
	return ob.Asks
}

func levelOf(item btree.Item) *PriceLevel {
	switch it := item.(type) {
	case *bidLevelItem:
		return it.Level
	case *askLevelItem:
		return it.Level
	}
	return nil
}

// GetPriceLevel returns the level at the given price, or nil.
func (ob *OrderBook) GetPriceLevel(side OrderSide, price int64) *PriceLevel {
	item := ob.tree(side).Get(ob.probe(side, price))
	if item == nil {
		return nil
	}
	return levelOf(item)
}

// AddOrder appends a resting order at the tail of its price level, creating the
// level on first use, and registers the order in the index.
func (ob *OrderBook) AddOrder(order *Order) {
	tree := ob.tree(order.Side)
	probe := ob.probe(order.Side, order.Price)

	var level *PriceLevel
	if existing := tree.Get(probe); existing != nil {
		level = levelOf(existing)
	} else {
		level = levelOf(probe)
		tree.ReplaceOrInsert(probe)
	}

	ob.orders[order.ID] = level.pushTail(order)
}

// RemoveOrder detaches a resting order by id. Returns the order and true if it
// was resting; the level is dropped from its tree when its queue empties.
func (ob *OrderBook) RemoveOrder(orderID uint64) (*Order, bool) {
	node, exists := ob.orders[orderID]
	if !exists {
		return nil, false
	}
	order := node.order

	level := ob.GetPriceLevel(order.Side, order.Price)
	if level == nil {
		// index entry with no backing level is a broken invariant
		panic(fmt.Sprintf("order book: order %d indexed at missing level %d", orderID, order.Price))
	}

	level.remove(node)
	if level.size == 0 {
		ob.tree(order.Side).Delete(ob.probe(order.Side, order.Price))
	}
	delete(ob.orders, orderID)
	return order, true
}

// PopHead removes the first order of the given level after it has been fully
// filled, erasing its index entry and the level itself once empty.
func (ob *OrderBook) PopHead(side OrderSide, level *PriceLevel) {
	node := level.head
	if node == nil {
		return
	}
	delete(ob.orders, node.order.ID)
	level.remove(node)
	if level.size == 0 {
		ob.tree(side).Delete(ob.probe(side, level.Price))
	}
}

// BestBid returns the highest-priced bid level.
func (ob *OrderBook) BestBid() (*PriceLevel, bool) {
	if ob.Bids.Len() == 0 {
		return nil, false
	}
	return levelOf(ob.Bids.Min()), true
}

// BestAsk returns the lowest-priced ask level.
func (ob *OrderBook) BestAsk() (*PriceLevel, bool) {
	if ob.Asks.Len() == 0 {
		return nil, false
	}
	return levelOf(ob.Asks.Min()), true
}

// Best returns the best level of the given side.
func (ob *OrderBook) Best(side OrderSide) (*PriceLevel, bool) {
	if side == SideBuy {
		return ob.BestBid()
	}
	return ob.BestAsk()
}

func (ob *OrderBook) GetOrder(orderID uint64) (*Order, bool) {
	node, exists := ob.orders[orderID]
	if !exists {
		return nil, false
	}
	return node.order, true
}

// ActiveOrders is the number of resting orders across both sides.
func (ob *OrderBook) ActiveOrders() int {
	return len(ob.orders)
}

// DepthLevel is one row of a depth snapshot.
type DepthLevel struct {
	Price    int64
	Quantity int64
	Orders   int
}

// Depth walks up to the given number of levels from the best price outward.
// Ascend yields best-first on both trees because the bid comparator is inverted.
func (ob *OrderBook) Depth(side OrderSide, levels int) []DepthLevel {
	if levels <= 0 {
		return nil
	}
	out := make([]DepthLevel, 0, levels)
	ob.tree(side).Ascend(func(item btree.Item) bool {
		if len(out) >= levels {
			return false
		}
		level := levelOf(item)
		out = append(out, DepthLevel{
			Price:    level.Price,
			Quantity: level.TotalQuantity(),
			Orders:   level.OrderCount(),
		})
		return true
	})
	return out
}

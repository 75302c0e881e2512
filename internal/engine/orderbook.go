package engine

import (
	"matchbook/internal/common"

	"github.com/tidwall/btree"
)

// orderNode links a resting order into the queue of its price level. The
// back-pointer to the level lets a cancel unlink the order without a search.
type orderNode struct {
	order common.Order
	level *PriceLevel
	prev  *orderNode
	next  *orderNode
}

// PriceLevel holds the orders resting at one exact price on one side, in
// arrival order. A level stored in the book is never empty.
type PriceLevel struct {
	priceLevel int64
	head       *orderNode // Oldest, fills first.
	tail       *orderNode // Newest.
	count      int
}

func (level *PriceLevel) Price() int64 { return level.priceLevel }

func (level *PriceLevel) Len() int { return level.count }

func (level *PriceLevel) empty() bool { return level.count == 0 }

// front returns the oldest order on the level.
func (level *PriceLevel) front() *common.Order {
	return &level.head.order
}

// pushBack appends a node behind every order already on the level.
func (level *PriceLevel) pushBack(node *orderNode) {
	node.level = level
	node.prev = level.tail
	if level.tail == nil {
		level.head = node
	} else {
		level.tail.next = node
	}
	level.tail = node
	level.count++
}

// unlink drops the node wherever it sits in the queue, keeping the relative
// order of the rest.
func (level *PriceLevel) unlink(node *orderNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		level.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		level.tail = node.prev
	}
	node.prev, node.next, node.level = nil, nil, nil
	level.count--
}

// snapshot copies the queue, oldest first.
func (level *PriceLevel) snapshot() []common.Order {
	orders := make([]common.Order, 0, level.count)
	for node := level.head; node != nil; node = node.next {
		orders = append(orders, node.order)
	}
	return orders
}

type PriceLevels = btree.BTreeG[*PriceLevel]

// OrderBook is the resting side of the market. Each resting order lives in
// exactly one node, reachable both from the id index and from its price
// level, so the two views can never disagree on an order's fields.
type OrderBook struct {
	// Order id to resting order.
	orders map[uint64]*orderNode

	// Price levels to orders sat on the price level, sorted by time added
	// as they will be push-back'd. Both trees keep their best price at Min.
	bids *PriceLevels
	asks *PriceLevels
}

func NewOrderBook() *OrderBook {
	// Sorted greatest first.
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.priceLevel > b.priceLevel
	})
	// Sorted least first.
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.priceLevel < b.priceLevel
	})
	return &OrderBook{
		orders: make(map[uint64]*orderNode),
		bids:   bids,
		asks:   asks,
	}
}

func (book *OrderBook) levels(side common.Side) *PriceLevels {
	if side == common.Bid {
		return book.bids
	}
	return book.asks
}

// insert places an order at the back of its price level. Orders with a
// non-positive size or an id that is already resting are ignored.
func (book *OrderBook) insert(order *common.Order) bool {
	if order.Size <= 0 {
		return false
	}
	if _, ok := book.orders[order.ID]; ok {
		return false
	}

	levels := book.levels(order.Side)

	// Levels comparator only accounts for price levels, so we create a dummy
	// price level for the search.
	level, ok := levels.GetMut(&PriceLevel{priceLevel: order.Price})
	if !ok {
		level = &PriceLevel{priceLevel: order.Price}
		levels.Set(level)
	}

	node := &orderNode{order: *order}
	level.pushBack(node)
	book.orders[order.ID] = node
	return true
}

// RemoveByID takes a resting order out of the book. Unknown ids are a no-op
// and report false. If the order was the last one on its level, the level is
// removed as well.
func (book *OrderBook) RemoveByID(id uint64) (common.Order, bool) {
	node, ok := book.orders[id]
	if !ok {
		return common.Order{}, false
	}
	delete(book.orders, id)

	level := node.level
	level.unlink(node)
	if level.empty() {
		book.levels(node.order.Side).Delete(level)
	}
	return node.order, true
}

// removeFront drops the oldest order of a level from both indices. The
// caller is responsible for deleting the level once it is empty.
func (book *OrderBook) removeFront(level *PriceLevel) {
	node := level.head
	delete(book.orders, node.order.ID)
	level.unlink(node)
}

// BestPrice returns the highest bid or the lowest ask.
func (book *OrderBook) BestPrice(side common.Side) (int64, bool) {
	level, ok := book.levels(side).Min()
	if !ok {
		return 0, false
	}
	return level.priceLevel, true
}

// OrdersAt returns copies of the orders resting at price, oldest first.
func (book *OrderBook) OrdersAt(side common.Side, price int64) []common.Order {
	level, ok := book.levels(side).Get(&PriceLevel{priceLevel: price})
	if !ok {
		return nil
	}
	return level.snapshot()
}

// Order looks up a resting order by id.
func (book *OrderBook) Order(id uint64) (common.Order, bool) {
	node, ok := book.orders[id]
	if !ok {
		return common.Order{}, false
	}
	return node.order, true
}

// Len is the number of resting orders across both sides.
func (book *OrderBook) Len() int { return len(book.orders) }

// Levels is the number of distinct prices with resting liquidity on a side.
func (book *OrderBook) Levels(side common.Side) int {
	return book.levels(side).Len()
}

// FlatPriceLevel is a detached copy of a price level, for inspection.
type FlatPriceLevel struct {
	PriceLevel int64
	Orders     []common.Order
}

// Depth returns a snapshot of a side, best price first.
func (book *OrderBook) Depth(side common.Side) []FlatPriceLevel {
	return FlattenLevels(book.levels(side).Items())
}

func FlattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	flat := make([]FlatPriceLevel, 0, len(levels))
	for _, level := range levels {
		flat = append(flat, FlatPriceLevel{
			PriceLevel: level.priceLevel,
			Orders:     level.snapshot(),
		})
	}
	return flat
}

package common

import "fmt"

// Order is a resting limit order. Size is the remaining quantity and is
// always positive while the order sits in a book.
type Order struct {
	ID    uint64 // Caller assigned, unique while resting
	Side  Side   // Order side
	Size  int64  // Remaining quantity
	Price int64  // Limiting price
}

func (order Order) String() string {
	return fmt.Sprintf("%d %s %d@%d", order.ID, order.Side, order.Size, order.Price)
}

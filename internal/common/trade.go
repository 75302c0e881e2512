package common

import "fmt"

// Trade accounts for one fill between an incoming (taker) order and a
// resting (maker) order. Price is always the maker's price.
type Trade struct {
	TakerID   uint64
	MakerID   uint64
	TakerSide Side
	Quantity  int64
	Price     int64
}

// Notional is the traded quantity multiplied by the execution price.
func (t Trade) Notional() int64 {
	return t.Quantity * t.Price
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"taker %d (%s) x maker %d: %d@%d",
		t.TakerID,
		t.TakerSide,
		t.MakerID,
		t.Quantity,
		t.Price,
	)
}

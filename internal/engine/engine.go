package engine

import (
	"math"
	"math/bits"

	"matchbook/internal/common"

	"github.com/rs/zerolog"
)

// This is the main matching engine for a single instrument.
//
// Engine is not safe for concurrent use. Callers that share a book between
// goroutines must serialize access to it, see the sequencer package.

// Reporter receives every trade as it executes.
type Reporter interface {
	ReportTrade(trade common.Trade)
}

type Option func(*Engine)

func WithReporter(reporter Reporter) Option {
	return func(engine *Engine) {
		engine.reporter = reporter
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(engine *Engine) {
		engine.logger = logger
	}
}

type Engine struct {
	book     *OrderBook
	reporter Reporter
	logger   zerolog.Logger

	// Cumulative since creation, never reset.
	volume   int64 // Sum of traded quantities.
	notional int64 // Sum of traded quantity times price.
}

func New(opts ...Option) *Engine {
	engine := &Engine{
		book:   NewOrderBook(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// AddOrder submits a limit order. It first crosses against the opposite side
// in price-time priority, then rests whatever is left at its limit price.
//
// Non-positive sizes and ids that are already resting are ignored.
func (engine *Engine) AddOrder(id uint64, side common.Side, size, price int64) {
	if size <= 0 {
		engine.logger.Debug().
			Uint64("id", id).
			Int64("size", size).
			Msg("ignoring order with non-positive size")
		return
	}
	if _, ok := engine.book.orders[id]; ok {
		engine.logger.Warn().
			Uint64("id", id).
			Msg("ignoring order with an id that is already resting")
		return
	}

	remaining := engine.match(id, side, size, price)
	if remaining == 0 {
		return
	}

	engine.book.insert(&common.Order{
		ID:    id,
		Side:  side,
		Size:  remaining,
		Price: price,
	})
}

// CancelOrder removes a resting order. Fills it has already taken part in
// stay counted. Unknown ids are a no-op.
func (engine *Engine) CancelOrder(id uint64) {
	if _, ok := engine.book.RemoveByID(id); !ok {
		engine.logger.Debug().
			Uint64("id", id).
			Msg("cancel for an order that is not resting")
	}
}

// Volume is the total quantity traded since the engine was created.
func (engine *Engine) Volume() int64 { return engine.volume }

// NotionalVolume is the total of quantity times price over every trade.
//
// Both counters are int64 and wrap on overflow. A trade that overflows either
// counter, or whose own notional does not fit, is logged at error level.
func (engine *Engine) NotionalVolume() int64 { return engine.notional }

// Book exposes the resting orders for read-only queries.
func (engine *Engine) Book() *OrderBook { return engine.book }

// match consumes the top of the opposite side while it crosses the incoming
// limit price, and returns the quantity left unfilled.
//
// Within a level, the oldest order fills first. A maker that is only
// partially filled keeps its place at the front of the level; that can only
// happen once the incoming order is exhausted, which ends the walk.
func (engine *Engine) match(id uint64, side common.Side, size, price int64) int64 {
	levels := engine.book.levels(side.Opposite())
	remaining := size

	for remaining > 0 {
		// Min here accounts for bids and asks being in inverse order, based on
		// their comparison method.
		level, ok := levels.MinMut()
		if !ok || !crosses(side, price, level.priceLevel) {
			break
		}

		for remaining > 0 && !level.empty() {
			maker := level.front()
			matchQty := min(remaining, maker.Size)
			remaining -= matchQty
			maker.Size -= matchQty

			engine.trade(common.Trade{
				TakerID:   id,
				MakerID:   maker.ID,
				TakerSide: side,
				Quantity:  matchQty,
				Price:     level.priceLevel,
			})

			if maker.Size > 0 {
				break
			}
			engine.book.removeFront(level)
		}

		// Full consumption case (i.e. empty level).
		if level.empty() {
			levels.Delete(level)
		}
	}
	return remaining
}

// crosses reports whether an incoming order at limit may trade against a
// resting price on the opposite side. Equal prices cross.
func crosses(side common.Side, limit, resting int64) bool {
	if side == common.Bid {
		return resting <= limit
	}
	return resting >= limit
}

// trade books the fill into the running counters and hands it to the
// reporter.
func (engine *Engine) trade(trade common.Trade) {
	notional := trade.Notional()
	if mulOverflows(trade.Quantity, trade.Price) ||
		addOverflows(engine.notional, notional) ||
		addOverflows(engine.volume, trade.Quantity) {
		engine.logger.Error().
			Uint64("taker", trade.TakerID).
			Uint64("maker", trade.MakerID).
			Int64("qty", trade.Quantity).
			Int64("price", trade.Price).
			Msg("traded volume overflows int64")
	}

	engine.volume += trade.Quantity
	engine.notional += notional

	engine.logger.Trace().
		Uint64("taker", trade.TakerID).
		Uint64("maker", trade.MakerID).
		Int64("qty", trade.Quantity).
		Int64("price", trade.Price).
		Msg("trade")

	if engine.reporter != nil {
		engine.reporter.ReportTrade(trade)
	}
}

// mulOverflows reports whether qty * price does not fit in an int64. qty is
// a trade quantity and always positive.
func mulOverflows(qty, price int64) bool {
	if price >= 0 {
		hi, lo := bits.Mul64(uint64(qty), uint64(price))
		return hi != 0 || lo > math.MaxInt64
	}
	// -math.MinInt64 wraps to itself, which is still 1<<63 as a uint64.
	hi, lo := bits.Mul64(uint64(qty), uint64(-price))
	return hi != 0 || lo > 1<<63
}

func addOverflows(a, b int64) bool {
	sum := a + b
	return (b > 0 && sum < a) || (b < 0 && sum > a)
}

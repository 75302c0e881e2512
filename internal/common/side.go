package common

import (
	"errors"
	"strings"
)

var ErrUnknownSide = errors.New("unknown side")

type Side int

const (
	// Bid orders buy. They rest on the bid side and cross against asks.
	Bid Side = iota
	// Ask orders sell. They rest on the ask side and cross against bids.
	Ask
)

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	}
	return "unknown"
}

// UnmarshalText accepts "bid"/"buy" and "ask"/"sell", case insensitive.
func (s *Side) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "bid", "buy":
		*s = Bid
	case "ask", "sell":
		*s = Ask
	default:
		return ErrUnknownSide
	}
	return nil
}

func (s Side) MarshalText() ([]byte, error) {
	if s != Bid && s != Ask {
		return nil, ErrUnknownSide
	}
	return []byte(s.String()), nil
}

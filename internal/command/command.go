// Package command carries already-validated order book commands and
// replays recorded sequences of them against an engine.
package command

import (
	"errors"
	"fmt"
	"strings"

	"matchbook/internal/common"
	"matchbook/internal/engine"
)

var ErrUnknownOp = errors.New("unknown command op")

type Op int

const (
	OpAdd Op = iota
	OpCancel
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpCancel:
		return "cancel"
	}
	return "unknown"
}

func (op *Op) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "add":
		*op = OpAdd
	case "cancel":
		*op = OpCancel
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, text)
	}
	return nil
}

// Command is a single add or cancel. Side, Size and Price are only read for
// adds.
type Command struct {
	Op    Op          `yaml:"op"`
	ID    uint64      `yaml:"id"`
	Side  common.Side `yaml:"side"`
	Size  int64       `yaml:"size"`
	Price int64       `yaml:"price"`
}

func Add(id uint64, side common.Side, size, price int64) Command {
	return Command{Op: OpAdd, ID: id, Side: side, Size: size, Price: price}
}

func Cancel(id uint64) Command {
	return Command{Op: OpCancel, ID: id}
}

// Apply runs the command against the engine.
func (c Command) Apply(eng *engine.Engine) {
	switch c.Op {
	case OpAdd:
		eng.AddOrder(c.ID, c.Side, c.Size, c.Price)
	case OpCancel:
		eng.CancelOrder(c.ID)
	}
}

func (c Command) String() string {
	if c.Op == OpCancel {
		return fmt.Sprintf("cancel %d", c.ID)
	}
	return fmt.Sprintf("add %d %s %d@%d", c.ID, c.Side, c.Size, c.Price)
}

package command

import (
	"errors"
	"fmt"
	"os"

	"matchbook/internal/engine"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrExpectationMismatch = errors.New("expectation mismatch")

// Expectation holds the counters a scenario must end with.
type Expectation struct {
	Volume   int64 `yaml:"volume"`
	Notional int64 `yaml:"notional"`
}

// Scenario is a recorded command log, optionally with the counters it is
// expected to produce.
type Scenario struct {
	Name     string       `yaml:"name"`
	Commands []Command    `yaml:"commands"`
	Expect   *Expectation `yaml:"expect,omitempty"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &scenario, nil
}

// Summary is the state of the counters after a replay.
type Summary struct {
	Commands int
	Volume   int64
	Notional int64
}

// VWAP is the volume weighted average trade price, zero when nothing traded.
func (s Summary) VWAP() decimal.Decimal {
	if s.Volume == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(s.Notional).Div(decimal.NewFromInt(s.Volume))
}

// Replay applies cmds in order and summarises the engine's counters.
func Replay(eng *engine.Engine, cmds []Command) Summary {
	for _, cmd := range cmds {
		cmd.Apply(eng)
	}
	return Summary{
		Commands: len(cmds),
		Volume:   eng.Volume(),
		Notional: eng.NotionalVolume(),
	}
}

// Run replays the scenario against a fresh engine.
func (s *Scenario) Run(opts ...engine.Option) Summary {
	return Replay(engine.New(opts...), s.Commands)
}

// Verify compares a summary with the scenario's expectation. Scenarios
// without one always pass.
func (s *Scenario) Verify(summary Summary) error {
	if s.Expect == nil {
		return nil
	}
	if summary.Volume != s.Expect.Volume {
		return fmt.Errorf("%w: volume %d, expected %d", ErrExpectationMismatch, summary.Volume, s.Expect.Volume)
	}
	if summary.Notional != s.Expect.Notional {
		return fmt.Errorf("%w: notional %d, expected %d", ErrExpectationMismatch, summary.Notional, s.Expect.Notional)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"matchbook/internal/command"
	"matchbook/internal/config"
	"matchbook/internal/engine"
	"matchbook/internal/logging"
	"matchbook/internal/sequencer"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	scenarioPath := flag.String("scenario", "", "Path to a YAML scenario to replay (compulsory)")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Println("Error: -scenario is compulsory.")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *scenarioPath); err != nil {
		log.Error().Err(err).Msg("replay failed")
		if errors.Is(err, command.ErrExpectationMismatch) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func run(configPath, scenarioPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closer.Close()
	log.Logger = logger

	scenario, err := command.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}

	// Setup the matching engine and the goroutine that owns it.
	eng := engine.New(engine.WithLogger(logger))
	seq := sequencer.New(eng, cfg.Sequencer.QueueSize)
	seq.Start(ctx)
	defer seq.Stop()

	log.Info().
		Str("scenario", scenario.Name).
		Int("commands", len(scenario.Commands)).
		Msg("replaying scenario")

	for _, cmd := range scenario.Commands {
		if err := seq.Submit(ctx, cmd); err != nil {
			return fmt.Errorf("submit %s: %w", cmd, err)
		}
	}

	volumes, err := seq.Volumes(ctx)
	if err != nil {
		return err
	}
	if err := seq.Stop(); err != nil {
		return err
	}

	summary := command.Summary{
		Commands: len(scenario.Commands),
		Volume:   volumes.Volume,
		Notional: volumes.Notional,
	}
	log.Info().
		Int64("volume", summary.Volume).
		Int64("notional", summary.Notional).
		Str("vwap", summary.VWAP().StringFixed(4)).
		Int("resting", eng.Book().Len()).
		Msg("replay finished")

	fmt.Printf("volume=%d notional=%d vwap=%s\n", summary.Volume, summary.Notional, summary.VWAP().StringFixed(4))
	return scenario.Verify(summary)
}

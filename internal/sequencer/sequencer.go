// Package sequencer serializes access to a single engine. One goroutine owns
// the book and applies work in the order it was submitted, so any number of
// callers can share a book without locking inside it.
package sequencer

import (
	"context"
	"errors"
	"sync"

	"matchbook/internal/command"
	"matchbook/internal/engine"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	defaultQueueSize = 128
)

var (
	ErrStopped    = errors.New("sequencer stopped")
	ErrNotStarted = errors.New("sequencer not started")
)

// task runs on the owning goroutine with exclusive access to the engine.
type task = func(eng *engine.Engine)

// Volumes is a consistent read of both counters.
type Volumes struct {
	Volume   int64
	Notional int64
}

type Sequencer struct {
	id     uuid.UUID
	engine *engine.Engine
	tasks  chan task
	t      *tomb.Tomb
	logger zerolog.Logger

	// Held for reading while queueing, so that once stopping is set no
	// further work can land behind the final drain.
	mu       sync.RWMutex
	stopping bool
}

func New(eng *engine.Engine, queueSize int) *Sequencer {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	id := uuid.New()
	return &Sequencer{
		id:     id,
		engine: eng,
		tasks:  make(chan task, queueSize),
		logger: log.With().Str("sequencer", id.String()).Logger(),
	}
}

func (s *Sequencer) ID() uuid.UUID { return s.id }

// Start launches the owning goroutine. It stops when ctx is done or Stop is
// called.
func (s *Sequencer) Start(ctx context.Context) {
	s.t, _ = tomb.WithContext(ctx)
	s.t.Go(s.run)
	s.logger.Info().Msg("sequencer running")
}

// Stop asks the loop to exit and waits for it. Work queued before the call
// is still applied.
func (s *Sequencer) Stop() error {
	if s.t == nil {
		return ErrNotStarted
	}
	s.t.Kill(nil)
	err := s.t.Wait()
	s.logger.Info().Msg("sequencer stopped")
	return err
}

// Submit queues a command. It returns once the command is queued, not once
// it is applied.
func (s *Sequencer) Submit(ctx context.Context, cmd command.Command) error {
	return s.enqueue(ctx, func(eng *engine.Engine) {
		cmd.Apply(eng)
	})
}

// Volumes reads the counters after every previously submitted command.
func (s *Sequencer) Volumes(ctx context.Context) (Volumes, error) {
	reply := make(chan Volumes, 1)
	err := s.enqueue(ctx, func(eng *engine.Engine) {
		reply <- Volumes{Volume: eng.Volume(), Notional: eng.NotionalVolume()}
	})
	if err != nil {
		return Volumes{}, err
	}

	// Queued work is always applied, either by the loop or the final drain.
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return Volumes{}, ctx.Err()
	}
}

func (s *Sequencer) enqueue(ctx context.Context, work task) error {
	if s.t == nil {
		return ErrNotStarted
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopping {
		return ErrStopped
	}

	select {
	case s.tasks <- work:
		return nil
	case <-s.t.Dying():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the only goroutine that touches the engine.
func (s *Sequencer) run() error {
	for {
		select {
		case work := <-s.tasks:
			work(s.engine)
		case <-s.t.Dying():
			s.mu.Lock()
			s.stopping = true
			s.mu.Unlock()

			s.drain()
			return nil
		}
	}
}

// drain applies whatever was queued before shutdown.
func (s *Sequencer) drain() {
	for {
		select {
		case work := <-s.tasks:
			work(s.engine)
		default:
			s.logger.Debug().
				Int64("volume", s.engine.Volume()).
				Int64("notional", s.engine.NotionalVolume()).
				Msg("sequencer drained")
			return
		}
	}
}

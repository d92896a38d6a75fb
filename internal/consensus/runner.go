package consensus

import (
	"go.uber.org/multierr"

	"github.com/hayotensor/subnet-node-go/internal/tracker"
)

// Runner wires an Engine to the background Tracker it reads peer snapshots
// from, starting and stopping them together. This is the two-domain model
// from the concurrency design: the tracker's real-thread refresher and the
// engine's cooperative loop, under one shutdown sequence.
type Runner struct {
	Engine  *Engine
	Tracker *tracker.Tracker
}

// NewRunner pairs an already-constructed Engine and Tracker.
func NewRunner(engine *Engine, trk *tracker.Tracker) *Runner {
	return &Runner{Engine: engine, Tracker: trk}
}

// Start starts the tracker first, so the engine's first peer-set query has
// somewhere to read from, then starts the engine.
func (r *Runner) Start() error {
	if err := r.Tracker.Start(); err != nil {
		return err
	}
	if err := r.Engine.Start(); err != nil {
		_ = r.Tracker.Stop()
		return err
	}
	return nil
}

// Stop stops the engine and the tracker, aggregating any errors from
// either shutdown path rather than stopping at the first failure — a
// stuck tracker shutdown should not hide a stuck engine shutdown.
func (r *Runner) Stop() error {
	var err error
	err = multierr.Append(err, r.Engine.Stop())
	err = multierr.Append(err, r.Tracker.Stop())
	return err
}

// Done returns a channel closed once the engine's run loop exits, whether
// by reaching S3 on its own or by Stop being called.
func (r *Runner) Done() <-chan struct{} {
	return r.Engine.Done()
}

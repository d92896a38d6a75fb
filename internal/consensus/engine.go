// Package consensus implements the ConsensusEngine state machine: S0
// Activating -> S1 AwaitingEligibility -> S2 Running -> S3 Terminated. It is
// the top-level driver of the node, constructor-injected with a
// chain.Adapter, a peer-set source (the tracker), and a scoring.Hook, so the
// full state machine runs against an in-memory mock chain in tests.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
	"github.com/hayotensor/subnet-node-go/internal/scoring"
)

// --- Custom errors for Engine -----------------------------------------

var (
	ErrEngineAlreadyRunning = errors.New("consensus engine is already running")
	ErrEngineNotRunning     = errors.New("consensus engine is not running")
	ErrInvalidEngineConfig  = errors.New("invalid consensus engine configuration")
)

// State is the engine's current phase in its one-way state machine.
type State int32

const (
	StateActivating State = iota
	StateAwaitingEligibility
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateActivating:
		return "Activating"
	case StateAwaitingEligibility:
		return "AwaitingEligibility"
	case StateRunning:
		return "Running"
	case StateTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PeerSource is the subset of the tracker's query surface the engine needs:
// a cooperative wait for a specific epoch's membership snapshot.
type PeerSource interface {
	GetNodesOnEpoch(ctx context.Context, epoch uint64, minClass chaintypes.NodeClass, startEpoch *uint64) ([]chaintypes.NodeRecord, error)
}

// Metrics is the ambient operational surface the engine reports to; see
// internal/telemetry for the prometheus-backed implementation. It is
// optional — a nil Metrics is a legal no-op.
type Metrics interface {
	SetEpoch(epoch uint64)
	SetRole(role string)
	IncProposals()
	IncAttestations()
}

// Config controls one Engine instance.
type Config struct {
	SubnetID            uint64
	SubnetNodeID        uint64
	BlockSecs           time.Duration
	MaxActivationErrors int
	AttestCutoffPercent float64
	SkipActivateSubnet  bool
}

func (c *Config) setDefaults() {
	if c.MaxActivationErrors <= 0 {
		c.MaxActivationErrors = 3
	}
	if c.AttestCutoffPercent <= 0 {
		c.AttestCutoffPercent = 0.15
	}
}

// Engine is the top-level consensus state machine. It is created once,
// progresses monotonically through its phases, and terminates on signal;
// it never reopens an earlier phase.
type Engine struct {
	cfg        Config
	adapter    chain.Adapter
	peerSource PeerSource
	hook       scoring.Hook
	clock      clock.Clock
	logger     *zap.SugaredLogger
	metrics    Metrics
	runID      string

	slot uint64

	state     atomic.Int32
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	doneCh    chan struct{}
}

// New builds an Engine. hook defaults to scoring.DefaultHook if nil;
// metrics defaults to a no-op if nil.
func New(cfg Config, adapter chain.Adapter, peerSource PeerSource, hook scoring.Hook, clk clock.Clock, logger *zap.Logger, metrics Metrics) (*Engine, error) {
	if adapter == nil {
		return nil, fmt.Errorf("%w: adapter cannot be nil", ErrInvalidEngineConfig)
	}
	if peerSource == nil {
		return nil, fmt.Errorf("%w: peer source cannot be nil", ErrInvalidEngineConfig)
	}
	if cfg.BlockSecs <= 0 {
		return nil, fmt.Errorf("%w: block_secs must be positive", ErrInvalidEngineConfig)
	}
	cfg.setDefaults()
	if hook == nil {
		hook = scoring.DefaultHook
	}
	if clk == nil {
		clk = clock.New()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	runID := uuid.NewString()
	e := &Engine{
		cfg:        cfg,
		adapter:    adapter,
		peerSource: peerSource,
		hook:       hook,
		clock:      clk,
		logger:     logger.Named("consensus").Sugar().With("run_id", runID, "subnet_id", cfg.SubnetID, "subnet_node_id", cfg.SubnetNodeID),
		metrics:    metrics,
		runID:      runID,
		doneCh:     make(chan struct{}),
	}
	return e, nil
}

// State returns the engine's current phase.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// Done returns a channel closed once the engine's run loop has exited,
// whether by reaching S3 on its own or by Stop being called.
func (e *Engine) Done() <-chan struct{} {
	return e.doneCh
}

// Start launches the engine's run loop on its own goroutine and returns
// immediately.
func (e *Engine) Start() error {
	var err error
	e.startOnce.Do(func() {
		if e.isRunning.Load() {
			err = ErrEngineAlreadyRunning
			return
		}
		e.ctx, e.cancel = context.WithCancel(context.Background())
		e.isRunning.Store(true)
		e.wg.Add(1)
		go e.runLoop()
		e.logger.Info("consensus engine started")
	})
	return err
}

// Stop cancels the engine's run loop and waits for it to exit. It is
// idempotent; any in-flight RPC is not aborted mid-call, the engine drains
// to its next suspension point and exits.
func (e *Engine) Stop() error {
	var err error
	e.stopOnce.Do(func() {
		if !e.isRunning.Load() {
			err = ErrEngineNotRunning
			return
		}
		e.cancel()
		e.wg.Wait()
		e.isRunning.Store(false)
		e.logger.Info("consensus engine stopped")
	})
	return err
}

func (e *Engine) runLoop() {
	defer e.wg.Done()
	defer close(e.doneCh)

	if !e.cfg.SkipActivateSubnet {
		if !e.runActivating() {
			e.setState(StateTerminated)
			return
		}
	}
	e.setState(StateAwaitingEligibility)
	if !e.runAwaitingEligibility() {
		e.setState(StateTerminated)
		return
	}
	e.setState(StateRunning)
	e.runRunning()
	e.setState(StateTerminated)
}

// sleep waits for d, observing cancellation. It returns true if the engine
// was cancelled during the wait.
func (e *Engine) sleep(d time.Duration) bool {
	if d <= 0 {
		d = time.Millisecond
	}
	timer := e.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-e.ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

func secondsRemaining(data chaintypes.EpochData) time.Duration {
	d := data.SecondsRemaining
	if d < 0 {
		d = 0
	}
	return time.Duration(d * float64(time.Second))
}

type noopMetrics struct{}

func (noopMetrics) SetEpoch(uint64)     {}
func (noopMetrics) SetRole(string)      {}
func (noopMetrics) IncProposals()       {}
func (noopMetrics) IncAttestations()    {}

// Package tracker maintains a cached, thread-safe view of subnet
// membership and epoch timing, refreshed on its own background worker so
// the consensus engine's cooperative loop never blocks on the tracker's
// multi-second RPC calls.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
	"github.com/hayotensor/subnet-node-go/internal/epochclock"
)

// --- Custom errors for Tracker -----------------------------------------

var (
	ErrTrackerAlreadyRunning = errors.New("tracker is already running")
	ErrTrackerNotRunning     = errors.New("tracker is not running")
	ErrInvalidTrackerConfig  = errors.New("invalid tracker configuration")
)

// Config configures a Tracker instance.
type Config struct {
	SubnetID        uint64
	UpdatesPerEpoch int
	BlockSecs       time.Duration
}

// snapshot is the tracker's entire cached view, swapped as one atomic unit
// so readers never observe a half-updated refresh.
type snapshot struct {
	epochData      chaintypes.EpochData
	hasEpochData   bool
	slot           uint64
	hasSlot        bool
	nodes          []chaintypes.NodeRecord
	bootnodes      []chaintypes.NodeRecord
	overwatchNodes []chaintypes.NodeRecord
	lastRefresh    time.Time
}

// Tracker is a cached membership view maintained by a dedicated background
// worker. Its cache is the only shared mutable state in the node: it is
// owner-written by the refresh loop and multi-reader from the engine's
// cooperative domain.
type Tracker struct {
	cfg     Config
	adapter chain.Adapter
	clock   clock.Clock
	ec      epochclock.Clock
	logger  *zap.SugaredLogger

	mu       sync.RWMutex
	current  snapshot
	nodesV2  map[uint64][]chaintypes.NodeRecord

	stopCh    chan struct{}
	wg        sync.WaitGroup
	isRunning atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// New builds a Tracker over adapter, using clk as its time source (swap in
// a *clock.Mock in tests to drive refresh timing deterministically).
func New(cfg Config, adapter chain.Adapter, clk clock.Clock, logger *zap.Logger) (*Tracker, error) {
	if adapter == nil {
		return nil, fmt.Errorf("%w: adapter cannot be nil", ErrInvalidTrackerConfig)
	}
	if cfg.UpdatesPerEpoch < 0 {
		return nil, fmt.Errorf("%w: updates_per_epoch cannot be negative", ErrInvalidTrackerConfig)
	}
	if cfg.BlockSecs <= 0 {
		return nil, fmt.Errorf("%w: block_secs must be positive", ErrInvalidTrackerConfig)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Tracker{
		cfg:     cfg,
		adapter: adapter,
		clock:   clk,
		logger:  logger.Named("tracker").Sugar(),
		nodesV2: make(map[uint64][]chaintypes.NodeRecord),
		stopCh:  make(chan struct{}),
	}, nil
}

// Start launches the background refresh worker. It returns immediately;
// the worker runs until Stop is called.
func (t *Tracker) Start() error {
	var err error
	t.startOnce.Do(func() {
		if t.isRunning.Load() {
			err = ErrTrackerAlreadyRunning
			return
		}
		t.isRunning.Store(true)
		t.wg.Add(1)
		go t.run()
		t.logger.Info("tracker started")
	})
	return err
}

// Stop signals the background worker to exit and waits for it to finish.
func (t *Tracker) Stop() error {
	var err error
	t.stopOnce.Do(func() {
		if !t.isRunning.Load() {
			err = ErrTrackerNotRunning
			return
		}
		close(t.stopCh)
		t.wg.Wait()
		t.isRunning.Store(false)
		t.logger.Info("tracker stopped")
	})
	return err
}

// run is the background refresh loop, grounded on the reference tracker's
// _run_sync_epoch_blocking: resolve slot, then on every epoch change run a
// full refresh followed by up to updates_per_epoch further refreshes
// spaced by the sub-epoch interval width, never crossing an epoch
// boundary.
func (t *Tracker) run() {
	defer t.wg.Done()
	ctx := context.Background()

	var slot uint64
	for {
		res := t.adapter.GetSubnetSlot(ctx, t.cfg.SubnetID)
		if res.Outcome == chain.Ok {
			slot = res.Value
			t.mu.Lock()
			t.current.slot = slot
			t.current.hasSlot = true
			t.mu.Unlock()
			break
		}
		if t.sleep(t.cfg.BlockSecs) {
			return
		}
	}

	t.mu.Lock()
	if r := t.adapter.GetEpochLength(ctx); r.Outcome == chain.Ok {
		t.ec = epochclock.New(t.cfg.BlockSecs, r.Value)
	} else {
		t.ec = epochclock.New(t.cfg.BlockSecs, 0)
	}
	t.mu.Unlock()

	var lastEpoch uint64
	haveLastEpoch := false

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		edRes := t.adapter.GetSubnetEpochData(ctx, slot)
		if edRes.Outcome != chain.Ok {
			if t.sleep(time.Second) {
				return
			}
			continue
		}
		data := edRes.Value

		if !haveLastEpoch || data.Epoch != lastEpoch {
			haveLastEpoch = true
			lastEpoch = data.Epoch
			t.logger.Infow("epoch changed", "epoch", data.Epoch)

			t.refreshAll(ctx, slot)

			width, _ := t.ec.Intervals(t.cfg.UpdatesPerEpoch)
			for i := 0; i < t.cfg.UpdatesPerEpoch; i++ {
				if t.secondsRemainingLocked() <= width {
					break
				}
				if t.sleep(width) {
					return
				}
				t.refreshAll(ctx, slot)
			}
		}

		remaining := t.secondsRemainingLocked()
		if remaining <= 0 {
			remaining = 100 * time.Millisecond
		}
		if t.sleep(remaining) {
			return
		}
	}
}

// refreshAll performs update_epoch_data, update_nodes, update_overwatch_nodes,
// update_bootnodes in that order, then evicts epoch-2 from nodesV2 — the
// same sequence and eviction policy as the reference tracker.
func (t *Tracker) refreshAll(ctx context.Context, slot uint64) {
	now := t.clock.Now()

	edRes := t.adapter.GetSubnetEpochData(ctx, slot)
	if edRes.Outcome != chain.Ok {
		t.logger.Warnw("update_epoch_data failed", "outcome", edRes.Outcome.String())
		return
	}
	data := edRes.Value

	nodesRes := t.adapter.GetAllNodes(ctx, t.cfg.SubnetID)
	overwatchRes := t.adapter.GetOverwatchNodes(ctx)
	bootnodesRes := t.adapter.GetBootnodes(ctx, t.cfg.SubnetID)

	t.mu.Lock()
	t.current.epochData = data
	t.current.hasEpochData = true
	t.current.lastRefresh = now
	if nodesRes.Outcome == chain.Ok {
		t.current.nodes = nodesRes.Value
		if len(nodesRes.Value) > 0 {
			t.nodesV2[data.Epoch] = nodesRes.Value
		}
	}
	if overwatchRes.Outcome == chain.Ok {
		t.current.overwatchNodes = overwatchRes.Value
	}
	if bootnodesRes.Outcome == chain.Ok {
		t.current.bootnodes = bootnodesRes.Value
	}
	if data.Epoch >= 2 {
		delete(t.nodesV2, data.Epoch-2)
	}
	t.mu.Unlock()
}

// secondsRemainingLocked computes the drift-adjusted remaining time in the
// current epoch: max(0, epoch_data.seconds_remaining - (now - last_refresh)).
func (t *Tracker) secondsRemainingLocked() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.current.hasEpochData {
		return t.cfg.BlockSecs
	}
	elapsed := t.clock.Now().Sub(t.current.lastRefresh)
	return t.ec.SecondsRemainingSinceRefresh(t.current.epochData, elapsed)
}

// sleep waits for d, observing stopCh. It returns true if the tracker was
// stopped during the wait.
func (t *Tracker) sleep(d time.Duration) bool {
	if d <= 0 {
		d = time.Millisecond
	}
	timer := t.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-t.stopCh:
		return true
	case <-timer.C:
		return false
	}
}

// --- query surface: non-blocking reads of cached state, unless noted ------

// GetEpochData returns the last-fetched epoch snapshot, if any.
func (t *Tracker) GetEpochData() (chaintypes.EpochData, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current.epochData, t.current.hasEpochData
}

// GetNodes returns cached nodes of at least minClass, in effect by
// startEpoch (defaulting to the tracker's current cached epoch).
func (t *Tracker) GetNodes(minClass chaintypes.NodeClass, startEpoch *uint64) []chaintypes.NodeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	epoch := t.current.epochData.Epoch
	if startEpoch != nil {
		epoch = *startEpoch
	}
	return filterByClass(t.current.nodes, minClass, epoch)
}

// GetNodesOnEpoch blocks cooperatively, in <=1s increments, until
// nodesV2[epoch] is populated, then filters by class. It returns early if
// ctx is cancelled.
func (t *Tracker) GetNodesOnEpoch(ctx context.Context, epoch uint64, minClass chaintypes.NodeClass, startEpoch *uint64) ([]chaintypes.NodeRecord, error) {
	for {
		t.mu.RLock()
		nodes, ok := t.nodesV2[epoch]
		t.mu.RUnlock()
		if ok {
			e := epoch
			if startEpoch != nil {
				e = *startEpoch
			}
			return filterByClass(nodes, minClass, e), nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.stopCh:
			return nil, ErrTrackerNotRunning
		case <-t.clock.After(time.Second):
		}
	}
}

func filterByClass(nodes []chaintypes.NodeRecord, minClass chaintypes.NodeClass, epoch uint64) []chaintypes.NodeRecord {
	var out []chaintypes.NodeRecord
	for _, n := range nodes {
		if n.Classification.AtLeast(minClass, epoch) {
			out = append(out, n)
		}
	}
	return out
}

// GetAllPeerIDs unions the primary/bootnode/client peer ids of every
// tracked node with the subnet's bootnode peer ids and the chain-wide
// overwatch node peer ids.
func (t *Tracker) GetAllPeerIDs() []chaintypes.PeerID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[chaintypes.PeerID]struct{})
	var out []chaintypes.PeerID
	add := func(id chaintypes.PeerID) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, n := range t.current.nodes {
		add(n.PeerID)
		if n.BootnodePeerID != nil {
			add(*n.BootnodePeerID)
		}
		if n.ClientPeerID != nil {
			add(*n.ClientPeerID)
		}
	}
	for _, n := range t.current.bootnodes {
		add(n.PeerID)
	}
	for _, n := range t.current.overwatchNodes {
		add(n.PeerID)
	}
	return out
}

// SecondsRemainingUntilNextEpoch returns the drift-adjusted time left in
// the cached current epoch.
func (t *Tracker) SecondsRemainingUntilNextEpoch() time.Duration {
	return t.secondsRemainingLocked()
}

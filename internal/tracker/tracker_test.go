package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

// fakeAdapter is a minimal chain.Adapter stub for tracker unit tests. It is
// lighter weight than the bolt-backed mockchain.Adapter fixture and
// exercises the tracker in isolation.
type fakeAdapter struct {
	slot        uint64
	epochLength uint64
	epochData   chaintypes.EpochData
	nodes       []chaintypes.NodeRecord
}

func (f *fakeAdapter) GetSubnetSlot(ctx context.Context, subnetID uint64) chain.Result[uint64] {
	return chain.OkResult(f.slot)
}
func (f *fakeAdapter) GetEpochLength(ctx context.Context) chain.Result[uint64] {
	return chain.OkResult(f.epochLength)
}
func (f *fakeAdapter) GetSubnetEpochData(ctx context.Context, slot uint64) chain.Result[chaintypes.EpochData] {
	return chain.OkResult(f.epochData)
}
func (f *fakeAdapter) GetSubnetInfo(ctx context.Context, subnetID uint64) chain.Result[chaintypes.SubnetInfo] {
	return chain.NotFoundResult[chaintypes.SubnetInfo]()
}
func (f *fakeAdapter) GetNodesByMinClass(ctx context.Context, subnetID, epoch uint64, class chaintypes.NodeClass) chain.Result[[]chaintypes.NodeRecord] {
	return chain.OkResult(f.nodes)
}
func (f *fakeAdapter) GetAllNodes(ctx context.Context, subnetID uint64) chain.Result[[]chaintypes.NodeRecord] {
	return chain.OkResult(f.nodes)
}
func (f *fakeAdapter) GetBootnodes(ctx context.Context, subnetID uint64) chain.Result[[]chaintypes.NodeRecord] {
	return chain.OkResult(nil)
}
func (f *fakeAdapter) GetOverwatchNodes(ctx context.Context) chain.Result[[]chaintypes.NodeRecord] {
	return chain.OkResult(nil)
}
func (f *fakeAdapter) GetRewardsValidator(ctx context.Context, subnetID, epoch uint64) chain.Result[uint64] {
	return chain.NotFoundResult[uint64]()
}
func (f *fakeAdapter) GetConsensusData(ctx context.Context, subnetID, epoch uint64) chain.Result[chaintypes.ConsensusData] {
	return chain.NotFoundResult[chaintypes.ConsensusData]()
}
func (f *fakeAdapter) ProposeAttestation(ctx context.Context, subnetID, epoch uint64, data chaintypes.ConsensusData) chain.Result[chaintypes.Receipt] {
	return chain.OkResult(chaintypes.Receipt{IsSuccess: true})
}
func (f *fakeAdapter) Attest(ctx context.Context, subnetID, epoch, subnetNodeID uint64) chain.Result[chaintypes.Receipt] {
	return chain.OkResult(chaintypes.Receipt{IsSuccess: true})
}

var _ chain.Adapter = (*fakeAdapter)(nil)

func TestGetNodesOnEpochReturnsOnceRefreshed(t *testing.T) {
	mc := clock.NewMock()
	fa := &fakeAdapter{
		slot:        0,
		epochLength: 10,
		epochData:   chaintypes.EpochData{Epoch: 1, SecondsRemaining: 60},
		nodes: []chaintypes.NodeRecord{
			{SubnetNodeID: 1, Classification: chaintypes.Classification{NodeClass: chaintypes.Idle}},
		},
	}
	tr, err := New(Config{SubnetID: 1, UpdatesPerEpoch: 0, BlockSecs: 6 * time.Second}, fa, mc, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	deadline := time.Now().Add(time.Second)
	for {
		tr.mu.RLock()
		_, ok := tr.nodesV2[1]
		tr.mu.RUnlock()
		if ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for tracker to populate nodesV2[1]")
		}
		time.Sleep(time.Millisecond)
	}

	got, err := tr.GetNodesOnEpoch(ctx, 1, chaintypes.Idle, nil)
	if err != nil {
		t.Fatalf("GetNodesOnEpoch: %v", err)
	}
	if len(got) != 1 || got[0].SubnetNodeID != 1 {
		t.Fatalf("expected node 1, got %+v", got)
	}
}

func TestGetAllPeerIDsUnionsSources(t *testing.T) {
	bootnodeID := chaintypes.PeerID("bootnode-peer")
	tr := &Tracker{
		nodesV2: make(map[uint64][]chaintypes.NodeRecord),
	}
	tr.current.nodes = []chaintypes.NodeRecord{
		{PeerID: "primary-1", BootnodePeerID: &bootnodeID},
		{PeerID: "primary-1"}, // duplicate, must be deduped
	}
	tr.current.bootnodes = []chaintypes.NodeRecord{{PeerID: "bootnode-peer"}}
	tr.current.overwatchNodes = []chaintypes.NodeRecord{{PeerID: "overwatch-1"}}

	ids := tr.GetAllPeerIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 unique peer ids, got %d: %v", len(ids), ids)
	}
}

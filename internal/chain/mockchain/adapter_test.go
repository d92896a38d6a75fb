package mockchain

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mock.db")
	a, err := Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestRegisterAndGetNodesByMinClass(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	a.RegisterNode(1, chaintypes.NodeRecord{
		SubnetNodeID:   1,
		Classification: chaintypes.Classification{NodeClass: chaintypes.Idle, StartEpoch: 0},
	})
	a.RegisterNode(1, chaintypes.NodeRecord{
		SubnetNodeID:   2,
		Classification: chaintypes.Classification{NodeClass: chaintypes.Deactivated, StartEpoch: 0},
	})

	res := a.GetNodesByMinClass(ctx, 1, 5, chaintypes.Idle)
	if !res.IsOk() {
		t.Fatalf("expected Ok, got %v", res.Outcome)
	}
	if len(res.Value) != 1 || res.Value[0].SubnetNodeID != 1 {
		t.Fatalf("expected only node 1 to qualify, got %+v", res.Value)
	}
}

func TestProposeAttestationRejectsDuplicate(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	a.SetValidator(1, 5, 1)

	data := chaintypes.ConsensusData{ValidatorID: 1, Data: nil}
	first := a.ProposeAttestation(ctx, 1, 5, data)
	if !first.IsOk() || !first.Value.IsSuccess {
		t.Fatalf("expected first proposal to succeed, got %+v", first)
	}

	second := a.ProposeAttestation(ctx, 1, 5, data)
	if !second.IsOk() || second.Value.IsSuccess {
		t.Fatalf("expected second proposal to report failure receipt, got %+v", second)
	}
}

func TestAttestIsIdempotent(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	a.SetValidator(1, 5, 1)
	a.ProposeAttestation(ctx, 1, 5, chaintypes.ConsensusData{ValidatorID: 1})

	r1 := a.Attest(ctx, 1, 5, 2)
	if !r1.IsOk() || !r1.Value.IsSuccess {
		t.Fatalf("expected first attest to succeed, got %+v", r1)
	}
	r2 := a.Attest(ctx, 1, 5, 2)
	if !r2.IsOk() || !r2.Value.IsSuccess {
		t.Fatalf("expected duplicate attest to be a no-op success, got %+v", r2)
	}

	got := a.GetConsensusData(ctx, 1, 5)
	if !got.IsOk() || !got.Value.Attested(2) {
		t.Fatalf("expected node 2 to be recorded as attested")
	}
}

func TestGetConsensusDataNotFound(t *testing.T) {
	a := newTestAdapter(t)
	res := a.GetConsensusData(context.Background(), 99, 1)
	if res.Outcome != chain.NotFound {
		t.Fatalf("expected NotFound, got %v", res.Outcome)
	}
}

func TestSeedBootnodesCarriesMultiaddr(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	raw, err := chaintypes.EncodeMultiaddr("/ip4/10.0.0.1/tcp/4001")
	if err != nil {
		t.Fatalf("EncodeMultiaddr: %v", err)
	}
	if err := a.SeedBootnodes(1, []chaintypes.NodeRecord{
		{SubnetNodeID: 1, BootnodeMultiaddr: raw},
	}); err != nil {
		t.Fatalf("SeedBootnodes: %v", err)
	}

	res := a.GetBootnodes(ctx, 1)
	if !res.IsOk() || len(res.Value) != 1 {
		t.Fatalf("expected one seeded bootnode, got %+v", res)
	}
	ma, err := res.Value[0].Multiaddr()
	if err != nil {
		t.Fatalf("Multiaddr: %v", err)
	}
	if ma.String() != "/ip4/10.0.0.1/tcp/4001" {
		t.Fatalf("expected round-tripped multiaddr, got %q", ma.String())
	}
}

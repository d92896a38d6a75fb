package scoring

import (
	"testing"

	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

func TestDefaultHookScoresIncludedOrHigherOnly(t *testing.T) {
	peers := []chaintypes.NodeRecord{
		{SubnetNodeID: 1, Classification: chaintypes.Classification{NodeClass: chaintypes.Idle}},
		{SubnetNodeID: 2, Classification: chaintypes.Classification{NodeClass: chaintypes.Included}},
		{SubnetNodeID: 3, Classification: chaintypes.Classification{NodeClass: chaintypes.Validator}},
	}
	got := DefaultHook(5, peers)
	if len(got) != 2 {
		t.Fatalf("expected 2 scored peers, got %d: %+v", len(got), got)
	}
	for _, e := range got {
		if e.Score != chaintypes.UnitScore {
			t.Fatalf("expected unit score, got %d", e.Score)
		}
		if e.SubnetNodeID != 2 && e.SubnetNodeID != 3 {
			t.Fatalf("unexpected node scored: %d", e.SubnetNodeID)
		}
	}
}

func TestDefaultHookEmptyPeerSetIsLegal(t *testing.T) {
	got := DefaultHook(5, nil)
	if len(got) != 0 {
		t.Fatalf("expected empty vector, got %+v", got)
	}
}

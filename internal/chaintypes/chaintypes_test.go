package chaintypes

import "testing"

func TestMatchScoresReflexive(t *testing.T) {
	v := []ScoreEntry{{SubnetNodeID: 1, Score: UnitScore}, {SubnetNodeID: 2, Score: UnitScore}}
	if !MatchScores(v, v) {
		t.Fatal("expected a vector to match itself")
	}
}

func TestMatchScoresPermutationInvariant(t *testing.T) {
	a := []ScoreEntry{{SubnetNodeID: 1, Score: UnitScore}, {SubnetNodeID: 2, Score: UnitScore}}
	b := []ScoreEntry{{SubnetNodeID: 2, Score: UnitScore}, {SubnetNodeID: 1, Score: UnitScore}}
	if !MatchScores(a, b) {
		t.Fatal("expected permutation of the same multiset to match")
	}
}

func TestMatchScoresSinglePerturbationBreaksMatch(t *testing.T) {
	a := []ScoreEntry{{SubnetNodeID: 1, Score: UnitScore}, {SubnetNodeID: 2, Score: UnitScore}}
	b := []ScoreEntry{{SubnetNodeID: 1, Score: UnitScore}, {SubnetNodeID: 2, Score: 2 * UnitScore}}
	if MatchScores(a, b) {
		t.Fatal("expected a single differing score to break the match")
	}
}

func TestMatchScoresBothEmpty(t *testing.T) {
	if !MatchScores(nil, []ScoreEntry{}) {
		t.Fatal("expected two empty vectors to match")
	}
}

func TestMatchScoresDifferentLength(t *testing.T) {
	a := []ScoreEntry{{SubnetNodeID: 1, Score: UnitScore}}
	b := []ScoreEntry{{SubnetNodeID: 1, Score: UnitScore}, {SubnetNodeID: 2, Score: UnitScore}}
	if MatchScores(a, b) {
		t.Fatal("expected vectors of different length to not match")
	}
}

func TestClassificationAtLeast(t *testing.T) {
	c := Classification{NodeClass: Included, StartEpoch: 10}
	if !c.AtLeast(Idle, 10) {
		t.Fatal("expected Included at epoch 10 to qualify as Idle-or-higher at epoch 10")
	}
	if c.AtLeast(Idle, 9) {
		t.Fatal("expected classification not yet in effect to fail AtLeast")
	}
	if c.AtLeast(Validator, 10) {
		t.Fatal("expected Included to not qualify as Validator")
	}
}

func TestConsensusDataAttested(t *testing.T) {
	var d *ConsensusData
	if d.Attested(1) {
		t.Fatal("expected nil ConsensusData to report not attested")
	}
	d = &ConsensusData{Attests: map[uint64]struct{}{2: {}}}
	if d.Attested(1) {
		t.Fatal("expected node 1 to not be in attests")
	}
	if !d.Attested(2) {
		t.Fatal("expected node 2 to be in attests")
	}
}

func TestNodeRecordMultiaddrRoundTrip(t *testing.T) {
	raw, err := EncodeMultiaddr("/ip4/127.0.0.1/tcp/4001")
	if err != nil {
		t.Fatalf("EncodeMultiaddr: %v", err)
	}
	rec := NodeRecord{BootnodeMultiaddr: raw}

	ma, err := rec.Multiaddr()
	if err != nil {
		t.Fatalf("Multiaddr: %v", err)
	}
	if ma.String() != "/ip4/127.0.0.1/tcp/4001" {
		t.Fatalf("expected round-tripped multiaddr, got %q", ma.String())
	}
}

func TestNodeRecordMultiaddrNilWhenUnset(t *testing.T) {
	var rec NodeRecord
	ma, err := rec.Multiaddr()
	if err != nil {
		t.Fatalf("Multiaddr: %v", err)
	}
	if ma != nil {
		t.Fatalf("expected nil multiaddr for unset record, got %v", ma)
	}
}

// Package scoring defines the ScoringHook contract: a pure, deterministic
// function from (epoch, peer set) to a score vector. The engine treats the
// hook as total — it never panics, an empty vector is a legal answer — and
// never generates scores itself; this package only provides the contract
// and a placeholder default implementation.
package scoring

import "github.com/hayotensor/subnet-node-go/internal/chaintypes"

// Hook computes the score vector for epoch over peers. Implementations
// must be deterministic: identical (epoch, peers) must produce an
// identical multiset of ScoreEntry across every honest node, since the
// engine's attestation decision depends on that determinism.
type Hook func(epoch uint64, peers []chaintypes.NodeRecord) []chaintypes.ScoreEntry

// DefaultHook assigns UnitScore to every Included-or-higher-class peer in
// peers. It is a placeholder: real subnets replace it with a hook that
// scores actual observed behavior.
func DefaultHook(epoch uint64, peers []chaintypes.NodeRecord) []chaintypes.ScoreEntry {
	var out []chaintypes.ScoreEntry
	for _, p := range peers {
		if !p.Classification.AtLeast(chaintypes.Included, epoch) {
			continue
		}
		out = append(out, chaintypes.ScoreEntry{SubnetNodeID: p.SubnetNodeID, Score: chaintypes.UnitScore})
	}
	return out
}

// Package chaintypes holds the value types shared by every layer of the
// subnet node: the node classification lattice, epoch timing snapshots,
// node records as reported by chain, and the consensus-data record a
// validator publishes once per epoch.
package chaintypes

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// PeerID reuses libp2p's peer identity type. The transport that resolves a
// PeerID to a connection is out of scope here; only the identity survives.
type PeerID = peer.ID

// NodeClass is the closed total order over subnet membership capability.
// Deactivated < Registered < Idle < Included < Validator.
type NodeClass int

const (
	Deactivated NodeClass = iota
	Registered
	Idle
	Included
	Validator
)

func (c NodeClass) String() string {
	switch c {
	case Deactivated:
		return "Deactivated"
	case Registered:
		return "Registered"
	case Idle:
		return "Idle"
	case Included:
		return "Included"
	case Validator:
		return "Validator"
	default:
		return fmt.Sprintf("NodeClass(%d)", int(c))
	}
}

// AtLeast reports whether c is at least as capable as min in the lattice.
func (c NodeClass) AtLeast(min NodeClass) bool {
	return c >= min
}

// EpochState is the on-chain lifecycle of a subnet itself, distinct from
// any single node's classification within it.
type EpochState int

const (
	StateRegistered EpochState = iota
	StateActive
	StateDeactivated
)

func (s EpochState) String() string {
	switch s {
	case StateRegistered:
		return "Registered"
	case StateActive:
		return "Active"
	case StateDeactivated:
		return "Deactivated"
	default:
		return fmt.Sprintf("EpochState(%d)", int(s))
	}
}

// Classification pairs a node's class with the epoch it took effect.
// A node is "of class >= X at epoch E" iff NodeClass.AtLeast(X) and
// StartEpoch <= E.
type Classification struct {
	NodeClass  NodeClass
	StartEpoch uint64
}

// AtLeast reports whether the classification qualifies as class min at
// epoch e.
func (c Classification) AtLeast(min NodeClass, e uint64) bool {
	return c.NodeClass.AtLeast(min) && c.StartEpoch <= e
}

// NodeRecord is a subnet member as reported by chain. BootnodeMultiaddr is
// carried in its wire-encoded byte form (multiaddr.Multiaddr.Bytes()) rather
// than the multiaddr.Multiaddr interface itself, since NodeRecord round-trips
// through gob in the mock chain fixture and the interface's concrete
// implementation is unexported in that package.
type NodeRecord struct {
	SubnetNodeID       uint64
	PeerID             PeerID
	BootnodePeerID     *PeerID
	ClientPeerID       *PeerID
	BootnodeMultiaddr  []byte
	Hotkey             string
	Classification     Classification
	StakeBalance       uint64
	DelegateRewardRate uint64
	Penalties          uint64
	Reputation         uint64
}

// Multiaddr decodes BootnodeMultiaddr, if present, into a multiaddr.Multiaddr.
func (n NodeRecord) Multiaddr() (multiaddr.Multiaddr, error) {
	if len(n.BootnodeMultiaddr) == 0 {
		return nil, nil
	}
	return multiaddr.NewMultiaddrBytes(n.BootnodeMultiaddr)
}

// EncodeMultiaddr parses s and returns its wire-encoded bytes, for seeding
// NodeRecord.BootnodeMultiaddr from a human-readable multiaddr string.
func EncodeMultiaddr(s string) ([]byte, error) {
	ma, err := multiaddr.NewMultiaddr(s)
	if err != nil {
		return nil, fmt.Errorf("parsing multiaddr %q: %w", s, err)
	}
	return ma.Bytes(), nil
}

// SubnetInfo describes a subnet's own lifecycle state.
type SubnetInfo struct {
	SubnetID uint64
	State    EpochState
}

// EpochData is the epoch-timing snapshot derived from (slot, epoch_length,
// block height).
type EpochData struct {
	Epoch            uint64
	BlocksRemaining  uint64
	SecondsRemaining float64
	PercentComplete  float64
}

// ScoreEntry is one (subnet_node_id, score) pair in a score vector. Score
// is a fixed-point integer with scale 1e18; UnitScore is the canonical
// "full agreement" value.
type ScoreEntry struct {
	SubnetNodeID uint64
	Score        uint64
}

// UnitScore is the canonical fixed-point unit score, scale 1e18.
const UnitScore uint64 = 1_000_000_000_000_000_000

// ConsensusData is the on-chain record a validator publishes once per
// epoch. PrioritizeQueueNodeID and RemoveQueueNodeID are carried
// read-only: nothing in this node acts on them, no queue-management
// operation is specified.
type ConsensusData struct {
	ValidatorID            uint64
	ValidatorEpochProgress float64
	Data                   []ScoreEntry
	Attests                map[uint64]struct{}
	SubnetNodes            []uint64
	PrioritizeQueueNodeID  *uint64
	RemoveQueueNodeID      *uint64
}

// Attested reports whether subnetNodeID already appears in the attests set.
func (d *ConsensusData) Attested(subnetNodeID uint64) bool {
	if d == nil {
		return false
	}
	_, ok := d.Attests[subnetNodeID]
	return ok
}

// Receipt is the outcome of a non-idempotent extrinsic (propose_attestation
// or attest).
type Receipt struct {
	IsSuccess    bool
	ErrorMessage string
}

// MatchScores reports whether two score vectors are the same multiset of
// (subnet_node_id, score) pairs: order-independent, exact integer match,
// no tolerance.
func MatchScores(a, b []ScoreEntry) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[ScoreEntry]int, len(a))
	for _, e := range a {
		counts[e]++
	}
	for _, e := range b {
		counts[e]--
		if counts[e] < 0 {
			return false
		}
	}
	for _, n := range counts {
		if n != 0 {
			return false
		}
	}
	return true
}

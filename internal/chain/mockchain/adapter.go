package mockchain

import (
	"context"
	"encoding/gob"
	"sync"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"

	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

func init() {
	gob.Register(chaintypes.NodeRecord{})
	gob.Register(chaintypes.SubnetInfo{})
	gob.Register(chaintypes.ConsensusData{})
}

// subnetScalars holds the small per-subnet values that don't earn their own
// bolt bucket: slot and epoch-data-by-slot. Protected by mu since the
// tracker (real thread) and test harness (engine's cooperative domain) may
// both touch a mock adapter in tests that exercise both concurrently.
type subnetScalars struct {
	mu          sync.RWMutex
	slot        map[uint64]uint64 // subnetID -> slot
	epochData   map[uint64]chaintypes.EpochData
	epochLength uint64
	validators  map[[2]uint64]uint64 // (subnetID, epoch) -> subnet_node_id
}

// Adapter is a chain.Adapter fixture backed by an embedded bolt store,
// replacing the distilled system's sqlite-backed mock database with the
// embedded KV store this repository's ambient stack already uses. Every
// call reads or writes the local store directly, so it returns Ok,
// NotFound, or Fatal (on a store error) and never Transient — there is no
// network round-trip to fail.
type Adapter struct {
	store   *store
	logger  *zap.SugaredLogger
	scalars subnetScalars
}

// Open constructs a mock Adapter backed by a bolt file at path. Tests
// typically point this at a file under t.TempDir(), since bolt has no true
// in-memory mode.
func Open(path string, logger *zap.Logger) (*Adapter, error) {
	s, err := openStore(path)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		store:  s,
		logger: logger.Named("chain.mock").Sugar(),
		scalars: subnetScalars{
			slot:        make(map[uint64]uint64),
			epochData:   make(map[uint64]chaintypes.EpochData),
			epochLength: 10,
			validators:  make(map[[2]uint64]uint64),
		},
	}, nil
}

// Close releases the underlying bolt file handle.
func (a *Adapter) Close() error {
	return a.store.close()
}

// --- seeding API, used by test harnesses to arrange chain state ------------

// SetSlot fixes subnetID's phase offset.
func (a *Adapter) SetSlot(subnetID, slot uint64) {
	a.scalars.mu.Lock()
	defer a.scalars.mu.Unlock()
	a.scalars.slot[subnetID] = slot
}

// SetEpochLength fixes the chain-wide epoch length in blocks.
func (a *Adapter) SetEpochLength(blocks uint64) {
	a.scalars.mu.Lock()
	defer a.scalars.mu.Unlock()
	a.scalars.epochLength = blocks
}

// SetEpochData seeds the epoch-timing snapshot served for slot.
func (a *Adapter) SetEpochData(slot uint64, data chaintypes.EpochData) {
	a.scalars.mu.Lock()
	defer a.scalars.mu.Unlock()
	a.scalars.epochData[slot] = data
}

// SetSubnetInfo seeds the subnet's own lifecycle state.
func (a *Adapter) SetSubnetInfo(info chaintypes.SubnetInfo) error {
	return a.store.db.Update(func(tx *bolt.Tx) error {
		return putGob(tx, bucketSubnets, u64Key(info.SubnetID), info)
	})
}

// RegisterNode upserts a subnet member record, mirroring
// MockDatabase.insert_subnet_node's INSERT OR REPLACE semantics.
func (a *Adapter) RegisterNode(subnetID uint64, rec chaintypes.NodeRecord) error {
	return a.store.db.Update(func(tx *bolt.Tx) error {
		return putGob(tx, bucketNodes, u64Key(subnetID, rec.SubnetNodeID), rec)
	})
}

// SetValidator seeds the elected validator for (subnetID, epoch).
func (a *Adapter) SetValidator(subnetID, epoch, subnetNodeID uint64) {
	a.scalars.mu.Lock()
	defer a.scalars.mu.Unlock()
	a.scalars.validators[[2]uint64{subnetID, epoch}] = subnetNodeID
}

// SeedBootnodes replaces the bootnode set for subnetID.
func (a *Adapter) SeedBootnodes(subnetID uint64, recs []chaintypes.NodeRecord) error {
	return a.store.db.Update(func(tx *bolt.Tx) error {
		var stale [][]byte
		if err := forEach(tx, bucketBootnodes, u64Key(subnetID), func(k, _ []byte) error {
			stale = append(stale, append([]byte(nil), k...))
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := tx.Bucket(bucketBootnodes).Delete(k); err != nil {
				return err
			}
		}
		for i, r := range recs {
			if err := putGob(tx, bucketBootnodes, u64Key(subnetID, uint64(i)), r); err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedOverwatchNodes replaces the chain-wide overwatch node set.
func (a *Adapter) SeedOverwatchNodes(recs []chaintypes.NodeRecord) error {
	return a.store.db.Update(func(tx *bolt.Tx) error {
		var stale [][]byte
		if err := forEach(tx, bucketOverwatch, nil, func(k, _ []byte) error {
			stale = append(stale, append([]byte(nil), k...))
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := tx.Bucket(bucketOverwatch).Delete(k); err != nil {
				return err
			}
		}
		for i, r := range recs {
			if err := putGob(tx, bucketOverwatch, u64Key(uint64(i)), r); err != nil {
				return err
			}
		}
		return nil
	})
}

// PublishConsensusData seeds a validator's already-published record,
// bypassing ProposeAttestation's already-exists guard; used to set up
// attestor-side test scenarios directly.
func (a *Adapter) PublishConsensusData(subnetID, epoch uint64, data chaintypes.ConsensusData) error {
	return a.store.db.Update(func(tx *bolt.Tx) error {
		return putGob(tx, bucketConsensusData, u64Key(subnetID, epoch), data)
	})
}

// --- chain.Adapter implementation ------------------------------------------

func (a *Adapter) GetSubnetSlot(ctx context.Context, subnetID uint64) chain.Result[uint64] {
	a.scalars.mu.RLock()
	defer a.scalars.mu.RUnlock()
	slot, ok := a.scalars.slot[subnetID]
	if !ok {
		return chain.NotFoundResult[uint64]()
	}
	return chain.OkResult(slot)
}

func (a *Adapter) GetEpochLength(ctx context.Context) chain.Result[uint64] {
	a.scalars.mu.RLock()
	defer a.scalars.mu.RUnlock()
	return chain.OkResult(a.scalars.epochLength)
}

func (a *Adapter) GetSubnetEpochData(ctx context.Context, slot uint64) chain.Result[chaintypes.EpochData] {
	a.scalars.mu.RLock()
	defer a.scalars.mu.RUnlock()
	data, ok := a.scalars.epochData[slot]
	if !ok {
		return chain.NotFoundResult[chaintypes.EpochData]()
	}
	return chain.OkResult(data)
}

func (a *Adapter) GetSubnetInfo(ctx context.Context, subnetID uint64) chain.Result[chaintypes.SubnetInfo] {
	var info chaintypes.SubnetInfo
	var found bool
	err := a.store.db.View(func(tx *bolt.Tx) error {
		var gerr error
		found, gerr = getGob(tx, bucketSubnets, u64Key(subnetID), &info)
		return gerr
	})
	if err != nil {
		return chain.FatalResult[chaintypes.SubnetInfo](err)
	}
	if !found {
		return chain.NotFoundResult[chaintypes.SubnetInfo]()
	}
	return chain.OkResult(info)
}

func (a *Adapter) nodesInSubnet(subnetID uint64) ([]chaintypes.NodeRecord, error) {
	var recs []chaintypes.NodeRecord
	err := a.store.db.View(func(tx *bolt.Tx) error {
		return forEach(tx, bucketNodes, u64Key(subnetID), func(k, v []byte) error {
			var rec chaintypes.NodeRecord
			if err := decodeGobBytes(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	return recs, err
}

func (a *Adapter) GetNodesByMinClass(ctx context.Context, subnetID, epoch uint64, class chaintypes.NodeClass) chain.Result[[]chaintypes.NodeRecord] {
	all, err := a.nodesInSubnet(subnetID)
	if err != nil {
		return chain.FatalResult[[]chaintypes.NodeRecord](err)
	}
	var out []chaintypes.NodeRecord
	for _, r := range all {
		if r.Classification.AtLeast(class, epoch) {
			out = append(out, r)
		}
	}
	return chain.OkResult(out)
}

func (a *Adapter) GetAllNodes(ctx context.Context, subnetID uint64) chain.Result[[]chaintypes.NodeRecord] {
	all, err := a.nodesInSubnet(subnetID)
	if err != nil {
		return chain.FatalResult[[]chaintypes.NodeRecord](err)
	}
	return chain.OkResult(all)
}

func (a *Adapter) GetBootnodes(ctx context.Context, subnetID uint64) chain.Result[[]chaintypes.NodeRecord] {
	var recs []chaintypes.NodeRecord
	err := a.store.db.View(func(tx *bolt.Tx) error {
		return forEach(tx, bucketBootnodes, u64Key(subnetID), func(k, v []byte) error {
			var rec chaintypes.NodeRecord
			if err := decodeGobBytes(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return chain.FatalResult[[]chaintypes.NodeRecord](err)
	}
	return chain.OkResult(recs)
}

func (a *Adapter) GetOverwatchNodes(ctx context.Context) chain.Result[[]chaintypes.NodeRecord] {
	var recs []chaintypes.NodeRecord
	err := a.store.db.View(func(tx *bolt.Tx) error {
		return forEach(tx, bucketOverwatch, nil, func(k, v []byte) error {
			var rec chaintypes.NodeRecord
			if err := decodeGobBytes(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return chain.FatalResult[[]chaintypes.NodeRecord](err)
	}
	return chain.OkResult(recs)
}

func (a *Adapter) GetRewardsValidator(ctx context.Context, subnetID, epoch uint64) chain.Result[uint64] {
	a.scalars.mu.RLock()
	defer a.scalars.mu.RUnlock()
	v, ok := a.scalars.validators[[2]uint64{subnetID, epoch}]
	if !ok {
		return chain.NotFoundResult[uint64]()
	}
	return chain.OkResult(v)
}

func (a *Adapter) GetConsensusData(ctx context.Context, subnetID, epoch uint64) chain.Result[chaintypes.ConsensusData] {
	var data chaintypes.ConsensusData
	var found bool
	err := a.store.db.View(func(tx *bolt.Tx) error {
		var gerr error
		found, gerr = getGob(tx, bucketConsensusData, u64Key(subnetID, epoch), &data)
		return gerr
	})
	if err != nil {
		return chain.FatalResult[chaintypes.ConsensusData](err)
	}
	if !found {
		return chain.NotFoundResult[chaintypes.ConsensusData]()
	}
	return chain.OkResult(data)
}

func (a *Adapter) ProposeAttestation(ctx context.Context, subnetID, epoch uint64, data chaintypes.ConsensusData) chain.Result[chaintypes.Receipt] {
	existing := a.GetConsensusData(ctx, subnetID, epoch)
	if existing.Outcome == chain.Ok {
		return chain.OkResult(chaintypes.Receipt{IsSuccess: false, ErrorMessage: "consensus data already published for this epoch"})
	}
	if data.Attests == nil {
		data.Attests = make(map[uint64]struct{})
	}
	err := a.store.db.Update(func(tx *bolt.Tx) error {
		return putGob(tx, bucketConsensusData, u64Key(subnetID, epoch), data)
	})
	if err != nil {
		return chain.FatalResult[chaintypes.Receipt](err)
	}
	a.logger.Infow("propose_attestation accepted", "subnet_id", subnetID, "epoch", epoch, "scored_nodes", len(data.Data))
	return chain.OkResult(chaintypes.Receipt{IsSuccess: true})
}

func (a *Adapter) Attest(ctx context.Context, subnetID, epoch, subnetNodeID uint64) chain.Result[chaintypes.Receipt] {
	var data chaintypes.ConsensusData
	var found bool
	err := a.store.db.Update(func(tx *bolt.Tx) error {
		ok, gerr := getGob(tx, bucketConsensusData, u64Key(subnetID, epoch), &data)
		if gerr != nil {
			return gerr
		}
		found = ok
		if !ok {
			return nil
		}
		if data.Attests == nil {
			data.Attests = make(map[uint64]struct{})
		}
		if _, already := data.Attests[subnetNodeID]; already {
			return nil
		}
		data.Attests[subnetNodeID] = struct{}{}
		return putGob(tx, bucketConsensusData, u64Key(subnetID, epoch), data)
	})
	if err != nil {
		return chain.FatalResult[chaintypes.Receipt](err)
	}
	if !found {
		return chain.NotFoundResult[chaintypes.Receipt]()
	}
	a.logger.Infow("attest accepted", "subnet_id", subnetID, "epoch", epoch, "subnet_node_id", subnetNodeID)
	return chain.OkResult(chaintypes.Receipt{IsSuccess: true})
}

var _ chain.Adapter = (*Adapter)(nil)

package consensus

import (
	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

// runAwaitingEligibility is S1: each epoch, check whether this node appears
// among Idle-or-higher class members. Included nodes cannot be elected
// validator or attest, but must still take part so they can graduate to
// Validator class.
func (e *Engine) runAwaitingEligibility() bool {
	for {
		if e.ctx.Err() != nil {
			return false
		}
		edRes := e.adapter.GetSubnetEpochData(e.ctx, e.slot)
		if edRes.Outcome != chain.Ok {
			if e.sleep(e.cfg.BlockSecs) {
				return false
			}
			continue
		}
		data := edRes.Value

		nodesRes := e.adapter.GetNodesByMinClass(e.ctx, e.cfg.SubnetID, data.Epoch, chaintypes.Idle)
		if nodesRes.Outcome == chain.Ok {
			for _, n := range nodesRes.Value {
				if n.SubnetNodeID == e.cfg.SubnetNodeID {
					e.logger.Infow("node eligible, transitioning to S2", "epoch", data.Epoch)
					return true
				}
			}
			e.logger.Infow("node not yet Idle-or-higher class, waiting for next epoch", "epoch", data.Epoch)
		} else {
			e.logger.Warnw("get_nodes_by_min_class failed", "outcome", nodesRes.Outcome.String())
		}

		if e.sleep(secondsRemaining(data)) {
			return false
		}
	}
}

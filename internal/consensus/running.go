package consensus

import (
	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

// runRunning is S2, the main loop. On first entry only, it aligns to a
// fresh epoch boundary by sleeping exactly seconds_remaining and
// continuing, so the first full iteration begins within a new epoch.
// Thereafter, each iteration computes this epoch's scores, waits for the
// elected validator, and branches into the validator or attestor role.
func (e *Engine) runRunning() {
	firstIteration := true

	for {
		if e.ctx.Err() != nil {
			return
		}

		edRes := e.adapter.GetSubnetEpochData(e.ctx, e.slot)
		if edRes.Outcome != chain.Ok {
			if e.sleep(e.cfg.BlockSecs) {
				return
			}
			continue
		}
		data := edRes.Value

		if firstIteration {
			firstIteration = false
			e.logger.Infow("aligning to fresh epoch boundary", "seconds_remaining", data.SecondsRemaining)
			if e.sleep(secondsRemaining(data)) {
				return
			}
			continue
		}

		epoch := data.Epoch
		e.metrics.SetEpoch(epoch)

		var prevEpoch uint64
		if epoch > 0 {
			prevEpoch = epoch - 1
		}
		peers, err := e.peerSource.GetNodesOnEpoch(e.ctx, epoch, chaintypes.Included, nil)
		if err != nil {
			if e.ctx.Err() != nil {
				return
			}
			e.logger.Warnw("get_nodes_on_epoch failed, scoring over no peers", "epoch", epoch, "error", err)
			peers = nil
		}
		scores := e.hook(prevEpoch, peers)

		validator, rolledOver := e.pollValidator(epoch)
		if rolledOver {
			e.logger.Infow("epoch rolled over while polling validator, aborting iteration", "epoch", epoch)
			continue
		}
		if e.ctx.Err() != nil {
			return
		}

		if validator == e.cfg.SubnetNodeID {
			e.metrics.SetRole("validator")
			e.runValidatorRole(epoch, scores)
		} else {
			e.metrics.SetRole("attestor")
			e.runAttestorRole(epoch, scores)
		}
		if e.ctx.Err() != nil {
			return
		}

		wait := e.cfg.BlockSecs
		if refreshed := e.adapter.GetSubnetEpochData(e.ctx, e.slot); refreshed.Outcome == chain.Ok {
			wait = secondsRemaining(refreshed.Value)
		}
		if e.sleep(wait) {
			return
		}
	}
}

// pollValidator blocks at BLOCK_SECS granularity until get_rewards_validator
// resolves for epoch. It returns rolledOver=true if the epoch advances
// before a validator is found, in which case this iteration must be
// abandoned.
func (e *Engine) pollValidator(epoch uint64) (validator uint64, rolledOver bool) {
	for {
		if e.ctx.Err() != nil {
			return 0, false
		}
		vRes := e.adapter.GetRewardsValidator(e.ctx, e.cfg.SubnetID, epoch)
		if vRes.Outcome == chain.Ok {
			return vRes.Value, false
		}

		if edRes := e.adapter.GetSubnetEpochData(e.ctx, e.slot); edRes.Outcome == chain.Ok && edRes.Value.Epoch != epoch {
			return 0, true
		}

		if e.sleep(e.cfg.BlockSecs) {
			return 0, false
		}
	}
}

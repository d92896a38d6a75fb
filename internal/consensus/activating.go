package consensus

import (
	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

// runActivating is S0: resolve the subnet's slot, then poll get_subnet_info
// once per epoch until the subnet is Active. Every retry path sleeps before
// looping again — the reference implementation only slept on the
// slot-fetch path and fell through elsewhere; this fixes that
// inconsistency uniformly rather than reproducing it.
//
// Returns false if the engine was cancelled, or if get_subnet_info reports
// NotFound more than cfg.MaxActivationErrors times in a row (the subnet is
// considered removed and the engine transitions straight to S3).
func (e *Engine) runActivating() bool {
	if e.cfg.SkipActivateSubnet {
		e.logger.Info("skip_activate_subnet set, bypassing S0")
		return true
	}

	haveSlot := false
	for !haveSlot {
		if e.ctx.Err() != nil {
			return false
		}
		res := e.adapter.GetSubnetSlot(e.ctx, e.cfg.SubnetID)
		if res.Outcome == chain.Ok {
			e.slot = res.Value
			haveSlot = true
			e.logger.Infow("resolved subnet slot", "slot", e.slot)
			break
		}
		if e.sleep(e.cfg.BlockSecs) {
			return false
		}
	}

	errorsCount := 0
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

		infoRes := e.adapter.GetSubnetInfo(e.ctx, e.cfg.SubnetID)
		switch infoRes.Outcome {
		case chain.Ok:
			errorsCount = 0
			if infoRes.Value.State == chaintypes.StateActive {
				e.logger.Infow("subnet active, transitioning to S1", "epoch", data.Epoch)
				return true
			}
		case chain.NotFound:
			errorsCount++
			e.logger.Warnw("subnet not found", "attempt", errorsCount, "max", e.cfg.MaxActivationErrors)
			if errorsCount > e.cfg.MaxActivationErrors {
				e.logger.Warnw("subnet not found beyond retry budget, terminating")
				return false
			}
		default:
			e.logger.Warnw("get_subnet_info failed", "outcome", infoRes.Outcome.String())
		}

		if e.sleep(secondsRemaining(data)) {
			return false
		}
	}
}

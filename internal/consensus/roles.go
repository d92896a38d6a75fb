package consensus

import (
	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

// runValidatorRole is the elected-validator branch of S2 step 3. If a
// consensus-data record for (subnet_id, epoch) already exists, this epoch
// was already submitted and the validator skips straight to the next
// epoch. Otherwise it proposes scores, empty or not — the distinction
// between the two is cosmetic and is collapsed into one call, per the
// note on the reference implementation's len(scores)==0 branching.
func (e *Engine) runValidatorRole(epoch uint64, scores []chaintypes.ScoreEntry) {
	existing := e.adapter.GetConsensusData(e.ctx, e.cfg.SubnetID, epoch)
	if existing.Outcome == chain.Ok {
		e.logger.Infow("already submitted consensus data this epoch", "epoch", epoch)
		return
	}

	data := chaintypes.ConsensusData{
		ValidatorID: e.cfg.SubnetNodeID,
		Data:        scores,
		Attests:     make(map[uint64]struct{}),
	}
	res := e.adapter.ProposeAttestation(e.ctx, e.cfg.SubnetID, epoch, data)
	switch res.Outcome {
	case chain.Ok:
		if res.Value.IsSuccess {
			e.logger.Infow("propose_attestation accepted", "epoch", epoch, "scored_nodes", len(scores))
			e.metrics.IncProposals()
		} else {
			e.logger.Warnw("propose_attestation rejected", "epoch", epoch, "reason", res.Value.ErrorMessage)
		}
	default:
		e.logger.Warnw("propose_attestation call failed", "epoch", epoch, "outcome", res.Outcome.String())
	}
}

// runAttestorRole is the non-validator branch of S2 step 3. It polls at
// BLOCK_SECS granularity until either the epoch rolls over, the epoch's
// percent_complete passes the attest cut-off (strictly greater than, so
// exactly cfg.AttestCutoffPercent is still within the window), or a
// consensus-data record appears. On an exact score-vector match it
// verifies eligibility once and attests if not already attested; on
// mismatch it abstains silently.
func (e *Engine) runAttestorRole(epoch uint64, scores []chaintypes.ScoreEntry) {
	var consensusData *chaintypes.ConsensusData
	eligibilityChecked := false
	eligible := false

	for {
		if e.ctx.Err() != nil {
			return
		}

		if consensusData == nil {
			if cdRes := e.adapter.GetConsensusData(e.ctx, e.cfg.SubnetID, epoch); cdRes.Outcome == chain.Ok {
				cd := cdRes.Value
				consensusData = &cd
			}
		}

		edRes := e.adapter.GetSubnetEpochData(e.ctx, e.slot)
		if edRes.Outcome != chain.Ok {
			if e.sleep(e.cfg.BlockSecs) {
				return
			}
			continue
		}
		data := edRes.Value
		if data.Epoch != epoch || data.PercentComplete > e.cfg.AttestCutoffPercent {
			e.logger.Infow("attest window closed, abstaining", "epoch", epoch, "percent_complete", data.PercentComplete)
			return
		}

		if consensusData == nil {
			if e.sleep(e.cfg.BlockSecs) {
				return
			}
			continue
		}

		if !chaintypes.MatchScores(scores, consensusData.Data) {
			e.logger.Infow("local scores diverge from validator's data, abstaining", "epoch", epoch)
			return
		}

		if !eligibilityChecked {
			eligibilityChecked = true
			if nodesRes := e.adapter.GetNodesByMinClass(e.ctx, e.cfg.SubnetID, epoch, chaintypes.Idle); nodesRes.Outcome == chain.Ok {
				for _, n := range nodesRes.Value {
					if n.SubnetNodeID == e.cfg.SubnetNodeID {
						eligible = true
						break
					}
				}
			}
			if !eligible {
				e.logger.Infow("no longer eligible to attest, abstaining", "epoch", epoch)
				return
			}
		}

		if consensusData.Attested(e.cfg.SubnetNodeID) {
			e.logger.Infow("already attested this epoch", "epoch", epoch)
			return
		}

		res := e.adapter.Attest(e.ctx, e.cfg.SubnetID, epoch, e.cfg.SubnetNodeID)
		switch res.Outcome {
		case chain.Ok:
			if res.Value.IsSuccess {
				e.logger.Infow("attest accepted", "epoch", epoch)
				e.metrics.IncAttestations()
				return
			}
			if e.sleep(e.cfg.BlockSecs) {
				return
			}
		default:
			if e.sleep(e.cfg.BlockSecs) {
				return
			}
		}
	}
}

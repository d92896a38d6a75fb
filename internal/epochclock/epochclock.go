// Package epochclock derives epoch timing from a chain-reported epoch
// snapshot: how much of the current epoch remains, and the sub-epoch
// interval schedule the tracker uses to space its refreshes.
package epochclock

import (
	"time"

	"github.com/hayotensor/subnet-node-go/internal/chaintypes"
)

// Clock computes epoch-relative durations from a BLOCK_SECS-scale chain.
// It holds no state of its own beyond the constants it was built with; all
// of its methods are pure functions of their arguments plus those
// constants, matching the design's "pure transformations" requirement.
type Clock struct {
	blockSecs   time.Duration
	epochLength uint64
}

// New builds a Clock for a chain whose blocks target blockSecs and whose
// subnet epochs span epochLength blocks.
func New(blockSecs time.Duration, epochLength uint64) Clock {
	return Clock{blockSecs: blockSecs, epochLength: epochLength}
}

// SecondsUntilNextEpoch returns the wall-clock duration remaining in the
// epoch described by data.
func (c Clock) SecondsUntilNextEpoch(data chaintypes.EpochData) time.Duration {
	return time.Duration(data.SecondsRemaining * float64(time.Second))
}

// PercentComplete returns data's fractional progress through its epoch,
// in [0, 1).
func (c Clock) PercentComplete(data chaintypes.EpochData) float64 {
	return data.PercentComplete
}

// EpochDuration is the full wall-clock span of one epoch: epoch_length
// blocks at blockSecs each.
func (c Clock) EpochDuration() time.Duration {
	return c.blockSecs * time.Duration(c.epochLength)
}

// Intervals returns the K+1 equal-width sub-epoch intervals the tracker
// uses to space its within-epoch refreshes, given updates_per_epoch = k.
// Each interval has width epoch_length*block_seconds / (k+1).
func (c Clock) Intervals(k int) (width time.Duration, count int) {
	if k < 0 {
		k = 0
	}
	count = k + 1
	width = time.Duration(float64(c.EpochDuration()) / float64(count))
	return width, count
}

// SecondsRemainingSinceRefresh adjusts data's seconds_remaining for drift
// since it was fetched, matching the tracker's
// get_seconds_remaining_until_next_epoch: max(0, remaining - elapsed).
func (c Clock) SecondsRemainingSinceRefresh(data chaintypes.EpochData, since time.Duration) time.Duration {
	remaining := c.SecondsUntilNextEpoch(data) - since
	if remaining < 0 {
		return 0
	}
	return remaining
}

package main

import "time"

// nodeConfig is the flattened set of flags the cobra command binds, passed
// into the fx application as a single fx.Supply value.
type nodeConfig struct {
	SubnetID           uint64
	SubnetNodeID       uint64
	BlockSecs          time.Duration
	UpdatesPerEpoch    int
	SkipActivateSubnet bool

	ChainEndpoint string // empty selects the embedded mock chain fixture
	MockDBPath    string

	IdentityFile string

	MetricsAddr string
	DebugLog    bool
	JSONLog     bool
}

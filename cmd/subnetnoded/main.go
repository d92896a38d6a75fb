package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := nodeConfig{}

	cmd := &cobra.Command{
		Use:   "subnetnoded",
		Short: "subnetnoded runs a subnet node's epoch-driven consensus engine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.Uint64Var(&cfg.SubnetID, "subnet-id", 0, "subnet identifier to join")
	flags.Uint64Var(&cfg.SubnetNodeID, "subnet-node-id", 0, "this node's subnet_node_id")
	flags.DurationVar(&cfg.BlockSecs, "block-secs", 6*time.Second, "chain block interval")
	flags.IntVar(&cfg.UpdatesPerEpoch, "updates-per-epoch", 2, "extra tracker refreshes per epoch, beyond the one at epoch change")
	flags.BoolVar(&cfg.SkipActivateSubnet, "skip-activate-subnet", false, "bypass S0 Activating and start directly in S1")
	flags.StringVar(&cfg.ChainEndpoint, "chain-endpoint", "", "blockchain RPC endpoint; empty selects the embedded mock chain fixture")
	flags.StringVar(&cfg.MockDBPath, "mock-db-path", "subnetnode-mock.db", "bolt file backing the mock chain fixture, used when --chain-endpoint is empty")
	flags.StringVar(&cfg.IdentityFile, "identity-file", "", "path to this node's hotkey identity file")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", ":9090", "address to serve /metrics on")
	flags.BoolVar(&cfg.DebugLog, "debug-log", false, "enable debug-level logging")
	flags.BoolVar(&cfg.JSONLog, "json-log", false, "emit logs as JSON instead of the console encoder")

	return cmd
}

// Package main is the entrypoint for the zookeeper-operator.
//
// The operator reconciles ZookeeperCluster resources into per-member config
// bundles, Services, StatefulSets and PodDisruptionBudgets.
//
// For detailed usage information, run:
//
//	zookeeper-operator --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/zookeeper-operator/cmd/operator/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/nfsbench/internal/bench"
)

var getattrCmd = &cobra.Command{
	Use:   "getattr host:path",
	Short: "Drive GETATTR calls against an export's root handle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkload(args[0], func(m *bench.Mount) (bench.Workload, error) {
			return bench.GetattrWorkload{}, nil
		})
	},
}

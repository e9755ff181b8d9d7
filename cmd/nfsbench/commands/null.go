package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/nfsbench/internal/bench"
)

var nullCmd = &cobra.Command{
	Use:   "null host:path",
	Short: "Drive NFSPROC3_NULL calls against an export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkload(args[0], func(m *bench.Mount) (bench.Workload, error) {
			return bench.NullWorkload{}, nil
		})
	},
}

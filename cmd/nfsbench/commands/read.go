package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/nfsbench/internal/bench"
)

var readCmd = &cobra.Command{
	Use:   "read host:path",
	Short: "Drive READ calls against an export's root file at a shared, advancing offset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkload(args[0], func(m *bench.Mount) (bench.Workload, error) {
			return bench.NewReadWorkload(m, uint32(activeConfig.Run.ReadBlockSize.Uint64()))
		})
	},
}

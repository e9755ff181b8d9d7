package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/nfsbench/internal/bench"
	"github.com/marmos91/nfsbench/internal/cli/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell host:path",
	Short: "Open an interactive prompt for one-off requests against an export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := activeConfig

		host, path, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		if err := resolvableHost(host); err != nil {
			return err
		}

		m, err := bench.Dial(context.Background(), bench.Config{
			Host:         host,
			Path:         path,
			Port:         cfg.Mount.Port,
			MaxJobs:      1,
			MaxReceivers: 1,
			ReqMax:       cfg.Mount.ReqMax,
			BufferSize:   int(cfg.Mount.BufferSize.Uint64()),
			DialTimeout:  cfg.Mount.DialTimeout,
		})
		if err != nil {
			return fmt.Errorf("dial %s: %w", args[0], err)
		}

		return shell.Run(m)
	},
}

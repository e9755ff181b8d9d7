// Package commands implements the nfsbench CLI: a cobra command tree with
// one subcommand per workload (null, getattr, read) plus the interactive
// shell, all sharing a persistent flag set that maps directly onto the
// original tool's option letters.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build-time variables injected via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Flags mirrors the original tool's single-letter option surface, bound as
// persistent flags so every subcommand sees the same names.
var Flags struct {
	Duration     int
	MaxJobs      int
	MaxReceivers int
	MarkSeconds  int
	OutDir       string
	Port         int
	GnuplotTerm  string
	Verbose      int
	ConfigFile   string
	PrintVersion bool
}

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "nfsbench",
	Short: "NFSv3 load generator and benchmark client",
	Long: `nfsbench drives a fixed-concurrency pipeline of NFSv3 requests against a
remote export and reports throughput, latency, and reconnect statistics.

Use "nfsbench [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if Flags.PrintVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "nfsbench %s (commit %s, built %s)\n", Version, Commit, Date)
			os.Exit(0)
		}
		return persistentSetup()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&Flags.Duration, "duration", "d", 10, "run duration in seconds")
	pf.IntVarP(&Flags.MaxJobs, "jobs", "j", 1, "number of concurrent request-issuing jobs")
	pf.IntVarP(&Flags.MaxReceivers, "recv-threads", "t", 1, "number of receiver goroutines")
	pf.IntVarP(&Flags.MarkSeconds, "mark", "m", 1, "seconds between progress marks on stderr")
	pf.StringVarP(&Flags.OutDir, "outdir", "o", "", "directory to write raw log and gnuplot scripts into")
	pf.IntVarP(&Flags.Port, "port", "p", 0, "NFS service port (0 resolves via portmap)")
	pf.StringVarP(&Flags.GnuplotTerm, "term", "T", "png", "gnuplot output terminal")
	pf.CountVarP(&Flags.Verbose, "verbose", "v", "increase log verbosity (repeatable)")
	pf.StringVar(&Flags.ConfigFile, "config", "", "path to a config file")
	pf.BoolVarP(&Flags.PrintVersion, "version", "V", false, "print version and exit")

	rootCmd.AddCommand(nullCmd)
	rootCmd.AddCommand(getattrCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(versionCmd)
}

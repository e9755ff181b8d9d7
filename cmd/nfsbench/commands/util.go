package commands

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/marmos91/nfsbench/internal/config"
	"github.com/marmos91/nfsbench/internal/logger"
)

// ErrUsage marks an error caused by bad CLI input rather than a runtime
// failure, so the top-level handler can map it to sysexits.Usage.
var ErrUsage = errors.New("usage error")

// usagef builds an error wrapping ErrUsage with a formatted message.
func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// activeConfig is the fully resolved configuration for the current
// invocation, populated by persistentSetup before any subcommand runs.
var activeConfig *config.Config

// persistentSetup runs before every subcommand: it loads configuration
// (layering the CLI flags bound above over env vars, a config file, and
// defaults), initializes the logger, and reports+ignores the reserved
// environment variable the original tool consulted.
func persistentSetup() error {
	reportReservedEnvVar()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	logger.Init(logger.Config{
		Level:  strings.ToLower(cfg.Logging.Level),
		Format: logger.Format(cfg.Logging.Format),
	})
	activeConfig = cfg
	return nil
}

// loadConfig layers the bound persistent flags over environment variables,
// an optional config file, and this program's defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v, Flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	if Flags.Duration > 0 {
		cfg.Run.Duration = time.Duration(Flags.Duration) * time.Second
	}
	if Flags.MaxJobs > 0 {
		cfg.Run.MaxJobs = Flags.MaxJobs
	}
	if Flags.MaxReceivers > 0 {
		cfg.Run.MaxReceivers = Flags.MaxReceivers
	}
	if Flags.MarkSeconds > 0 || rootCmd.PersistentFlags().Changed("mark") {
		cfg.Sampler.MarkSeconds = Flags.MarkSeconds
	}
	if Flags.OutDir != "" {
		cfg.Output.Dir = Flags.OutDir
	}
	if Flags.Port != 0 {
		cfg.Mount.Port = Flags.Port
	}
	if Flags.GnuplotTerm != "" {
		cfg.Output.GnuplotTerm = Flags.GnuplotTerm
	}
	if Flags.Verbose > 0 {
		cfg.Logging.Level = verbosityToLevel(Flags.Verbose)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func verbosityToLevel(count int) string {
	if count >= 2 {
		return "debug"
	}
	return "info"
}

// reservedEnvVar is the uppercased program name the original tool checked
// getenv() for at startup, reporting and ignoring whatever it found there.
const reservedEnvVar = "NFSBENCH"

func reportReservedEnvVar() {
	if val, ok := os.LookupEnv(reservedEnvVar); ok {
		logger.Warn("reserved environment variable is set and will be ignored",
			"var", reservedEnvVar, "value", val)
	}
}

// parseTarget splits a "host:path" CLI argument into its host and export
// path components, the same shape every workload subcommand expects.
func parseTarget(arg string) (host, path string, err error) {
	idx := strings.Index(arg, ":")
	if idx <= 0 || idx == len(arg)-1 {
		return "", "", usagef("target must be of the form host:path, got %q", arg)
	}
	return arg[:idx], arg[idx+1:], nil
}

// resolvableHost reports whether host can be resolved at all, used to
// distinguish a host-resolution failure (EX_NOHOST) from any other dial
// error once we're past flag parsing.
func resolvableHost(host string) error {
	if _, err := net.LookupHost(host); err != nil {
		return fmt.Errorf("%w: %v", ErrHostUnresolved, err)
	}
	return nil
}

// ErrHostUnresolved marks a failure to resolve the target host at all,
// distinct from a later connection or protocol failure against a host that
// does resolve.
var ErrHostUnresolved = errors.New("host could not be resolved")

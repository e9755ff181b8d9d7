package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandRegistersAllSubcommands(t *testing.T) {
	root := GetRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"null", "getattr", "read", "shell", "version"} {
		assert.True(t, names[want], "expected %q subcommand to be registered", want)
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	root := GetRootCmd()
	for _, name := range []string{"duration", "jobs", "recv-threads", "mark", "outdir", "port", "term", "verbose", "config", "version"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "expected persistent flag %q", name)
	}
}

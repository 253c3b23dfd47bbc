package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "search", "searches", "migrate"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "deepsearch", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCommand_Flags(t *testing.T) {
	for _, name := range []string{"name", "email", "phone", "all-phases", "pivot-platform", "pivot-url", "pivot-username", "output"} {
		assert.NotNil(t, searchCmd.Flags().Lookup(name), "search command should have --%s flag", name)
	}
	assert.Equal(t, "json", searchCmd.Flags().Lookup("output").DefValue)
}

func TestSearchesCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range searchesCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])
	assert.Equal(t, "50", searchesListCmd.Flags().Lookup("limit").DefValue)
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Empty(t, flag.DefValue)
	assert.True(t, rootCmd.SilenceUsage)
}

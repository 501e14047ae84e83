package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophersh/gosh/core/config"
)

// runGosh executes the CLI with the given arguments and returns its combined
// output.
func runGosh(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
		cfgPath = "."
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func initConfigDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	_, err := config.Initialize(dir, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	return dir
}

func TestGoshRunsInteractively(t *testing.T) {
	dir := initConfigDir(t)

	rootCmd.SetIn(strings.NewReader("exit\n"))
	out, err := runGosh(t, "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "gosh> ")

	// The session's bracketing events landed in the history log.
	data, err := os.ReadFile(filepath.Join(dir, config.HistoryLogName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "session_start")
	assert.Contains(t, string(data), "session_end")
}

func TestGoshRunsRealCommand(t *testing.T) {
	dir := initConfigDir(t)

	rootCmd.SetIn(strings.NewReader("echo one two\nexit\n"))
	out, err := runGosh(t, "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "one two")

	data, err := os.ReadFile(filepath.Join(dir, config.HistoryLogName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"command":["echo","one","two"]`)
}

func TestGoshReportsSpawnFailure(t *testing.T) {
	dir := initConfigDir(t)

	rootCmd.SetIn(strings.NewReader("definitely-not-a-command-xyzzy\nexit\n"))
	out, err := runGosh(t, "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "gosh: ")
	assert.Contains(t, out, "executable file not found")
}

func TestGoshWithoutConfig(t *testing.T) {
	rootCmd.SetIn(strings.NewReader(""))
	_, err := runGosh(t, "--config", t.TempDir())
	require.Error(t, err)
}

func TestGoshRejectsPositionalArgs(t *testing.T) {
	_, err := runGosh(t, "--config", t.TempDir(), "frobnicate")
	require.Error(t, err)
}

func TestGoshInit(t *testing.T) {
	dir := t.TempDir()

	out, err := runGosh(t, "--config", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Creating "+config.ConfigurationName)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "gosh", cfg.Name)

	// A second run must not clobber the existing files.
	out, err = runGosh(t, "--config", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Skipping "+config.ConfigurationName)
}

func TestServeRequiresAuthorizedKeys(t *testing.T) {
	dir := initConfigDir(t)

	_, err := runGosh(t, "--config", dir, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorized_keys")
}

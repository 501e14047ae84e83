package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophersh/gosh/core/config"
	"github.com/gophersh/gosh/core/logger"
)

func testShellConfig() *config.Configuration {
	return &config.Configuration{
		Name:               "gosh",
		Color:              config.ColorNever,
		InitialBufferSize:  16,
		BufferGrowthFactor: 2,
		History:            true,
	}
}

type shellFixture struct {
	shell   *Shell
	out     *strings.Builder
	errOut  *strings.Builder
	spawner *fakeSpawner
	capture *eventCapture
}

func newTestShell(t *testing.T, cfg *config.Configuration, input string) *shellFixture {
	t.Helper()

	events, capture := captureEvents()
	fx := &shellFixture{
		out:     &strings.Builder{},
		errOut:  &strings.Builder{},
		spawner: &fakeSpawner{},
		capture: capture,
	}
	term := Terminal{In: strings.NewReader(input), Out: fx.out, Err: fx.errOut}
	fx.shell = newShell(cfg, term, fx.spawner, events, testDiag())
	return fx
}

func TestShellRunBuiltinExit(t *testing.T) {
	for _, builtin := range []string{"exit", "quit"} {
		t.Run(builtin, func(t *testing.T) {
			fx := newTestShell(t, testShellConfig(), builtin+"\n")

			require.NoError(t, fx.shell.Run())
			assert.Equal(t, "gosh> \n", fx.out.String())
			assert.Equal(t, 0, fx.spawner.spawnCount())
		})
	}
}

func TestShellRunsCommands(t *testing.T) {
	fx := newTestShell(t, testShellConfig(), "ls -la\nuname\nexit\n")

	require.NoError(t, fx.shell.Run())
	assert.Equal(t, [][]string{{"ls", "-la"}, {"uname"}}, fx.spawner.commands())
	assert.Equal(t, "gosh> gosh> gosh> \n", fx.out.String())
}

func TestShellSkipsBlankLines(t *testing.T) {
	fx := newTestShell(t, testShellConfig(), "\n \t \nexit\n")

	require.NoError(t, fx.shell.Run())
	assert.Equal(t, 0, fx.spawner.spawnCount())
	assert.Equal(t, "gosh> gosh> gosh> \n", fx.out.String())
}

func TestShellEndsAtEOF(t *testing.T) {
	fx := newTestShell(t, testShellConfig(), "")

	require.NoError(t, fx.shell.Run())
	assert.Equal(t, "gosh> \n", fx.out.String())
	assert.Equal(t, 0, fx.spawner.spawnCount())
}

func TestShellRunsFinalUnterminatedLine(t *testing.T) {
	fx := newTestShell(t, testShellConfig(), "uname -a")

	require.NoError(t, fx.shell.Run())
	assert.Equal(t, [][]string{{"uname", "-a"}}, fx.spawner.commands())
	assert.Equal(t, "gosh> \n", fx.out.String())
}

func TestShellBackground(t *testing.T) {
	fx := newTestShell(t, testShellConfig(), "sleep 60 &\nexit\n")

	require.NoError(t, fx.shell.Run())
	fx.shell.executor.jobs.Wait()

	require.Equal(t, [][]string{{"sleep", "60"}}, fx.spawner.commands())
	assert.Contains(t, fx.capture.kinds(), logger.KindBackgroundStart)
	assert.Contains(t, fx.capture.kinds(), logger.KindBackgroundReaped)
}

func TestShellSpawnFailureContinues(t *testing.T) {
	fx := newTestShell(t, testShellConfig(), "xyzzy\nexit\n")
	fx.spawner.err = errors.New("executable file not found in $PATH")

	require.NoError(t, fx.shell.Run())
	assert.Equal(t, "gosh: executable file not found in $PATH\n", fx.errOut.String())
	assert.Equal(t, "gosh> gosh> \n", fx.out.String())
}

func TestShellLongLine(t *testing.T) {
	long := pattern(5000)
	fx := newTestShell(t, testShellConfig(), "run "+long+"\nexit\n")

	require.NoError(t, fx.shell.Run())
	require.Equal(t, [][]string{{"run", long}}, fx.spawner.commands())
}

func TestShellCustomPrompt(t *testing.T) {
	cfg := testShellConfig()
	cfg.Prompt = "$ "
	fx := newTestShell(t, cfg, "exit\n")

	require.NoError(t, fx.shell.Run())
	assert.Equal(t, "$ \n", fx.out.String())
}

func TestShellPromptColor(t *testing.T) {
	t.Run("always", func(t *testing.T) {
		cfg := testShellConfig()
		cfg.Color = config.ColorAlways
		fx := newTestShell(t, cfg, "exit\n")

		require.NoError(t, fx.shell.Run())
		assert.Contains(t, fx.out.String(), "\x1b[")
		assert.Contains(t, fx.out.String(), "gosh> ")
	})

	t.Run("never", func(t *testing.T) {
		fx := newTestShell(t, testShellConfig(), "exit\n")

		require.NoError(t, fx.shell.Run())
		assert.NotContains(t, fx.out.String(), "\x1b[")
	})
}

func TestShellDefaultsBufferSizes(t *testing.T) {
	cfg := testShellConfig()
	cfg.InitialBufferSize = 0
	cfg.BufferGrowthFactor = 0
	fx := newTestShell(t, cfg, "exit\n")

	assert.Equal(t, config.DefaultInputBufferSize, fx.shell.reader.initialCap)
	assert.Equal(t, config.DefaultBufferGrowthFactor, fx.shell.reader.growth)
	require.NoError(t, fx.shell.Run())
}

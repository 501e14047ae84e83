package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"os/user"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/gophersh/gosh/core"
	"github.com/gophersh/gosh/core/config"
	"github.com/gophersh/gosh/core/logger"
)

var (
	cfgPath string
	debug   bool

	// diag carries structured diagnostics for every command. Replaced with an
	// environment-aware logger before any RunE executes.
	diag pslog.Logger = pslog.NewWithOptions(os.Stderr, pslog.Options{Mode: pslog.ModeConsole})
)

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// rootCmd starts the interactive shell when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "gosh",
	Short: "An interactive command shell",
	Long: `An interactive command shell.

gosh reads one command per line, splits it on whitespace, and runs the
result with the shell's stdio attached. A trailing '&' launches the
command without waiting for it. The builtins exit and quit leave the
shell.`,
	Args: cobra.ExactArgs(0),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupDiagnostics()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runInteractive(cmd)
	},
}

func runInteractive(cmd *cobra.Command) error {
	configuration, err := loadConfig()
	if err != nil {
		return err
	}

	events, closeEvents, err := openEvents(configuration)
	if err != nil {
		return err
	}
	defer closeEvents()

	session := events.NewSession()
	session.Record(&logger.SessionStart{User: localUser()})
	defer session.Record(&logger.SessionEnd{})

	term := core.Terminal{
		In:         cmd.InOrStdin(),
		Out:        cmd.OutOrStdout(),
		Err:        cmd.ErrOrStderr(),
		IsTerminal: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}

	return core.NewShell(configuration, term, session, diag).Run()
}

// openEvents opens the history log when history is enabled, otherwise the
// returned logger discards everything.
func openEvents(configuration *config.Configuration) (*logger.Logger, func(), error) {
	if !configuration.History {
		return logger.NewNopRecorder(), func() {}, nil
	}

	fd, err := configuration.OpenHistoryLog()
	if err != nil {
		return nil, nil, err
	}
	return logger.NewJSONLinesRecorder(fd), func() { fd.Close() }, nil
}

func localUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// setupDiagnostics wires the structured logger and bridges the standard
// library logger through it so all diagnostics share one stream.
func setupDiagnostics() {
	options := pslog.Options{Mode: pslog.ModeConsole}
	if debug {
		options.MinLevel = pslog.DebugLevel
	}

	diag = pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(options),
	)
	log.SetOutput(pslog.LogLogger(diag).Writer())
	log.SetFlags(0)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug diagnostics")
}

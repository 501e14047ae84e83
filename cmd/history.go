package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/gophersh/gosh/core"
	"github.com/gophersh/gosh/core/logger"
)

var sessionHeaderColor = color.New(color.FgCyan, color.Bold)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Explore the shell's command history log.",
}

// reportCommand aggregates the history log into summary statistics.
var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of logged activity.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := configuration.ReadHistoryLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		report := logger.NewReport()
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	},
}

// catCommand prints every logged command grouped by session.
var catCommand = &cobra.Command{
	Use:   "cat",
	Short: "Print logged commands session by session.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := configuration.ReadHistoryLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		var history logger.History
		if err := logger.ReadJSONLinesLog(fd, history.Update); err != nil {
			return err
		}

		isTerminal := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		printer := core.NewColorPrinter(configuration.Color, isTerminal)

		out := cmd.OutOrStdout()
		for _, session := range history.Sessions() {
			fmt.Fprintln(out, printer.Sprintf(sessionHeaderColor, "%s", sessionHeader(session)))
			for i, command := range session.Commands {
				fmt.Fprintf(out, "%5d  %s\n", i+1, command)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func sessionHeader(s *logger.SessionHistory) string {
	switch {
	case s.User != "" && s.RemoteAddr != "":
		return fmt.Sprintf("session %s %s@%s", s.ID, s.User, s.RemoteAddr)
	case s.User != "":
		return fmt.Sprintf("session %s %s", s.ID, s.User)
	default:
		return fmt.Sprintf("session %s", s.ID)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(reportCommand)
	historyCmd.AddCommand(catCommand)
}

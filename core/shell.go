package core

import (
	"errors"
	"fmt"
	"io"

	"pkt.systems/pslog"

	"github.com/gophersh/gosh/core/config"
	"github.com/gophersh/gosh/core/logger"
)

// Terminal is the stream bundle a Shell runs on.
type Terminal struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// IsTerminal reports whether Out is interactive, for color auto mode.
	IsTerminal bool
}

// Shell drives the read, tokenize, execute loop over a terminal.
type Shell struct {
	prompt    string
	reader    *LineReader
	tokenizer *Tokenizer
	executor  *Executor
	out       io.Writer
	printer   *ColorPrinter
	diag      pslog.Logger
}

// NewShell wires a Shell for the given terminal. Commands launched by the
// shell inherit the terminal's streams.
func NewShell(cfg *config.Configuration, term Terminal, events *logger.SessionLogger, diag pslog.Logger) *Shell {
	spawner := &ExecSpawner{Stdin: term.In, Stdout: term.Out, Stderr: term.Err}
	return newShell(cfg, term, spawner, events, diag)
}

func newShell(cfg *config.Configuration, term Terminal, spawner Spawner, events *logger.SessionLogger, diag pslog.Logger) *Shell {
	initialCap := cfg.InitialBufferSize
	if initialCap < 1 {
		initialCap = config.DefaultInputBufferSize
	}
	growth := cfg.BufferGrowthFactor
	if growth < 2 {
		growth = config.DefaultBufferGrowthFactor
	}

	return &Shell{
		prompt:    cfg.PromptString(),
		reader:    NewLineReader(term.In, initialCap, growth),
		tokenizer: NewTokenizer(initialCap, growth),
		executor:  NewExecutor(cfg.Name, spawner, term.Err, events, diag),
		out:       term.Out,
		printer:   NewColorPrinter(cfg.Color, term.IsTerminal),
		diag:      diag,
	}
}

// Run executes the command loop until the user exits or input ends. Command
// failures never abort the loop, so Run only returns input stream errors.
func (s *Shell) Run() error {
	for {
		fmt.Fprint(s.out, s.printer.Sprintf(promptColor, "%s", s.prompt))

		line, err := s.reader.ReadLine()
		atEOF := errors.Is(err, io.EOF)
		if err != nil && !atEOF {
			s.diag.Error("reading input", "err", err)
			return err
		}

		// A final line without a trailing newline still runs.
		result := s.runLine(line)
		if result == Exit || atEOF {
			break
		}
	}

	// Leave the cursor on a fresh line.
	fmt.Fprintln(s.out)
	return nil
}

func (s *Shell) runLine(line string) Result {
	if len(line) == 0 {
		return Continue
	}

	line, background := StripBackground(line)

	tokens := s.tokenizer.Split(line)
	if len(tokens) == 0 {
		// Whitespace only, nothing to do.
		return Continue
	}

	return s.executor.Execute(tokens, background)
}

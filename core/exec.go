package core

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"pkt.systems/pslog"

	"github.com/gophersh/gosh/core/logger"
)

// Result tells the command loop what to do next.
type Result int

const (
	// Continue means the loop should read the next command.
	Continue Result = iota
	// Exit means the user asked the shell to terminate.
	Exit
)

// Builtin command names. Matched exactly and case-sensitively, with no
// argument parsing.
const (
	BuiltinExit = "exit"
	BuiltinQuit = "quit"
)

// Status describes how a waited-on child finished. A child that is stopped
// but still alive is neither Exited nor Signaled.
type Status struct {
	Exited   bool
	Signaled bool
	// Code is the exit code when Exited, the signal number when Signaled.
	Code int
}

// Process is a handle to a spawned child.
type Process interface {
	Pid() int
	Wait() (Status, error)
}

// Spawner launches argv[0] with the whole of argv as its argument vector.
type Spawner interface {
	Spawn(argv []string) (Process, error)
}

// stdioWaitDelay caps how long a reap waits for stdio copying once the
// child itself has exited.
const stdioWaitDelay = 200 * time.Millisecond

// ExecSpawner launches real OS processes with the given streams attached.
type ExecSpawner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (s *ExecSpawner) Spawn(argv []string) (Process, error) {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, err
	}

	// Build the Cmd directly so argv[0] reaches the child verbatim instead
	// of being replaced by the resolved path.
	cmd := &exec.Cmd{
		Path:   path,
		Args:   argv,
		Stdin:  s.Stdin,
		Stdout: s.Stdout,
		Stderr: s.Stderr,
	}
	if _, isFile := s.Stdin.(*os.File); !isFile {
		// os/exec feeds a non-file Stdin to the child from a goroutine,
		// and Wait blocks until that goroutine stops reading. Bound the
		// wait so the reap tracks the child, not its stdin.
		cmd.WaitDelay = stdioWaitDelay
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

// Wait reaps the child. A non-zero exit surfaces from os/exec as
// *exec.ExitError; that is an ordinary reap here, not an error.
func (p *execProcess) Wait() (Status, error) {
	err := p.cmd.Wait()
	state := p.cmd.ProcessState
	if state == nil {
		return Status{}, err
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		switch {
		case ws.Exited():
			return Status{Exited: true, Code: ws.ExitStatus()}, nil
		case ws.Signaled():
			return Status{Signaled: true, Code: int(ws.Signal())}, nil
		default:
			return Status{}, nil
		}
	}
	return Status{Exited: state.Exited(), Code: state.ExitCode()}, nil
}

// Executor dispatches one tokenized command per call: builtins run in
// process, everything else becomes a child process.
type Executor struct {
	name    string
	spawner Spawner
	stderr  io.Writer
	events  *logger.SessionLogger
	jobs    *Jobs
	diag    pslog.Logger
}

// NewExecutor creates an Executor. Spawn failure diagnostics are written to
// stderr prefixed with name.
func NewExecutor(name string, spawner Spawner, stderr io.Writer, events *logger.SessionLogger, diag pslog.Logger) *Executor {
	return &Executor{
		name:    name,
		spawner: spawner,
		stderr:  stderr,
		events:  events,
		jobs:    NewJobs(events, diag),
		diag:    diag,
	}
}

// Execute runs one command. The token sequence must be non-empty; callers
// that tokenized an all-delimiter line should skip it rather than call here.
func (e *Executor) Execute(tokens []string, background bool) Result {
	if len(tokens) == 0 {
		e.diag.Warn("execute called with no tokens")
		e.events.Record(&logger.InvalidInvocation{Error: "empty token sequence"})
		return Continue
	}

	switch tokens[0] {
	case BuiltinExit, BuiltinQuit:
		return Exit
	}

	proc, err := e.spawner.Spawn(tokens)
	if err != nil {
		// One line, shell name first, then the cause.
		fmt.Fprintf(e.stderr, "%s: %v\n", e.name, err)
		e.events.Record(&logger.SpawnFailure{Command: tokens, Error: err.Error()})
		return Continue
	}

	if background {
		e.events.Record(&logger.BackgroundStart{Command: tokens, PID: proc.Pid()})
		e.jobs.Track(tokens, proc)
		return Continue
	}

	status := e.await(proc)
	e.events.Record(&logger.RunCommand{
		Command:    tokens,
		ExitStatus: statusToEvent(status),
	})

	// The child's exit status never affects the loop.
	return Continue
}

// await reaps the child, waiting again through stop/continue cycles until it
// exits or dies from a signal.
func (e *Executor) await(proc Process) Status {
	for {
		status, err := proc.Wait()
		if err != nil {
			e.diag.Error("wait failed", "pid", proc.Pid(), "err", err)
			return status
		}
		if status.Exited || status.Signaled {
			return status
		}
	}
}

func statusToEvent(status Status) *logger.ExitStatus {
	return &logger.ExitStatus{
		Exited:   status.Exited,
		Signaled: status.Signaled,
		Code:     status.Code,
	}
}

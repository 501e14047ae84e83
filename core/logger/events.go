package logger

// Kind identifies the type of a logged event.
type Kind string

const (
	KindSessionStart      Kind = "session_start"
	KindSessionEnd        Kind = "session_end"
	KindRunCommand        Kind = "run_command"
	KindBackgroundStart   Kind = "background_start"
	KindBackgroundReaped  Kind = "background_reaped"
	KindSpawnFailure      Kind = "spawn_failure"
	KindInvalidInvocation Kind = "invalid_invocation"
)

// Event is a single entry in the shell's activity log. Exactly one of the
// payload fields is set, matching Kind.
type Event struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`
	Kind            Kind   `json:"kind"`

	SessionStart      *SessionStart      `json:"session_start,omitempty"`
	SessionEnd        *SessionEnd        `json:"session_end,omitempty"`
	RunCommand        *RunCommand        `json:"run_command,omitempty"`
	BackgroundStart   *BackgroundStart   `json:"background_start,omitempty"`
	BackgroundReaped  *BackgroundReaped  `json:"background_reaped,omitempty"`
	SpawnFailure      *SpawnFailure      `json:"spawn_failure,omitempty"`
	InvalidInvocation *InvalidInvocation `json:"invalid_invocation,omitempty"`
}

// Payload is implemented by every event body.
type Payload interface {
	kind() Kind
	attach(*Event)
}

// SessionStart marks the beginning of an interactive session.
type SessionStart struct {
	User       string `json:"user,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`
}

func (p *SessionStart) kind() Kind { return KindSessionStart }

func (p *SessionStart) attach(e *Event) { e.SessionStart = p }

// SessionEnd marks the end of an interactive session.
type SessionEnd struct{}

func (p *SessionEnd) kind() Kind { return KindSessionEnd }

func (p *SessionEnd) attach(e *Event) { e.SessionEnd = p }

// ExitStatus describes how a child process finished.
type ExitStatus struct {
	Exited   bool `json:"exited"`
	Signaled bool `json:"signaled,omitempty"`
	// Code is the exit code when Exited, the signal number when Signaled.
	Code int `json:"code"`
}

// RunCommand records a foreground command and how it finished.
type RunCommand struct {
	Command    []string    `json:"command"`
	ExitStatus *ExitStatus `json:"exit_status,omitempty"`
}

func (p *RunCommand) kind() Kind { return KindRunCommand }

func (p *RunCommand) attach(e *Event) { e.RunCommand = p }

// BackgroundStart records a command launched without waiting.
type BackgroundStart struct {
	Command []string `json:"command"`
	PID     int      `json:"pid"`
}

func (p *BackgroundStart) kind() Kind { return KindBackgroundStart }

func (p *BackgroundStart) attach(e *Event) { e.BackgroundStart = p }

// BackgroundReaped records the eventual fate of a background command.
type BackgroundReaped struct {
	PID        int         `json:"pid"`
	ExitStatus *ExitStatus `json:"exit_status,omitempty"`
}

func (p *BackgroundReaped) kind() Kind { return KindBackgroundReaped }

func (p *BackgroundReaped) attach(e *Event) { e.BackgroundReaped = p }

// SpawnFailure records a command that could not be started.
type SpawnFailure struct {
	Command []string `json:"command"`
	Error   string   `json:"error"`
}

func (p *SpawnFailure) kind() Kind { return KindSpawnFailure }

func (p *SpawnFailure) attach(e *Event) { e.SpawnFailure = p }

// InvalidInvocation records an executor call that violated its contract.
type InvalidInvocation struct {
	Error string `json:"error"`
}

func (p *InvalidInvocation) kind() Kind { return KindInvalidInvocation }

func (p *InvalidInvocation) attach(e *Event) { e.InvalidInvocation = p }

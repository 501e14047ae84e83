package logger

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(e *Event)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			return err
		}

		handler(&event)
	}
	return nil
}

// NewReport creates a Report ready to receive events.
func NewReport() *Report {
	return &Report{
		SpawnFailure: SpawnFailureReport{
			Failures: NewPathCounter("command", "error"),
		},
	}
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	Sessions          SessionReport           `json:"session_report"`
	RunCommand        RunCommandReport        `json:"run_command_report"`
	Background        BackgroundReport        `json:"background_report"`
	SpawnFailure      SpawnFailureReport      `json:"spawn_failure_report"`
	InvalidInvocation InvalidInvocationReport `json:"invalid_invocation_report"`
}

func (r *Report) Update(e *Event) {
	r.LogEntries++

	switch e.Kind {
	case KindSessionStart:
		r.Sessions.start(e.SessionStart)
	case KindSessionEnd:
		r.Sessions.Ended++
	case KindRunCommand:
		r.RunCommand.update(e.RunCommand)
	case KindBackgroundStart:
		r.Background.start(e.BackgroundStart)
	case KindBackgroundReaped:
		r.Background.Reaped++
	case KindSpawnFailure:
		r.SpawnFailure.update(e.SpawnFailure)
	case KindInvalidInvocation:
		r.InvalidInvocation.update(e.InvalidInvocation)
	default:
		r.InvalidEntries.Increment(string(e.Kind))
	}
}

type SessionReport struct {
	Started int `json:"started"`
	Ended   int `json:"ended"`
	// List of users and their counts.
	Users StrCounter `json:"users"`
	// List of remote addresses and their counts.
	RemoteAddrs StrCounter `json:"remote_addrs"`
}

func (r *SessionReport) start(s *SessionStart) {
	r.Started++
	if s == nil {
		return
	}
	if s.User != "" {
		r.Users.Increment(s.User)
	}
	if s.RemoteAddr != "" {
		r.RemoteAddrs.Increment(s.RemoteAddr)
	}
}

type RunCommandReport struct {
	// Name of the command.
	CommandNames StrCounter `json:"command_names"`
	// Exit codes and their counts.
	ExitCodes StrCounter `json:"exit_codes"`
	// Number of commands terminated by a signal.
	Signaled int `json:"signaled,omitempty"`
}

func (r *RunCommandReport) update(rc *RunCommand) {
	if rc == nil {
		return
	}
	if len(rc.Command) > 0 {
		r.CommandNames.Increment(rc.Command[0])
	}
	if st := rc.ExitStatus; st != nil {
		if st.Signaled {
			r.Signaled++
		} else {
			r.ExitCodes.Increment(strconv.Itoa(st.Code))
		}
	}
}

type BackgroundReport struct {
	Started      int        `json:"started"`
	Reaped       int        `json:"reaped"`
	CommandNames StrCounter `json:"command_names"`
}

func (r *BackgroundReport) start(bs *BackgroundStart) {
	r.Started++
	if bs != nil && len(bs.Command) > 0 {
		r.CommandNames.Increment(bs.Command[0])
	}
}

type SpawnFailureReport struct {
	Failures *PathCounter `json:"failures"`
}

func (r *SpawnFailureReport) update(sf *SpawnFailure) {
	if sf == nil || len(sf.Command) == 0 {
		return
	}
	r.Failures.Increment(sf.Command[0], sf.Error)
}

type InvalidInvocationReport struct {
	Count  int        `json:"count"`
	Errors StrCounter `json:"errors"`
}

func (r *InvalidInvocationReport) update(ii *InvalidInvocation) {
	r.Count++
	if ii != nil {
		r.Errors.Increment(ii.Error)
	}
}

// SessionHistory collects one session's commands in the order they were typed.
type SessionHistory struct {
	ID         string
	User       string
	RemoteAddr string
	Commands   []string
}

func (s *SessionHistory) update(e *Event) {
	switch e.Kind {
	case KindSessionStart:
		if e.SessionStart != nil {
			s.User = e.SessionStart.User
			s.RemoteAddr = e.SessionStart.RemoteAddr
		}
	case KindRunCommand:
		if e.RunCommand != nil {
			s.Commands = append(s.Commands, strings.Join(e.RunCommand.Command, " "))
		}
	case KindBackgroundStart:
		if e.BackgroundStart != nil {
			s.Commands = append(s.Commands, strings.Join(e.BackgroundStart.Command, " ")+" &")
		}
	case KindSpawnFailure:
		if e.SpawnFailure != nil {
			s.Commands = append(s.Commands, strings.Join(e.SpawnFailure.Command, " "))
		}
	}
}

// History groups logged commands by session.
type History struct {
	// Map of sessionID -> session history.
	sessions map[string]*SessionHistory
	// Session IDs in first-seen order so output is reproducible.
	order []string
}

func (h *History) init() {
	if h.sessions == nil {
		h.sessions = make(map[string]*SessionHistory)
	}
}

func (h *History) Update(e *Event) {
	h.init()

	sessionID := e.SessionID
	if sessionID == "" {
		return
	}
	session, ok := h.sessions[sessionID]
	if !ok {
		session = &SessionHistory{ID: sessionID}
		h.sessions[sessionID] = session
		h.order = append(h.order, sessionID)
	}

	session.update(e)
}

// Sessions returns the session histories in first-seen order.
func (h *History) Sessions() []*SessionHistory {
	h.init()

	out := make([]*SessionHistory, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.sessions[id])
	}
	return out
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the count for the given key.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implements a custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of multi-column paths seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Len returns the number of distinct paths seen.
func (ctr *PathCounter) Len() int {
	return len(ctr.internal)
}

// MarshalJSON implements a custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}

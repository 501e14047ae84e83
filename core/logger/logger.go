package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"
)

// Recorder is a callback that stores events in an external datastore.
type Recorder func(e *Event) error

// Logger captures shell activity events.
type Logger struct {
	Record Recorder
}

// NewJSONLinesRecorder creates a Logger that exports events in newline
// delimited JSON object format. Writes are serialized so concurrent sessions
// can't interleave entries.
func NewJSONLinesRecorder(w io.Writer) *Logger {
	var mu sync.Mutex
	return &Logger{
		Record: func(e *Event) error {
			entry, err := json.Marshal(e)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// NewNopRecorder creates a Logger that discards all events.
func NewNopRecorder() *Logger {
	return &Logger{
		Record: func(e *Event) error { return nil },
	}
}

func (l *Logger) recordPayload(sessionID string, payload Payload) error {
	e := &Event{
		TimestampMicros: time.Now().UnixMicro(),
		SessionID:       sessionID,
		Kind:            payload.kind(),
	}
	payload.attach(e)

	return l.Record(e)
}

// NewSession creates a logger with an attached random session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// Sessionless creates a logger with no session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: ""}
}

// SessionLogger logs events with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID returns the ID attached to every recorded event.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

func (l *SessionLogger) Record(payload Payload) error {
	return l.recordPayload(l.sessionID, payload)
}

package core

import (
	"sync"

	"pkt.systems/pslog"

	"github.com/gophersh/gosh/core/logger"
)

// Jobs reaps background children so they don't linger as zombies. The shell
// never blocks on a tracked child; reaping happens off the command loop and
// is recorded for diagnostics only.
type Jobs struct {
	events *logger.SessionLogger
	diag   pslog.Logger
	wg     sync.WaitGroup
}

func NewJobs(events *logger.SessionLogger, diag pslog.Logger) *Jobs {
	return &Jobs{events: events, diag: diag}
}

// Track takes ownership of a background child and reaps it when it finishes.
func (j *Jobs) Track(argv []string, proc Process) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		for {
			status, err := proc.Wait()
			if err != nil {
				j.diag.Error("background wait failed", "pid", proc.Pid(), "err", err)
				return
			}
			if status.Exited || status.Signaled {
				j.events.Record(&logger.BackgroundReaped{
					PID:        proc.Pid(),
					ExitStatus: statusToEvent(status),
				})
				j.diag.Debug("background command finished",
					"cmd", argv[0], "pid", proc.Pid(), "code", status.Code)
				return
			}
		}
	}()
}

// Wait blocks until every tracked child has been reaped. Useful for orderly
// shutdown and tests; the command loop never calls it.
func (j *Jobs) Wait() {
	j.wg.Wait()
}

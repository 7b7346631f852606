// Package progress connects the pipeline to an external progress sink and
// cancellation predicate. Both are optional.
package progress

import (
	"go.uber.org/zap"
)

// Reporter receives progress notifications. Implementations must not block.
type Reporter interface {
	Reset()
	SetLabelText(text string)
	SetTotalSteps(n int)
	SetProgress(i int)
}

// CancelFunc is polled at coarse checkpoints; returning true stops the
// current stage.
type CancelFunc func() bool

// Nop ignores every notification.
type Nop struct{}

func (Nop) Reset()              {}
func (Nop) SetLabelText(string) {}
func (Nop) SetTotalSteps(int)   {}
func (Nop) SetProgress(int)     {}

// LogReporter writes progress to a zap logger: labels at Info, steps at
// Debug every tenth of the total.
type LogReporter struct {
	Log *zap.Logger

	label string
	total int
	last  int
}

// NewLogReporter creates a reporter writing to log.
func NewLogReporter(log *zap.Logger) *LogReporter {
	return &LogReporter{Log: log}
}

func (r *LogReporter) Reset() {
	r.label, r.total, r.last = "", 0, -1
}

func (r *LogReporter) SetLabelText(text string) {
	r.label = text
	r.Log.Info(text)
}

func (r *LogReporter) SetTotalSteps(n int) {
	r.total = n
	r.last = -1
}

func (r *LogReporter) SetProgress(i int) {
	if r.total <= 0 {
		return
	}
	decile := i * 10 / r.total
	if decile == r.last {
		return
	}
	r.last = decile
	r.Log.Debug("progress", zap.String("stage", r.label), zap.Int("step", i), zap.Int("total", r.total))
}

// Stage tracks one pipeline stage. A nil *Stage reports nothing and is
// never canceled.
type Stage struct {
	reporter Reporter
	cancel   CancelFunc
	step     int
	canceled bool
}

// Begin labels a new stage of total steps.
func Begin(r Reporter, cancel CancelFunc, label string, total int) *Stage {
	if r == nil {
		r = Nop{}
	}
	r.SetLabelText(label)
	r.SetTotalSteps(total)
	r.SetProgress(0)
	return &Stage{reporter: r, cancel: cancel}
}

// Step advances the stage by one and reports whether work may continue.
func (s *Stage) Step() bool {
	if s == nil {
		return true
	}
	s.step++
	s.reporter.SetProgress(s.step)
	return !s.Canceled()
}

// Canceled polls the cancellation predicate. Once canceled, a stage stays
// canceled.
func (s *Stage) Canceled() bool {
	if s == nil {
		return false
	}
	if !s.canceled && s.cancel != nil && s.cancel() {
		s.canceled = true
	}
	return s.canceled
}

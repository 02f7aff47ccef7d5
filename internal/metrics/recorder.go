// Package metrics records per-run provisioning metrics. Components receive a
// domain.Recorder; NoopRecorder is the default when no metrics path is
// configured.
package metrics

import (
	"time"

	"devboot/internal/domain"
)

// Outcome labels for the run counter.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStage(string, domain.Stage, time.Duration) {}
func (NoopRecorder) RecordStrategy(string, domain.StrategyKind)       {}
func (NoopRecorder) RecordInstall(string, bool)                       {}
func (NoopRecorder) RecordOutcome(string, string)                     {}

package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"devboot/internal/domain"
	derrors "devboot/internal/errors"
	"devboot/internal/logfields"
	"devboot/internal/metrics"
)

// run tracks one pass through the stage machine.
type run struct {
	id       string
	module   string
	stage    domain.Stage
	since    time.Time
	logger   domain.Logger
	recorder domain.Recorder
}

func (s *Service) begin(module string) *run {
	id := uuid.NewString()
	return &run{
		id:       id,
		module:   module,
		logger:   scoped(s.logger, logfields.RunID(id), logfields.Module(module)),
		recorder: s.recorder,
	}
}

func (r *run) observe() {
	if r.stage != "" {
		r.recorder.ObserveStage(r.module, r.stage, time.Since(r.since))
	}
}

func (r *run) enter(next domain.Stage) {
	r.observe()
	r.logger.Info("stage transition", "from", string(r.stage), logfields.Stage(string(next)))
	r.stage = next
	r.since = time.Now()
}

// checkpoint aborts between stages once the run has been cancelled.
func (r *run) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}
	return nil
}

// fail moves the run to Failed(stage, reason). Unclassified errors are tagged
// with the current stage so the caller can still report where it happened.
func (r *run) fail(err error) error {
	r.observe()
	outcome := metrics.OutcomeFailed
	if errors.Is(err, context.Canceled) {
		outcome = metrics.OutcomeCanceled
	}
	r.recorder.RecordOutcome(r.module, outcome)
	r.logger.Error("run failed", logfields.Stage(string(r.stage)), logfields.Error(err))

	if _, ok := derrors.As(err); !ok {
		err = derrors.Wrap(err, derrors.KindInternal, string(r.stage)+" failed").At(r.stage).Build()
	}
	return err
}

func (r *run) succeed() {
	r.enter(domain.StageStarted)
	r.recorder.RecordOutcome(r.module, metrics.OutcomeSuccess)
}

type withLogger interface {
	With(args ...any) *slog.Logger
}

// scoped attaches attrs to every record of l.
func scoped(l domain.Logger, attrs ...any) domain.Logger {
	if w, ok := l.(withLogger); ok {
		return w.With(attrs...)
	}
	return prefixedLogger{next: l, attrs: attrs}
}

type prefixedLogger struct {
	next  domain.Logger
	attrs []any
}

func (p prefixedLogger) Info(msg string, args ...any) {
	p.next.Info(msg, append(append([]any(nil), p.attrs...), args...)...)
}

func (p prefixedLogger) Error(msg string, args ...any) {
	p.next.Error(msg, append(append([]any(nil), p.attrs...), args...)...)
}

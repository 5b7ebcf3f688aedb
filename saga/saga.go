// Package saga runs a sequence of steps and undoes the completed ones, last
// first, when a later step fails.
package saga

import (
	"context"
	"log/slog"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
)

const DefaultCompensationTimeout = 10 * time.Second

// Step is one unit of work. Compensate must undo Execute and is only called
// after Execute succeeded.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Func adapts plain functions to a Step. A nil compensate means the step has
// nothing to undo.
type Func struct {
	StepName     string
	ExecuteFn    func(ctx context.Context) error
	CompensateFn func(ctx context.Context) error
}

func (f Func) Name() string { return f.StepName }

func (f Func) Execute(ctx context.Context) error { return f.ExecuteFn(ctx) }

func (f Func) Compensate(ctx context.Context) error {
	if f.CompensateFn == nil {
		return nil
	}
	return f.CompensateFn(ctx)
}

type Orchestrator struct {
	name    string
	steps   []Step
	timeout time.Duration
}

func NewOrchestrator(name string, steps ...Step) *Orchestrator {
	return &Orchestrator{name: name, steps: steps, timeout: DefaultCompensationTimeout}
}

// Run executes the steps in order. On failure it compensates the completed
// steps once each and returns the failing step's error.
func (o *Orchestrator) Run(ctx context.Context) error {
	log := logging.FromCtx(ctx).With("saga", o.name)
	done := make([]Step, 0, len(o.steps))

	for _, step := range o.steps {
		log.Debug("saga step", "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			log.Warn("saga step failed, rolling back", "step", step.Name(), "err", err)
			o.rollback(ctx, log, done)
			return err
		}
		done = append(done, step)
	}
	return nil
}

// rollback runs detached from ctx so a cancelled request still compensates.
func (o *Orchestrator) rollback(ctx context.Context, log *slog.Logger, done []Step) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if err := step.Compensate(ctx); err != nil {
			log.Error("CRITICAL: failed to compensate", "step", step.Name(), "err", err)
			continue
		}
		log.Info("compensated", "step", step.Name())
	}
}

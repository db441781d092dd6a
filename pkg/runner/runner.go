// Package runner drives a pipeline for the configured number of results and
// hands every result to the outputs.
package runner

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/ericogr/yadl/pkg/aggregate"
	"github.com/ericogr/yadl/pkg/logging"
	"github.com/ericogr/yadl/pkg/output"
)

type State int32

const (
	Idle State = iota
	Initializing
	Polling
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Polling:
		return "polling"
	case Draining:
		return "draining"
	case Done:
		return "done"
	}
	return "unknown"
}

// Producer makes one result per call; *aggregate.Pipeline is the real one.
type Producer interface {
	ProduceResult(ctx context.Context) (aggregate.Result, error)
}

// NamedEncoder is an output and the format name it was opened with. When
// Encoder is nil, Run calls Open while Initializing.
type NamedEncoder struct {
	Name    string
	Encoder output.Encoder
	Open    func() (output.Encoder, error)
}

// ErrAllOutputsFailed stops polling once no output is left to write to.
var ErrAllOutputsFailed = errors.New("every output failed")

// Runner is single use: Run may be called once. The loop itself runs on the
// caller's goroutine; State is safe to call from any goroutine while it runs.
type Runner struct {
	Pipeline Producer
	Encoders []NamedEncoder
	// Results is the number of results to take; negative polls until ctx
	// is cancelled.
	Results             int
	ResultDelay         time.Duration
	OnlyLogValueChanges bool
	Clock               clock.Clock
	Logger              logging.Logger

	state      atomic.Int32
	failed     []bool
	lastValues []float64
}

func (r *Runner) State() State { return State(r.state.Load()) }

func (r *Runner) setState(s State) {
	r.state.Store(int32(s))
	r.Logger.Debugf("runner %s", s)
}

// Run opens the outputs, polls and then closes every output, even when
// polling failed. An output that cannot be opened is fatal: the outputs
// already open are closed and polling never starts. A cancelled ctx ends polling cleanly and is not an error.
// An output that fails is dropped for the rest of the run; its error is
// still returned.
func (r *Runner) Run(ctx context.Context) error {
	if r.Clock == nil {
		r.Clock = clock.New()
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	r.failed = make([]bool, len(r.Encoders))

	r.setState(Initializing)
	if err := r.open(); err != nil {
		r.setState(Done)
		return err
	}
	var errs error
	for i, e := range r.Encoders {
		if h, ok := e.Encoder.(output.HeaderWriter); ok {
			if err := h.WriteHeader(); err != nil {
				errs = multierr.Append(errs, r.fail(i, "write header", err))
			}
		}
	}

	r.setState(Polling)
	var pollErr error
	if r.live() == 0 {
		pollErr = ErrAllOutputsFailed
	} else {
		pollErr = r.poll(ctx, &errs)
	}

	r.setState(Draining)
	for i, e := range r.Encoders {
		if f, ok := e.Encoder.(output.FooterWriter); ok && !r.failed[i] {
			if err := f.WriteFooter(); err != nil {
				errs = multierr.Append(errs, r.fail(i, "write footer", err))
			}
		}
		if err := e.Encoder.Close(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "%s output: close", e.Name))
		}
	}
	r.setState(Done)
	return multierr.Combine(pollErr, errs)
}

// open opens every output that is not open yet, in configuration order.
func (r *Runner) open() error {
	for i := range r.Encoders {
		e := &r.Encoders[i]
		if e.Encoder != nil {
			continue
		}
		if e.Open == nil {
			return errors.Errorf("%s output: nothing to open", e.Name)
		}
		enc, err := e.Open()
		if err != nil {
			err = errors.Wrapf(err, "%s output", e.Name)
			for _, o := range r.Encoders[:i] {
				err = multierr.Append(err, o.Encoder.Close())
			}
			return err
		}
		e.Encoder = enc
	}
	return nil
}

func (r *Runner) poll(ctx context.Context, errs *error) error {
	for i := 0; r.Results < 0 || i < r.Results; i++ {
		if i > 0 {
			if err := aggregate.Sleep(ctx, r.Clock, r.ResultDelay); err != nil {
				return r.stopped(err)
			}
		}
		if err := ctx.Err(); err != nil {
			return r.stopped(err)
		}
		res, err := r.Pipeline.ProduceResult(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return r.stopped(ctx.Err())
			}
			return err
		}
		if r.OnlyLogValueChanges && r.unchanged(res.Values) {
			r.Logger.Debugf("result %d unchanged, not written", i)
			continue
		}
		r.lastValues = res.Values
		r.dispatch(i, res, errs)
		if r.live() == 0 {
			return ErrAllOutputsFailed
		}
	}
	return nil
}

// dispatch hands res to every live output, in configuration order.
func (r *Runner) dispatch(index int, res aggregate.Result, errs *error) {
	for i, e := range r.Encoders {
		if r.failed[i] {
			continue
		}
		if err := e.Encoder.WriteResult(index, res); err != nil {
			*errs = multierr.Append(*errs, r.fail(i, "write result", err))
		}
	}
}

func (r *Runner) fail(i int, op string, err error) error {
	r.failed[i] = true
	err = errors.Wrapf(err, "%s output: %s", r.Encoders[i].Name, op)
	r.Logger.Errorf("%v; output disabled", err)
	return err
}

func (r *Runner) live() int {
	n := 0
	for _, f := range r.failed {
		if !f {
			n++
		}
	}
	return n
}

func (r *Runner) stopped(err error) error {
	r.Logger.Infof("stopping: %v", err)
	return nil
}

func (r *Runner) unchanged(values []float64) bool {
	if r.lastValues == nil || len(values) != len(r.lastValues) {
		return false
	}
	for i, v := range values {
		if v != r.lastValues[i] {
			return false
		}
	}
	return true
}

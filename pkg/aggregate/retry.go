package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/ericogr/yadl/pkg/logging"
	"github.com/ericogr/yadl/pkg/sensor"
)

// ErrRetriesExhausted is matched by errors.Is on every *ExhaustedError.
var ErrRetriesExhausted = errors.New("retries exhausted")

// ExhaustedError is returned when every attempt to read the sensor failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("sensor failed %d reads in a row, last error: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return ErrRetriesExhausted }

// Retry reads a sensor until it returns a usable sample, at most Max times,
// waiting Delay between attempts.
type Retry struct {
	Max    int
	Delay  time.Duration
	Clock  clock.Clock
	Logger logging.Logger
}

// Acquire returns the first good sample. It never waits before the first
// attempt and stops early when ctx is done.
func (r Retry) Acquire(ctx context.Context, s sensor.Sensor) (sensor.Sample, error) {
	clk, logger := orDefaults(r.Clock, r.Logger)
	fields := s.Fields()
	var last error
	for attempt := 1; attempt <= r.Max; attempt++ {
		if attempt > 1 {
			if err := Sleep(ctx, clk, r.Delay); err != nil {
				return sensor.Sample{}, err
			}
		}
		sample, err := s.Read(ctx)
		if err == nil {
			err = sample.Validate(fields)
		}
		if err == nil {
			return sample, nil
		}
		if ctx.Err() != nil {
			return sensor.Sample{}, ctx.Err()
		}
		last = err
		logger.Debugf("bad reading (attempt %d of %d): %v", attempt, r.Max, err)
	}
	return sensor.Sample{}, &ExhaustedError{Attempts: r.Max, Last: last}
}

// Sleep waits for d on clk, returning early with ctx.Err() when ctx is done.
func Sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}

func orDefaults(clk clock.Clock, logger logging.Logger) (clock.Clock, logging.Logger) {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return clk, logger
}

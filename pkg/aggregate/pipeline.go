// Package aggregate turns many sensor samples into one filtered result.
package aggregate

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/ericogr/yadl/pkg/filter"
	"github.com/ericogr/yadl/pkg/logging"
	"github.com/ericogr/yadl/pkg/sensor"
)

// Result is one aggregated reading, ready for the outputs. Units is empty
// when the sensor reports none.
type Result struct {
	Fields    []string
	Values    []float64
	Units     []string
	Timestamp time.Time
}

// Unit returns the unit of field i, or "".
func (r Result) Unit(i int) string {
	if i < len(r.Units) {
		return r.Units[i]
	}
	return ""
}

// Pipeline collects Samples retried readings, trims Trim outliers from both
// ends of every field and reduces what is left with Filter.
type Pipeline struct {
	Sensor      sensor.Sensor
	Retry       Retry
	Samples     int
	SampleDelay time.Duration
	Trim        int
	Filter      filter.Func
	Clock       clock.Clock
	Logger      logging.Logger
}

// ProduceResult takes one result. Units come from the first sample.
func (p *Pipeline) ProduceResult(ctx context.Context) (Result, error) {
	if p.Samples <= 2*p.Trim {
		return Result{}, errors.Errorf("%d samples leave nothing after trimming %d from each end", p.Samples, p.Trim)
	}
	clk, logger := orDefaults(p.Clock, p.Logger)
	fields := p.Sensor.Fields()

	lists := make([]*SortedList, len(fields))
	for i := range lists {
		lists[i] = NewSortedList(p.Samples)
	}
	var units []string
	for i := 0; i < p.Samples; i++ {
		if i > 0 {
			if err := Sleep(ctx, clk, p.SampleDelay); err != nil {
				return Result{}, err
			}
		}
		s, err := p.Retry.Acquire(ctx, p.Sensor)
		if err != nil {
			return Result{}, err
		}
		if i == 0 {
			units = s.Units
		}
		logger.Debugw("sample", "n", i, "values", s.Values)
		for f, v := range s.Values {
			lists[f].Insert(v)
		}
	}

	values := make([]float64, len(fields))
	for f, l := range lists {
		l.Trim(p.Trim)
		logger.Debugw("trimmed", "field", fields[f], "values", l.Values())
		v, err := p.Filter(l.Values())
		if err != nil {
			return Result{}, errors.Wrapf(err, "filter %s", fields[f])
		}
		values[f] = v
	}
	return Result{
		Fields:    fields,
		Values:    values,
		Units:     units,
		Timestamp: clk.Now(),
	}, nil
}

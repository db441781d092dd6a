package config

import (
	"fmt"
	"strings"
)

// Error is a configuration problem detected before any hardware is touched.
type Error struct {
	Option string
	Msg    string
}

func (e *Error) Error() string {
	if e.Option == "" {
		return e.Msg
	}
	return fmt.Sprintf("--%s: %s", e.Option, e.Msg)
}

// Errorf builds an *Error for the given command line option.
func Errorf(option, format string, args ...interface{}) error {
	return &Error{Option: option, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks the option combinations that do not depend on which sensor,
// ADC, filter or output was selected.
func (c Config) Validate() error {
	switch {
	case c.NumSamplesPerResult <= 0:
		return Errorf("num_samples_per_result", "must be > 0")
	case c.RemoveNSamplesFromEnds < 0:
		return Errorf("remove_n_samples_from_ends", "must be >= 0")
	case c.NumSamplesPerResult <= c.RemoveNSamplesFromEnds*2:
		return Errorf("remove_n_samples_from_ends", "* 2 must be less than --num_samples_per_result")
	case c.MaxRetries <= 0:
		return Errorf("max_retries", "must be > 0")
	case c.SleepMillisBetweenRetries < 0, c.SleepMillisBetweenSamples < 0, c.SleepMillisBetweenResults < 0:
		return Errorf("", "sleep intervals must be >= 0")
	case c.Daemon && c.Debug && c.Logfile == "":
		return Errorf("logfile", "must be specified with --daemon")
	case strings.TrimSpace(c.Sensor) == "":
		return Errorf("sensor", "must be specified")
	case len(c.Outputs) == 0:
		return Errorf("output", "at least one output must be specified")
	}

	withFile := 0
	for _, o := range c.Outputs {
		if o.File != "" {
			withFile++
		}
	}
	if c.Daemon && withFile != len(c.Outputs) {
		return Errorf("outfile", "must be specified for every output with --daemon")
	}
	if len(c.Outputs) > 1 && withFile != len(c.Outputs) {
		return Errorf("outfile", "the same number of --output and --outfile arguments is required")
	}
	return nil
}

// RequirePin fails when a GPIO option was left unset.
func RequirePin(option string, pin int) error {
	if pin < 0 {
		return Errorf(option, "must be specified")
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/ericogr/yadl/pkg/adc"
	"github.com/ericogr/yadl/pkg/aggregate"
	"github.com/ericogr/yadl/pkg/bus"
	"github.com/ericogr/yadl/pkg/config"
	"github.com/ericogr/yadl/pkg/daemon"
	"github.com/ericogr/yadl/pkg/filter"
	"github.com/ericogr/yadl/pkg/logging"
	"github.com/ericogr/yadl/pkg/output"
	"github.com/ericogr/yadl/pkg/runner"
	"github.com/ericogr/yadl/pkg/sensor"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "yadl: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "yadl",
		Usage: "yet another data logger: sample a sensor, filter, write the results",
		Flags: config.Flags(),
		Action: func(c *cli.Context) error {
			cfg, err := config.FromCLI(c)
			if err != nil {
				return err
			}
			return run(c.Context, cfg)
		},
		HideHelpCommand: true,
	}
}

// validate rejects every bad option before any hardware is touched.
func validate(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := sensor.Validate(cfg.Sensor, cfg); err != nil {
		return err
	}
	if _, err := filter.Lookup(cfg.Filter); err != nil {
		return err
	}
	for _, o := range cfg.Outputs {
		if err := output.Validate(o.Type); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, cfg config.Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	if cfg.Daemon {
		if !daemon.IsChild() {
			pid, err := daemon.Detach()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "yadl: running in the background as pid %d\n", pid)
			return nil
		}
		if err := absPaths(&cfg); err != nil {
			return err
		}
		if err := daemon.Settle(); err != nil {
			return err
		}
	}

	logger, closeLog := logging.New(cfg.Debug, cfg.Logfile)
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := bus.NewPeriph(cfg.I2CBus, cfg.SPIBus)
	err := collect(ctx, cfg, board, clock.New(), logger)
	return multierr.Append(err, board.Close())
}

// collect builds the sensor, pipeline and outputs on board and runs them.
func collect(ctx context.Context, cfg config.Config, board bus.Board, clk clock.Clock, logger logging.Logger) (err error) {
	deps := sensor.Deps{Config: cfg, Board: board, Logger: logger, Clock: clk}
	usesADC, err := sensor.UsesADC(cfg.Sensor)
	if err != nil {
		return err
	}
	if usesADC {
		if deps.ADC, err = adc.New(cfg.ADC, board, cfg, clk); err != nil {
			return errors.Wrapf(err, "adc %s", cfg.ADC)
		}
	}
	s, err := sensor.New(cfg.Sensor, deps)
	if err != nil {
		return errors.Wrapf(err, "sensor %s", cfg.Sensor)
	}
	defer func() { err = multierr.Append(err, s.Close()) }()
	if err := sensor.Init(ctx, s); err != nil {
		return errors.Wrapf(err, "init sensor %s", cfg.Sensor)
	}

	f, err := filter.Lookup(cfg.Filter)
	if err != nil {
		return err
	}
	encoders := outputOpeners(cfg, s.Fields())

	logger.Debugf("sampling %s, fields %v", cfg.Sensor, s.Fields())
	r := &runner.Runner{
		Pipeline: &aggregate.Pipeline{
			Sensor: s,
			Retry: aggregate.Retry{
				Max:    cfg.MaxRetries,
				Delay:  cfg.RetryDelay(),
				Clock:  clk,
				Logger: logger,
			},
			Samples:     cfg.NumSamplesPerResult,
			SampleDelay: cfg.SampleDelay(),
			Trim:        cfg.RemoveNSamplesFromEnds,
			Filter:      f,
			Clock:       clk,
			Logger:      logger,
		},
		Encoders:            encoders,
		Results:             cfg.NumResults,
		ResultDelay:         cfg.ResultDelay(),
		OnlyLogValueChanges: cfg.OnlyLogValueChanges,
		Clock:               clk,
		Logger:              logger,
	}
	return r.Run(ctx)
}

// outputOpeners defers opening every output to the runner, in configuration
// order.
func outputOpeners(cfg config.Config, fields []string) []runner.NamedEncoder {
	opts := output.Options{Fields: fields, RRDFile: cfg.RRDFile}
	encoders := make([]runner.NamedEncoder, 0, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		encoders = append(encoders, runner.NamedEncoder{
			Name: o.Type,
			Open: func() (output.Encoder, error) { return output.Open(o.Type, o.File, opts) },
		})
	}
	return encoders
}

// absPaths resolves every file option against the starting directory, which
// the background process leaves.
func absPaths(cfg *config.Config) error {
	paths := []*string{&cfg.Logfile, &cfg.W1Dir}
	for i := range cfg.Outputs {
		paths = append(paths, &cfg.Outputs[i].File)
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", *p)
		}
		*p = abs
	}
	return nil
}

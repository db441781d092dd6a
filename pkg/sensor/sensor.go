// Package sensor defines the sensors yadl can sample and the registry that
// selects one by name.
package sensor

import (
	"context"
	"sort"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/ericogr/yadl/pkg/adc"
	"github.com/ericogr/yadl/pkg/bus"
	"github.com/ericogr/yadl/pkg/config"
	"github.com/ericogr/yadl/pkg/logging"
)

// Sample is one reading of every field of a sensor. Values are positional,
// matching Sensor.Fields. Units is either empty or the same length as Values.
type Sample struct {
	Values []float64
	Units  []string
}

// Validate reports a sample that does not line up with fields.
func (s Sample) Validate(fields []string) error {
	if len(s.Values) != len(fields) {
		return errors.Errorf("sample has %d values, want %d", len(s.Values), len(fields))
	}
	if len(s.Units) != 0 && len(s.Units) != len(s.Values) {
		return errors.Errorf("sample has %d units for %d values", len(s.Units), len(s.Values))
	}
	return nil
}

type Sensor interface {
	// Fields names the values of every Sample, in order. It never changes.
	Fields() []string
	// Read takes one sample. Any error is treated as a bad reading and the
	// read is retried.
	Read(ctx context.Context) (Sample, error)
	Close() error
}

// Initializer is implemented by sensors that need one-time setup before the
// first Read, such as loading calibration data.
type Initializer interface {
	Init(ctx context.Context) error
}

// Deps carries everything a sensor may be built from. ADC is nil unless the
// sensor reads through one.
type Deps struct {
	Config config.Config
	Board  bus.Board
	ADC    adc.ADC
	Logger logging.Logger
	Clock  clock.Clock
}

type Constructor func(d Deps) (Sensor, error)

type registration struct {
	constructor Constructor
	validate    func(cfg config.Config) error
	usesADC     bool
}

var registry = map[string]registration{
	"digital":      {constructor: newDigital, validate: validateDigital},
	"counter":      {constructor: newCounter, validate: validateCounter},
	"analog":       {constructor: newAnalog, usesADC: true},
	"tmp36":        {constructor: newTMP36, validate: validateTemperatureUnit, usesADC: true},
	"dht11":        {constructor: newDHT(dht11), validate: validateDHT},
	"dht22":        {constructor: newDHT(dht22), validate: validateDHT},
	"ds18b20":      {constructor: newDS18B20, validate: validateDS18B20},
	"bmp180":       {constructor: newBMP180, validate: validateTemperatureUnit},
	"bme280":       {constructor: newBME280, validate: validateTemperatureUnit},
	"argent_80422": {constructor: newArgent80422, validate: validateArgent80422, usesADC: true},
	"simulation":   {constructor: newSimulation},
}

// Names lists the supported sensors.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (registration, error) {
	r, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return registration{}, config.Errorf("sensor", "unknown sensor %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return r, nil
}

// UsesADC reports whether the named sensor reads through an ADC.
func UsesADC(name string) (bool, error) {
	r, err := lookup(name)
	if err != nil {
		return false, err
	}
	return r.usesADC, nil
}

// Validate checks that name is a known sensor and that every option it needs
// is set, including its ADC. It never touches the hardware.
func Validate(name string, cfg config.Config) error {
	r, err := lookup(name)
	if err != nil {
		return err
	}
	if r.usesADC {
		if cfg.ADC == "" {
			return config.Errorf("adc", "must be specified for sensor %s", name)
		}
		if err := adc.Validate(cfg.ADC, cfg); err != nil {
			return err
		}
		if cfg.AnalogChannel < 0 {
			return config.Errorf("analog_channel", "must be specified")
		}
	}
	if r.validate != nil {
		return r.validate(cfg)
	}
	return nil
}

// New builds the sensor called name (case-insensitive). It does not run Init.
func New(name string, d Deps) (Sensor, error) {
	r, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if r.usesADC && d.ADC == nil {
		return nil, errors.Errorf("sensor %s needs an ADC", name)
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	return r.constructor(d)
}

// Init runs s's one-time setup when it has any.
func Init(ctx context.Context, s Sensor) error {
	if i, ok := s.(Initializer); ok {
		return i.Init(ctx)
	}
	return nil
}

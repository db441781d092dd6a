// Package adc reads analog-to-digital converters attached over SPI or I2C.
package adc

import (
	"context"
	"sort"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/ericogr/yadl/pkg/bus"
	"github.com/ericogr/yadl/pkg/config"
)

// ADC returns raw conversions for one analog channel at a time.
type ADC interface {
	ReadRaw(ctx context.Context, channel int) (int, error)
	// MaxValue is the raw reading that corresponds to the reference voltage.
	MaxValue() int
}

// Constructor builds an ADC on the given board.
type Constructor func(b bus.Board, cfg config.Config, clk clock.Clock) (ADC, error)

type registration struct {
	constructor Constructor
	validate    func(cfg config.Config) error
}

var registry = map[string]registration{
	"mcp3002": {constructor: newMCP300x(2), validate: requireSPIChannel},
	"mcp3004": {constructor: newMCP300x(4), validate: requireSPIChannel},
	"mcp3008": {constructor: newMCP300x(8), validate: requireSPIChannel},
	"pcf8591": {constructor: newPCF8591, validate: requireI2CAddress},
	"ads1115": {constructor: newADS1115, validate: validateADS1115},
}

// Names lists the supported ADCs.
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
		return registration{}, config.Errorf("adc", "unknown ADC %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return r, nil
}

// Validate checks that name is a known ADC and that its options are present.
func Validate(name string, cfg config.Config) error {
	r, err := lookup(name)
	if err != nil {
		return err
	}
	return r.validate(cfg)
}

// New builds the ADC called name (case-insensitive).
func New(name string, b bus.Board, cfg config.Config, clk clock.Clock) (ADC, error) {
	r, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return r.constructor(b, cfg, clk)
}

// Millivolts converts a raw reading into millivolts at the ADC input,
// scaled by multiplier to undo an external voltage divider.
func Millivolts(raw, maxValue, refMillivolts int, multiplier float64) float64 {
	return float64(raw) / float64(maxValue) * float64(refMillivolts) * multiplier
}

func requireSPIChannel(cfg config.Config) error {
	if cfg.SPIChannel < 0 {
		return config.Errorf("spi_channel", "must be specified")
	}
	return nil
}

func requireI2CAddress(cfg config.Config) error {
	if cfg.I2CAddress < 0 {
		return config.Errorf("i2c_address", "must be specified")
	}
	return nil
}

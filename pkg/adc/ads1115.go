package adc

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"

	"github.com/ericogr/yadl/pkg/bus"
	"github.com/ericogr/yadl/pkg/config"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01

	ads1115DefaultAddr = 0x48
)

// ads1115 is a 16-bit TI ADS1115 read in single-shot mode at ±4.096V.
type ads1115 struct {
	dev        *i2c.Dev
	sampleRate int
	clk        clock.Clock
}

// ads1115Rates maps samples per second to the DR bits of the config register.
var ads1115Rates = map[int]byte{8: 0, 16: 1, 32: 2, 64: 3, 128: 4, 250: 5, 475: 6, 860: 7}

func validateADS1115(cfg config.Config) error {
	if _, ok := ads1115Rates[cfg.ADCSampleRate]; !ok {
		return config.Errorf("adc_sample_rate", "unsupported ads1115 rate %d", cfg.ADCSampleRate)
	}
	return nil
}

func newADS1115(b bus.Board, cfg config.Config, clk clock.Clock) (ADC, error) {
	i2cBus, err := b.I2C()
	if err != nil {
		return nil, err
	}
	addr := cfg.I2CAddress
	if addr < 0 {
		addr = ads1115DefaultAddr
	}
	return &ads1115{
		dev:        &i2c.Dev{Addr: uint16(addr), Bus: i2cBus},
		sampleRate: cfg.ADCSampleRate,
		clk:        clk,
	}, nil
}

// MaxValue is the positive full scale of the signed conversion.
func (s *ads1115) MaxValue() int { return 32767 }

func (s *ads1115) ReadRaw(ctx context.Context, channel int) (int, error) {
	msb, lsb, err := s.configForChannel(channel, s.sampleRate)
	if err != nil {
		return 0, err
	}
	if err := s.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
		return 0, errors.Wrap(err, "write config")
	}
	// wait for the conversion
	delayMs := int(1000.0/float64(s.sampleRate)) + 2
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-s.clk.After(time.Duration(delayMs) * time.Millisecond):
	}
	readBuf := make([]byte, 2)
	if err := s.dev.Tx([]byte{pointerConv}, readBuf); err != nil {
		return 0, errors.Wrap(err, "read conv")
	}
	return int(int16(readBuf[0])<<8 | int16(readBuf[1])), nil
}

// configForChannel builds the config register for a single-shot, single-ended
// conversion of channel at ±4.096V with the comparator disabled.
func (s *ads1115) configForChannel(channel, sampleRate int) (byte, byte, error) {
	if channel < 0 || channel > 3 {
		return 0, 0, errors.Errorf("ads1115: invalid channel %d", channel)
	}
	dr, ok := ads1115Rates[sampleRate]
	if !ok {
		dr = ads1115Rates[128]
	}
	const (
		startConversion = 0x8000
		pga4096         = 0x1 << 9
		singleShot      = 0x1 << 8
		compDisabled    = 0x3
	)
	reg := uint16(startConversion|pga4096|singleShot|compDisabled) |
		uint16(0x4+channel)<<12 |
		uint16(dr)<<5
	return byte(reg >> 8), byte(reg), nil
}

package adc

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"

	"github.com/ericogr/yadl/pkg/bus"
	"github.com/ericogr/yadl/pkg/config"
)

const pcf8591Control = 0x40 // analog output enable, single-ended inputs

// pcf8591 is an 8-bit, four channel NXP PCF8591 on the I2C bus.
type pcf8591 struct {
	dev *i2c.Dev
}

func newPCF8591(b bus.Board, cfg config.Config, _ clock.Clock) (ADC, error) {
	i2cBus, err := b.I2C()
	if err != nil {
		return nil, err
	}
	return &pcf8591{dev: &i2c.Dev{Addr: uint16(cfg.I2CAddress), Bus: i2cBus}}, nil
}

func (p *pcf8591) MaxValue() int { return 255 }

func (p *pcf8591) ReadRaw(ctx context.Context, channel int) (int, error) {
	if channel < 0 || channel > 3 {
		return 0, errors.Errorf("pcf8591: invalid channel %d", channel)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := p.dev.Tx([]byte{pcf8591Control | byte(channel)}, nil); err != nil {
		return 0, errors.Wrap(err, "write control")
	}
	// The first byte read is the result of the previous conversion.
	buf := make([]byte, 2)
	if err := p.dev.Tx(nil, buf); err != nil {
		return 0, errors.Wrap(err, "read conversion")
	}
	return int(buf[1]), nil
}

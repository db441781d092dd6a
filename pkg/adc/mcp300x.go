package adc

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/spi"

	"github.com/ericogr/yadl/pkg/bus"
	"github.com/ericogr/yadl/pkg/config"
)

// mcp300x is a 10-bit Microchip MCP3002, MCP3004 or MCP3008 in single-ended
// mode.
type mcp300x struct {
	conn     spi.Conn
	channels int
}

func newMCP300x(channels int) Constructor {
	return func(b bus.Board, cfg config.Config, _ clock.Clock) (ADC, error) {
		c, err := b.SPI(cfg.SPIChannel)
		if err != nil {
			return nil, err
		}
		return &mcp300x{conn: c, channels: channels}, nil
	}
}

func (m *mcp300x) MaxValue() int { return 1023 }

func (m *mcp300x) ReadRaw(ctx context.Context, channel int) (int, error) {
	if channel < 0 || channel >= m.channels {
		return 0, errors.Errorf("mcp300%d: invalid channel %d", m.channels, channel)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tx := m.frame(channel)
	rx := make([]byte, len(tx))
	if err := m.conn.Tx(tx, rx); err != nil {
		return 0, errors.Wrap(err, "spi transfer")
	}
	if m.channels == 2 {
		return int(rx[0]&0x03)<<8 | int(rx[1]), nil
	}
	return int(rx[1]&0x03)<<8 | int(rx[2]), nil
}

func (m *mcp300x) frame(channel int) []byte {
	if m.channels == 2 {
		// start, single-ended, channel select, MSB first
		return []byte{0x68 | byte(channel)<<4, 0x00}
	}
	return []byte{0x01, 0x80 | byte(channel)<<4, 0x00}
}

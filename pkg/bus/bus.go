// Package bus gives sensors and ADCs access to the board's I2C, SPI and GPIO
// lines through periph.io.
package bus

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPIFrequency is the clock used for every SPI device. The MCP300x family is
// rated for 1.35MHz at 2.7V.
const SPIFrequency = physic.MegaHertz

// Board hands out the buses a sensor or ADC needs. Buses are opened on first
// use and stay open until Close.
type Board interface {
	I2C() (i2c.Bus, error)
	SPI(channel int) (spi.Conn, error)
	GPIO(pin int) (gpio.PinIO, error)
	Close() error
}

type periphBoard struct {
	i2cName string
	spiBus  string

	initOnce sync.Once
	initErr  error

	i2c   i2c.BusCloser
	ports map[int]spi.PortCloser
	conns map[int]spi.Conn
}

// NewPeriph returns a Board backed by the host drivers. Nothing touches the
// hardware until a bus is requested.
func NewPeriph(i2cBus, spiBus string) Board {
	return &periphBoard{
		i2cName: i2cBus,
		spiBus:  spiBus,
		ports:   map[int]spi.PortCloser{},
		conns:   map[int]spi.Conn{},
	}
}

func (b *periphBoard) init() error {
	b.initOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			b.initErr = errors.Wrap(err, "host init")
		}
	})
	return b.initErr
}

func (b *periphBoard) I2C() (i2c.Bus, error) {
	if err := b.init(); err != nil {
		return nil, err
	}
	if b.i2c == nil {
		bus, err := i2creg.Open(b.i2cName)
		if err != nil {
			return nil, errors.Wrapf(err, "open i2c bus %q", b.i2cName)
		}
		b.i2c = bus
	}
	return b.i2c, nil
}

func (b *periphBoard) SPI(channel int) (spi.Conn, error) {
	if err := b.init(); err != nil {
		return nil, err
	}
	if c, ok := b.conns[channel]; ok {
		return c, nil
	}
	name := fmt.Sprintf("SPI%s.%d", b.spiBus, channel)
	port, err := spireg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	c, err := port.Connect(SPIFrequency, spi.Mode0, 8)
	if err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "connect %s", name), port.Close())
	}
	b.ports[channel] = port
	b.conns[channel] = c
	return c, nil
}

func (b *periphBoard) GPIO(pin int) (gpio.PinIO, error) {
	if err := b.init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(strconv.Itoa(pin))
	if p == nil {
		return nil, errors.Errorf("no gpio pin %d", pin)
	}
	return p, nil
}

func (b *periphBoard) Close() error {
	var err error
	if b.i2c != nil {
		err = multierr.Append(err, b.i2c.Close())
		b.i2c = nil
	}
	for ch, port := range b.ports {
		err = multierr.Append(err, port.Close())
		delete(b.ports, ch)
		delete(b.conns, ch)
	}
	return err
}

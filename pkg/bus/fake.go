package bus

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"
)

// Fake is a Board wired to in-memory devices, typically periph's i2ctest,
// spitest and gpiotest doubles.
type Fake struct {
	Bus   i2c.Bus
	Ports map[int]spi.Port
	Pins  map[int]gpio.PinIO

	conns map[int]spi.Conn
}

func (f *Fake) I2C() (i2c.Bus, error) {
	if f.Bus == nil {
		return nil, errors.New("fake board has no i2c bus")
	}
	return f.Bus, nil
}

func (f *Fake) SPI(channel int) (spi.Conn, error) {
	if c, ok := f.conns[channel]; ok {
		return c, nil
	}
	port, ok := f.Ports[channel]
	if !ok {
		return nil, errors.Errorf("fake board has no spi channel %d", channel)
	}
	c, err := port.Connect(SPIFrequency, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	if f.conns == nil {
		f.conns = map[int]spi.Conn{}
	}
	f.conns[channel] = c
	return c, nil
}

func (f *Fake) GPIO(pin int) (gpio.PinIO, error) {
	p, ok := f.Pins[pin]
	if !ok {
		return nil, errors.Errorf("no gpio pin %d", pin)
	}
	return p, nil
}

func (f *Fake) Close() error { return nil }

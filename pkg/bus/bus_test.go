package bus

import (
	"testing"

	"go.viam.com/test"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestFakeBoard(t *testing.T) {
	port := &spitest.Playback{Playback: conntest.Playback{
		Ops: []conntest.IO{{W: []byte{0x01}, R: []byte{0x02}}},
	}}
	pin := &gpiotest.Pin{N: "GPIO17", Num: 17, L: gpio.High}
	b := &Fake{Ports: map[int]spi.Port{0: port}, Pins: map[int]gpio.PinIO{17: pin}}

	c1, err := b.SPI(0)
	test.That(t, err, test.ShouldBeNil)
	// a second request must reuse the connection; Playback refuses to connect twice
	c2, err := b.SPI(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c2, test.ShouldEqual, c1)

	rx := make([]byte, 1)
	test.That(t, c1.Tx([]byte{0x01}, rx), test.ShouldBeNil)
	test.That(t, rx, test.ShouldResemble, []byte{0x02})

	_, err = b.SPI(1)
	test.That(t, err, test.ShouldNotBeNil)

	p, err := b.GPIO(17)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Read(), test.ShouldEqual, gpio.High)
	_, err = b.GPIO(4)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = b.I2C()
	test.That(t, err, test.ShouldNotBeNil)
}

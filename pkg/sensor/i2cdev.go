package sensor

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"

	"github.com/ericogr/yadl/pkg/bus"
)

// openI2C returns the device at the configured address, or at def when
// --i2c_address was not given.
func openI2C(b bus.Board, addr, def int) (*i2c.Dev, error) {
	i2cBus, err := b.I2C()
	if err != nil {
		return nil, err
	}
	if addr < 0 {
		addr = def
	}
	return &i2c.Dev{Addr: uint16(addr), Bus: i2cBus}, nil
}

func readRegs(dev *i2c.Dev, reg byte, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := dev.Tx([]byte{reg}, buf); err != nil {
		return nil, errors.Wrapf(err, "read register %#02x", reg)
	}
	return buf, nil
}

func writeReg(dev *i2c.Dev, reg, value byte) error {
	if err := dev.Tx([]byte{reg, value}, nil); err != nil {
		return errors.Wrapf(err, "write register %#02x", reg)
	}
	return nil
}

func checkChipID(dev *i2c.Dev, reg, want byte) error {
	id, err := readRegs(dev, reg, 1)
	if err != nil {
		return err
	}
	if id[0] != want {
		return errors.Errorf("unexpected chip id %#02x, want %#02x", id[0], want)
	}
	return nil
}

package sensor

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
)

const (
	bmp180Addr    = 0x77
	bmp180ChipID  = 0x55
	bmp180RegID   = 0xD0
	bmp180RegCal  = 0xAA
	bmp180RegCtrl = 0xF4
	bmp180RegOut  = 0xF6
	bmp180CmdTemp = 0x2E
	bmp180CmdPres = 0x34

	// ultra low power; 4.5ms conversion
	bmp180OSS  = 0
	bmp180Wait = 5 * time.Millisecond

	seaLevelPa = 101325.0
)

type bmp180Calibration struct {
	AC1, AC2, AC3      int64
	AC4, AC5, AC6      int64
	B1, B2, MB, MC, MD int64
}

func parseBMP180Calibration(b []byte) (bmp180Calibration, error) {
	if len(b) != 22 {
		return bmp180Calibration{}, errors.Errorf("calibration is %d bytes, want 22", len(b))
	}
	var w [11]uint16
	for i := range w {
		w[i] = binary.BigEndian.Uint16(b[2*i:])
		if w[i] == 0 || w[i] == 0xFFFF {
			return bmp180Calibration{}, errors.Errorf("calibration word %d is %#04x", i, w[i])
		}
	}
	s := func(i int) int64 { return int64(int16(w[i])) }
	u := func(i int) int64 { return int64(w[i]) }
	return bmp180Calibration{
		AC1: s(0), AC2: s(1), AC3: s(2),
		AC4: u(3), AC5: u(4), AC6: u(5),
		B1: s(6), B2: s(7), MB: s(8), MC: s(9), MD: s(10),
	}, nil
}

// compensate returns the temperature in 0.1C and the pressure in Pa from the
// uncompensated readings, following the integer algorithm of the datasheet.
func (c bmp180Calibration) compensate(ut, up int64, oss uint) (int64, int64) {
	x1 := ((ut - c.AC6) * c.AC5) >> 15
	x2 := (c.MC << 11) / (x1 + c.MD)
	b5 := x1 + x2
	t := (b5 + 8) >> 4

	b6 := b5 - 4000
	x1 = (c.B2 * ((b6 * b6) >> 12)) >> 11
	x2 = (c.AC2 * b6) >> 11
	x3 := x1 + x2
	b3 := (((c.AC1*4 + x3) << oss) + 2) >> 2
	x1 = (c.AC3 * b6) >> 13
	x2 = (c.B1 * ((b6 * b6) >> 12)) >> 16
	x3 = ((x1 + x2) + 2) >> 2
	b4 := (c.AC4 * int64(uint32(x3+32768))) >> 15
	b7 := int64(uint32(up)-uint32(b3)) * (50000 >> oss)
	var p int64
	if b7 < 0x80000000 {
		p = (b7 * 2) / b4
	} else {
		p = (b7 / b4) * 2
	}
	x1 = (p >> 8) * (p >> 8)
	x1 = (x1 * 3038) >> 16
	x2 = (-7357 * p) >> 16
	p += (x1 + x2 + 3791) >> 4
	return t, p
}

// Altitude is the barometric altitude in meters for a pressure in Pa.
func Altitude(pa float64) float64 {
	return 44330 * (1 - math.Pow(pa/seaLevelPa, 1/5.255))
}

// bmp180 is the Bosch BMP180 (and BMP085) barometer.
type bmp180 struct {
	dev  *i2c.Dev
	unit TemperatureUnit
	clk  clock.Clock
	cal  *bmp180Calibration
}

func newBMP180(d Deps) (Sensor, error) {
	unit, err := ParseTemperatureUnit(d.Config.TemperatureUnit)
	if err != nil {
		return nil, err
	}
	dev, err := openI2C(d.Board, d.Config.I2CAddress, bmp180Addr)
	if err != nil {
		return nil, err
	}
	return &bmp180{dev: dev, unit: unit, clk: d.Clock}, nil
}

func (s *bmp180) Init(ctx context.Context) error {
	if err := checkChipID(s.dev, bmp180RegID, bmp180ChipID); err != nil {
		return errors.Wrap(err, "bmp180")
	}
	b, err := readRegs(s.dev, bmp180RegCal, 22)
	if err != nil {
		return errors.Wrap(err, "bmp180")
	}
	cal, err := parseBMP180Calibration(b)
	if err != nil {
		return errors.Wrap(err, "bmp180")
	}
	s.cal = &cal
	return nil
}

func (s *bmp180) Fields() []string { return []string{"temperature", "pressure", "altitude"} }

func (s *bmp180) convert(ctx context.Context, cmd byte, n int) ([]byte, error) {
	if err := writeReg(s.dev, bmp180RegCtrl, cmd); err != nil {
		return nil, err
	}
	if err := sleep(ctx, s.clk, bmp180Wait); err != nil {
		return nil, err
	}
	return readRegs(s.dev, bmp180RegOut, n)
}

func (s *bmp180) Read(ctx context.Context) (Sample, error) {
	if s.cal == nil {
		return Sample{}, errors.New("bmp180 not initialized")
	}
	rt, err := s.convert(ctx, bmp180CmdTemp, 2)
	if err != nil {
		return Sample{}, errors.Wrap(err, "bmp180 temperature")
	}
	rp, err := s.convert(ctx, bmp180CmdPres|bmp180OSS<<6, 3)
	if err != nil {
		return Sample{}, errors.Wrap(err, "bmp180 pressure")
	}
	ut := int64(rt[0])<<8 | int64(rt[1])
	up := (int64(rp[0])<<16 | int64(rp[1])<<8 | int64(rp[2])) >> (8 - bmp180OSS)
	t, p := s.cal.compensate(ut, up, bmp180OSS)

	c := float64(t) / 10
	return Sample{
		Values: []float64{s.unit.FromCelsius(c), float64(p) / 100, Altitude(float64(p))},
		Units:  []string{s.unit.Label, "hPa", "m"},
	}, nil
}

func (s *bmp180) Close() error { return nil }

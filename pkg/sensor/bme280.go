package sensor

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
)

const (
	bme280Addr     = 0x76
	bme280ChipID   = 0x60
	bme280RegID    = 0xD0
	bme280RegCal1  = 0x88
	bme280RegCal2  = 0xE1
	bme280RegHum   = 0xF2
	bme280RegMeas  = 0xF4
	bme280RegConf  = 0xF5
	bme280RegData  = 0xF7
	bme280CtrlHum  = 0x01 // humidity x1
	bme280CtrlMeas = 0x27 // temperature x1, pressure x1, normal mode
	bme280Config   = 0xA0 // 1s standby, filter off
)

type bme280Calibration struct {
	T1             float64
	T2, T3         float64
	P1             float64
	P2, P3, P4, P5 float64
	P6, P7, P8, P9 float64
	H1, H2, H3     float64
	H4, H5, H6     float64
}

// parseBME280Calibration decodes the 26 bytes at 0x88 and the 7 bytes at
// 0xE1.
func parseBME280Calibration(a, b []byte) (bme280Calibration, error) {
	if len(a) != 26 || len(b) != 7 {
		return bme280Calibration{}, errors.Errorf("calibration is %d+%d bytes, want 26+7", len(a), len(b))
	}
	u := func(i int) float64 { return float64(binary.LittleEndian.Uint16(a[i:])) }
	s := func(i int) float64 { return float64(int16(binary.LittleEndian.Uint16(a[i:]))) }
	return bme280Calibration{
		T1: u(0), T2: s(2), T3: s(4),
		P1: u(6), P2: s(8), P3: s(10), P4: s(12), P5: s(14),
		P6: s(16), P7: s(18), P8: s(20), P9: s(22),
		H1: float64(a[25]),
		H2: float64(int16(binary.LittleEndian.Uint16(b[0:]))),
		H3: float64(b[2]),
		H4: float64(int16(int8(b[3]))<<4 | int16(b[4]&0x0F)),
		H5: float64(int16(int8(b[5]))<<4 | int16(b[4]>>4)),
		H6: float64(int8(b[6])),
	}, nil
}

// compensate returns the temperature in C, the pressure in Pa and the
// relative humidity in percent, using the floating point formulas of the
// datasheet.
func (c bme280Calibration) compensate(adcT, adcP, adcH int32) (float64, float64, float64) {
	rt, rp, rh := float64(adcT), float64(adcP), float64(adcH)

	v1 := (rt/16384 - c.T1/1024) * c.T2
	v2 := (rt/131072 - c.T1/8192) * (rt/131072 - c.T1/8192) * c.T3
	tFine := v1 + v2
	tempC := tFine / 5120

	v1 = tFine/2 - 64000
	v2 = v1 * v1 * c.P6 / 32768
	v2 += v1 * c.P5 * 2
	v2 = v2/4 + c.P4*65536
	v1 = (c.P3*v1*v1/524288 + c.P2*v1) / 524288
	v1 = (1 + v1/32768) * c.P1
	var pa float64
	if v1 != 0 {
		pa = 1048576 - rp
		pa = (pa - v2/4096) * 6250 / v1
		v1 = c.P9 * pa * pa / 2147483648
		v2 = pa * c.P8 / 32768
		pa += (v1 + v2 + c.P7) / 16
	}

	h := tFine - 76800
	h = (rh - (c.H4*64 + c.H5/16384*h)) * (c.H2 / 65536 * (1 + c.H6/67108864*h*(1+c.H3/67108864*h)))
	h *= 1 - c.H1*h/524288
	switch {
	case h > 100:
		h = 100
	case h < 0:
		h = 0
	}
	return tempC, pa, h
}

// bme280 is the Bosch BME280 temperature, pressure and humidity sensor.
type bme280 struct {
	dev  *i2c.Dev
	unit TemperatureUnit
	cal  *bme280Calibration
}

func newBME280(d Deps) (Sensor, error) {
	unit, err := ParseTemperatureUnit(d.Config.TemperatureUnit)
	if err != nil {
		return nil, err
	}
	dev, err := openI2C(d.Board, d.Config.I2CAddress, bme280Addr)
	if err != nil {
		return nil, err
	}
	return &bme280{dev: dev, unit: unit}, nil
}

func (s *bme280) Init(ctx context.Context) error {
	if err := checkChipID(s.dev, bme280RegID, bme280ChipID); err != nil {
		return errors.Wrap(err, "bme280")
	}
	a, err := readRegs(s.dev, bme280RegCal1, 26)
	if err != nil {
		return errors.Wrap(err, "bme280")
	}
	b, err := readRegs(s.dev, bme280RegCal2, 7)
	if err != nil {
		return errors.Wrap(err, "bme280")
	}
	cal, err := parseBME280Calibration(a, b)
	if err != nil {
		return errors.Wrap(err, "bme280")
	}
	// ctrl_hum only takes effect after a write to ctrl_meas
	for _, w := range [][2]byte{
		{bme280RegHum, bme280CtrlHum},
		{bme280RegMeas, bme280CtrlMeas},
		{bme280RegConf, bme280Config},
	} {
		if err := writeReg(s.dev, w[0], w[1]); err != nil {
			return errors.Wrap(err, "bme280")
		}
	}
	s.cal = &cal
	return nil
}

func (s *bme280) Fields() []string {
	return []string{"temperature", "pressure", "humidity", "dew_point"}
}

func (s *bme280) Read(ctx context.Context) (Sample, error) {
	if s.cal == nil {
		return Sample{}, errors.New("bme280 not initialized")
	}
	b, err := readRegs(s.dev, bme280RegData, 8)
	if err != nil {
		return Sample{}, errors.Wrap(err, "bme280")
	}
	adcP := int32(b[0])<<12 | int32(b[1])<<4 | int32(b[2])>>4
	adcT := int32(b[3])<<12 | int32(b[4])<<4 | int32(b[5])>>4
	adcH := int32(b[6])<<8 | int32(b[7])
	if adcT == 0x80000 {
		return Sample{}, errors.New("bme280: no measurement yet")
	}
	tempC, pa, humidity := s.cal.compensate(adcT, adcP, adcH)
	return Sample{
		Values: []float64{
			s.unit.FromCelsius(tempC),
			pa / 100,
			humidity,
			s.unit.FromCelsius(DewPoint(tempC, humidity)),
		},
		Units: []string{s.unit.Label, "hPa", "%", s.unit.Label},
	}, nil
}

func (s *bme280) Close() error { return nil }

package sensor

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/ericogr/yadl/pkg/bus"
	"github.com/ericogr/yadl/pkg/config"
	"github.com/ericogr/yadl/pkg/testutils"
)

// calibration and readings from the worked example in the BMP180 datasheet
var bmp180Cal = []byte{
	0x01, 0x98, 0xFF, 0xB8, 0xC7, 0xD1, 0x7F, 0xE5, 0x7F, 0xF5, 0x5A, 0x71,
	0x18, 0x2E, 0x00, 0x04, 0x80, 0x00, 0xDD, 0xF9, 0x0B, 0x34,
}

func TestBMP180(t *testing.T) {
	b := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x77, W: []byte{0xD0}, R: []byte{0x55}},
		{Addr: 0x77, W: []byte{0xAA}, R: bmp180Cal},
		{Addr: 0x77, W: []byte{0xF4, 0x2E}},
		{Addr: 0x77, W: []byte{0xF6}, R: []byte{0x6C, 0xFA}},
		{Addr: 0x77, W: []byte{0xF4, 0x34}},
		{Addr: 0x77, W: []byte{0xF6}, R: []byte{0x5D, 0x23, 0x00}},
	}}
	clk := testutils.NewInstantClock()
	s, err := New("bmp180", Deps{Config: config.DefaultConfig(), Board: &bus.Fake{Bus: b}, Clock: clk})
	test.That(t, err, test.ShouldBeNil)

	_, err = s.Read(context.Background())
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, Init(context.Background(), s), test.ShouldBeNil)
	sample, err := s.Read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Validate(s.Fields()), test.ShouldBeNil)
	test.That(t, sample.Values[0], test.ShouldAlmostEqual, 15.0, 1e-9)
	test.That(t, sample.Values[1], test.ShouldAlmostEqual, 699.64, 1e-9)
	test.That(t, sample.Values[2], test.ShouldAlmostEqual, 3016.66, 0.01)
	test.That(t, sample.Units, test.ShouldResemble, []string{"C", "hPa", "m"})
	test.That(t, clk.Waits(), test.ShouldResemble, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond})
	test.That(t, b.Close(), test.ShouldBeNil)
}

func TestBMP180BadCalibration(t *testing.T) {
	cal := append([]byte(nil), bmp180Cal...)
	cal[4], cal[5] = 0xFF, 0xFF
	_, err := parseBMP180Calibration(cal)
	test.That(t, err, test.ShouldNotBeNil)

	b := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x77, W: []byte{0xD0}, R: []byte{0x58}},
	}}
	s, err := New("bmp180", Deps{Config: config.DefaultConfig(), Board: &bus.Fake{Bus: b}})
	test.That(t, err, test.ShouldBeNil)
	err = Init(context.Background(), s)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "chip id")
}

// bme280Cal encodes the compensation example of the Bosch BMP280 datasheet
// plus typical humidity trimming values.
func bme280Cal() ([]byte, []byte) {
	a := make([]byte, 26)
	for i, v := range []int{27504, 26435, -1000, 36477, -10685, 3024, 2855, 140, -7, 15500, -14600, 6000} {
		binary.LittleEndian.PutUint16(a[2*i:], uint16(int16(v)))
	}
	a[25] = 75 // H1
	h := make([]byte, 7)
	binary.LittleEndian.PutUint16(h, 362) // H2
	h[2] = 0                              // H3
	h[3], h[4], h[5] = 0x13, 0x29, 0x03   // H4 = 313, H5 = 50
	h[6] = 30                             // H6
	return a, h
}

func TestBME280(t *testing.T) {
	a, h := bme280Cal()
	b := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x76, W: []byte{0xD0}, R: []byte{0x60}},
		{Addr: 0x76, W: []byte{0x88}, R: a},
		{Addr: 0x76, W: []byte{0xE1}, R: h},
		{Addr: 0x76, W: []byte{0xF2, 0x01}},
		{Addr: 0x76, W: []byte{0xF4, 0x27}},
		{Addr: 0x76, W: []byte{0xF5, 0xA0}},
		{Addr: 0x76, W: []byte{0xF7}, R: []byte{0x65, 0x5A, 0xC0, 0x7E, 0xED, 0x00, 0x75, 0x30}},
	}}
	cfg := config.DefaultConfig()
	cfg.TemperatureUnit = "kelvin"
	s, err := New("bme280", Deps{Config: cfg, Board: &bus.Fake{Bus: b}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, Init(context.Background(), s), test.ShouldBeNil)

	sample, err := s.Read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Validate(s.Fields()), test.ShouldBeNil)
	test.That(t, sample.Values[0], test.ShouldAlmostEqual, 25.0825+273.15, 1e-3)
	test.That(t, sample.Values[1], test.ShouldAlmostEqual, 1006.5327, 1e-3)
	test.That(t, sample.Values[2], test.ShouldAlmostEqual, 55.0007, 1e-3)
	test.That(t, sample.Values[3], test.ShouldAlmostEqual, DewPoint(25.0825, 55.0007)+273.15, 1e-3)
	test.That(t, sample.Units, test.ShouldResemble, []string{"K", "hPa", "%", "K"})
	test.That(t, b.Close(), test.ShouldBeNil)
}

func TestDS18B20(t *testing.T) {
	dir := t.TempDir()
	slave := "28-00000482b243"
	test.That(t, os.Mkdir(filepath.Join(dir, slave), 0o755), test.ShouldBeNil)
	path := filepath.Join(dir, slave, "w1_slave")

	cfg := config.DefaultConfig()
	cfg.W1Dir = dir
	cfg.W1Slave = slave
	s, err := New("ds18b20", Deps{Config: cfg})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, Init(context.Background(), s), test.ShouldNotBeNil)

	good := "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=23125\n"
	test.That(t, os.WriteFile(path, []byte(good), 0o644), test.ShouldBeNil)
	test.That(t, Init(context.Background(), s), test.ShouldBeNil)
	sample, err := s.Read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Values[0], test.ShouldAlmostEqual, 23.125, 1e-9)
	test.That(t, sample.Units, test.ShouldResemble, []string{"C"})

	bad := "72 01 4b 46 7f ff 0e 10 57 : crc=57 NO\n72 01 4b 46 7f ff 0e 10 57 t=23125\n"
	test.That(t, os.WriteFile(path, []byte(bad), 0o644), test.ShouldBeNil)
	_, err = s.Read(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "crc")
}

func TestParseW1Slave(t *testing.T) {
	c, err := parseW1Slave("ff ff : crc=ff YES\nff ff t=-1062")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldAlmostEqual, -1.062, 1e-9)

	_, err = parseW1Slave("ff ff : crc=ff YES\n")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = parseW1Slave("ff ff : crc=ff YES\nff ff t=")
	test.That(t, err, test.ShouldNotBeNil)
}

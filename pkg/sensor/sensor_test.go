package sensor

import (
	"context"
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/ericogr/yadl/pkg/bus"
	"github.com/ericogr/yadl/pkg/config"
	"github.com/ericogr/yadl/pkg/testutils"
)

type fakeADC struct {
	raw map[int]int
	max int
	err error
}

func (f *fakeADC) ReadRaw(ctx context.Context, channel int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.raw[channel], nil
}

func (f *fakeADC) MaxValue() int { return f.max }

func TestSampleValidate(t *testing.T) {
	fields := []string{"temperature", "humidity"}
	test.That(t, Sample{Values: []float64{1, 2}}.Validate(fields), test.ShouldBeNil)
	test.That(t, Sample{Values: []float64{1, 2}, Units: []string{"C", "%"}}.Validate(fields), test.ShouldBeNil)
	test.That(t, Sample{Values: []float64{1}}.Validate(fields), test.ShouldNotBeNil)
	test.That(t, Sample{Values: []float64{1, 2}, Units: []string{"C"}}.Validate(fields), test.ShouldNotBeNil)
}

func TestRegistryLookup(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.GPIOPin = 4
	test.That(t, Validate("DHT22", cfg), test.ShouldBeNil)
	test.That(t, Validate("Digital", cfg), test.ShouldBeNil)

	err := Validate("thermocouple", cfg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "--sensor")

	_, err = New("thermocouple", Deps{Config: cfg})
	test.That(t, err, test.ShouldNotBeNil)

	uses, err := UsesADC("TMP36")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, uses, test.ShouldBeTrue)
	uses, err = UsesADC("ds18b20")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, uses, test.ShouldBeFalse)
}

func TestValidateOptions(t *testing.T) {
	for _, tc := range []struct {
		name   string
		sensor string
		mod    func(c *config.Config)
		option string
	}{
		{"digital needs a pin", "digital", func(c *config.Config) {}, "--gpio_pin"},
		{"counter edge", "counter", func(c *config.Config) { c.GPIOPin = 17; c.InterruptEdge = "sideways" }, "--interrupt_edge"},
		{"analog needs an adc", "analog", func(c *config.Config) { c.AnalogChannel = 0 }, "--adc"},
		{"analog unknown adc", "analog", func(c *config.Config) { c.ADC = "max1234"; c.AnalogChannel = 0 }, "--adc"},
		{"analog needs a channel", "analog", func(c *config.Config) { c.ADC = "mcp3008"; c.SPIChannel = 0 }, "--analog_channel"},
		{"tmp36 unit", "tmp36", func(c *config.Config) {
			c.ADC = "mcp3008"
			c.SPIChannel = 0
			c.AnalogChannel = 0
			c.TemperatureUnit = "reaumur"
		}, "--temperature_unit"},
		{"ds18b20 slave", "ds18b20", func(c *config.Config) {}, "--w1_slave"},
		{"argent rain pin", "argent_80422", func(c *config.Config) {
			c.ADC = "pcf8591"
			c.I2CAddress = 0x48
			c.AnalogChannel = 0
			c.WindSpeedPin = 5
		}, "--rain_gauge_pin"},
		{"argent units", "argent_80422", func(c *config.Config) {
			c.ADC = "pcf8591"
			c.I2CAddress = 0x48
			c.AnalogChannel = 0
			c.WindSpeedPin = 5
			c.RainGaugePin = 6
			c.WindSpeedUnit = "knots"
		}, "--wind_speed_unit"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.mod(&cfg)
			err := Validate(tc.sensor, cfg)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.option)
		})
	}
}

func TestTemperatureUnits(t *testing.T) {
	for _, tc := range []struct {
		name  string
		label string
		want  float64
	}{
		{"celsius", "C", 100},
		{"Fahrenheit", "F", 212},
		{"kelvin", "K", 373.15},
		{"rankine", "R", 671.67},
	} {
		u, err := ParseTemperatureUnit(tc.name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, u.Label, test.ShouldEqual, tc.label)
		test.That(t, u.FromCelsius(100), test.ShouldAlmostEqual, tc.want, 1e-9)
	}
	_, err := ParseTemperatureUnit("delisle")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDewPoint(t *testing.T) {
	// saturated air condenses at its own temperature
	test.That(t, DewPoint(20, 100), test.ShouldAlmostEqual, 20, 1e-9)
	test.That(t, DewPoint(25, 50), test.ShouldAlmostEqual, 13.85, 0.05)
	test.That(t, math.IsNaN(DewPoint(25, 0)), test.ShouldBeTrue)
}

func TestAnalog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AnalogChannel = 2
	a := &fakeADC{raw: map[int]int{2: 512}, max: 1023}
	s, err := New("analog", Deps{Config: cfg, ADC: a})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Fields(), test.ShouldResemble, []string{"reading", "millivolts"})

	sample, err := s.Read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Validate(s.Fields()), test.ShouldBeNil)
	test.That(t, sample.Values[0], test.ShouldEqual, 512)
	test.That(t, sample.Values[1], test.ShouldAlmostEqual, 1651.6129, 1e-3)

	_, err = New("analog", Deps{Config: cfg})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTMP36(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AnalogChannel = 0
	cfg.ADCMillivolts = 1023
	cfg.TemperatureUnit = "fahrenheit"
	// 750mV is 25C
	s, err := New("tmp36", Deps{Config: cfg, ADC: &fakeADC{raw: map[int]int{0: 750}, max: 1023}})
	test.That(t, err, test.ShouldBeNil)

	sample, err := s.Read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.Values[0], test.ShouldAlmostEqual, 77, 1e-9)
	test.That(t, sample.Values[1], test.ShouldAlmostEqual, 750, 1e-9)
	test.That(t, sample.Units, test.ShouldResemble, []string{"F", "mV"})
}

func TestSimulation(t *testing.T) {
	cfg := config.DefaultConfig()
	s, err := New("simulation", Deps{Config: cfg, Board: &bus.Fake{}, Clock: testutils.NewInstantClock()})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, Init(context.Background(), s), test.ShouldBeNil)
	for i := 0; i < 20; i++ {
		sample, err := s.Read(context.Background())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sample.Validate(s.Fields()), test.ShouldBeNil)
		test.That(t, sample.Values[0], test.ShouldBeBetweenOrEqual, 0, 1023)
		test.That(t, sample.Values[1], test.ShouldBeBetweenOrEqual, 0, 3300)
	}
	test.That(t, s.Close(), test.ShouldBeNil)
}

package sensor

import (
	"context"

	"github.com/ericogr/yadl/pkg/adc"
)

// analog reports the raw ADC reading of one channel and the voltage it
// represents.
type analog struct {
	adc        adc.ADC
	channel    int
	millivolts int
	multiplier float64
}

func newAnalog(d Deps) (Sensor, error) {
	return &analog{
		adc:        d.ADC,
		channel:    d.Config.AnalogChannel,
		millivolts: d.Config.ADCMillivolts,
		multiplier: d.Config.ADCMultiplier,
	}, nil
}

func (s *analog) Fields() []string { return []string{"reading", "millivolts"} }

func (s *analog) Read(ctx context.Context) (Sample, error) {
	raw, mv, err := s.read(ctx)
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Values: []float64{float64(raw), mv},
		Units:  []string{"", "mV"},
	}, nil
}

func (s *analog) read(ctx context.Context) (int, float64, error) {
	raw, err := s.adc.ReadRaw(ctx, s.channel)
	if err != nil {
		return 0, 0, err
	}
	return raw, adc.Millivolts(raw, s.adc.MaxValue(), s.millivolts, s.multiplier), nil
}

func (s *analog) Close() error { return nil }

// tmp36 is an analog temperature sensor with a 10mV/C slope. The offset
// voltage is --analog_scaling_factor, 500mV for the TMP36.
type tmp36 struct {
	analog
	offset float64
	unit   TemperatureUnit
}

func newTMP36(d Deps) (Sensor, error) {
	unit, err := ParseTemperatureUnit(d.Config.TemperatureUnit)
	if err != nil {
		return nil, err
	}
	a, _ := newAnalog(d)
	return &tmp36{
		analog: *a.(*analog),
		offset: float64(d.Config.AnalogScalingFactor),
		unit:   unit,
	}, nil
}

func (s *tmp36) Fields() []string { return []string{"temperature", "millivolts"} }

func (s *tmp36) Read(ctx context.Context) (Sample, error) {
	_, mv, err := s.read(ctx)
	if err != nil {
		return Sample{}, err
	}
	c := (mv - s.offset) / 10
	return Sample{
		Values: []float64{s.unit.FromCelsius(c), mv},
		Units:  []string{s.unit.Label, "mV"},
	}, nil
}

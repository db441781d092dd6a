package sensor

import (
	"context"
	"math"
	"strings"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"

	"github.com/ericogr/yadl/pkg/adc"
	"github.com/ericogr/yadl/pkg/config"
)

// vanePullUp is the resistor between the reference voltage and the wind vane.
const vanePullUp = 10000.0

// Resistance of the wind vane for each of its 16 positions, from the Argent
// 80422 datasheet.
var vanePositions = []struct {
	degrees float64
	ohms    float64
}{
	{0, 33000}, {22.5, 6570}, {45, 8200}, {67.5, 891},
	{90, 1000}, {112.5, 688}, {135, 2200}, {157.5, 1410},
	{180, 3900}, {202.5, 3140}, {225, 16000}, {247.5, 14120},
	{270, 120000}, {292.5, 42120}, {315, 64900}, {337.5, 21880},
}

var windSpeedUnits = map[string]float64{
	"mph": 1.492,
	"kmh": 2.4,
}

var rainUnits = map[string]float64{
	"in": 0.011,
	"mm": 0.2794,
}

// windDirection returns the vane position in degrees closest to a raw ADC
// reading of the vane's voltage divider.
func windDirection(raw, maxValue int) float64 {
	ratio := float64(raw) / float64(maxValue)
	best, bestDiff := 0.0, math.Inf(1)
	for _, p := range vanePositions {
		diff := math.Abs(p.ohms/(p.ohms+vanePullUp) - ratio)
		if diff < bestDiff {
			best, bestDiff = p.degrees, diff
		}
	}
	return best
}

// argent80422 is the Argent Data Systems weather meter: a cup anemometer and
// a tipping bucket rain gauge, both reed switches, plus a resistive wind
// vane read through an ADC.
type argent80422 struct {
	windPin gpio.PinIO
	rainPin gpio.PinIO
	adc     adc.ADC
	channel int

	speedUnit  string
	speedPerHz float64
	rainUnit   string
	rainPerTip float64

	wind *edgeCounter
	rain *edgeCounter
	rate rateMeter
}

func validateArgent80422(cfg config.Config) error {
	if err := config.RequirePin("wind_speed_pin", cfg.WindSpeedPin); err != nil {
		return err
	}
	if err := config.RequirePin("rain_gauge_pin", cfg.RainGaugePin); err != nil {
		return err
	}
	if _, ok := windSpeedUnits[strings.ToLower(cfg.WindSpeedUnit)]; !ok {
		return config.Errorf("wind_speed_unit", "unknown unit %q (mph|kmh)", cfg.WindSpeedUnit)
	}
	if _, ok := rainUnits[strings.ToLower(cfg.RainGaugeUnit)]; !ok {
		return config.Errorf("rain_gauge_unit", "unknown unit %q (in|mm)", cfg.RainGaugeUnit)
	}
	return nil
}

func newArgent80422(d Deps) (Sensor, error) {
	if err := validateArgent80422(d.Config); err != nil {
		return nil, err
	}
	windPin, err := d.Board.GPIO(d.Config.WindSpeedPin)
	if err != nil {
		return nil, err
	}
	rainPin, err := d.Board.GPIO(d.Config.RainGaugePin)
	if err != nil {
		return nil, err
	}
	speedUnit := strings.ToLower(d.Config.WindSpeedUnit)
	rainUnit := strings.ToLower(d.Config.RainGaugeUnit)
	return &argent80422{
		windPin:    windPin,
		rainPin:    rainPin,
		adc:        d.ADC,
		channel:    d.Config.AnalogChannel,
		speedUnit:  speedUnit,
		speedPerHz: windSpeedUnits[speedUnit],
		rainUnit:   rainUnit,
		rainPerTip: rainUnits[rainUnit],
		rate:       rateMeter{clk: d.Clock},
	}, nil
}

func (s *argent80422) Init(ctx context.Context) error {
	wind, err := startEdgeCounter(s.windPin, gpio.PullUp, gpio.FallingEdge)
	if err != nil {
		return err
	}
	rain, err := startEdgeCounter(s.rainPin, gpio.PullUp, gpio.FallingEdge)
	if err != nil {
		return multierr.Append(err, wind.Stop())
	}
	s.wind, s.rain = wind, rain
	s.rate.start()
	return nil
}

func (s *argent80422) Fields() []string {
	return []string{"wind_speed", "wind_direction", "rain"}
}

func (s *argent80422) Read(ctx context.Context) (Sample, error) {
	raw, err := s.adc.ReadRaw(ctx, s.channel)
	if err != nil {
		return Sample{}, err
	}
	var speed, rain float64
	if s.wind != nil {
		speed = s.rate.perSecond(s.wind.Reset()) * s.speedPerHz
		rain = float64(s.rain.Total()) * s.rainPerTip
	}
	return Sample{
		Values: []float64{speed, windDirection(raw, s.adc.MaxValue()), rain},
		Units:  []string{s.speedUnit, "deg", s.rainUnit},
	}, nil
}

func (s *argent80422) Close() error {
	if s.wind == nil {
		return nil
	}
	err := multierr.Combine(s.wind.Stop(), s.rain.Stop())
	s.wind, s.rain = nil, nil
	return err
}

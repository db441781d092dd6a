package sensor

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"

	"github.com/ericogr/yadl/pkg/config"
)

type dhtModel int

const (
	dht11 dhtModel = iota
	dht22
)

const (
	// the response pulse plus 40 data bits
	dhtPulses      = 41
	dhtEdgeTimeout = time.Millisecond
	// high pulses longer than this are ones
	dhtOneThreshold = 50 * time.Microsecond
)

func (m dhtModel) String() string {
	if m == dht22 {
		return "dht22"
	}
	return "dht11"
}

// startSignal is how long the host holds the line low to wake the sensor.
func (m dhtModel) startSignal() time.Duration {
	if m == dht22 {
		return time.Millisecond
	}
	return 18 * time.Millisecond
}

// minInterval is the shortest time between two conversions.
func (m dhtModel) minInterval() time.Duration {
	if m == dht22 {
		return 2 * time.Second
	}
	return time.Second
}

// dht talks the single-wire protocol of the DHT11 and DHT22 humidity
// sensors.
type dht struct {
	model dhtModel
	pin   gpio.PinIO
	unit  TemperatureUnit
	clk   clock.Clock

	lastRead time.Time
}

func validateDHT(cfg config.Config) error {
	if err := config.RequirePin("gpio_pin", cfg.GPIOPin); err != nil {
		return err
	}
	return validateTemperatureUnit(cfg)
}

func newDHT(model dhtModel) Constructor {
	return func(d Deps) (Sensor, error) {
		unit, err := ParseTemperatureUnit(d.Config.TemperatureUnit)
		if err != nil {
			return nil, err
		}
		pin, err := d.Board.GPIO(d.Config.GPIOPin)
		if err != nil {
			return nil, err
		}
		return &dht{model: model, pin: pin, unit: unit, clk: d.Clock}, nil
	}
}

func (s *dht) Fields() []string { return []string{"temperature", "humidity", "dew_point"} }

func (s *dht) Read(ctx context.Context) (Sample, error) {
	if !s.lastRead.IsZero() {
		if wait := s.model.minInterval() - s.clk.Since(s.lastRead); wait > 0 {
			if err := sleep(ctx, s.clk, wait); err != nil {
				return Sample{}, err
			}
		}
	}
	s.lastRead = s.clk.Now()

	if err := s.pin.Out(gpio.Low); err != nil {
		return Sample{}, errors.Wrapf(err, "%s: start signal", s.model)
	}
	if err := sleep(ctx, s.clk, s.model.startSignal()); err != nil {
		return Sample{}, err
	}
	if err := s.pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return Sample{}, errors.Wrapf(err, "%s: release line", s.model)
	}
	highs, err := capturePulses(s.pin)
	if err != nil {
		return Sample{}, errors.Wrap(err, s.model.String())
	}
	data, err := decodeDHTPulses(highs)
	if err != nil {
		return Sample{}, errors.Wrap(err, s.model.String())
	}
	tempC, humidity, err := parseDHT(s.model, data)
	if err != nil {
		return Sample{}, errors.Wrap(err, s.model.String())
	}
	return Sample{
		Values: []float64{
			s.unit.FromCelsius(tempC),
			humidity,
			s.unit.FromCelsius(DewPoint(tempC, humidity)),
		},
		Units: []string{s.unit.Label, "%", s.unit.Label},
	}, nil
}

func (s *dht) Close() error { return s.pin.Halt() }

// capturePulses times the high pulses the sensor sends after the start
// signal. Edge timing is physical, so it uses the wall clock.
func capturePulses(pin gpio.PinIO) ([]time.Duration, error) {
	highs := make([]time.Duration, 0, dhtPulses)
	var rose time.Time
	for len(highs) < dhtPulses {
		if !pin.WaitForEdge(dhtEdgeTimeout) {
			return nil, errors.Errorf("timeout after %d pulses", len(highs))
		}
		now := time.Now()
		if pin.Read() == gpio.High {
			rose = now
		} else if !rose.IsZero() {
			highs = append(highs, now.Sub(rose))
			rose = time.Time{}
		}
	}
	return highs, nil
}

// decodeDHTPulses turns the response pulse and 40 data pulses into the five
// bytes of a DHT frame, most significant bit first.
func decodeDHTPulses(highs []time.Duration) ([5]byte, error) {
	var data [5]byte
	if len(highs) != dhtPulses {
		return data, errors.Errorf("got %d pulses, want %d", len(highs), dhtPulses)
	}
	for i, d := range highs[1:] {
		data[i/8] <<= 1
		if d > dhtOneThreshold {
			data[i/8] |= 1
		}
	}
	return data, nil
}

// parseDHT checks the frame checksum and returns the temperature in Celsius
// and the relative humidity in percent.
func parseDHT(model dhtModel, b [5]byte) (float64, float64, error) {
	if sum := b[0] + b[1] + b[2] + b[3]; sum != b[4] {
		return 0, 0, errors.Errorf("checksum %#02x, want %#02x", sum, b[4])
	}
	var tempC, humidity float64
	switch model {
	case dht22:
		humidity = float64(uint16(b[0])<<8|uint16(b[1])) / 10
		tempC = float64(uint16(b[2]&0x7f)<<8|uint16(b[3])) / 10
		if b[2]&0x80 != 0 {
			tempC = -tempC
		}
	default:
		humidity = float64(b[0]) + float64(b[1])/10
		tempC = float64(b[2]) + float64(b[3]&0x7f)/10
		if b[3]&0x80 != 0 {
			tempC = -tempC
		}
	}
	if humidity > 100 {
		return 0, 0, errors.Errorf("humidity %.1f out of range", humidity)
	}
	return tempC, humidity, nil
}

func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}

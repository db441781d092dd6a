package sensor

import (
	"context"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"

	"github.com/ericogr/yadl/pkg/config"
)

// digital reads the level of one GPIO pin: 1 for high, 0 for low.
type digital struct {
	pin gpio.PinIO
}

func validateDigital(cfg config.Config) error {
	return config.RequirePin("gpio_pin", cfg.GPIOPin)
}

func newDigital(d Deps) (Sensor, error) {
	pin, err := d.Board.GPIO(d.Config.GPIOPin)
	if err != nil {
		return nil, err
	}
	return &digital{pin: pin}, nil
}

func (s *digital) Init(ctx context.Context) error {
	if err := s.pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return errors.Wrapf(err, "configure %s as input", s.pin)
	}
	return nil
}

func (s *digital) Fields() []string { return []string{"value"} }

func (s *digital) Read(ctx context.Context) (Sample, error) {
	v := 0.0
	if s.pin.Read() == gpio.High {
		v = 1
	}
	return Sample{Values: []float64{v}}, nil
}

func (s *digital) Close() error { return s.pin.Halt() }

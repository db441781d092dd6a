package sensor

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ericogr/yadl/pkg/config"
)

// ds18b20 reads a 1-Wire thermometer through the w1-therm kernel driver.
// The driver's w1_slave file looks like:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
type ds18b20 struct {
	path string
	unit TemperatureUnit
}

func validateDS18B20(cfg config.Config) error {
	if strings.TrimSpace(cfg.W1Slave) == "" {
		return config.Errorf("w1_slave", "must be specified")
	}
	return validateTemperatureUnit(cfg)
}

func newDS18B20(d Deps) (Sensor, error) {
	unit, err := ParseTemperatureUnit(d.Config.TemperatureUnit)
	if err != nil {
		return nil, err
	}
	return &ds18b20{
		path: filepath.Join(d.Config.W1Dir, d.Config.W1Slave, "w1_slave"),
		unit: unit,
	}, nil
}

func (s *ds18b20) Init(ctx context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return errors.Wrap(err, "ds18b20: is the w1-therm module loaded?")
	}
	return nil
}

func (s *ds18b20) Fields() []string { return []string{"temperature"} }

func (s *ds18b20) Read(ctx context.Context) (Sample, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return Sample{}, errors.Wrap(err, "ds18b20")
	}
	c, err := parseW1Slave(string(b))
	if err != nil {
		return Sample{}, errors.Wrapf(err, "ds18b20 %s", s.path)
	}
	return Sample{
		Values: []float64{s.unit.FromCelsius(c)},
		Units:  []string{s.unit.Label},
	}, nil
}

func (s *ds18b20) Close() error { return nil }

// parseW1Slave returns the temperature in Celsius from the contents of a
// w1_slave file.
func parseW1Slave(content string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) < 2 {
		return 0, errors.New("short read")
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, errors.New("crc check failed")
	}
	i := strings.Index(lines[1], "t=")
	if i < 0 {
		return 0, errors.New("no temperature")
	}
	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][i+2:]))
	if err != nil {
		return 0, errors.Wrap(err, "parse temperature")
	}
	return float64(milli) / 1000, nil
}

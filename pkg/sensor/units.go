package sensor

import (
	"math"
	"strings"

	"github.com/ericogr/yadl/pkg/config"
)

// TemperatureUnit converts from degrees Celsius, which every sensor reads in.
type TemperatureUnit struct {
	Label       string
	fromCelsius func(c float64) float64
}

func (u TemperatureUnit) FromCelsius(c float64) float64 { return u.fromCelsius(c) }

var temperatureUnits = map[string]TemperatureUnit{
	"celsius":    {Label: "C", fromCelsius: func(c float64) float64 { return c }},
	"fahrenheit": {Label: "F", fromCelsius: func(c float64) float64 { return c*9/5 + 32 }},
	"kelvin":     {Label: "K", fromCelsius: func(c float64) float64 { return c + 273.15 }},
	"rankine":    {Label: "R", fromCelsius: func(c float64) float64 { return (c + 273.15) * 9 / 5 }},
}

func ParseTemperatureUnit(name string) (TemperatureUnit, error) {
	u, ok := temperatureUnits[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return TemperatureUnit{}, config.Errorf("temperature_unit", "unknown unit %q (celsius|fahrenheit|kelvin|rankine)", name)
	}
	return u, nil
}

func validateTemperatureUnit(cfg config.Config) error {
	_, err := ParseTemperatureUnit(cfg.TemperatureUnit)
	return err
}

// Magnus formula coefficients (Sonntag 1990), valid from -45C to 60C.
const (
	magnusB = 17.62
	magnusC = 243.12
)

// DewPoint returns the dew point in degrees Celsius for a temperature in
// Celsius and a relative humidity in percent.
func DewPoint(tempC, humidity float64) float64 {
	if humidity <= 0 {
		return math.NaN()
	}
	gamma := math.Log(humidity/100) + magnusB*tempC/(magnusC+tempC)
	return magnusC * gamma / (magnusB - gamma)
}

package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// OutputConfig selects one output encoder and where it writes to. An empty
// File means standard output.
type OutputConfig struct {
	Type string `json:"type"`
	File string `json:"file,omitempty"`
}

type Config struct {
	Sensor  string         `json:"sensor"`
	ADC     string         `json:"adc,omitempty"`
	Filter  string         `json:"filter"`
	Outputs []OutputConfig `json:"outputs"`

	NumResults                int  `json:"num_results"`
	SleepMillisBetweenResults int  `json:"sleep_millis_between_results"`
	NumSamplesPerResult       int  `json:"num_samples_per_result"`
	SleepMillisBetweenSamples int  `json:"sleep_millis_between_samples"`
	RemoveNSamplesFromEnds    int  `json:"remove_n_samples_from_ends"`
	MaxRetries                int  `json:"max_retries"`
	SleepMillisBetweenRetries int  `json:"sleep_millis_between_retries"`
	OnlyLogValueChanges       bool `json:"only_log_value_changes"`

	Debug   bool   `json:"debug"`
	Logfile string `json:"logfile,omitempty"`
	Daemon  bool   `json:"daemon"`

	GPIOPin           int     `json:"gpio_pin"`
	CounterMultiplier float64 `json:"counter_multiplier"`
	InterruptEdge     string  `json:"interrupt_edge"`

	I2CBus        string `json:"i2c_bus"`
	I2CAddress    int    `json:"i2c_address"`
	SPIBus        string `json:"spi_bus"`
	SPIChannel    int    `json:"spi_channel"`
	AnalogChannel int    `json:"analog_channel"`
	ADCSampleRate int    `json:"adc_sample_rate"`

	ADCMillivolts       int     `json:"adc_millivolts"`
	ADCMultiplier       float64 `json:"adc_multiplier"`
	AnalogScalingFactor int     `json:"analog_scaling_factor"`

	TemperatureUnit string `json:"temperature_unit"`
	W1Slave         string `json:"w1_slave,omitempty"`
	W1Dir           string `json:"w1_dir,omitempty"`

	WindSpeedPin  int    `json:"wind_speed_pin"`
	WindSpeedUnit string `json:"wind_speed_unit"`
	RainGaugePin  int    `json:"rain_gauge_pin"`
	RainGaugeUnit string `json:"rain_gauge_unit"`

	RRDFile string `json:"rrd_file,omitempty"`
}

// Unset marks integer options that have no sensible zero value (pins,
// channels, addresses).
const Unset = -1

func DefaultConfig() Config {
	return Config{
		Filter:                    "median",
		NumResults:                1,
		SleepMillisBetweenResults: 0,
		NumSamplesPerResult:       1,
		SleepMillisBetweenSamples: 0,
		RemoveNSamplesFromEnds:    0,
		MaxRetries:                20,
		SleepMillisBetweenRetries: 500,
		GPIOPin:                   Unset,
		CounterMultiplier:         1.0,
		InterruptEdge:             "rising",
		I2CBus:                    "1",
		I2CAddress:                Unset,
		SPIBus:                    "0",
		SPIChannel:                Unset,
		AnalogChannel:             Unset,
		ADCSampleRate:             128,
		ADCMillivolts:             3300, // Raspberry Pi GPIO pins are 3.3V
		ADCMultiplier:             1.0,
		AnalogScalingFactor:       500,
		TemperatureUnit:           "celsius",
		W1Dir:                     "/sys/bus/w1/devices",
		WindSpeedPin:              Unset,
		WindSpeedUnit:             "mph",
		RainGaugePin:              Unset,
		RainGaugeUnit:             "in",
	}
}

// LoadFile reads a JSON configuration file on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.SleepMillisBetweenRetries) * time.Millisecond
}

func (c Config) SampleDelay() time.Duration {
	return time.Duration(c.SleepMillisBetweenSamples) * time.Millisecond
}

func (c Config) ResultDelay() time.Duration {
	return time.Duration(c.SleepMillisBetweenResults) * time.Millisecond
}

// parseI2CAddress accepts "0x77" or "77"; both are hex, as printed by
// i2cdetect.
func parseI2CAddress(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	v, err := strconv.ParseInt(s, 16, 0)
	if err != nil {
		return 0, err
	}
	if err := checkI2CAddress(int(v)); err != nil {
		return 0, err
	}
	return int(v), nil
}

// checkI2CAddress rejects anything outside the 7-bit address space.
func checkI2CAddress(v int) error {
	if v < 0 || v > 0x7f {
		return errors.Errorf("address %#x out of range", v)
	}
	return nil
}

// UnmarshalJSON lets the file form of i2c_address be either a number or a
// hex string.
func (c *Config) UnmarshalJSON(b []byte) error {
	type plain Config
	aux := struct {
		*plain
		I2CAddress json.RawMessage `json:"i2c_address"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(aux.I2CAddress) == 0 {
		return nil
	}
	var n int
	if err := json.Unmarshal(aux.I2CAddress, &n); err == nil {
		if n == Unset {
			c.I2CAddress = Unset
			return nil
		}
		if err := checkI2CAddress(n); err != nil {
			return errors.Wrap(err, "i2c_address")
		}
		c.I2CAddress = n
		return nil
	}
	var s string
	if err := json.Unmarshal(aux.I2CAddress, &s); err != nil {
		return errors.Wrap(err, "i2c_address")
	}
	v, err := parseI2CAddress(s)
	if err != nil {
		return errors.Wrap(err, "i2c_address")
	}
	c.I2CAddress = v
	return nil
}

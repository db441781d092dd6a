package config

import (
	"github.com/urfave/cli/v2"
)

// Flags returns the command line options. Defaults shown in the help text
// match DefaultConfig; only flags given explicitly override a --config file.
func Flags() []cli.Flag {
	d := DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "path to JSON config file"},
		&cli.StringFlag{Name: "sensor", Usage: "digital|counter|analog|dht11|dht22|ds18b20|tmp36|bmp180|bme280|argent_80422|simulation"},
		&cli.StringSliceFlag{Name: "output", Usage: "json|yaml|csv|xml|rrd|single_json|console (repeatable)"},
		&cli.StringSliceFlag{Name: "outfile", Usage: "output filename, one per --output. Defaults to stdout"},
		&cli.BoolFlag{Name: "only_log_value_changes", Usage: "only write results whose values changed"},
		&cli.IntFlag{Name: "num_results", Value: d.NumResults, Usage: "number of results. Set to -1 to poll indefinitely"},
		&cli.IntFlag{Name: "sleep_millis_between_results", Value: d.SleepMillisBetweenResults},
		&cli.IntFlag{Name: "num_samples_per_result", Value: d.NumSamplesPerResult, Usage: "see --filter for aggregation"},
		&cli.IntFlag{Name: "sleep_millis_between_samples", Value: d.SleepMillisBetweenSamples},
		&cli.StringFlag{Name: "filter", Value: d.Filter, Usage: "median|mean|mode|sum|min|max|range"},
		&cli.IntFlag{Name: "remove_n_samples_from_ends", Value: d.RemoveNSamplesFromEnds},
		&cli.IntFlag{Name: "max_retries", Value: d.MaxRetries},
		&cli.IntFlag{Name: "sleep_millis_between_retries", Value: d.SleepMillisBetweenRetries},
		&cli.BoolFlag{Name: "debug"},
		&cli.StringFlag{Name: "logfile", Usage: "path to debug logs. Uses stderr if not specified"},
		&cli.BoolFlag{Name: "daemon", Usage: "detach and run in the background"},

		&cli.IntFlag{Name: "gpio_pin", Value: d.GPIOPin, Usage: "BCM GPIO number"},
		&cli.Float64Flag{Name: "counter_multiplier", Value: d.CounterMultiplier},
		&cli.StringFlag{Name: "interrupt_edge", Value: d.InterruptEdge, Usage: "rising|falling|both"},
		&cli.StringFlag{Name: "i2c_bus", Value: d.I2CBus},
		&cli.StringFlag{Name: "i2c_address", Usage: "I2C hex address, see i2cdetect"},
		&cli.StringFlag{Name: "spi_bus", Value: d.SPIBus},
		&cli.IntFlag{Name: "spi_channel", Value: d.SPIChannel, Usage: "SPI chip select, 0 or 1 on the Pi"},
		&cli.StringFlag{Name: "adc", Usage: "mcp3002|mcp3004|mcp3008|pcf8591|ads1115"},
		&cli.IntFlag{Name: "analog_channel", Value: d.AnalogChannel},
		&cli.IntFlag{Name: "adc_sample_rate", Value: d.ADCSampleRate, Usage: "ads1115 samples per second"},
		&cli.IntFlag{Name: "adc_millivolts", Value: d.ADCMillivolts},
		&cli.Float64Flag{Name: "adc_multiplier", Value: d.ADCMultiplier, Usage: "undo a voltage divider"},
		&cli.IntFlag{Name: "analog_scaling_factor", Value: d.AnalogScalingFactor},
		&cli.StringFlag{Name: "temperature_unit", Value: d.TemperatureUnit, Usage: "celsius|fahrenheit|kelvin|rankine"},
		&cli.StringFlag{Name: "w1_slave", Usage: "w1 slave device, see /sys/bus/w1/devices/28-*"},
		&cli.IntFlag{Name: "wind_speed_pin", Value: d.WindSpeedPin},
		&cli.StringFlag{Name: "wind_speed_unit", Value: d.WindSpeedUnit, Usage: "mph|kmh"},
		&cli.IntFlag{Name: "rain_gauge_pin", Value: d.RainGaugePin},
		&cli.StringFlag{Name: "rain_gauge_unit", Value: d.RainGaugeUnit, Usage: "in|mm"},
		&cli.StringFlag{Name: "rrd_file", Usage: "database named in rrdtool update lines"},
	}
}

// FromCLI loads the optional --config file and applies every flag the user
// set explicitly on top of it.
func FromCLI(c *cli.Context) (Config, error) {
	cfg := DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return cfg, err
		}
	}

	str := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	num := func(name string, dst *int) {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	flt := func(name string, dst *float64) {
		if c.IsSet(name) {
			*dst = c.Float64(name)
		}
	}
	flag := func(name string, dst *bool) {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}

	str("sensor", &cfg.Sensor)
	str("filter", &cfg.Filter)
	str("adc", &cfg.ADC)
	flag("only_log_value_changes", &cfg.OnlyLogValueChanges)
	num("num_results", &cfg.NumResults)
	num("sleep_millis_between_results", &cfg.SleepMillisBetweenResults)
	num("num_samples_per_result", &cfg.NumSamplesPerResult)
	num("sleep_millis_between_samples", &cfg.SleepMillisBetweenSamples)
	num("remove_n_samples_from_ends", &cfg.RemoveNSamplesFromEnds)
	num("max_retries", &cfg.MaxRetries)
	num("sleep_millis_between_retries", &cfg.SleepMillisBetweenRetries)
	flag("debug", &cfg.Debug)
	str("logfile", &cfg.Logfile)
	flag("daemon", &cfg.Daemon)
	num("gpio_pin", &cfg.GPIOPin)
	flt("counter_multiplier", &cfg.CounterMultiplier)
	str("interrupt_edge", &cfg.InterruptEdge)
	str("i2c_bus", &cfg.I2CBus)
	str("spi_bus", &cfg.SPIBus)
	num("spi_channel", &cfg.SPIChannel)
	num("analog_channel", &cfg.AnalogChannel)
	num("adc_sample_rate", &cfg.ADCSampleRate)
	num("adc_millivolts", &cfg.ADCMillivolts)
	flt("adc_multiplier", &cfg.ADCMultiplier)
	num("analog_scaling_factor", &cfg.AnalogScalingFactor)
	str("temperature_unit", &cfg.TemperatureUnit)
	str("w1_slave", &cfg.W1Slave)
	num("wind_speed_pin", &cfg.WindSpeedPin)
	str("wind_speed_unit", &cfg.WindSpeedUnit)
	num("rain_gauge_pin", &cfg.RainGaugePin)
	str("rain_gauge_unit", &cfg.RainGaugeUnit)
	str("rrd_file", &cfg.RRDFile)

	if c.IsSet("i2c_address") {
		v, err := parseI2CAddress(c.String("i2c_address"))
		if err != nil {
			return cfg, Errorf("i2c_address", "%v", err)
		}
		cfg.I2CAddress = v
	}

	switch {
	case c.IsSet("output"):
		outs, err := pairOutputs(c.StringSlice("output"), c.StringSlice("outfile"))
		if err != nil {
			return cfg, err
		}
		cfg.Outputs = outs
	case c.IsSet("outfile"):
		// --outfile alone names the files of the outputs from --config
		types := make([]string, 0, len(cfg.Outputs))
		for _, o := range cfg.Outputs {
			types = append(types, o.Type)
		}
		outs, err := pairOutputs(types, c.StringSlice("outfile"))
		if err != nil {
			return cfg, err
		}
		cfg.Outputs = outs
	}
	return cfg, nil
}

func pairOutputs(types, files []string) ([]OutputConfig, error) {
	if len(files) > 0 && len(files) != len(types) {
		return nil, Errorf("outfile", "the same number of --output and --outfile arguments is required")
	}
	outs := make([]OutputConfig, 0, len(types))
	for i, t := range types {
		o := OutputConfig{Type: t}
		if i < len(files) {
			o.File = files[i]
		}
		outs = append(outs, o)
	}
	return outs, nil
}

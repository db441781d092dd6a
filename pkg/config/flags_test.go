package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

// parseArgs runs the flag set over args and returns what FromCLI made of it.
func parseArgs(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	var (
		cfg    Config
		cliErr error
	)
	app := &cli.App{
		Name:  "yadl",
		Flags: Flags(),
		Action: func(c *cli.Context) error {
			cfg, cliErr = FromCLI(c)
			return nil
		},
	}
	if err := app.Run(append([]string{"yadl"}, args...)); err != nil {
		t.Fatalf("run: %v", err)
	}
	return cfg, cliErr
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yadl.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromCLIFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `{"sensor":"dht22","gpio_pin":17,"max_retries":5,"outputs":[{"type":"json"}]}`)
	cfg, err := parseArgs(t, "--config", path, "--gpio_pin", "4", "--i2c_address", "0x77")
	if err != nil {
		t.Fatalf("FromCLI: %v", err)
	}
	if cfg.Sensor != "dht22" || cfg.MaxRetries != 5 {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.GPIOPin != 4 || cfg.I2CAddress != 0x77 {
		t.Fatalf("flags not applied: pin %d addr %#x", cfg.GPIOPin, cfg.I2CAddress)
	}
}

func TestFromCLIOutfileWithConfigOutputs(t *testing.T) {
	path := writeConfig(t, `{"sensor":"simulation","outputs":[{"type":"csv"}]}`)
	cfg, err := parseArgs(t, "--config", path, "--outfile", "/tmp/x.csv")
	if err != nil {
		t.Fatalf("FromCLI: %v", err)
	}
	if len(cfg.Outputs) != 1 || cfg.Outputs[0].Type != "csv" || cfg.Outputs[0].File != "/tmp/x.csv" {
		t.Fatalf("outfile not paired with the file's output: %+v", cfg.Outputs)
	}

	cases := []struct {
		name, body string
		args       []string
	}{
		{"more outfiles than outputs", `{"outputs":[{"type":"csv"}]}`, []string{"--outfile", "a.csv", "--outfile", "b.csv"}},
		{"no outputs in file", `{"sensor":"simulation"}`, []string{"--outfile", "a.csv"}},
	}
	for _, c := range cases {
		args := append([]string{"--config", writeConfig(t, c.body)}, c.args...)
		_, err := parseArgs(t, args...)
		if err == nil || !strings.Contains(err.Error(), "--outfile") {
			t.Fatalf("%s: expected --outfile error, got %v", c.name, err)
		}
	}
}

func TestFromCLIOutfileWithoutConfig(t *testing.T) {
	if _, err := parseArgs(t, "--outfile", "a.csv"); err == nil {
		t.Fatalf("expected --outfile error without any output")
	}
}

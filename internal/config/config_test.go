package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eskila/jdoc/internal/moisture"
)

const sampleConfig = `{
	// board on the balcony
	"esp_ip": "192.168.1.50",
	"pins": [
		{"pin": 32, "plant_name": "basil"},
		{"pin": 33, "plant_name": "mint"}, // trailing comma below is fine
	],
	"csv_path": "readings.csv",
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("jsonc file with defaults applied", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, sampleConfig), nil)
		require.NoError(t, err)

		assert.Equal(t, "192.168.1.50", cfg.ESPAddr)
		assert.Equal(t, []moisture.Pin{{Pin: 32, PlantName: "basil"}, {Pin: 33, PlantName: "mint"}}, cfg.Pins)
		assert.Equal(t, "readings.csv", cfg.CSVPath)
		assert.Equal(t, SinkCSV, cfg.Sink)
		assert.Equal(t, 2500, cfg.DryValue)
		assert.Equal(t, 800, cfg.WetValue)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, 0, cfg.Retries)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "readings.csv", cfg.SinkPath())
	})

	t.Run("file values override defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `{
			"esp_ip": "esp.local",
			"pins": [{"pin": 34, "plant_name": "fern"}],
			"sink": "sqlite",
			"sqlite_path": "readings.db",
			"dry_value": 3000,
			"wet_value": 1000,
			"timeout": "2s",
			"retries": 3
		}`), nil)
		require.NoError(t, err)
		assert.Equal(t, SinkSQLite, cfg.Sink)
		assert.Equal(t, "readings.db", cfg.SinkPath())
		assert.Equal(t, 3000, cfg.Calibration().Dry)
		assert.Equal(t, 1000, cfg.Calibration().Wet)
		assert.Equal(t, 2*time.Second, cfg.Timeout)
		assert.Equal(t, 3, cfg.Retries)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("MOISTURE_ESP_IP", "10.0.0.9")
		t.Setenv("MOISTURE_RETRIES", "2")
		cfg, err := Load(writeConfig(t, sampleConfig), nil)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.9", cfg.ESPAddr)
		assert.Equal(t, 2, cfg.Retries)
	})

	t.Run("explicit flags override file", func(t *testing.T) {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		BindFlags(fs)
		require.NoError(t, fs.Parse([]string{"--sink", "jsonl", "--jsonl-path", "out.jsonl"}))

		cfg, err := Load(writeConfig(t, sampleConfig), fs)
		require.NoError(t, err)
		assert.Equal(t, SinkJSONL, cfg.Sink)
		assert.Equal(t, "out.jsonl", cfg.SinkPath())
		assert.Equal(t, 5*time.Second, cfg.Timeout, "unset flag must not override")
	})

	t.Run("bare number timeout is seconds", func(t *testing.T) {
		for content, want := range map[string]time.Duration{
			`{"esp_ip": "x", "pins": [{"pin": 32, "plant_name": "a"}], "csv_path": "o.csv", "timeout": 5}`:    5 * time.Second,
			`{"esp_ip": "x", "pins": [{"pin": 32, "plant_name": "a"}], "csv_path": "o.csv", "timeout": 0.25}`: 250 * time.Millisecond,
			`{"esp_ip": "x", "pins": [{"pin": 32, "plant_name": "a"}], "csv_path": "o.csv", "timeout": "3"}`:  3 * time.Second,
		} {
			cfg, err := Load(writeConfig(t, content), nil)
			require.NoError(t, err)
			assert.Equal(t, want, cfg.Timeout, content)
		}
	})

	t.Run("timeout from environment in seconds", func(t *testing.T) {
		t.Setenv("MOISTURE_TIMEOUT", "7")
		cfg, err := Load(writeConfig(t, sampleConfig), nil)
		require.NoError(t, err)
		assert.Equal(t, 7*time.Second, cfg.Timeout)
	})

	t.Run("tiny timeout rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"esp_ip": "x", "pins": [{"pin": 32, "plant_name": "a"}], "csv_path": "o.csv", "timeout": "5ns"}`), nil)
		require.ErrorContains(t, err, "timeout must be at least 1ms")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"), nil)
		require.ErrorContains(t, err, "read config")
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"esp_ip": `), nil)
		require.ErrorContains(t, err, "parse config")
	})

	t.Run("validation failure", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"pins": []}`), nil)
		require.ErrorContains(t, err, "invalid config")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ESPAddr:  "esp.local",
			Pins:     []moisture.Pin{{Pin: 32, PlantName: "basil"}},
			CSVPath:  "out.csv",
			Sink:     SinkCSV,
			DryValue: 2500,
			WetValue: 800,
			Timeout:  time.Second,
			LogLevel: "info",
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"missing esp address", func(c *Config) { c.ESPAddr = " " }, "esp_ip is required"},
		{"no pins", func(c *Config) { c.Pins = nil }, "at least one pin"},
		{"empty plant name", func(c *Config) { c.Pins[0].PlantName = "" }, "plant_name is required"},
		{"duplicate plant name", func(c *Config) { c.Pins = append(c.Pins, moisture.Pin{Pin: 33, PlantName: "basil"}) }, "duplicate plant_name"},
		{"negative pin", func(c *Config) { c.Pins[0].Pin = -1 }, "pin must not be negative"},
		{"inverted calibration", func(c *Config) { c.DryValue = 100 }, "must be greater than wet"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be at least 1ms"},
		{"sub millisecond timeout", func(c *Config) { c.Timeout = 5 * time.Nanosecond }, "timeout must be at least 1ms"},
		{"negative retries", func(c *Config) { c.Retries = -1 }, "retries must not be negative"},
		{"unknown sink", func(c *Config) { c.Sink = "kafka" }, "unknown sink"},
		{"missing sink path", func(c *Config) { c.Sink = SinkSQLite }, "sqlite_path is required"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			require.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

// Package config loads the moisture collector settings from a JSON file
// (comments and trailing commas allowed), MOISTURE_* environment variables
// and command line flags, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"

	"github.com/eskila/jdoc/internal/logging"
	"github.com/eskila/jdoc/internal/moisture"
	"github.com/eskila/jdoc/internal/sink"
)

const EnvPrefix = "MOISTURE"

// Sink names.
const (
	SinkCSV    = sink.CSV
	SinkSQLite = sink.SQLite
	SinkJSONL  = sink.JSONL
)

const (
	DefaultTimeout = 5 * time.Second
	MinTimeout     = time.Millisecond
)

// Config holds everything a collection run needs.
type Config struct {
	ESPAddr    string         `mapstructure:"esp_ip"`
	Pins       []moisture.Pin `mapstructure:"pins"`
	CSVPath    string         `mapstructure:"csv_path"`
	SQLitePath string         `mapstructure:"sqlite_path"`
	JSONLPath  string         `mapstructure:"jsonl_path"`
	Sink       string         `mapstructure:"sink"`
	DryValue   int            `mapstructure:"dry_value"`
	WetValue   int            `mapstructure:"wet_value"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	Retries    int            `mapstructure:"retries"`
	LogLevel   string         `mapstructure:"log_level"`
}

// flagKeys maps flag names registered by BindFlags to config keys.
var flagKeys = map[string]string{
	"esp-ip":      "esp_ip",
	"csv-path":    "csv_path",
	"sqlite-path": "sqlite_path",
	"jsonl-path":  "jsonl_path",
	"sink":        "sink",
	"timeout":     "timeout",
	"retries":     "retries",
	"log-level":   "log_level",
}

// BindFlags registers the collector flags on fs. Their values only take
// effect when set explicitly.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("esp-ip", "", "Address of the ESP sensor board (host or host:port)")
	fs.String("csv-path", "", "CSV file readings are appended to")
	fs.String("sqlite-path", "", "SQLite database readings are inserted into")
	fs.String("jsonl-path", "", "JSON lines file readings are appended to")
	fs.String("sink", "", "Where readings go: csv, sqlite or jsonl")
	fs.Duration("timeout", DefaultTimeout, "Per-request timeout for sensor reads")
	fs.Int("retries", 0, "Retries per sensor read after the first attempt")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("esp_ip", "")
	v.SetDefault("csv_path", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("jsonl_path", "")
	v.SetDefault("sink", SinkCSV)
	v.SetDefault("dry_value", moisture.DefaultDry)
	v.SetDefault("wet_value", moisture.DefaultWet)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("retries", 0)
	v.SetDefault("log_level", "info")
}

// Load reads the config file at path (skipped when path is empty), applies
// environment and flag overrides and validates the result. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %q: %w", name, err)
			}
		}
	}

	if path != "" {
		if err := readFile(v, path); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// secondsToDurationHookFunc reads bare numbers given for a duration, such as
// "timeout": 5 in a config file or MOISTURE_TIMEOUT=2.5, as seconds.
func secondsToDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != durationType || from == durationType {
			return data, nil
		}
		var seconds float64
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			seconds = float64(reflect.ValueOf(data).Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			seconds = float64(reflect.ValueOf(data).Uint())
		case reflect.Float32, reflect.Float64:
			seconds = reflect.ValueOf(data).Float()
		case reflect.String:
			f, err := strconv.ParseFloat(strings.TrimSpace(data.(string)), 64)
			if err != nil {
				return data, nil
			}
			seconds = f
		default:
			return data, nil
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
}

func readFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(jsonc.ToJSON(data))); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ESPAddr) == "" {
		errs = append(errs, errors.New("esp_ip is required"))
	}
	if len(c.Pins) == 0 {
		errs = append(errs, errors.New("at least one pin is required"))
	}
	seen := make(map[string]struct{}, len(c.Pins))
	for i, p := range c.Pins {
		name := strings.TrimSpace(p.PlantName)
		if name == "" {
			errs = append(errs, fmt.Errorf("pins[%d]: plant_name is required", i))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("pins[%d]: duplicate plant_name %q", i, name))
		}
		seen[name] = struct{}{}
		if p.Pin < 0 {
			errs = append(errs, fmt.Errorf("pins[%d]: pin must not be negative", i))
		}
	}
	if err := c.Calibration().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout < MinTimeout {
		errs = append(errs, fmt.Errorf("timeout must be at least %s, got %s", MinTimeout, c.Timeout))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", c.Retries))
	}
	switch {
	case !sink.Default.Has(c.Sink):
		errs = append(errs, fmt.Errorf("unknown sink %q (expected one of %v)", c.Sink, sink.Default.Kinds()))
	case c.SinkPath() == "":
		errs = append(errs, fmt.Errorf("%s_path is required for sink %q", c.Sink, c.Sink))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Calibration returns the dry/wet calibration of the sensors.
func (c *Config) Calibration() moisture.Calibration {
	return moisture.Calibration{Dry: c.DryValue, Wet: c.WetValue}
}

// SinkPath returns the output path for the selected sink.
func (c *Config) SinkPath() string {
	switch c.Sink {
	case SinkCSV:
		return c.CSVPath
	case SinkSQLite:
		return c.SQLitePath
	case SinkJSONL:
		return c.JSONLPath
	}
	return ""
}

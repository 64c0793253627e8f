package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	yaml "github.com/goccy/go-yaml"

	"coopsched/internal/sched"
)

// Config mirrors the YAML scenario file.
type Config struct {
	TickMS      int    `yaml:"tick_ms"`      // 5 (by default)
	MaxTicks    uint64 `yaml:"max_ticks"`    // 0 = until the root completes
	LogLevel    string `yaml:"log_level"`    // info (by default)
	PersistRoot bool   `yaml:"persist_root"` // keep the root alive when empty
	MaxTasks    int    `yaml:"max_tasks"`    // per runner; 0 = unbounded
	DebounceMS  uint64 `yaml:"debounce_ms"`  // 50 (by default); 0 disables filtering
	MetricsAddr string `yaml:"metrics_addr"` // e.g. ":9100"; empty disables
	TraceCSV    string `yaml:"trace_csv"`    // event trace path; empty disables

	Inputs   []InputConfig   `yaml:"inputs"`
	Blinkers []BlinkerConfig `yaml:"blinkers"`
	Script   []PinEvent      `yaml:"script"`
}

// InputConfig describes one debounced switch.
type InputConfig struct {
	Name       string  `yaml:"name"`
	Pin        int     `yaml:"pin"`
	Wiring     string  `yaml:"wiring"`      // internal_pullup | external_pullup | external_pulldown
	DebounceMS *uint64 `yaml:"debounce_ms"` // unset = global debounce_ms
}

// BlinkerConfig describes an output toggled on a fixed period.
type BlinkerConfig struct {
	Name     string `yaml:"name"`
	Pin      int    `yaml:"pin"`
	PeriodMS uint64 `yaml:"period_ms"`
	Count    int    `yaml:"count"` // toggles; 0 = forever
}

// PinEvent drives a simulated input at a point in time.
type PinEvent struct {
	AtMS  uint64 `yaml:"at_ms"`
	Pin   int    `yaml:"pin"`
	Level string `yaml:"level"` // high | low
}

// If the config file is not found, we use default values
func defaultConfig() Config {
	return Config{
		TickMS:     5,
		LogLevel:   "info",
		DebounceMS: sched.DefaultDebounceMS,
	}
}

// Default returns the configuration used when no file is given.
func Default() Config { return defaultConfig() }

// Load reads YAML and overrides defaults; empty path or a missing file means
// defaults only.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults, clamps out-of-range values and
// validates the result.
func Parse(data []byte) (Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	// sanity clamps
	if cfg.TickMS <= 0 {
		cfg.TickMS = 5
	}
	if cfg.MaxTasks < 0 {
		cfg.MaxTasks = 0
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	for i := range cfg.Inputs {
		if cfg.Inputs[i].DebounceMS == nil {
			cfg.Inputs[i].DebounceMS = sched.Debounce(cfg.DebounceMS)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// InputDebounce returns the debounce window of in, falling back to the
// global debounce_ms.
func (c Config) InputDebounce(in InputConfig) uint64 {
	if in.DebounceMS != nil {
		return *in.DebounceMS
	}
	return c.DebounceMS
}

// Validate checks enum names and pin assignments.
func (c Config) Validate() error {
	var errs []error
	used := make(map[int]string)
	claim := func(pin int, owner string) {
		if prev, ok := used[pin]; ok {
			errs = append(errs, fmt.Errorf("pin %d used by both %s and %s", pin, prev, owner))
			return
		}
		used[pin] = owner
	}

	for i, in := range c.Inputs {
		if _, err := sched.ParseWiring(in.Wiring); err != nil {
			errs = append(errs, fmt.Errorf("inputs[%d]: %w", i, err))
		}
		if in.Pin < 0 {
			errs = append(errs, fmt.Errorf("inputs[%d]: negative pin %d", i, in.Pin))
		}
		claim(in.Pin, fmt.Sprintf("inputs[%d]", i))
	}
	for i, b := range c.Blinkers {
		if b.PeriodMS == 0 {
			errs = append(errs, fmt.Errorf("blinkers[%d]: period_ms must be positive", i))
		}
		if b.Count < 0 {
			errs = append(errs, fmt.Errorf("blinkers[%d]: negative count", i))
		}
		if b.Pin < 0 {
			errs = append(errs, fmt.Errorf("blinkers[%d]: negative pin %d", i, b.Pin))
		}
		claim(b.Pin, fmt.Sprintf("blinkers[%d]", i))
	}
	for i, ev := range c.Script {
		if _, err := ev.Parse(); err != nil {
			errs = append(errs, fmt.Errorf("script[%d]: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

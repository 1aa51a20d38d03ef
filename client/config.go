package client

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/adamwoolhether/gdata/auth"
	"github.com/adamwoolhether/gdata/client/throttle"
	"github.com/adamwoolhether/gdata/internal/validate"
)

// Defaults applied by [DefaultConfig].
const (
	DefaultAPIVersion = "2"
	DefaultScheme     = "https"
)

// Config holds every per-client default. It can be loaded from TOML with
// [LoadConfig] and applied with [WithConfig]; the individual With* options
// override single fields.
type Config struct {
	APIVersion     string            `toml:"api_version" validate:"required"`
	Scheme         string            `toml:"scheme" validate:"required,oneof=http https"`
	Host           string            `toml:"host"`
	Source         string            `toml:"source"`
	UserAgent      string            `toml:"user_agent"`
	Headers        map[string]string `toml:"headers"`
	Endpoints      auth.Endpoints    `toml:"endpoints"`
	Timeout        Duration          `toml:"timeout" validate:"gte=0"`
	ConnectTimeout Duration          `toml:"connect_timeout" validate:"gte=0"`
	ReadTimeout    Duration          `toml:"read_timeout" validate:"gte=0"`
	Throttle       ThrottleConfig    `toml:"throttle"`
	// StripIDPrefix makes DeleteEntry resolve an entry's atom:id against the
	// client's host instead of the host named in the id.
	StripIDPrefix bool `toml:"strip_id_prefix"`
	// RedirectLimit is how many redirects Do follows before returning
	// ErrRedirect. Zero follows none.
	RedirectLimit int `toml:"redirect_limit" validate:"gte=0,lte=10"`
}

type ThrottleConfig struct {
	RPS        int      `toml:"rps" validate:"gte=0"`
	Burst      int      `toml:"burst" validate:"gte=0"`
	MaxBackoff Duration `toml:"max_backoff" validate:"gte=0"`
}

func (t ThrottleConfig) throttle() throttle.Config {
	return throttle.Config{RPS: t.RPS, Burst: t.Burst, MaxBackoff: time.Duration(t.MaxBackoff)}
}

// DefaultConfig returns API version 2 over https against the hosted
// account endpoints, with no default host.
func DefaultConfig() Config {
	return Config{
		APIVersion: DefaultAPIVersion,
		Scheme:     DefaultScheme,
		Endpoints:  auth.DefaultEndpoints(),
	}
}

func (c Config) withDefaults() Config {
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	c.Endpoints = c.Endpoints.WithDefaults()

	return c
}

// LoadConfig reads a TOML file over [DefaultConfig] and validates the
// result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config %s: %w", path, err)
	}

	cfg = cfg.withDefaults()
	if err := validate.Check(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Duration is a time.Duration written as a Go duration string ("10s") in
// TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)

	return nil
}

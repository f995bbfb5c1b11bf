package config

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/thiagokokada/barsync/jitter"
	"github.com/thiagokokada/barsync/logging"
)

// Config is the whole configuration file.
type Config struct {
	Log        logging.Config   `yaml:"log" json:"log" toml:"log" jsonschema:"description=Logging options"`
	Hyprland   HyprlandConfig   `yaml:"hyprland" json:"hyprland" toml:"hyprland" jsonschema:"description=Compositor provider"`
	PulseAudio PulseAudioConfig `yaml:"pulseaudio" json:"pulseaudio" toml:"pulseaudio" jsonschema:"description=Audio provider"`
	OpenRazer  OpenRazerConfig  `yaml:"openrazer" json:"openrazer" toml:"openrazer" jsonschema:"description=Peripheral battery provider"`
}

type HyprlandConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`
	// Empty means derived from HYPRLAND_INSTANCE_SIGNATURE.
	RequestSocket string `yaml:"request_socket,omitempty" json:"request_socket,omitempty" toml:"request_socket,omitempty" jsonschema:"description=Path of .socket.sock"`
	EventSocket   string `yaml:"event_socket,omitempty" json:"event_socket,omitempty" toml:"event_socket,omitempty" jsonschema:"description=Path of .socket2.sock"`
}

type PulseAudioConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`
	// Empty means the default server.
	Server     string `yaml:"server,omitempty" json:"server,omitempty" toml:"server,omitempty" jsonschema:"description=Server address, e.g. unix:/run/user/1000/pulse/native"`
	ClientName string `yaml:"client_name" json:"client_name" toml:"client_name"`
}

type OpenRazerConfig struct {
	Enabled     bool        `yaml:"enabled" json:"enabled" toml:"enabled"`
	PollingRate PollingRate `yaml:"polling_rate" json:"polling_rate" toml:"polling_rate" jsonschema:"description=Delay between two battery polls"`
}

type PollingRateType string

const (
	Constant         PollingRateType = "constant"
	VariedByRatio    PollingRateType = "varied_by_ratio"
	VariedByDuration PollingRateType = "varied_by_duration"
)

// PollingRate is a tagged union selecting a [jitter.Policy]. Ratio is only
// used by varied_by_ratio and Variance by varied_by_duration.
type PollingRate struct {
	Type     PollingRateType `yaml:"type" json:"type" toml:"type" jsonschema:"enum=constant,enum=varied_by_ratio,enum=varied_by_duration"`
	Interval Duration        `yaml:"interval" json:"interval" toml:"interval"`
	Ratio    float64         `yaml:"ratio,omitempty" json:"ratio,omitempty" toml:"ratio,omitempty" jsonschema:"minimum=0,maximum=1"`
	Variance Duration        `yaml:"variance,omitempty" json:"variance,omitempty" toml:"variance,omitempty"`
}

// Policy returns the jitter policy described by p.
func (p PollingRate) Policy() (jitter.Policy, error) {
	if p.Interval <= 0 {
		return nil, fmt.Errorf("polling_rate: interval must be positive, got %s", p.Interval)
	}
	switch p.Type {
	case Constant:
		return jitter.Constant{Interval: time.Duration(p.Interval)}, nil
	case VariedByRatio:
		return jitter.VariedByRatio{Interval: time.Duration(p.Interval), Variance: p.Ratio}, nil
	case VariedByDuration:
		return jitter.VariedByDuration{
			Interval: time.Duration(p.Interval),
			Variance: time.Duration(p.Variance),
		}, nil
	default:
		return nil, fmt.Errorf("polling_rate: unknown type %q", p.Type)
	}
}

// Duration is a time.Duration written as a string, e.g. "1m30s".
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration, e.g. 500ms or 1m30s",
	}
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
		Hyprland: HyprlandConfig{
			Enabled: true,
		},
		PulseAudio: PulseAudioConfig{
			Enabled:    true,
			ClientName: "barsync",
		},
		OpenRazer: OpenRazerConfig{
			Enabled: true,
			PollingRate: PollingRate{
				Type:     VariedByRatio,
				Interval: Duration(10 * time.Second),
				Ratio:    0.1,
			},
		},
	}
}

// Validate checks the values that cannot be expressed by the types alone.
func (c *Config) Validate() error {
	if _, err := c.OpenRazer.PollingRate.Policy(); err != nil {
		return fmt.Errorf("openrazer: %w", err)
	}
	return nil
}

// Package config loads the floor configuration from a YAML file, environment
// variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/tile-floor/internal/gpio"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// EnvPrefix is prepended to environment overrides, e.g. TILEFLOOR_GAME_POLICY.
const EnvPrefix = "TILEFLOOR"

// Layout schemes.
const (
	LayoutSegment = "segment"
	LayoutGrid    = "grid"
)

// Sequence modes.
const (
	SequenceFixed  = "fixed"
	SequenceRandom = "random"
)

type Config struct {
	Tiles        int           `mapstructure:"tiles"`
	Poll         time.Duration `mapstructure:"poll"`
	Heartbeat    time.Duration `mapstructure:"heartbeat"`
	CommandQueue int           `mapstructure:"command_queue"`
	LogLevel     string        `mapstructure:"log_level"`

	Layout LayoutConfig `mapstructure:"layout"`
	LED    LEDConfig    `mapstructure:"led"`
	Sensor SensorConfig `mapstructure:"sensor"`
	Game   GameConfig   `mapstructure:"game"`
	MQTT   MQTTConfig   `mapstructure:"mqtt"`
	HTTP   HTTPConfig   `mapstructure:"http"`
}

type LayoutConfig struct {
	Scheme        string          `mapstructure:"scheme"`
	PixelsPerTile int             `mapstructure:"pixels_per_tile"`
	Segments      []SegmentConfig `mapstructure:"segments"`
	Width         int             `mapstructure:"width"`
	Height        int             `mapstructure:"height"`
}

// SegmentConfig is one tile's [start, end) pixel range.
type SegmentConfig struct {
	Start int `mapstructure:"start"`
	End   int `mapstructure:"end"`
}

type LEDConfig struct {
	Pin        int `mapstructure:"pin"`
	Brightness int `mapstructure:"brightness"`
	// Count overrides the pixel count derived from the layout.
	Count int `mapstructure:"count"`
}

type SensorConfig struct {
	// Polarity is "lower" or "higher". It depends on the pad wiring and
	// has no default.
	Polarity     string        `mapstructure:"polarity"`
	Channels     []int         `mapstructure:"channels"`
	Settle       time.Duration `mapstructure:"settle"`
	Alpha        float64       `mapstructure:"alpha"`
	PressDwell   time.Duration `mapstructure:"press_dwell"`
	ReleaseDwell time.Duration `mapstructure:"release_dwell"`

	Calibration CalibrationConfig `mapstructure:"calibration"`
	Static      StaticConfig      `mapstructure:"static"`

	GPIOChip   string `mapstructure:"gpio_chip"`
	MuxPins    []int  `mapstructure:"mux_pins"`
	SPIPort    string `mapstructure:"spi_port"`
	ADCChannel int    `mapstructure:"adc_channel"`
}

type CalibrationConfig struct {
	Samples       int     `mapstructure:"samples"`
	PressFactor   float64 `mapstructure:"press_factor"`
	ReleaseFactor float64 `mapstructure:"release_factor"`
}

// StaticConfig replaces calibration with fixed thresholds when enabled.
type StaticConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Press   float64 `mapstructure:"press"`
	Release float64 `mapstructure:"release"`
}

type GameConfig struct {
	Policy    string         `mapstructure:"policy"`
	Show      time.Duration  `mapstructure:"show"`
	Success   time.Duration  `mapstructure:"success"`
	Failure   time.Duration  `mapstructure:"failure"`
	Autostart bool           `mapstructure:"autostart"`
	Colors    ColorConfig    `mapstructure:"colors"`
	Sequence  SequenceConfig `mapstructure:"sequence"`
}

type ColorConfig struct {
	Tiles   []string `mapstructure:"tiles"`
	Hit     string   `mapstructure:"hit"`
	Wrong   string   `mapstructure:"wrong"`
	Success string   `mapstructure:"success"`
	Failure string   `mapstructure:"failure"`
}

type SequenceConfig struct {
	Mode string  `mapstructure:"mode"`
	Min  int     `mapstructure:"min"`
	Max  int     `mapstructure:"max"`
	Sets [][]int `mapstructure:"sets"`
	// Playlist is a YAML file of sets, resolved relative to the config file.
	Playlist string `mapstructure:"playlist"`
}

type MQTTConfig struct {
	// Broker is the MQTT URL; empty disables MQTT.
	Broker     string `mapstructure:"broker"`
	ClientID   string `mapstructure:"client_id"`
	BufferSize int    `mapstructure:"buffer_size"`
}

type HTTPConfig struct {
	Addr       string        `mapstructure:"addr"`
	WSInterval time.Duration `mapstructure:"ws_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tiles", 9)
	v.SetDefault("poll", 10*time.Millisecond)
	v.SetDefault("heartbeat", 15*time.Minute)
	v.SetDefault("command_queue", 8)
	v.SetDefault("log_level", "info")

	v.SetDefault("layout.scheme", LayoutGrid)
	v.SetDefault("layout.pixels_per_tile", 1)
	v.SetDefault("layout.segments", []SegmentConfig{})
	v.SetDefault("layout.width", 3)
	v.SetDefault("layout.height", 3)

	v.SetDefault("led.pin", 18)
	v.SetDefault("led.brightness", 128)
	v.SetDefault("led.count", 0)

	v.SetDefault("sensor.polarity", "")
	v.SetDefault("sensor.channels", []int{})
	v.SetDefault("sensor.settle", 200*time.Microsecond)
	v.SetDefault("sensor.alpha", 0.3)
	v.SetDefault("sensor.press_dwell", 60*time.Millisecond)
	v.SetDefault("sensor.release_dwell", 60*time.Millisecond)
	v.SetDefault("sensor.calibration.samples", 32)
	v.SetDefault("sensor.calibration.press_factor", 0.70)
	v.SetDefault("sensor.calibration.release_factor", 0.85)
	v.SetDefault("sensor.static.enabled", false)
	v.SetDefault("sensor.static.press", 0.0)
	v.SetDefault("sensor.static.release", 0.0)
	v.SetDefault("sensor.gpio_chip", "gpiochip0")
	v.SetDefault("sensor.mux_pins", gpio.DefaultPins)
	v.SetDefault("sensor.spi_port", "")
	v.SetDefault("sensor.adc_channel", 0)

	v.SetDefault("game.policy", "hold")
	v.SetDefault("game.show", 2*time.Second)
	v.SetDefault("game.success", 600*time.Millisecond)
	v.SetDefault("game.failure", 600*time.Millisecond)
	v.SetDefault("game.autostart", false)
	v.SetDefault("game.colors.tiles", []string{})
	v.SetDefault("game.colors.hit", "#00FF00")
	v.SetDefault("game.colors.wrong", "#FF0000")
	v.SetDefault("game.colors.success", "#00FF00")
	v.SetDefault("game.colors.failure", "#FF0000")
	v.SetDefault("game.sequence.mode", SequenceRandom)
	v.SetDefault("game.sequence.min", 1)
	v.SetDefault("game.sequence.max", 3)
	v.SetDefault("game.sequence.sets", [][]int{})
	v.SetDefault("game.sequence.playlist", "")

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "tile-floor")
	v.SetDefault("mqtt.buffer_size", 100)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.ws_interval", 500*time.Millisecond)
}

// Load reads path (optional), applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if p := cfg.Game.Sequence.Playlist; p != "" {
		if !filepath.IsAbs(p) && path != "" {
			p = filepath.Join(filepath.Dir(path), p)
		}
		sets, err := LoadPlaylist(p)
		if err != nil {
			return nil, err
		}
		cfg.Game.Sequence.Sets = sets
	}

	if len(cfg.Sensor.Channels) == 0 {
		cfg.Sensor.Channels = identity(cfg.Tiles)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Playlist is the on-disk form of a fixed rotation.
type Playlist struct {
	Sets [][]int `yaml:"sets"`
}

// LoadPlaylist reads a YAML playlist file.
func LoadPlaylist(path string) ([][]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	var pl Playlist
	if err := yaml.Unmarshal(data, &pl); err != nil {
		return nil, fmt.Errorf("parse playlist %s: %w", path, err)
	}
	if len(pl.Sets) == 0 {
		return nil, fmt.Errorf("%w: playlist %s has no sets", ErrInvalid, path)
	}
	return pl.Sets, nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

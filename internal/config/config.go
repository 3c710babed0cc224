package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"swipeable/internal/carousel"
	"swipeable/internal/logging"
	"swipeable/internal/swipe"
)

// Config is the top-level YAML configuration shared by swiped and swipe-tui.
//
// Keep defaults and validation centralized so the rest of the code can assume
// a well-formed config.
type Config struct {
	// WebSocket server
	Server ServerConfig `yaml:"server"`

	// Gesture and settle tuning plus the local carousel geometry
	Carousel CarouselConfig `yaml:"carousel"`

	// Local touch input (evdev)
	Input InputConfig `yaml:"input"`

	// IPC control socket
	IPC IPCConfig `yaml:"ipc"`

	Logging LoggingConfig `yaml:"logging"`

	// Swatches are the items of the demo carousel, as lipgloss colors.
	Swatches []string `yaml:"swatches"`
}

type ServerConfig struct {
	Listen         string `yaml:"listen"`
	Path           string `yaml:"path"`
	PingIntervalMS int    `yaml:"ping_interval_ms"`
	SendBuf        int    `yaml:"send_buf"`
}

type CarouselConfig struct {
	PeekOffsetPercent        int     `yaml:"peek_offset_percent"`
	DistanceThresholdPercent int     `yaml:"distance_threshold_percent,omitempty"` // 0 derives it from the peek
	TapEdgePercent           int     `yaml:"tap_edge_percent,omitempty"`           // 0 uses the peek
	FlingVelocity            float64 `yaml:"fling_velocity"`
	TapDeadZonePx            float64 `yaml:"tap_dead_zone_px"`
	ReleaseIdleMS            int     `yaml:"release_idle_ms"`
	Deceleration             float64 `yaml:"deceleration"`
	MinSettleSpeed           float64 `yaml:"min_settle_speed"`
	MaxSettleSpeed           float64 `yaml:"max_settle_speed"`
	FrameHz                  int     `yaml:"frame_hz"`

	// Geometry of the daemon's local carousel (evdev and IPC driven).
	Width      float64 `yaml:"width"`
	ItemCount  int     `yaml:"item_count"`
	StartIndex int     `yaml:"start_index"`
}

type InputConfig struct {
	Enabled bool     `yaml:"enabled"`
	Devices []string `yaml:"devices"`

	// Scale converts device units to pixels (0 means 1:1).
	Scale float64 `yaml:"scale,omitempty"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Listen:         "127.0.0.1:8088",
			Path:           "/ws",
			PingIntervalMS: 30000,
			SendBuf:        64,
		},
		Carousel: CarouselConfig{
			PeekOffsetPercent: swipe.DefaultPeekOffsetPercent,
			FlingVelocity:     swipe.DefaultFlingVelocity,
			TapDeadZonePx:     swipe.DefaultTapDeadZonePx,
			ReleaseIdleMS:     swipe.DefaultReleaseIdleMs,
			Deceleration:      swipe.DefaultDeceleration,
			MinSettleSpeed:    swipe.DefaultMinSettleSpeed,
			MaxSettleSpeed:    swipe.DefaultMaxSettleSpeed,
			FrameHz:           carousel.DefaultFrameHz,
			Width:             1080,
			ItemCount:         5,
		},
		Input: InputConfig{
			Enabled: false,
			Devices: []string{"/dev/input/event0"},
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/swiped.sock",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Swatches: []string{"#F25D94", "#EDFF82", "#5FD7FF", "#A8E6CF", "#B58AFF"},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of DefaultConfig.
func Parse(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides are applied on top of a loaded config.
// Each override is only applied if its pointer is non-nil.
type FlagOverrides struct {
	Listen *string

	PeekOffsetPercent *int
	FlingVelocity     *float64
	FrameHz           *int
	Width             *float64
	ItemCount         *int

	InputEnabled *bool
	InputDevice  *string

	IPCSocketPath *string

	LogLevel *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
// If the pointer is non-nil, the value is applied (even if it is a zero value).
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Listen != nil {
		cfg.Server.Listen = *o.Listen
	}

	if o.PeekOffsetPercent != nil {
		cfg.Carousel.PeekOffsetPercent = *o.PeekOffsetPercent
	}
	if o.FlingVelocity != nil {
		cfg.Carousel.FlingVelocity = *o.FlingVelocity
	}
	if o.FrameHz != nil {
		cfg.Carousel.FrameHz = *o.FrameHz
	}
	if o.Width != nil {
		cfg.Carousel.Width = *o.Width
	}
	if o.ItemCount != nil {
		cfg.Carousel.ItemCount = *o.ItemCount
	}

	if o.InputEnabled != nil {
		cfg.Input.Enabled = *o.InputEnabled
	}
	if o.InputDevice != nil {
		cfg.Input.Devices = []string{*o.InputDevice}
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Server
	if c.Server.Listen == "" {
		return errors.New("server.listen must not be empty")
	}
	if c.Server.Path == "" || c.Server.Path[0] != '/' {
		return errors.New("server.path must start with /")
	}
	if c.Server.PingIntervalMS <= 0 {
		return errors.New("server.ping_interval_ms must be > 0")
	}
	if c.Server.SendBuf <= 0 {
		return errors.New("server.send_buf must be > 0")
	}

	// Carousel
	cc := c.Carousel
	if cc.PeekOffsetPercent < 0 || cc.PeekOffsetPercent > 50 {
		return errors.New("carousel.peek_offset_percent must be between 0 and 50")
	}
	if cc.DistanceThresholdPercent < 0 || cc.DistanceThresholdPercent > 100 {
		return errors.New("carousel.distance_threshold_percent must be between 0 and 100")
	}
	if cc.TapEdgePercent < 0 || cc.TapEdgePercent > 50 {
		return errors.New("carousel.tap_edge_percent must be between 0 and 50")
	}
	if cc.FlingVelocity <= 0 {
		return errors.New("carousel.fling_velocity must be > 0")
	}
	if cc.TapDeadZonePx < 0 {
		return errors.New("carousel.tap_dead_zone_px must be >= 0")
	}
	if cc.ReleaseIdleMS <= 0 {
		return errors.New("carousel.release_idle_ms must be > 0")
	}
	if cc.Deceleration <= 0 {
		return errors.New("carousel.deceleration must be > 0")
	}
	if cc.MinSettleSpeed <= 0 {
		return errors.New("carousel.min_settle_speed must be > 0")
	}
	if cc.MaxSettleSpeed < cc.MinSettleSpeed {
		return errors.New("carousel.max_settle_speed must be >= carousel.min_settle_speed")
	}
	if cc.FrameHz <= 0 || cc.FrameHz > 1000 {
		return errors.New("carousel.frame_hz must be between 1 and 1000")
	}
	if cc.Width < 0 {
		return errors.New("carousel.width must be >= 0")
	}
	if cc.ItemCount < 0 {
		return errors.New("carousel.item_count must be >= 0")
	}

	// Input
	if c.Input.Enabled {
		if len(c.Input.Devices) == 0 {
			return errors.New("input.enabled is true but input.devices is empty")
		}
		for i, dev := range c.Input.Devices {
			if dev == "" {
				return fmt.Errorf("input.devices[%d] is empty", i)
			}
		}
	}
	if c.Input.Scale < 0 {
		return errors.New("input.scale must be >= 0")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// Logging
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	for i, s := range c.Swatches {
		if s == "" {
			return fmt.Errorf("swatches[%d] is empty", i)
		}
	}

	return nil
}

// Tuning converts the carousel section into recognizer/settle tuning.
func (c *Config) Tuning() swipe.Tuning {
	cc := c.Carousel
	return swipe.Tuning{
		PeekOffsetPercent:        cc.PeekOffsetPercent,
		DistanceThresholdPercent: cc.DistanceThresholdPercent,
		TapEdgePercent:           cc.TapEdgePercent,
		FlingVelocity:            cc.FlingVelocity,
		TapDeadZonePx:            cc.TapDeadZonePx,
		ReleaseIdleMs:            int64(cc.ReleaseIdleMS),
		Deceleration:             cc.Deceleration,
		MinSettleSpeed:           cc.MinSettleSpeed,
		MaxSettleSpeed:           cc.MaxSettleSpeed,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}

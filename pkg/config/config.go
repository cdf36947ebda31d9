// Package config loads plinth settings from YAML. Every field has a
// default, so a config file only needs the values it changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chazu/plinth/pkg/clash"
	"github.com/chazu/plinth/pkg/rooms"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

var validate = validator.New()

// Config is the root of a plinth config file.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
	Rooms  RoomsConfig  `yaml:"rooms"`
	Clash  ClashConfig  `yaml:"clash"`
	Mesh   MeshConfig   `yaml:"mesh"`
}

type LogConfig struct {
	// Mode is "off", "dev" (console) or "prod" (JSON).
	Mode string `yaml:"mode" validate:"oneof=off dev prod production"`
}

type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// RoomsConfig holds room detection tolerances in meters. They are scaled
// to the plan's units before detection.
type RoomsConfig struct {
	SnapTolerance float64 `yaml:"snap_tolerance" validate:"gt=0"`
	MinArea       float64 `yaml:"min_area" validate:"gte=0"`
	MatchDistance float64 `yaml:"match_distance" validate:"gte=0"`
}

// ClashConfig configures the clash manager. Rule tolerances are in model
// units.
type ClashConfig struct {
	ProgressEvery   int               `yaml:"progress_every" validate:"gte=1"`
	Index           string            `yaml:"index" validate:"oneof=rtree linear"`
	DisableDefaults bool              `yaml:"disable_default_rules"`
	Rules           []clash.ClashRule `yaml:"rules" validate:"dive"`
}

type MeshConfig struct {
	Cells         int     `yaml:"cells" validate:"gte=8,lte=2000"`
	SlabThickness float64 `yaml:"slab_thickness" validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Mode: "off"},
		Engine: EngineConfig{Timeout: 5 * time.Second},
		Rooms: RoomsConfig{
			SnapTolerance: 0.001,
			MinArea:       0.01,
			MatchDistance: 0.5,
		},
		Clash: ClashConfig{
			ProgressEvery: 10,
			Index:         "rtree",
		},
		Mesh: MeshConfig{
			Cells:         200,
			SlabThickness: 0.15,
		},
	}
}

// Load reads and validates the config file at path. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, formatValidationError(err))
	}
	return nil
}

// RoomsFor converts the room tolerances to a plan measured in units with
// upm units per meter.
func (c *Config) RoomsFor(upm float64) rooms.Config {
	return rooms.Config{
		SnapTolerance: c.Rooms.SnapTolerance * upm,
		MinArea:       c.Rooms.MinArea * upm * upm,
		MatchDistance: c.Rooms.MatchDistance * upm,
		UnitsPerMeter: upm,
	}
}

// formatValidationError reports the first failing field.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	e := validationErrs[0]
	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", e.Namespace())
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s], got %v", e.Namespace(), e.Param(), e.Value())
	case "gt", "gte", "lte":
		return fmt.Errorf("%s: must be %s %s, got %v", e.Namespace(), e.Tag(), e.Param(), e.Value())
	default:
		return fmt.Errorf("%s: failed %s validation", e.Namespace(), e.Tag())
	}
}

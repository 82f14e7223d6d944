package runtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// EngineConfig tunes the execution runtime. Defaults come from struct tags;
// PrepareConfig applies and validates them.
type EngineConfig struct {
	// MaxIterations caps loop iterations per run, guarding against cyclic
	// graphs with no input wait and no terminal path.
	MaxIterations int `yaml:"max_iterations" default:"100" validate:"gte=1,lte=100000"`

	// Retention is how long terminal executions are kept before the reaper
	// removes them. Waiting executions are never reaped.
	Retention time.Duration `yaml:"retention" default:"24h" validate:"gte=1m"`

	// CleanupInterval is how often the periodic reaper runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval" default:"10m" validate:"gte=1s"`
}

// NewEngineConfig returns a config with defaults applied.
func NewEngineConfig() EngineConfig {
	cfg := EngineConfig{}
	// Tag defaults cannot fail on our own struct.
	_ = defaults.Set(&cfg)
	return cfg
}

// PrepareConfig applies tag defaults and validates the result. Pass a
// pointer so zero fields can be filled in.
func PrepareConfig(cfg any) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := defaults.Set(cfg); err != nil {
		return fmt.Errorf("failed to apply default values: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", fieldErr.Field(), fieldErr.Tag()))
			}
			return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

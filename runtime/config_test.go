package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineConfigDefaults(t *testing.T) {
	cfg := NewEngineConfig()

	assert.Equal(t, 100, cfg.MaxIterations)
	assert.Equal(t, 24*time.Hour, cfg.Retention)
	assert.Equal(t, 10*time.Minute, cfg.CleanupInterval)
}

func TestPrepareConfigFillsZeroFields(t *testing.T) {
	cfg := EngineConfig{MaxIterations: 5}

	require.NoError(t, PrepareConfig(&cfg))

	assert.Equal(t, 5, cfg.MaxIterations, "explicit values are kept")
	assert.Equal(t, 24*time.Hour, cfg.Retention)
}

func TestPrepareConfigRejectsInvalid(t *testing.T) {
	cfg := EngineConfig{MaxIterations: -1}

	err := PrepareConfig(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxIterations")
}

func TestPrepareConfigNil(t *testing.T) {
	assert.Error(t, PrepareConfig(nil))
}

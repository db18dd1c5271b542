package telemetry

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfilerDisabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	// stopping twice is harmless
	assert.NoError(t, p.Stop())
}

func TestNewProfilerValidation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{
		Enabled:         true,
		ApplicationName: "vehicle-reg-backend",
	}, zap.NewNop())
	assert.ErrorContains(t, err, "server address")

	_, err = NewProfiler(ProfilerConfig{
		Enabled:       true,
		ServerAddress: "http://pyroscope:4040",
	}, zap.NewNop())
	assert.ErrorContains(t, err, "application name")
}

func TestProfileTypes(t *testing.T) {
	t.Run("none enabled", func(t *testing.T) {
		assert.Empty(t, ProfilerConfig{}.profileTypes())
	})

	t.Run("production set", func(t *testing.T) {
		types := ProfilerConfig{
			ProfileCPU:        true,
			ProfileInuseSpace: true,
			ProfileGoroutines: true,
		}.profileTypes()

		assert.Equal(t, []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		}, types)
	})

	t.Run("all enabled", func(t *testing.T) {
		types := ProfilerConfig{
			ProfileCPU:          true,
			ProfileAllocObjects: true,
			ProfileAllocSpace:   true,
			ProfileInuseObjects: true,
			ProfileInuseSpace:   true,
			ProfileGoroutines:   true,
		}.profileTypes()
		assert.Len(t, types, 6)
	})
}

func TestPyroscopeLoggerAdapter(t *testing.T) {
	logger := newPyroscopeLogger(zap.NewNop())
	logger.Infof("upload %d", 1)
	logger.Debugf("batch %s", "cpu")
	logger.Errorf("retry %v", "timeout")
}

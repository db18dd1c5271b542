package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithProfilingLabels(t *testing.T) {
	t.Run("labels reach the goroutine", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), map[string]string{
			ProfilingLabelRoute:  "/api/v1/vehicle-reg/applications",
			ProfilingLabelMethod: "POST",
		}, func(ctx context.Context) {
			called = true
			route, ok := pprof.Label(ctx, ProfilingLabelRoute)
			require.True(t, ok)
			assert.Equal(t, "/api/v1/vehicle-reg/applications", route)
		})
		assert.True(t, called)
	})

	t.Run("empty map still runs fn", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), nil, func(ctx context.Context) { called = true })
		assert.True(t, called)
	})

	t.Run("all labels filtered still runs fn", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), map[string]string{
			"request_id": "abc123",
		}, func(ctx context.Context) {
			called = true
			_, ok := pprof.Label(ctx, "request_id")
			assert.False(t, ok)
		})
		assert.True(t, called)
	})
}

func TestSanitizeLabels(t *testing.T) {
	t.Run("drops high cardinality and empty entries", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{
			"application_id":       "2b9f",
			"reference_code":       "VREG-2026-ABCDEFGHJKLM",
			ProfilingLabelAdminID:  "clerk@roads.gov.na",
			"":                     "x",
			ProfilingLabelMethod:   "",
			ProfilingLabelRoute:    "/track",
		})
		assert.Equal(t, []string{"admin_id", "clerk@roads.gov.na", "route", "/track"}, pairs)
	})

	t.Run("truncates long values", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{"controller": strings.Repeat("a", 300)})
		require.Len(t, pairs, 2)
		assert.Len(t, pairs[1], MaxLabelValueLength)
	})

	t.Run("sorted deterministically", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{"b": "2", "a": "1", "c": "3"})
		assert.Equal(t, []string{"a", "1", "b", "2", "c", "3"}, pairs)
	})
}

func TestSanitizeLabelKey(t *testing.T) {
	cases := map[string]string{
		"Admin ID":    "admin_id",
		"http-route":  "http_route",
		"ok_key9":     "ok_key9",
		"weird!chars": "weirdchars",
		"ÜÑÎ":         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeLabelKey(in), in)
	}
}

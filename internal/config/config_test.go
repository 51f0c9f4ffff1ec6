package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, APIVersion, cfg.APIVersion)
	assert.Equal(t, Kind, cfg.Kind)
	assert.Equal(t, DefaultListenAddress, cfg.Spec.Listener.Address)
	assert.Equal(t,
		[]string{"/", "/about", "/contact", "/blog", "/blog/posts", "/announcements"},
		cfg.RoutePaths(),
	)
	for _, r := range cfg.Spec.Routes {
		assert.Equal(t, HandlerTypeStatic, r.Handler.Type, r.Path)
		assert.NotEmpty(t, r.Handler.Body, r.Path)
	}

	assert.NoError(t, ValidateConfig(cfg))
}

func TestDefaultConfig_ReturnsFreshCopy(t *testing.T) {
	t.Parallel()

	a := DefaultConfig()
	a.Spec.Routes[0].Path = "/changed"

	b := DefaultConfig()
	assert.Equal(t, "/", b.Spec.Routes[0].Path)
}

func TestAdmissionConfig_Enabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *AdmissionConfig
		want bool
	}{
		{name: "nil", cfg: nil, want: false},
		{name: "zero", cfg: &AdmissionConfig{}, want: false},
		{name: "burst only", cfg: &AdmissionConfig{AcceptBurst: 5}, want: false},
		{name: "max connections", cfg: &AdmissionConfig{MaxConnections: 10}, want: true},
		{name: "accept rate", cfg: &AdmissionConfig{AcceptRate: 1.5}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.Enabled())
		})
	}
}

func TestServerConfig_Metrics(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.False(t, cfg.MetricsEnabled())
	assert.Equal(t, DefaultMetricsAddress, cfg.MetricsAddress())

	cfg.Spec.Observability = &ObservabilityConfig{
		Metrics: &MetricsConfig{Enabled: true, Address: "127.0.0.1:9191"},
	}
	assert.True(t, cfg.MetricsEnabled())
	assert.Equal(t, "127.0.0.1:9191", cfg.MetricsAddress())

	cfg.Spec.Observability.Metrics.Address = ""
	assert.Equal(t, DefaultMetricsAddress, cfg.MetricsAddress())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "order-print", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, ":3000", cfg.App.Addr())

	assert.Equal(t, ModeAsync, cfg.Print.Mode)
	assert.Equal(t, 5, cfg.Print.MaxKitDepth)
	assert.Equal(t, 30*time.Second, cfg.Print.RenderTimeout)
	assert.Equal(t, EngineChromedp, cfg.Engine.Kind)

	assert.Equal(t, "./assets", cfg.Storage.Root)
	assert.Equal(t, "/static", cfg.Storage.StaticPrefix)
	assert.False(t, cfg.Storage.Mirror.Enabled)

	assert.Equal(t, int64(10<<20), cfg.HTTP.MaxBodySize)
	assert.Equal(t, "order-print", cfg.Telemetry.ServiceName)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.Equal(t, "info", cfg.Telemetry.LogsLevel)
	assert.False(t, cfg.Telemetry.ProfilingEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ERP_APP_PORT", "9000")
	t.Setenv("ERP_PRINT_MODE", "AWAIT")
	t.Setenv("ERP_PRINT_RENDER_TIMEOUT", "10s")
	t.Setenv("ERP_ENGINE_KIND", "wkhtmltopdf")
	t.Setenv("ERP_STORAGE_ROOT", "/var/lib/orderprint")
	t.Setenv("ERP_STORAGE_PUBLIC_BASE_URL", "https://print.example.com/")
	t.Setenv("ERP_STORAGE_MIRROR_ENABLED", "true")
	t.Setenv("ERP_STORAGE_MIRROR_BUCKET", "orders")
	t.Setenv("ERP_STORAGE_MIRROR_ACCESS_KEY", "ak")
	t.Setenv("ERP_STORAGE_MIRROR_SECRET_KEY", "sk")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, ModeAwait, cfg.Print.Mode)
	assert.Equal(t, 10*time.Second, cfg.Print.RenderTimeout)
	assert.Equal(t, EngineWkhtmltopdf, cfg.Engine.Kind)
	assert.Equal(t, "/var/lib/orderprint", cfg.Storage.Root)
	assert.Equal(t, "https://print.example.com", cfg.Storage.PublicBaseURL)
	assert.True(t, cfg.Storage.Mirror.Enabled)
	assert.Equal(t, "orders", cfg.Storage.Mirror.Bucket)
	assert.Equal(t, "us-east-1", cfg.Storage.Mirror.Region)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[app]
port = "4000"

[print]
mode = "await"
max_kit_depth = 3

[storage]
static_prefix = "/files"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, v.ReadInConfig())

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.App.Port)
	assert.Equal(t, ModeAwait, cfg.Print.Mode)
	assert.Equal(t, 3, cfg.Print.MaxKitDepth)
	assert.Equal(t, "/files", cfg.Storage.StaticPrefix)
}

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"unknown mode", func(c *Config) { c.Print.Mode = "later" }, "print.mode"},
		{"unknown engine", func(c *Config) { c.Engine.Kind = "prince" }, "engine.kind"},
		{"negative render timeout", func(c *Config) { c.Print.RenderTimeout = -time.Second }, "print.render_timeout"},
		{"kit depth below one", func(c *Config) { c.Print.MaxKitDepth = -1 }, "print.max_kit_depth"},
		{"relative static prefix", func(c *Config) { c.Storage.StaticPrefix = "static" }, "storage.static_prefix"},
		{"sampling ratio above one", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
		{"profiling without server", func(c *Config) { c.Telemetry.ProfilingEnabled = true }, "profiling_server_address"},
		{"mirror without bucket", func(c *Config) {
			c.Storage.Mirror.Enabled = true
			c.Storage.Mirror.AccessKey = "ak"
			c.Storage.Mirror.SecretKey = "sk"
		}, "storage.mirror.bucket"},
		{"mirror without credentials", func(c *Config) {
			c.Storage.Mirror.Enabled = true
			c.Storage.Mirror.Bucket = "orders"
		}, "access_key"},
		{"await with short write timeout", func(c *Config) {
			c.Print.Mode = ModeAwait
			c.HTTP.WriteTimeout = c.Print.RenderTimeout
		}, "http.write_timeout"},
		{"async ignores write timeout", func(c *Config) {
			c.HTTP.WriteTimeout = time.Second
		}, ""},
		{"wildcard origin in production", func(c *Config) {
			c.App.Env = "production"
			c.HTTP.CORSAllowOrigins = []string{"*"}
		}, "cors_allow_origins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", (&AppConfig{Port: "8080"}).Addr())
	assert.Equal(t, "127.0.0.1:8080", (&AppConfig{Port: "127.0.0.1:8080"}).Addr())
}

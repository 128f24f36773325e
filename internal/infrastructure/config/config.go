package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Print     PrintConfig
	Engine    EngineConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// PrintConfig holds the render pipeline settings
type PrintConfig struct {
	Mode          string // async, await
	TemplatePath  string // optional on-disk override of the embedded template
	MaxKitDepth   int
	RenderTimeout time.Duration
	IdleTimeout   time.Duration // wait for images/fonts before printing anyway
}

// EngineConfig selects and tunes the HTML to PDF engine
type EngineConfig struct {
	Kind       string // chromedp, wkhtmltopdf
	RemoteURL  string // DevTools websocket of an already running Chrome
	ExecPath   string
	NoSandbox  bool
	BinaryPath string // wkhtmltopdf binary
}

// StorageConfig holds the artifact storage settings
type StorageConfig struct {
	Root          string
	StaticPrefix  string
	PublicBaseURL string // absolute base for returned links, request host when empty
	Mirror        MirrorConfig
}

// MirrorConfig holds the optional S3-compatible mirror settings
type MirrorConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
	KeyPrefix    string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool    // Whether to enable OpenTelemetry
	CollectorEndpoint     string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio         float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName           string
	Insecure              bool // Use insecure (non-TLS) connection (development only)
	MetricsEnabled        bool
	MetricsExportInterval time.Duration
	LogsEnabled           bool // Export zap entries over OTLP
	LogsLevel             string

	ProfilingEnabled       bool   // Pyroscope continuous profiling
	ProfilingServerAddress string // e.g. http://pyroscope:4040
	ProfilingAuthUser      string
	ProfilingAuthPassword  string
	SpanProfilesEnabled    bool // Link CPU profiles to trace spans
}

const (
	ModeAsync = "async"
	ModeAwait = "await"

	EngineChromedp    = "chromedp"
	EngineWkhtmltopdf = "wkhtmltopdf"
)

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ERP_ prefix (e.g., ERP_PRINT_MODE)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Print: PrintConfig{
			Mode:          v.GetString("print.mode"),
			TemplatePath:  v.GetString("print.template_path"),
			MaxKitDepth:   v.GetInt("print.max_kit_depth"),
			RenderTimeout: v.GetDuration("print.render_timeout"),
			IdleTimeout:   v.GetDuration("print.idle_timeout"),
		},
		Engine: EngineConfig{
			Kind:       v.GetString("engine.kind"),
			RemoteURL:  v.GetString("engine.remote_url"),
			ExecPath:   v.GetString("engine.exec_path"),
			NoSandbox:  v.GetBool("engine.no_sandbox"),
			BinaryPath: v.GetString("engine.binary_path"),
		},
		Storage: StorageConfig{
			Root:          v.GetString("storage.root"),
			StaticPrefix:  v.GetString("storage.static_prefix"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
			Mirror: MirrorConfig{
				Enabled:      v.GetBool("storage.mirror.enabled"),
				Endpoint:     v.GetString("storage.mirror.endpoint"),
				Region:       v.GetString("storage.mirror.region"),
				Bucket:       v.GetString("storage.mirror.bucket"),
				AccessKey:    v.GetString("storage.mirror.access_key"),
				SecretKey:    v.GetString("storage.mirror.secret_key"),
				UseSSL:       v.GetBool("storage.mirror.use_ssl"),
				UsePathStyle: v.GetBool("storage.mirror.use_path_style"),
				KeyPrefix:    v.GetString("storage.mirror.key_prefix"),
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			LogsEnabled:           v.GetBool("telemetry.logs_enabled"),
			LogsLevel:             v.GetString("telemetry.logs_level"),

			ProfilingEnabled:       v.GetBool("telemetry.profiling_enabled"),
			ProfilingServerAddress: v.GetString("telemetry.profiling_server_address"),
			ProfilingAuthUser:      v.GetString("telemetry.profiling_auth_user"),
			ProfilingAuthPassword:  v.GetString("telemetry.profiling_auth_password"),
			SpanProfilesEnabled:    v.GetBool("telemetry.span_profiles_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "order-print"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// An empty origin list means no cross-origin requests until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}

	if cfg.Print.Mode == "" {
		cfg.Print.Mode = ModeAsync
	}
	cfg.Print.Mode = strings.ToLower(cfg.Print.Mode)
	if cfg.Print.MaxKitDepth == 0 {
		cfg.Print.MaxKitDepth = 5
	}
	if cfg.Print.RenderTimeout == 0 {
		cfg.Print.RenderTimeout = 30 * time.Second
	}
	if cfg.Print.IdleTimeout == 0 {
		cfg.Print.IdleTimeout = 5 * time.Second
	}

	if cfg.Engine.Kind == "" {
		cfg.Engine.Kind = EngineChromedp
	}
	cfg.Engine.Kind = strings.ToLower(cfg.Engine.Kind)

	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "./assets"
	}
	if cfg.Storage.StaticPrefix == "" {
		cfg.Storage.StaticPrefix = "/static"
	}
	cfg.Storage.PublicBaseURL = strings.TrimRight(cfg.Storage.PublicBaseURL, "/")
	if cfg.Storage.Mirror.Region == "" {
		cfg.Storage.Mirror.Region = "us-east-1"
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.LogsLevel == "" {
		cfg.Telemetry.LogsLevel = "info"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Print.Mode {
	case ModeAsync, ModeAwait:
	default:
		return fmt.Errorf("print.mode must be %q or %q, got %q", ModeAsync, ModeAwait, c.Print.Mode)
	}
	switch c.Engine.Kind {
	case EngineChromedp, EngineWkhtmltopdf:
	default:
		return fmt.Errorf("engine.kind must be %q or %q, got %q", EngineChromedp, EngineWkhtmltopdf, c.Engine.Kind)
	}
	if c.Print.RenderTimeout <= 0 {
		return fmt.Errorf("print.render_timeout must be positive")
	}
	if c.Print.MaxKitDepth < 1 {
		return fmt.Errorf("print.max_kit_depth must be at least 1, got %d", c.Print.MaxKitDepth)
	}
	if !strings.HasPrefix(c.Storage.StaticPrefix, "/") {
		return fmt.Errorf("storage.static_prefix must start with '/', got %q", c.Storage.StaticPrefix)
	}

	// The request stays open for the whole render in await mode.
	if c.Print.Mode == ModeAwait && c.HTTP.WriteTimeout <= c.Print.RenderTimeout {
		return fmt.Errorf("http.write_timeout (%s) must exceed print.render_timeout (%s) in await mode",
			c.HTTP.WriteTimeout, c.Print.RenderTimeout)
	}

	if m := c.Storage.Mirror; m.Enabled {
		if m.Bucket == "" {
			return fmt.Errorf("storage.mirror.bucket is required when the mirror is enabled")
		}
		if m.AccessKey == "" || m.SecretKey == "" {
			return fmt.Errorf("storage.mirror.access_key and secret_key are required when the mirror is enabled")
		}
	}

	if c.App.Env == "production" {
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServerAddress == "" {
		return fmt.Errorf("telemetry.profiling_server_address is required when profiling is enabled")
	}

	return nil
}

// Addr returns the listen address for the HTTP server
func (a *AppConfig) Addr() string {
	if strings.Contains(a.Port, ":") {
		return a.Port
	}
	return ":" + a.Port
}

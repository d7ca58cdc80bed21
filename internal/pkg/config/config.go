package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig     `mapstructure:"server"`
	Log           LogConfig        `mapstructure:"log"`
	RouteProvider string           `mapstructure:"route_provider"` // google | osrm
	GoogleMaps    GoogleMapsConfig `mapstructure:"google_maps"`
	OSRM          OSRMConfig       `mapstructure:"osrm"`
	Photos        PhotosConfig     `mapstructure:"photos"`
	Cache         CacheConfig      `mapstructure:"cache"`
	NATS          NATSConfig       `mapstructure:"nats"`
	Valkey        ValkeyConfig     `mapstructure:"valkey"`
	Temporal      TemporalConfig   `mapstructure:"temporal"`
	Telemetry     TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GoogleMapsConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type OSRMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PhotosConfig configures the photo provider and the per-point search.
type PhotosConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	SearchRadiusMeters int           `mapstructure:"search_radius_meters"`
	CallTimeout        time.Duration `mapstructure:"call_timeout"`
}

type CacheConfig struct {
	RouteTTLSeconds int `mapstructure:"route_ttl_seconds"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	cfg, _, err := load(service)
	return cfg, err
}

func load(service string) (*Config, *viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("route_provider", "google")
	v.SetDefault("google_maps.base_url", "https://maps.googleapis.com/maps/api/directions/json")
	v.SetDefault("google_maps.timeout", 10*time.Second)
	v.SetDefault("osrm.base_url", "https://router.project-osrm.org")
	v.SetDefault("osrm.timeout", 10*time.Second)
	v.SetDefault("photos.base_url", "https://api.instagram.com/v1/media/search")
	v.SetDefault("photos.search_radius_meters", 300)
	v.SetDefault("photos.call_timeout", 5*time.Second)
	v.SetDefault("cache.route_ttl_seconds", 600)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "instatrip-trips")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: INSTATRIP_PHOTOS_API_KEY → photos.api_key
	v.SetEnvPrefix("INSTATRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadAndWatch loads configuration and calls onChange with the new
// configuration whenever the config file changes and still validates.
// Without a config file there is nothing to watch.
func LoadAndWatch(service string, onChange func(*Config)) (*Config, error) {
	cfg, v, err := load(service)
	if err != nil {
		return nil, err
	}
	if v.ConfigFileUsed() == "" {
		return cfg, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if next, err := decode(v); err == nil {
			onChange(next)
		}
	})
	v.WatchConfig()

	return cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	switch c.RouteProvider {
	case "google":
		if c.GoogleMaps.BaseURL == "" {
			errs = append(errs, "google_maps.base_url is required")
		}
	case "osrm":
		if c.OSRM.BaseURL == "" {
			errs = append(errs, "osrm.base_url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("route_provider must be google or osrm, got %q", c.RouteProvider))
	}
	if c.Photos.BaseURL == "" {
		errs = append(errs, "photos.base_url is required")
	}
	if c.Photos.SearchRadiusMeters <= 0 || c.Photos.SearchRadiusMeters > 5000 {
		errs = append(errs, fmt.Sprintf("photos.search_radius_meters must be 1-5000, got %d", c.Photos.SearchRadiusMeters))
	}
	if c.Photos.CallTimeout <= 0 {
		errs = append(errs, "photos.call_timeout must be positive")
	}
	if c.Cache.RouteTTLSeconds < 0 {
		errs = append(errs, "cache.route_ttl_seconds must not be negative")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

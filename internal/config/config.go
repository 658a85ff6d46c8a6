package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Redis     RedisConfig     `yaml:"redis"`
	Inspector InspectorConfig `yaml:"inspector"`
	Export    ExportConfig    `yaml:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// AuthConfig holds Google OAuth authentication configuration
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	AllowedDomain      string `yaml:"allowed_domain"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
}

// WarehouseConfig holds Snowflake configuration for the ads warehouse
type WarehouseConfig struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
}

// RedisConfig holds Redis connection settings for the dataset snapshot cache
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// InspectorConfig holds tuning knobs for the media inspector service
type InspectorConfig struct {
	ChunkSize         int `yaml:"chunk_size"`
	ScrollThreshold   int `yaml:"scroll_threshold"`
	DebounceMillis    int `yaml:"debounce_millis"`
	DatasetTTLMinutes int `yaml:"dataset_ttl_minutes"`
	MaxUploadSizeMB   int `yaml:"max_upload_size_mb"`
}

// Debounce returns the loader debounce delay as a duration
func (c InspectorConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// DatasetTTL returns how long an idle dataset session is retained
func (c InspectorConfig) DatasetTTL() time.Duration {
	return time.Duration(c.DatasetTTLMinutes) * time.Minute
}

// ExportConfig holds export and media thumbnail settings
type ExportConfig struct {
	FFmpegPath      string `yaml:"ffmpeg_path"`
	ThumbnailWidth  int    `yaml:"thumbnail_width"`
	ThumbnailHeight int    `yaml:"thumbnail_height"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec"`
	ArchiveS3Bucket string `yaml:"archive_s3_bucket"`
	ArchiveS3Region string `yaml:"archive_s3_region"`
	AWSProfile      string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// FetchTimeout returns the per-asset fetch timeout as a duration
func (c ExportConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c ExportConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "" // Running on ECS or Lambda, use IAM role
	}
	return c.AWSProfile
}

// Load reads and parses the configuration file. A missing file is not an
// error; defaults plus environment overrides are enough to boot in dev.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "admosaic_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400 // 1 day
	}
	if cfg.Warehouse.Database == "" {
		cfg.Warehouse.Database = "PAI_ADS"
	}
	if cfg.Warehouse.Schema == "" {
		cfg.Warehouse.Schema = "ADS_MOSAIC"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Inspector.ChunkSize == 0 {
		cfg.Inspector.ChunkSize = 20
	}
	if cfg.Inspector.ScrollThreshold == 0 {
		cfg.Inspector.ScrollThreshold = 100
	}
	if cfg.Inspector.DebounceMillis == 0 {
		cfg.Inspector.DebounceMillis = 300
	}
	if cfg.Inspector.DatasetTTLMinutes == 0 {
		cfg.Inspector.DatasetTTLMinutes = 240
	}
	if cfg.Inspector.MaxUploadSizeMB == 0 {
		cfg.Inspector.MaxUploadSizeMB = 200
	}
	if cfg.Export.FFmpegPath == "" {
		cfg.Export.FFmpegPath = "ffmpeg"
	}
	if cfg.Export.ThumbnailWidth == 0 {
		cfg.Export.ThumbnailWidth = 300
	}
	if cfg.Export.ThumbnailHeight == 0 {
		cfg.Export.ThumbnailHeight = 500
	}
	if cfg.Export.FetchTimeoutSec == 0 {
		cfg.Export.FetchTimeoutSec = 30
	}
	if cfg.Export.ArchiveS3Region == "" {
		cfg.Export.ArchiveS3Region = "us-west-2"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Auth overrides
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("AUTH_ALLOWED_DOMAIN"); v != "" {
		cfg.Auth.AllowedDomain = v
	}

	// Warehouse overrides
	if v := os.Getenv("SNOWFLAKE_ACCOUNT"); v != "" {
		cfg.Warehouse.Account = v
	}
	if v := os.Getenv("SNOWFLAKE_USER"); v != "" {
		cfg.Warehouse.User = v
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		cfg.Warehouse.Password = v
	}
	if v := os.Getenv("SNOWFLAKE_DATABASE"); v != "" {
		cfg.Warehouse.Database = v
	}
	if v := os.Getenv("SNOWFLAKE_SCHEMA"); v != "" {
		cfg.Warehouse.Schema = v
	}
	if v := os.Getenv("SNOWFLAKE_WAREHOUSE"); v != "" {
		cfg.Warehouse.Warehouse = v
	}

	// Redis overrides
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// Export overrides
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		cfg.Export.FFmpegPath = v
	}
	if v := os.Getenv("EXPORT_ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Export.ArchiveS3Bucket = v
	}
	if v := os.Getenv("EXPORT_ARCHIVE_S3_REGION"); v != "" {
		cfg.Export.ArchiveS3Region = v
	}

	return cfg, nil
}

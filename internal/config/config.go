package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/xxxsen/common/logger"
)

const envPrefix = "CODEMAN"

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	FileStore     FileStoreConfig  `json:"file_store"`
	Share         ShareConfig      `json:"share"`
	CodeProxy     CodeProxyConfig  `json:"code_proxy"`
	RateLimit     RateLimitConfig  `json:"rate_limit"`
	Auth          AuthConfig       `json:"auth"`
	OAuth         OAuthConfig      `json:"oauth"`
	Cleanup       CleanupConfig    `json:"cleanup"`
	CORSAllowlist []string         `json:"cors_allowlist"`
}

type DatabaseConfig struct {
	Type     string         `json:"type"`
	Mongo    MongoConfig    `json:"mongo"`
	Postgres PostgresConfig `json:"postgres"`
}

type MongoConfig struct {
	URI            string `json:"uri"`
	Database       string `json:"database"`
	Collection     string `json:"collection"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type PostgresConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// FileStoreConfig selects a blob store implementation; Data is decoded by the
// store factory registered under Type.
type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ShareConfig struct {
	BaseURL string `json:"base_url"`
}

// CodeProxyConfig tunes the code relay. The blob store's own public URL is always allowed;
// AllowedBaseURLs adds further bases, e.g. a CDN in front of the bucket.
type CodeProxyConfig struct {
	CacheSize       int      `json:"cache_size"`
	CacheTTLSeconds int      `json:"cache_ttl_seconds"`
	AllowedBaseURLs []string `json:"allowed_base_urls"`
}

type RateLimitConfig struct {
	RPS           float64 `json:"rps"`
	Burst         int     `json:"burst"`
	RedisAddr     string  `json:"redis_addr"`
	RedisPassword string  `json:"redis_password"`
	WindowSeconds int     `json:"window_seconds"`
}

type AuthConfig struct {
	RequireAuthForWrites bool `json:"require_auth_for_writes"`
	IdentityTTLHours     int  `json:"identity_ttl_hours"`
}

type OAuthConfig struct {
	Github OAuthProviderConfig `json:"github"`
	Google OAuthProviderConfig `json:"google"`
}

type OAuthProviderConfig struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURL  string   `json:"redirect_url"`
	Scopes       []string `json:"scopes"`
}

func (c OAuthProviderConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type CleanupConfig struct {
	OrphanBlobCron string `json:"orphan_blob_cron"`
	GraceMinutes   int    `json:"grace_minutes"`
}

// Load reads the JSON config at path. Values can be overridden by CODEMAN_* environment
// variables (nested keys joined with "_", e.g. CODEMAN_DATABASE_MONGO_URI); a .env file in the
// working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3001)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("log_config.level", "info")
	v.SetDefault("log_config.console", true)
	v.SetDefault("database.type", "mongo")
	v.SetDefault("database.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongo.database", "codeman")
	v.SetDefault("database.mongo.collection", "templates")
	v.SetDefault("database.mongo.timeout_seconds", 10)
	v.SetDefault("database.postgres.dsn", "")
	v.SetDefault("file_store.type", "local")
	v.SetDefault("share.base_url", "")
	v.SetDefault("code_proxy.cache_size", 0)
	v.SetDefault("code_proxy.cache_ttl_seconds", 60)
	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.redis_addr", "")
	v.SetDefault("rate_limit.redis_password", "")
	v.SetDefault("rate_limit.window_seconds", 1)
	v.SetDefault("auth.require_auth_for_writes", false)
	v.SetDefault("auth.identity_ttl_hours", 24*7)
	v.SetDefault("cleanup.orphan_blob_cron", "")
	v.SetDefault("cleanup.grace_minutes", 60)
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	switch c.Database.Type {
	case "mongo":
		if c.Database.Mongo.URI == "" {
			return fmt.Errorf("database.mongo.uri is required for mongo")
		}
	case "postgres":
		if c.Database.Postgres.DSN == "" && c.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres dsn or host is required for postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("database.type must be mongo, postgres or memory")
	}
	if c.FileStore.Type == "" {
		return fmt.Errorf("file_store.type is required")
	}
	if c.Auth.IdentityTTLHours <= 0 {
		c.Auth.IdentityTTLHours = 24 * 7
	}
	if c.Cleanup.GraceMinutes <= 0 {
		c.Cleanup.GraceMinutes = 60
	}
	return nil
}

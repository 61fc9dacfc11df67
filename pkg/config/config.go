package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/formshield/formshield/pkg/infra/captcha"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Captcha       captcha.Config      `mapstructure:"captcha"`
	Hashing       HashingConfig       `mapstructure:"hashing"`
	RateLimits    RateLimitsConfig    `mapstructure:"rate_limits"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Stats         StatsConfig         `mapstructure:"stats"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	Environment string `mapstructure:"environment"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HashingConfig holds the salt for identifier hashing. Production refuses to
// start without an explicit salt; development falls back to a throwaway one.
type HashingConfig struct {
	Salt string `mapstructure:"salt"`
}

// RateLimitsConfig is the raw per-dimension tier overlay, decoded by
// protection.TierSetsFromSettings.
type RateLimitsConfig struct {
	Limits        map[string]interface{} `mapstructure:"limits"`
	EvictIdle     bool                   `mapstructure:"evict_idle"`
	SweepInterval string                 `mapstructure:"sweep_interval"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type NotificationsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SMTPHost  string `mapstructure:"smtp_host"`
	SMTPPort  int    `mapstructure:"smtp_port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FromAddr  string `mapstructure:"from_addr"`
	Recipient string `mapstructure:"recipient"`
}

// StatsConfig selects the outcome counter backend: "memory" or "redis".
type StatsConfig struct {
	Backend string `mapstructure:"backend"`
}

const (
	devSalt      = "local-dev-salt-change-me"
	devJwtSecret = "local-dev-jwt-secret-change-me"
)

var globalConfig Config

func Load(configPath string) error {
	if err := loadConfigFile(configPath, "config", &globalConfig); err != nil {
		return fmt.Errorf("could not load main config file: %w", err)
	}

	setDefaultValues()

	return validate(&globalConfig)
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file %s.yaml not found, using only environment variables", fileName)
		}
		return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func setDefaultValues() {
	if globalConfig.Database.SSLMode == "" {
		globalConfig.Database.SSLMode = "disable"
	}
	if globalConfig.Server.Environment == "" {
		globalConfig.Server.Environment = "development"
	}
	if globalConfig.Stats.Backend == "" {
		globalConfig.Stats.Backend = "memory"
	}
	if globalConfig.Hashing.Salt == "" && !IsProduction() {
		globalConfig.Hashing.Salt = devSalt
	}
	if globalConfig.Auth.JWTSecret == "" && !IsProduction() {
		globalConfig.Auth.JWTSecret = devJwtSecret
	}
}

// validate rejects configurations the service must not start with. The salt
// and secret checks fail closed: hashed identifiers from an unsalted
// deployment would be trivially reversible, and an empty-string HS256 key
// would let anyone mint admin tokens.
func validate(cfg *Config) error {
	if IsProduction() {
		if strings.TrimSpace(cfg.Hashing.Salt) == "" {
			return fmt.Errorf("hashing.salt is required in production")
		}
		if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
			return fmt.Errorf("auth.jwt_secret is required in production")
		}
	}
	if cfg.Stats.Backend != "memory" && cfg.Stats.Backend != "redis" {
		return fmt.Errorf("stats.backend must be %q or %q", "memory", "redis")
	}
	return nil
}

func GetConfig() *Config {
	return &globalConfig
}

func IsProduction() bool {
	return globalConfig.Server.Environment == "production"
}

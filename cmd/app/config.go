package main

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"

	"github.com/sushihentaime/blogpost/internal/common"
)

const (
	cacheMemory = "memory"
	cacheRedis  = "redis"
	cacheNone   = "none"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	CacheBackend string        `mapstructure:"CACHE_BACKEND"`
	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"`
	RedisURL     string        `mapstructure:"REDIS_URL"`

	RabbitMQURI string `mapstructure:"RABBITMQ_URI"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`

	RateLimitEnabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogFile       string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`

	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

var configDefaults = map[string]any{
	"PORT":               ":4000",
	"ENVIRONMENT":        "development",
	"VERSION":            "1.0.0",
	"TRUSTED_ORIGINS":    "",
	"MONGO_URI":          "",
	"MONGO_DATABASE":     "blogpost",
	"JWT_SECRET":         "",
	"JWT_TTL":            "24h",
	"CACHE_BACKEND":      cacheMemory,
	"CACHE_TTL":          "5m",
	"REDIS_URL":          "",
	"RABBITMQ_URI":       "",
	"MAIL_HOST":          "",
	"MAIL_PORT":          587,
	"MAIL_USER":          "",
	"MAIL_PASSWORD":      "",
	"MAIL_SENDER":        "Blogpost <no-reply@blogpost.local>",
	"RATE_LIMIT_ENABLED": true,
	"RATE_LIMIT_RPS":     2,
	"RATE_LIMIT_BURST":   4,
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "text",
	"LOG_FILE":           "",
	"LOG_MAX_SIZE_MB":    100,
	"LOG_MAX_BACKUPS":    3,
	"LOG_MAX_AGE_DAYS":   28,
	"TLS_CERT_FILE":      "",
	"TLS_KEY_FILE":       "",
}

// loadConfig reads path as a dotenv file when it exists. Process
// environment variables override the file.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	v := common.NewValidator()

	v.Check(c.MongoURI != "", "MONGO_URI", "must be provided")
	v.Check(c.JWTSecret != "", "JWT_SECRET", "must be provided")
	v.Check(c.JWTTTL > 0, "JWT_TTL", "must be a positive duration")

	switch c.CacheBackend {
	case cacheMemory, cacheNone:
	case cacheRedis:
		v.Check(c.RedisURL != "", "REDIS_URL", "must be provided when CACHE_BACKEND is redis")
	default:
		v.AddError("CACHE_BACKEND", "must be one of memory, redis or none")
	}

	if c.RateLimitEnabled {
		v.Check(c.RateLimitRPS > 0, "RATE_LIMIT_RPS", "must be greater than zero")
		v.Check(c.RateLimitBurst > 0, "RATE_LIMIT_BURST", "must be greater than zero")
	}

	if c.Environment == "production" {
		v.Check(c.TLSCertFile != "" && c.TLSKeyFile != "", "TLS_CERT_FILE", "must be provided in production")
	}

	if !v.Valid() {
		return v.ValidationError()
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Server  ServerConfig  `validate:"required"`
	Mongo   MongoConfig   `validate:"required"`
	Logging LoggingConfig `validate:"required"`
	Fraud   FraudConfig
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type MongoConfig struct {
	URI      string `validate:"required"`
	Database string `validate:"required"`
}

type LoggingConfig struct {
	Level string `validate:"required"`
}

// FraudConfig tunes the anti-abuse guards around redemption and validation.
type FraudConfig struct {
	// ProbeURL is the host used for the network-reachability check. A HEAD
	// request succeeding against it is taken as proof of connectivity.
	ProbeURL string
	// ProbeTTL caches the probe result so repeated validations do not hammer
	// the probe host.
	ProbeTTL time.Duration
	// RequireOnline refuses validation attempts while the probe fails.
	RequireOnline bool
	// RateLimitWindow and RateLimitMax cap redemptions per account per
	// business over a rolling window.
	RateLimitWindow time.Duration
	RateLimitMax    int64
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("REWARDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, env vars and defaults cover it
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "reward_system")
	v.SetDefault("logging.level", "info")
	v.SetDefault("fraud.probeurl", "https://www.google.com")
	v.SetDefault("fraud.probettl", 30*time.Second)
	v.SetDefault("fraud.requireonline", true)
	v.SetDefault("fraud.ratelimitwindow", 30*24*time.Hour)
	v.SetDefault("fraud.ratelimitmax", 10)
}

func (c Configuration) Validate() error {
	return validator.New().Struct(c)
}

// GetEnv returns the value of an environment variable or a fallback
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

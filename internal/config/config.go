package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type AdminConfig struct {
	Password      string `yaml:"password"`
	SessionSecret string `yaml:"session_secret"`
	SecureCookie  bool   `yaml:"secure_cookie"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PaymentConfig struct {
	Daraja struct {
		BaseURL        string `yaml:"base_url"` // sandbox or production API host
		ConsumerKey    string `yaml:"consumer_key"`
		ConsumerSecret string `yaml:"consumer_secret"`
		ShortCode      string `yaml:"short_code"`
		Passkey        string `yaml:"passkey"`
		CallbackURL    string `yaml:"callback_url"`
	} `yaml:"daraja"`
}

type NASConfig struct {
	Address  string        `yaml:"address"` // host:port of the RouterOS API
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	UseTLS   bool          `yaml:"use_tls"`
	Timeout  time.Duration `yaml:"timeout"` // connect timeout
}

type SchedConfig struct {
	ProfileSyncInterval    time.Duration `yaml:"profile_sync_interval"`
	ProvisionRetryInterval time.Duration `yaml:"provision_retry_interval"`
	ProvisionMaxAttempts   int           `yaml:"provision_max_attempts"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	NAS      NASConfig      `yaml:"nas"`
	Sched    SchedConfig    `yaml:"sched"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Payment.Daraja.BaseURL == "" {
		cfg.Payment.Daraja.BaseURL = "https://sandbox.safaricom.co.ke"
	}
	if cfg.NAS.Timeout <= 0 {
		cfg.NAS.Timeout = 10 * time.Second
	}
	if cfg.Sched.ProfileSyncInterval <= 0 {
		cfg.Sched.ProfileSyncInterval = 10 * time.Minute
	}
	if cfg.Sched.ProvisionRetryInterval <= 0 {
		cfg.Sched.ProvisionRetryInterval = time.Minute
	}
	if cfg.Sched.ProvisionMaxAttempts <= 0 {
		cfg.Sched.ProvisionMaxAttempts = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.NAS.Address == "" {
		return nil, errors.New("nas.address is required")
	}
	if cfg.Payment.Daraja.ConsumerKey == "" || cfg.Payment.Daraja.ConsumerSecret == "" {
		return nil, errors.New("payment.daraja consumer credentials are required")
	}
	if cfg.Payment.Daraja.CallbackURL == "" {
		return nil, errors.New("payment.daraja.callback_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

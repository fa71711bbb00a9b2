// Package config loads service configuration from an optional YAML file
// with environment variable overrides on top.
package config

import (
    "os"
    "strconv"

    "gopkg.in/yaml.v3"
)

type Provider struct {
    BaseURL   string `yaml:"baseUrl"`
    APIKey    string `yaml:"apiKey"`
    TimeoutMS int    `yaml:"timeoutMs"`
    RateRPS   int    `yaml:"rateRps"`
}

type Config struct {
    Port               string   `yaml:"port"`
    DatabaseURL        string   `yaml:"databaseUrl"`
    RedisURL           string   `yaml:"redisUrl"`
    Provider           Provider `yaml:"provider"`
    LivePollIntervalMS int      `yaml:"livePollIntervalMs"`
    AuthMode           string   `yaml:"authMode"` // dev | hmac
    AuthHMACSecret     string   `yaml:"authHmacSecret"`
    WebhookMaxAttempts int      `yaml:"webhookMaxAttempts"`
    LogLevel           string   `yaml:"logLevel"`
}

func defaults() Config {
    return Config{
        Port:               "8080",
        Provider:           Provider{TimeoutMS: 10000, RateRPS: 5},
        LivePollIntervalMS: 15000,
        AuthMode:           "dev",
        WebhookMaxAttempts: 10,
        LogLevel:           "info",
    }
}

// Load reads the file named by CONFIG_FILE (or config.yaml when present),
// then applies env overrides. Env always wins.
func Load() (Config, error) {
    cfg := defaults()
    path := os.Getenv("CONFIG_FILE")
    if path == "" {
        if _, err := os.Stat("config.yaml"); err == nil {
            path = "config.yaml"
        }
    }
    if path != "" {
        raw, err := os.ReadFile(path)
        if err != nil {
            return cfg, err
        }
        if err := yaml.Unmarshal(raw, &cfg); err != nil {
            return cfg, err
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    setStr(&cfg.Port, "PORT")
    setStr(&cfg.DatabaseURL, "DATABASE_URL")
    setStr(&cfg.RedisURL, "REDIS_URL")
    setStr(&cfg.Provider.BaseURL, "PROVIDER_BASE_URL")
    setStr(&cfg.Provider.APIKey, "PROVIDER_API_KEY")
    setInt(&cfg.Provider.TimeoutMS, "PROVIDER_TIMEOUT_MS")
    setInt(&cfg.Provider.RateRPS, "PROVIDER_RATE_RPS")
    setInt(&cfg.LivePollIntervalMS, "LIVE_POLL_INTERVAL_MS")
    setStr(&cfg.AuthMode, "AUTH_MODE")
    setStr(&cfg.AuthHMACSecret, "AUTH_HMAC_SECRET")
    setInt(&cfg.WebhookMaxAttempts, "WEBHOOK_MAX_ATTEMPTS")
    setStr(&cfg.LogLevel, "LOG_LEVEL")
}

func setStr(dst *string, key string) {
    if v := os.Getenv(key); v != "" {
        *dst = v
    }
}

func setInt(dst *int, key string) {
    if v := os.Getenv(key); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            *dst = n
        }
    }
}

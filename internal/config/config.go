package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration. Secrets come only from the
// environment; non-secret knobs may additionally be set in an optional
// YAML file pointed at by CONFIG_PATH. Every collaborator receives its
// configuration at construction instead of reading process state ad hoc.
type Config struct {
	Port int

	BrightData struct {
		APIKey   string
		Zone     string
		Endpoint string
		Timeout  time.Duration
	}

	Gemini struct {
		APIKey  string
		Model   string
		Timeout time.Duration
	}

	Postgres struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	Redis struct {
		URL string
		TTL time.Duration
	}
}

// fileSettings are the non-secret knobs accepted from the optional YAML
// config file.
type fileSettings struct {
	Port int `mapstructure:"port"`

	Search struct {
		Zone           string `mapstructure:"zone"`
		Endpoint       string `mapstructure:"endpoint"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"search"`

	Generation struct {
		Model          string `mapstructure:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"generation"`

	Cache struct {
		TTLSeconds int `mapstructure:"ttl_seconds"`
	} `mapstructure:"cache"`
}

// Load builds the configuration from the environment, layered over the
// optional config file. A missing file is not an error; an unreadable one
// is, so typos in CONFIG_PATH fail loudly.
func Load() (*Config, error) {
	var fileCfg fileSettings
	if cfgPath := os.Getenv("CONFIG_PATH"); cfgPath != "" {
		v := viper.New()
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := v.Unmarshal(&fileCfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Port = getEnvOrDefaultInt("PORT", firstPositive(fileCfg.Port, 8080))

	cfg.BrightData.APIKey = os.Getenv("BRIGHTDATA_API_KEY")
	cfg.BrightData.Zone = getEnvOrDefault("BRIGHTDATA_ZONE", firstNonEmpty(fileCfg.Search.Zone, "serp"))
	cfg.BrightData.Endpoint = getEnvOrDefault("BRIGHTDATA_ENDPOINT", fileCfg.Search.Endpoint)
	cfg.BrightData.Timeout = secondsOrDefault(fileCfg.Search.TimeoutSeconds, 30*time.Second)

	cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Gemini.Model = getEnvOrDefault("GEMINI_MODEL", fileCfg.Generation.Model)
	cfg.Gemini.Timeout = secondsOrDefault(fileCfg.Generation.TimeoutSeconds, 30*time.Second)

	cfg.Postgres.Host = os.Getenv("POSTGRES_HOST")
	cfg.Postgres.Enabled = cfg.Postgres.Host != ""
	cfg.Postgres.Port = getEnvOrDefaultInt("POSTGRES_PORT", 5432)
	cfg.Postgres.User = getEnvOrDefault("POSTGRES_USER", "postgres")
	cfg.Postgres.Password = os.Getenv("POSTGRES_PASSWORD")
	cfg.Postgres.Database = getEnvOrDefault("POSTGRES_DB", "aeo_search")
	cfg.Postgres.SSLMode = getEnvOrDefault("POSTGRES_SSLMODE", "disable")

	cfg.Redis.URL = os.Getenv("REDIS_URL")
	cfg.Redis.TTL = secondsOrDefault(fileCfg.Cache.TTLSeconds, 15*time.Minute)

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

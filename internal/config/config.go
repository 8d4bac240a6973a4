package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Member store backends selectable with members.backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port   string `yaml:"port"`
		AppURL string `yaml:"appUrl"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	RabbitMQ struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Members struct {
		Backend           string `yaml:"backend"`
		MaxCreditAttempts int    `yaml:"maxCreditAttempts"`
	} `yaml:"members"`
	Auth struct {
		Secret       string `yaml:"secret"`
		CookieName   string `yaml:"cookieName"`
		TTL          string `yaml:"ttl"`
		SecureCookie bool   `yaml:"secureCookie"`
	} `yaml:"auth"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Parse decodes YAML without touching the filesystem or environment.
func Parse(data []byte) (Config, error) {
	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.AppURL, "APP_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Postgres.URL, "DATABASE_URL")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.RabbitMQ.URL, "RABBITMQ_URL")
	setString(&c.Members.Backend, "MEMBERS_BACKEND")
	setString(&c.Auth.Secret, "AUTH_SECRET")
	setString(&c.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("MAX_CREDIT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Members.MaxCreditAttempts = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.AppURL == "" {
		c.Server.AppURL = "http://localhost:3000"
	}
	for len(c.Server.AppURL) > 0 && c.Server.AppURL[len(c.Server.AppURL)-1] == '/' {
		c.Server.AppURL = c.Server.AppURL[:len(c.Server.AppURL)-1]
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "learnearnzone"
	}
	if c.Members.Backend == "" {
		c.Members.Backend = BackendMemory
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

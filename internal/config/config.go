package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "FOODCART_"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	HTTP     HTTPConfig     `yaml:"http"`
	Orders   OrdersConfig   `yaml:"orders"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// DSN builds a postgres:// URL. Every component is escaped, so empty
// values and passwords with spaces or quotes survive parsing.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type OrdersConfig struct {
	// Timezone is the IANA zone in which "today" is computed for the
	// cutoff check.
	Timezone             string `yaml:"timezone"`
	PickupSecret         string `yaml:"pickup_secret"`
	ReleaseStockOnReject bool   `yaml:"release_stock_on_reject"`
	ReleaseStockOnDelete bool   `yaml:"release_stock_on_delete"`
}

// Location resolves Timezone, falling back to UTC when unset.
func (c OrdersConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid orders.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "foodcart",
			Database: "foodcart",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  time.Minute,
		},
		HTTP: HTTPConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Orders: OrdersConfig{
			Timezone: "UTC",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads .env, then the YAML file at path, then FOODCART_* variables.
// Later sources win. A missing file leaves defaults in place.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse yaml: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DATABASE_HOST":     &c.Database.Host,
		"DATABASE_USER":     &c.Database.User,
		"DATABASE_PASSWORD": &c.Database.Password,
		"DATABASE_NAME":     &c.Database.Database,
		"DATABASE_SSLMODE":  &c.Database.SSLMode,
		"RABBITMQ_HOST":     &c.RabbitMQ.Host,
		"RABBITMQ_USER":     &c.RabbitMQ.User,
		"RABBITMQ_PASSWORD": &c.RabbitMQ.Password,
		"REDIS_ADDR":        &c.Redis.Addr,
		"REDIS_PASSWORD":    &c.Redis.Password,
		"ORDERS_TIMEZONE":   &c.Orders.Timezone,
		"PICKUP_SECRET":     &c.Orders.PickupSecret,
		"LOG_LEVEL":         &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DATABASE_PORT": &c.Database.Port,
		"RABBITMQ_PORT": &c.RabbitMQ.Port,
		"REDIS_DB":      &c.Redis.DB,
		"HTTP_PORT":     &c.HTTP.Port,
	}
	for key, dst := range ints {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"RABBITMQ_ENABLED":                &c.RabbitMQ.Enabled,
		"REDIS_ENABLED":                   &c.Redis.Enabled,
		"ORDERS_RELEASE_STOCK_ON_REJECT": &c.Orders.ReleaseStockOnReject,
		"ORDERS_RELEASE_STOCK_ON_DELETE": &c.Orders.ReleaseStockOnDelete,
	}
	for key, dst := range bools {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*dst = b
	}

	return nil
}

func (c *Config) Validate() error {
	var problems []string

	if c.Database.Host == "" {
		problems = append(problems, "database.host is required")
	}
	if c.Database.Port <= 0 {
		problems = append(problems, "database.port must be positive")
	}
	if c.Database.Database == "" {
		problems = append(problems, "database.database is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, "http.port is out of range")
	}
	if len(c.Orders.PickupSecret) < 16 {
		problems = append(problems, "orders.pickup_secret must be at least 16 bytes")
	}
	if _, err := c.Orders.Location(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.Host == "" {
		problems = append(problems, "rabbitmq.host is required when rabbitmq is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		problems = append(problems, "redis.addr is required when redis is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

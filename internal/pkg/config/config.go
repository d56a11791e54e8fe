package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	HealthInterval  time.Duration `mapstructure:"health_interval"`
}

// StoreConfig selects the request store backend: "postgres" or "memory".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	Database    string        `mapstructure:"name"`
	SSLMode     string        `mapstructure:"sslmode"`
	MaxConns    int32         `mapstructure:"max_conns"`
	MinConns    int32         `mapstructure:"min_conns"`
	MaxConnTime time.Duration `mapstructure:"max_conn_time"`
	MaxIdleTime time.Duration `mapstructure:"max_idle_time"`
	HealthCheck time.Duration `mapstructure:"health_check"`
}

// RedisConfig enables the distributed request lock when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// NATSConfig enables change execution and notifications when URL is set.
type NATSConfig struct {
	URL                 string        `mapstructure:"url"`
	ChangeSubjectPrefix string        `mapstructure:"change_subject_prefix"`
	NotifySubjectPrefix string        `mapstructure:"notify_subject_prefix"`
	ExecutorTimeout     time.Duration `mapstructure:"executor_timeout"`
}

// setting binds one config key to its environment variable and default.
type setting struct {
	key    string
	env    string
	defval any
}

var settings = []setting{
	{"service.name", "SERVICE_NAME", "be-md-governance"},
	{"service.version", "SERVICE_VERSION", "dev"},
	{"service.environment", "ENVIRONMENT", "development"},
	{"service.log_level", "LOG_LEVEL", "info"},

	{"server.port", "HTTP_PORT", 8086},
	{"server.grpc_port", "GRPC_PORT", 9086},
	{"server.read_timeout", "HTTP_READ_TIMEOUT", 15 * time.Second},
	{"server.write_timeout", "HTTP_WRITE_TIMEOUT", 15 * time.Second},
	{"server.idle_timeout", "HTTP_IDLE_TIMEOUT", 60 * time.Second},
	{"server.shutdown_timeout", "SHUTDOWN_TIMEOUT", 20 * time.Second},
	{"server.health_interval", "HEALTH_INTERVAL", 10 * time.Second},

	{"store.driver", "STORE_DRIVER", "postgres"},

	{"database.host", "DB_HOST", "localhost"},
	{"database.port", "DB_PORT", 5432},
	{"database.user", "DB_USER", "postgres"},
	{"database.password", "DB_PASSWORD", ""},
	{"database.name", "DB_NAME", "md_governance"},
	{"database.sslmode", "DB_SSLMODE", "disable"},
	{"database.max_conns", "DB_MAX_CONNS", 10},
	{"database.min_conns", "DB_MIN_CONNS", 1},
	{"database.max_conn_time", "DB_MAX_CONN_TIME", time.Hour},
	{"database.max_idle_time", "DB_MAX_IDLE_TIME", 30 * time.Minute},
	{"database.health_check", "DB_HEALTH_CHECK", time.Minute},

	{"redis.addr", "REDIS_ADDR", ""},
	{"redis.password", "REDIS_PASSWORD", ""},
	{"redis.db", "REDIS_DB", 0},
	{"redis.lock_ttl", "LOCK_TTL", 10 * time.Second},

	{"nats.url", "NATS_URL", ""},
	{"nats.change_subject_prefix", "CHANGE_SUBJECT_PREFIX", "masterdata.changes"},
	{"nats.notify_subject_prefix", "NOTIFY_SUBJECT_PREFIX", "notifications.mdg"},
	{"nats.executor_timeout", "CHANGE_EXECUTOR_TIMEOUT", 5 * time.Second},
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present. A value that cannot be decoded
// into its field is an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.defval)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", s.env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (want postgres or memory)", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.GRPCPort <= 0 {
		return fmt.Errorf("HTTP_PORT and GRPC_PORT must be positive")
	}
	return nil
}

// DSN renders the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

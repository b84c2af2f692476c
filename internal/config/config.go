package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL         MySQLConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Migrate       bool
	HTTPAddr      string
	Realtime      RealtimeConfig
	OverdueWorker OverdueWorkerConfig
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// RealtimeConfig holds websocket hub configuration
type RealtimeConfig struct {
	// SendBufferSize is the per-client outbound queue; a client that cannot
	// drain it is disconnected.
	SendBufferSize int
	// ReplayLimit caps how many persisted events a join replay may send
	// before the client is told to refetch in full.
	ReplayLimit int
}

// OverdueWorkerConfig holds overdue invoice scanner configuration
type OverdueWorkerConfig struct {
	Enabled     bool
	IntervalSec int
	BatchSize   int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "go_crm"),
		},
		Migrate:  getEnv("MIGRATE", "0") == "1",
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Realtime: RealtimeConfig{
			SendBufferSize: getEnvInt("WS_SEND_BUFFER", 64),
			ReplayLimit:    getEnvInt("WS_REPLAY_LIMIT", 500),
		},
		OverdueWorker: OverdueWorkerConfig{
			Enabled:     getEnv("OVERDUE_WORKER_ENABLED", "1") == "1",
			IntervalSec: getEnvInt("OVERDUE_WORKER_INTERVAL_SEC", 300),
			BatchSize:   getEnvInt("OVERDUE_WORKER_BATCH_SIZE", 200),
		},
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// LoadFromINI loads configuration from an INI file with environment variable
// override. Priority: ENV > INI > default.
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "password", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "go_crm"),
		},
		Migrate:  getValue("MIGRATE", "server", "migrate", "0") == "1",
		HTTPAddr: getValue("HTTP_ADDR", "server", "http_addr", ":8080"),
		Realtime: RealtimeConfig{
			SendBufferSize: getValueInt("WS_SEND_BUFFER", "realtime", "send_buffer", 64),
			ReplayLimit:    getValueInt("WS_REPLAY_LIMIT", "realtime", "replay_limit", 500),
		},
		OverdueWorker: OverdueWorkerConfig{
			Enabled:     getValueBool("OVERDUE_WORKER_ENABLED", "overdue_worker", "enabled", true),
			IntervalSec: getValueInt("OVERDUE_WORKER_INTERVAL_SEC", "overdue_worker", "interval_sec", 300),
			BatchSize:   getValueInt("OVERDUE_WORKER_BATCH_SIZE", "overdue_worker", "batch_size", 200),
		},
	}

	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("mysql dsn is required (MYSQL_DSN or [mysql] dsn)")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required (JWT_SECRET or [jwt] secret)")
	}

	return cfg, nil
}

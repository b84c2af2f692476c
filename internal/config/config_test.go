package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/crm")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.MySQL.DSN == "" {
		t.Error("MySQL DSN should not be empty")
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}

	if cfg.JWT.ExpireMinutes != 1440 {
		t.Errorf("Expected default expire minutes 1440, got %d", cfg.JWT.ExpireMinutes)
	}

	if !cfg.OverdueWorker.Enabled {
		t.Error("Expected overdue worker enabled by default")
	}
}

func TestLoad_MissingMySQLDSN(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("JWT_SECRET", "test-secret")
	os.Unsetenv("MYSQL_DSN")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when MYSQL_DSN is missing")
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/crm")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when JWT_SECRET is missing")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_PASS", "secret")
	t.Setenv("REDIS_DB", "5")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("WS_REPLAY_LIMIT", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Redis.Addr != "redis.example.com:6379" {
		t.Errorf("Expected custom Redis addr, got %s", cfg.Redis.Addr)
	}

	if cfg.Redis.Password != "secret" {
		t.Errorf("Expected Redis password 'secret', got %s", cfg.Redis.Password)
	}

	if cfg.Redis.DB != 5 {
		t.Errorf("Expected Redis DB 5, got %d", cfg.Redis.DB)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected HTTPAddr :9090, got %s", cfg.HTTPAddr)
	}

	if cfg.Realtime.ReplayLimit != 100 {
		t.Errorf("Expected replay limit 100, got %d", cfg.Realtime.ReplayLimit)
	}
}

func TestLoadFromINI(t *testing.T) {
	dir := t.TempDir()
	iniPath := filepath.Join(dir, "crm.ini")
	content := `[mysql]
dsn = ini:dsn@tcp(localhost:3306)/crm

[jwt]
secret = ini-secret
expire_minutes = 60

[server]
http_addr = :7070

[overdue_worker]
enabled = false
interval_sec = 30
`
	if err := os.WriteFile(iniPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write ini file: %v", err)
	}

	// Make sure env does not shadow the INI values
	os.Unsetenv("MYSQL_DSN")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("HTTP_ADDR")

	cfg, err := LoadFromINI(iniPath)
	if err != nil {
		t.Fatalf("LoadFromINI() failed: %v", err)
	}

	if cfg.MySQL.DSN != "ini:dsn@tcp(localhost:3306)/crm" {
		t.Errorf("Expected INI DSN, got %s", cfg.MySQL.DSN)
	}

	if cfg.JWT.ExpireMinutes != 60 {
		t.Errorf("Expected expire minutes 60, got %d", cfg.JWT.ExpireMinutes)
	}

	if cfg.HTTPAddr != ":7070" {
		t.Errorf("Expected HTTPAddr :7070, got %s", cfg.HTTPAddr)
	}

	if cfg.OverdueWorker.Enabled {
		t.Error("Expected overdue worker disabled via INI")
	}

	if cfg.OverdueWorker.IntervalSec != 30 {
		t.Errorf("Expected interval 30, got %d", cfg.OverdueWorker.IntervalSec)
	}
}

func TestLoadFromINI_EnvOverridesINI(t *testing.T) {
	dir := t.TempDir()
	iniPath := filepath.Join(dir, "crm.ini")
	content := `[mysql]
dsn = ini:dsn@tcp(localhost:3306)/crm

[jwt]
secret = ini-secret

[server]
http_addr = :7070
`
	if err := os.WriteFile(iniPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write ini file: %v", err)
	}

	t.Setenv("HTTP_ADDR", ":6060")

	cfg, err := LoadFromINI(iniPath)
	if err != nil {
		t.Fatalf("LoadFromINI() failed: %v", err)
	}

	if cfg.HTTPAddr != ":6060" {
		t.Errorf("Expected env override :6060, got %s", cfg.HTTPAddr)
	}
}

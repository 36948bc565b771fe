package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("expected default port 8084, got %d", cfg.Server.Port)
	}
	if cfg.Data.Source != "csv" {
		t.Errorf("expected default data source csv, got %q", cfg.Data.Source)
	}
	if cfg.Data.OrdersFile != "orders_dataset.csv" {
		t.Errorf("unexpected orders file %q", cfg.Data.OrdersFile)
	}
	if cfg.Analytics.FilterGranularity != "month" {
		t.Errorf("expected month granularity, got %q", cfg.Analytics.FilterGranularity)
	}
	if cfg.Analytics.CorrectMonetaryRank {
		t.Error("monetary rank correction should be off by default")
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("Address() = %q", cfg.Address())
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DATA_DIR", "/srv/olist")
	t.Setenv("FILTER_GRANULARITY", "day")
	t.Setenv("RFM_CORRECT_MONETARY_RANK", "true")
	t.Setenv("DATA_LOAD_TIMEOUT", "5s")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Data.Dir != "/srv/olist" {
		t.Errorf("expected data dir from env, got %q", cfg.Data.Dir)
	}
	if cfg.Analytics.FilterGranularity != "day" || !cfg.Analytics.CorrectMonetaryRank {
		t.Errorf("analytics config not read from env: %+v", cfg.Analytics)
	}
	if cfg.Data.LoadTimeout != 5*time.Second {
		t.Errorf("expected 5s load timeout, got %v", cfg.Data.LoadTimeout)
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"port out of range", "SERVER_PORT", "70000", "server port"},
		{"unknown source", "DATA_SOURCE", "s3", "invalid data source"},
		{"granularity", "FILTER_GRANULARITY", "week", "filter granularity"},
		{"log level", "LOG_LEVEL", "loud", "invalid log level"},
		{"log format", "LOG_FORMAT", "xml", "invalid log format"},
		{"rate limit", "SECURITY_RATE_LIMIT_RPS", "-1", "rate limit RPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_PostgresNeedsURL(t *testing.T) {
	t.Setenv("DATA_SOURCE", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/olist?sslmode=disable")
	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("missing file is silent", func(t *testing.T) {
		logs.Reset()
		loadDotEnv(filepath.Join(dir, "absent.env"))
		if logs.Len() != 0 {
			t.Errorf("expected no log output, got %q", logs.String())
		}
	})

	t.Run("unreadable file is logged", func(t *testing.T) {
		logs.Reset()
		path := filepath.Join(dir, "is-a-dir.env")
		if err := os.Mkdir(path, 0o755); err != nil {
			t.Fatal(err)
		}

		loadDotEnv(path)
		if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "ignoring unreadable env file") {
			t.Errorf("expected a warning, got %q", logs.String())
		}
	})

	t.Run("values are applied", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "")
		os.Unsetenv("SERVER_PORT")

		path := filepath.Join(dir, "valid.env")
		if err := os.WriteFile(path, []byte("SERVER_PORT=9100\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		loadDotEnv(path)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 9100 {
			t.Errorf("expected port from env file, got %d", cfg.Server.Port)
		}
	})
}

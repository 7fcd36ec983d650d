package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// envMap はテスト用の環境変数lookupを返す。
func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// writeConfig はテスト用の設定ファイルを一時ディレクトリに書き出す。
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("設定ファイルの書き込みに失敗: %v", err)
	}
	return path
}

// TestLoad は設定ファイルの読み込みを検証する。
// Loadは実際の環境変数を参照するため、API_TOKENが空の環境を前提に並列実行しない。
func TestLoad(t *testing.T) {
	t.Setenv("API_TOKEN", "")
	t.Setenv("PORT", "")

	t.Run("YAMLの値がデフォルト値を上書きすること", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: "9090"
database:
  driver: sqlite
  dsn: ":memory:"
auth:
  token: rahasia
  echo_received: true
logging:
  level: debug
  format: console
cors:
  allowed_origins:
    - http://localhost:3000
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load()でエラー: %v", err)
		}
		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
		}
		if cfg.Database.DSN != ":memory:" {
			t.Errorf("Database.DSN = %q, want :memory:", cfg.Database.DSN)
		}
		if cfg.Auth.Token != "rahasia" || !cfg.Auth.EchoReceived {
			t.Errorf("Auth = %+v", cfg.Auth)
		}
		if cfg.Logging.Format != "console" {
			t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
		}
		if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:3000" {
			t.Errorf("CORS.AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
		}
		// YAMLに無い項目はデフォルト値のまま
		if cfg.Server.ShutdownTimeout != 10*time.Second {
			t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
		}
	})

	t.Run("トークンが未設定の場合はErrMissingToken", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: \"8080\"\n")
		_, err := Load(path)
		if !errors.Is(err, ErrMissingToken) {
			t.Errorf("Load() error = %v, want ErrMissingToken", err)
		}
	})

	t.Run("ファイルが存在しない場合は環境変数のみで構成すること", func(t *testing.T) {
		t.Setenv("API_TOKEN", "dari-env")
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load()でエラー: %v", err)
		}
		if cfg.Auth.Token != "dari-env" {
			t.Errorf("Auth.Token = %q, want dari-env", cfg.Auth.Token)
		}
	})

	t.Run("不正なYAMLはエラー", func(t *testing.T) {
		path := writeConfig(t, "server: [")
		if _, err := Load(path); err == nil {
			t.Error("エラーが返されませんでした")
		}
	})
}

// TestApplyEnv は環境変数による上書きを検証する。
func TestApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("環境変数が設定値を上書きすること", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		err := cfg.applyEnv(envMap(map[string]string{
			"PORT":                 "7000",
			"DATABASE_DRIVER":      "postgres",
			"DATABASE_DSN":         "postgres://localhost/mahasiswa",
			"API_TOKEN":            "Nizar-Token",
			"AUTH_ECHO_RECEIVED":   "true",
			"LOG_LEVEL":            "warn",
			"CORS_ALLOWED_ORIGINS": "http://a.example, ,http://b.example",
			"WEBHOOK_URL":          "http://hooks.local",
			"WEBHOOK_TIMEOUT":      "2s",
		}))
		if err != nil {
			t.Fatalf("applyEnv()でエラー: %v", err)
		}
		if cfg.Server.Port != "7000" {
			t.Errorf("Server.Port = %q, want 7000", cfg.Server.Port)
		}
		if cfg.Database.Driver != "postgres" {
			t.Errorf("Database.Driver = %q, want postgres", cfg.Database.Driver)
		}
		if cfg.Auth.Token != "Nizar-Token" || !cfg.Auth.EchoReceived {
			t.Errorf("Auth = %+v", cfg.Auth)
		}
		if cfg.Logging.Level != "warn" {
			t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
		}
		if len(cfg.CORS.AllowedOrigins) != 2 {
			t.Errorf("CORS.AllowedOrigins = %v, want 2 origins", cfg.CORS.AllowedOrigins)
		}
		if cfg.Webhook.URL != "http://hooks.local" || cfg.Webhook.Timeout != 2*time.Second {
			t.Errorf("Webhook = %+v", cfg.Webhook)
		}
	})

	t.Run("空の環境変数は無視されること", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		if err := cfg.applyEnv(envMap(map[string]string{"PORT": ""})); err != nil {
			t.Fatalf("applyEnv()でエラー: %v", err)
		}
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
		}
	})

	t.Run("不正な真偽値はエラー", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		if err := cfg.applyEnv(envMap(map[string]string{"AUTH_ECHO_RECEIVED": "ya"})); err == nil {
			t.Error("エラーが返されませんでした")
		}
	})

	t.Run("不正な期間はエラー", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		if err := cfg.applyEnv(envMap(map[string]string{"WEBHOOK_TIMEOUT": "sebentar"})); err == nil {
			t.Error("エラーが返されませんでした")
		}
	})
}

// TestValidate は設定値の検証を確認する。
func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := Default()
		cfg.Auth.Token = "rahasia"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "デフォルト値とトークンで有効", mutate: func(*Config) {}, wantErr: false},
		{name: "トークンが空", mutate: func(c *Config) { c.Auth.Token = "" }, wantErr: true},
		{name: "未対応のドライバ", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "DSNが空", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "未対応のログ形式", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "ポートが空", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
		{
			name: "Webhookのタイムアウトが0",
			mutate: func(c *Config) {
				c.Webhook.URL = "http://hooks.local"
				c.Webhook.Timeout = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

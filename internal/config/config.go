// Package config は学生APIサービスの設定を読み込む。
//
// YAMLファイルを読み込んだ後、環境変数で上書きする。
// ファイルが存在しない場合はデフォルト値と環境変数のみで構成する。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はサービス全体の設定。
type Config struct {
	// Server はHTTPサーバーの設定。
	Server ServerConfig `yaml:"server"`
	// Database は永続化層の設定。
	Database DatabaseConfig `yaml:"database"`
	// Auth は共有シークレットによるアクセス制御の設定。
	Auth AuthConfig `yaml:"auth"`
	// Logging はログ出力の設定。
	Logging LoggingConfig `yaml:"logging"`
	// CORS はクロスオリジンリクエストの設定。
	CORS CORSConfig `yaml:"cors"`
	// Webhook は変更イベント通知先の設定。
	Webhook WebhookConfig `yaml:"webhook"`
}

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	Port string `yaml:"port"`
	// Mode はginの動作モード（debug / release / test）。
	Mode            string        `yaml:"mode"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig は永続化層の設定。
type DatabaseConfig struct {
	// Driver は "sqlite" または "postgres"。
	Driver string `yaml:"driver"`
	// DSN はドライバに渡す接続文字列。
	DSN string `yaml:"dsn"`
}

// AuthConfig は共有シークレットの設定。
type AuthConfig struct {
	// Token は Authorization: Bearer <Token> として要求される値。
	Token string `yaml:"token"`
	// EchoReceived がtrueの場合、拒否レスポンスに受信したヘッダー値を含める。
	EchoReceived bool `yaml:"echo_received"`
}

// LoggingConfig はログ出力の設定。
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Format は "json" または "console"。
	Format string `yaml:"format"`
}

// CORSConfig はクロスオリジンリクエストの設定。
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebhookConfig は変更イベント通知先の設定。URLが空の場合は通知しない。
type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ErrMissingToken は共有シークレットが設定されていないことを表す。
var ErrMissingToken = errors.New("auth.token (API_TOKEN) が設定されていません")

// Default はデフォルト値で初期化された設定を返す。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:/data/mahasiswa.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Webhook: WebhookConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Load は設定ファイルと環境変数から設定を読み込む。
// pathが空、またはファイルが存在しない場合はファイル読み込みをスキップする。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// ファイルが無い場合は環境変数のみで構成する
		default:
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("環境変数の適用に失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv は環境変数で設定を上書きする。
// テストから差し替えられるようにlookupを引数で受け取る。
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	setString("PORT", &c.Server.Port)
	setString("GIN_MODE", &c.Server.Mode)
	setString("DATABASE_DRIVER", &c.Database.Driver)
	setString("DATABASE_DSN", &c.Database.DSN)
	setString("API_TOKEN", &c.Auth.Token)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FORMAT", &c.Logging.Format)
	setString("WEBHOOK_URL", &c.Webhook.URL)

	if v, ok := lookup("AUTH_ECHO_RECEIVED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTH_ECHO_RECEIVED が不正です: %w", err)
		}
		c.Auth.EchoReceived = b
	}

	if v, ok := lookup("WEBHOOK_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WEBHOOK_TIMEOUT が不正です: %w", err)
		}
		c.Webhook.Timeout = d
	}

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}
	return nil
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	if c.Auth.Token == "" {
		return ErrMissingToken
	}
	if c.Server.Port == "" {
		return errors.New("server.port が空です")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("未対応のデータベースドライバ: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn が空です")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("未対応のログ形式: %q", c.Logging.Format)
	}
	if c.Webhook.URL != "" && c.Webhook.Timeout <= 0 {
		return errors.New("webhook.timeout は正の値である必要があります")
	}
	return nil
}

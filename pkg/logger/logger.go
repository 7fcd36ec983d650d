// Package logger はzerologをラップした構造化ロガーを提供する。
//
// パッケージレベルのロガーを1つ保持し、Configureで出力形式とレベルを切り替える。
// 各パッケージは Info() や Error() でイベントを生成し、フィールドを付与して出力する。
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level はログレベルを表す。
type Level string

const (
	// LevelDebug はデバッグ用の詳細なログ。
	LevelDebug Level = "debug"
	// LevelInfo は通常の動作ログ。
	LevelInfo Level = "info"
	// LevelWarn は注意が必要なログ。
	LevelWarn Level = "warn"
	// LevelError はエラーログ。
	LevelError Level = "error"
)

// Config はロガーの設定。
type Config struct {
	// Level は出力する最小ログレベル。
	Level Level
	// Pretty がtrueの場合、人間が読みやすいコンソール形式で出力する。
	Pretty bool
	// Output は出力先。nilの場合は標準出力。
	Output io.Writer
}

var (
	mu            sync.RWMutex
	defaultLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Configure はパッケージレベルのロガーを設定する。
func Configure(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(out).Level(ParseLevel(string(cfg.Level))).With().Timestamp().Logger()

	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// ParseLevel は文字列をzerologのレベルに変換する。
// 不明な値はinfoとして扱う。
func ParseLevel(s string) zerolog.Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get は現在のロガーを返す。
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debug はデバッグレベルのイベントを生成する。
func Debug() *zerolog.Event {
	l := Get()
	return l.Debug()
}

// Info は情報レベルのイベントを生成する。
func Info() *zerolog.Event {
	l := Get()
	return l.Info()
}

// Warn は警告レベルのイベントを生成する。
func Warn() *zerolog.Event {
	l := Get()
	return l.Warn()
}

// Error はエラーレベルのイベントを生成する。
func Error() *zerolog.Event {
	l := Get()
	return l.Error()
}

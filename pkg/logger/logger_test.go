package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

// TestParseLevel はログレベル文字列の変換を検証する。
func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  zerolog.Level
	}{
		{name: "debug", input: "debug", want: zerolog.DebugLevel},
		{name: "大文字と空白を含むwarn", input: " WARN ", want: zerolog.WarnLevel},
		{name: "error", input: "error", want: zerolog.ErrorLevel},
		{name: "info", input: "info", want: zerolog.InfoLevel},
		{name: "不明な値はinfo", input: "verbose", want: zerolog.InfoLevel},
		{name: "空文字はinfo", input: "", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestConfigure はConfigureで設定したレベルと出力先が反映されることを検証する。
// パッケージレベルの状態を変更するため並列実行しない。
func TestConfigure(t *testing.T) {
	t.Cleanup(func() { Configure(Config{Level: LevelInfo}) })

	t.Run("JSON形式でフィールド付きのログが出力されること", func(t *testing.T) {
		var buf bytes.Buffer
		Configure(Config{Level: LevelInfo, Output: &buf})

		Info().Str("nim", "12345678").Msg("作成")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("ログ行のデコードに失敗: %v, line=%s", err, buf.String())
		}
		if entry["level"] != "info" {
			t.Errorf("level = %v, want info", entry["level"])
		}
		if entry["nim"] != "12345678" {
			t.Errorf("nim = %v, want 12345678", entry["nim"])
		}
		if entry["message"] != "作成" {
			t.Errorf("message = %v, want 作成", entry["message"])
		}
		if _, ok := entry["time"]; !ok {
			t.Error("timeフィールドがありません")
		}
	})

	t.Run("設定レベル未満のログは出力されないこと", func(t *testing.T) {
		var buf bytes.Buffer
		Configure(Config{Level: LevelWarn, Output: &buf})

		Info().Msg("出力されない")
		Debug().Msg("出力されない")
		if buf.Len() != 0 {
			t.Errorf("出力が空ではありません: %s", buf.String())
		}

		Error().Msg("出力される")
		if buf.Len() == 0 {
			t.Error("errorレベルのログが出力されていません")
		}
	})
}

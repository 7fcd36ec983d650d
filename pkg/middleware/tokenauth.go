package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
)

const (
	// MessageInvalidToken は拒否レスポンスのメッセージ。
	MessageInvalidToken = "Token tidak valid atau tidak disertakan."
	// DetailNoToken はAuthorizationヘッダーが無い場合の詳細。
	DetailNoToken = "Tidak ada token"
	// DetailTokenMismatch はトークンが一致しない場合の詳細。
	DetailTokenMismatch = "Token tidak cocok"

	// maxEchoRunes はエコーする受信値の最大文字数。
	maxEchoRunes = 64
)

// TokenAuthConfig は共有シークレット認証の設定。
type TokenAuthConfig struct {
	// Token は期待するシークレット。ヘッダー値は "Bearer " + Token と完全一致する必要がある。
	Token string
	// EchoReceived がtrueの場合、拒否時の detail に受信したヘッダー値を含める。
	// 受信値は制御文字を除去し、64文字に切り詰める。
	EchoReceived bool
}

// StaticToken は固定の共有シークレットでリクエストを検証するGinミドルウェアを返す。
// トークンからユーザー情報などは取り出さず、一致すればそのまま次のハンドラへ渡す。
func StaticToken(cfg TokenAuthConfig) gin.HandlerFunc {
	expected := []byte("Bearer " + cfg.Token)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, DetailNoToken)
			return
		}

		if subtle.ConstantTimeCompare([]byte(authHeader), expected) != 1 {
			detail := DetailTokenMismatch
			if cfg.EchoReceived {
				detail = "Diterima: " + sanitizeEcho(authHeader)
			}
			abortUnauthorized(c, detail)
			return
		}

		c.Next()
	}
}

// abortUnauthorized は401レスポンスを返して処理を中断する。
func abortUnauthorized(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"pesan":  MessageInvalidToken,
		"detail": detail,
	})
}

// sanitizeEcho はレスポンスに含める受信値から制御文字を除き、長さを制限する。
func sanitizeEcho(s string) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if n == maxEchoRunes {
			b.WriteString("...")
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

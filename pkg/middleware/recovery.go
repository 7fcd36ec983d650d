package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/mahasiswa/pkg/logger"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にエラーログを出力し、500エラーを返す。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("request_id", GetRequestID(c)).
					Interface("panic", r).
					Msg("パニックから回復しました")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status": "gagal",
					"pesan":  "Terjadi kesalahan pada server.",
				})
			}
		}()
		c.Next()
	}
}

// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 共有シークレットによるアクセス制御、リクエストIDの付与と構造化ログ、
// パニックリカバリ、CORS設定を含む。
package middleware

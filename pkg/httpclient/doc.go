// Package httpclient は外部サービスへJSONを送信するHTTPクライアントを提供する。
//
// 学生データの変更イベントをWebhookへ通知する際に使用する。
// リクエストIDをコンテキスト経由で伝播し、送信先のログと突き合わせられるようにする。
package httpclient

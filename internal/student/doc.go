// Package student は学生（mahasiswa）レコードを管理するHTTPサービスの内部実装を提供する。
//
// 1種類のレコードに対する一覧・作成・取得・更新・削除のみを扱う。
// すべてのリクエストは共有シークレットによる認証を通過した後に処理される。
//
// 主な機能:
//   - レコードのCRUD（GET/POST /api/students, GET/PUT/DELETE /api/students/:id）
//   - 旧クライアント向けの同一API（/api/mahasiswa）
//   - 変更イベントのWebhook通知（設定時のみ）
//
// レスポンスはすべて status / pesan / data を持つエンベロープで返す。
package student

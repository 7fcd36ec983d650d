// Package event は学生データの変更イベントを表す型を提供する。
//
// 作成・更新・削除が成功するたびにイベントを生成し、設定されたWebhookへ送信する。
package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

// AggregateTypeMahasiswa は学生レコードを表す。
const AggregateTypeMahasiswa AggregateType = "Mahasiswa"

// Type はイベントの種類を表す。
type Type string

const (
	// TypeMahasiswaCreated は学生レコードが作成されたことを表す。
	TypeMahasiswaCreated Type = "MahasiswaCreated"
	// TypeMahasiswaUpdated は学生レコードが更新されたことを表す。
	TypeMahasiswaUpdated Type = "MahasiswaUpdated"
	// TypeMahasiswaDeleted は学生レコードが削除されたことを表す。
	TypeMahasiswaDeleted Type = "MahasiswaDeleted"
)

// Event は変更イベントのレコード。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子（例: "mahasiswa-1"）。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// MahasiswaData は作成・更新イベントのデータ。変更後のレコード全体を持つ。
type MahasiswaData struct {
	ID            int64  `json:"id"`
	NIM           string `json:"nim"`
	NamaMahasiswa string `json:"nama_mahasiswa"`
	Fakultas      string `json:"fakultas"`
	Jurusan       string `json:"jurusan"`
}

// MahasiswaDeletedData は削除イベントのデータ。
type MahasiswaDeletedData struct {
	// ID は削除されたレコードのID。
	ID int64 `json:"id"`
}

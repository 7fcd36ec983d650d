package student

import (
	"errors"
	"time"
)

var (
	// ErrNotFound は指定IDのレコードが存在しないことを表す。
	ErrNotFound = errors.New("学生レコードが見つかりません")
	// ErrDuplicateNIM はNIMが既に他のレコードで使われていることを表す。
	ErrDuplicateNIM = errors.New("NIMが既に使用されています")
)

// Mahasiswa は学生レコード。
type Mahasiswa struct {
	// ID は永続化層が割り当てる識別子。変更されない。
	ID int64 `json:"id"`
	// NIM は学籍番号。全レコードで一意。
	NIM string `json:"nim"`
	// NamaMahasiswa は氏名。
	NamaMahasiswa string `json:"nama_mahasiswa"`
	// Fakultas は学部。
	Fakultas string `json:"fakultas"`
	// Jurusan は学科。
	Jurusan string `json:"jurusan"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt は最終更新日時。
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateParams はレコード作成時の入力。すべて必須。
type CreateParams struct {
	NIM           string
	NamaMahasiswa string
	Fakultas      string
	Jurusan       string
}

// UpdateParams はレコードの部分更新の入力。nilのフィールドは変更しない。
type UpdateParams struct {
	NIM           *string
	NamaMahasiswa *string
	Fakultas      *string
	Jurusan       *string
}

// IsEmpty は更新対象のフィールドが1つも無い場合にtrueを返す。
func (p UpdateParams) IsEmpty() bool {
	return p.NIM == nil && p.NamaMahasiswa == nil && p.Fakultas == nil && p.Jurusan == nil
}

// columns はカラム名と値の対応を返す。指定されたフィールドのみを含む。
func (p UpdateParams) columns() map[string]any {
	m := make(map[string]any, 4)
	if p.NIM != nil {
		m["nim"] = *p.NIM
	}
	if p.NamaMahasiswa != nil {
		m["nama_mahasiswa"] = *p.NamaMahasiswa
	}
	if p.Fakultas != nil {
		m["fakultas"] = *p.Fakultas
	}
	if p.Jurusan != nil {
		m["jurusan"] = *p.Jurusan
	}
	return m
}

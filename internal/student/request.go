package student

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// createRequest はレコード作成リクエストのJSON構造。
type createRequest struct {
	// NIM は学籍番号。
	NIM string `json:"nim" binding:"required"`
	// NamaMahasiswa は氏名。
	NamaMahasiswa string `json:"nama_mahasiswa" binding:"required"`
	// Fakultas は学部。
	Fakultas string `json:"fakultas" binding:"required"`
	// Jurusan は学科。
	Jurusan string `json:"jurusan" binding:"required"`
}

// updateRequest はレコード更新リクエストのJSON構造。
// 送信されたフィールドのみを更新し、未知のキーは無視する。
type updateRequest struct {
	NIM           *string `json:"nim"`
	NamaMahasiswa *string `json:"nama_mahasiswa"`
	Fakultas      *string `json:"fakultas"`
	Jurusan       *string `json:"jurusan"`
}

// fieldErrors はフィールド名（JSONキー）ごとの検証エラーメッセージ。
type fieldErrors map[string]string

// validate は空白のみの値を拒否し、入力を整形したCreateParamsを返す。
func (r createRequest) validate() (CreateParams, fieldErrors) {
	errs := fieldErrors{}
	p := CreateParams{
		NIM:           requireText(errs, "nim", r.NIM),
		NamaMahasiswa: requireText(errs, "nama_mahasiswa", r.NamaMahasiswa),
		Fakultas:      requireText(errs, "fakultas", r.Fakultas),
		Jurusan:       requireText(errs, "jurusan", r.Jurusan),
	}
	if len(errs) > 0 {
		return CreateParams{}, errs
	}
	return p, nil
}

// validate は送信されたフィールドが空白のみでないことを確認し、UpdateParamsを返す。
func (r updateRequest) validate() (UpdateParams, fieldErrors) {
	errs := fieldErrors{}
	p := UpdateParams{
		NIM:           optionalText(errs, "nim", r.NIM),
		NamaMahasiswa: optionalText(errs, "nama_mahasiswa", r.NamaMahasiswa),
		Fakultas:      optionalText(errs, "fakultas", r.Fakultas),
		Jurusan:       optionalText(errs, "jurusan", r.Jurusan),
	}
	if len(errs) > 0 {
		return UpdateParams{}, errs
	}
	return p, nil
}

func requireText(errs fieldErrors, field, v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		errs[field] = field + " wajib diisi."
	}
	return v
}

func optionalText(errs fieldErrors, field string, v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		errs[field] = field + " tidak boleh kosong."
		return nil
	}
	return &s
}

// errTrailingData はJSON値の後ろに余分なデータがあることを表す。
var errTrailingData = errors.New("JSONの後ろに余分なデータがあります")

// bindJSON はginのJSONバインディングで読み込み、1つのJSON値の後ろに
// 空白以外のデータが続く場合はerrTrailingDataを返す。
// 空のボディはginと同じくio.EOFを返す。
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindBodyWith(obj, binding.JSON)
	if raw, ok := c.Get(gin.BodyBytesKey); ok {
		if body, ok := raw.([]byte); ok && hasTrailingData(body) {
			return errTrailingData
		}
	}
	return err
}

func hasTrailingData(body []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(body))
	var v json.RawMessage
	if err := dec.Decode(&v); err != nil {
		return false
	}
	_, err := dec.Token()
	return !errors.Is(err, io.EOF)
}

var registerTagNameOnce sync.Once

// registerJSONTagNames はginのバリデータがJSONキー名でエラーを報告するよう設定する。
func registerJSONTagNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindingErrors はShouldBindJSONのエラーをフィールドごとのメッセージに変換する。
// 検証エラー以外（JSON構文エラーなど）は "body" キーにまとめる。
func bindingErrors(err error) fieldErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fieldErrors{"body": "Format JSON tidak valid."}
	}

	errs := make(fieldErrors, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			errs[fe.Field()] = fe.Field() + " wajib diisi."
		default:
			errs[fe.Field()] = fe.Field() + " tidak valid."
		}
	}
	return errs
}

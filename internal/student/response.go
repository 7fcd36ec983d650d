package student

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// レスポンスエンベロープの status の値。
const (
	statusSuccess  = "sukses"
	statusEmpty    = "data kosong"
	statusNotFound = "data tidak ada"
	statusInvalid  = "validasi gagal"
	statusFailed   = "gagal"
)

// レスポンスエンベロープの pesan の値。
const (
	pesanListed   = "Data mahasiswa berhasil diambil."
	pesanEmpty    = "Tidak ada data mahasiswa."
	pesanCreated  = "Data mahasiswa berhasil ditambahkan."
	pesanFetched  = "Data mahasiswa berhasil diambil."
	pesanUpdated  = "Data mahasiswa berhasil diperbarui."
	pesanDeleted  = "Data mahasiswa berhasil dihapus."
	pesanNotFound = "Data mahasiswa tidak ditemukan."
	pesanInvalid  = "Validasi gagal."
	pesanFailed   = "Terjadi kesalahan pada server."
	pesanNoRoute  = "Endpoint tidak ditemukan."
	pesanNoMethod = "Metode tidak diizinkan."
)

// envelope はすべてのレスポンスに共通するJSON構造。
type envelope struct {
	// Status は結果の種別。
	Status string `json:"status"`
	// Pesan は人間向けのメッセージ。
	Pesan string `json:"pesan"`
	// Data は結果のデータ。削除やエラー時は省略する。
	Data any `json:"data,omitempty"`
	// Errors は検証エラー時のフィールドごとのメッセージ。
	Errors fieldErrors `json:"errors,omitempty"`
}

func respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, envelope{Status: statusNotFound, Pesan: pesanNotFound})
}

func respondInvalid(c *gin.Context, errs fieldErrors) {
	c.JSON(http.StatusBadRequest, envelope{Status: statusInvalid, Pesan: pesanInvalid, Errors: errs})
}

func respondFailed(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, envelope{Status: statusFailed, Pesan: pesanFailed})
}

// respondNoRoute は未定義のパスに対する404を返す。
func respondNoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, envelope{Status: statusNotFound, Pesan: pesanNoRoute})
}

// respondNoMethod は定義済みのパスに対する未対応メソッドの405を返す。
func respondNoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, envelope{Status: statusFailed, Pesan: pesanNoMethod})
}

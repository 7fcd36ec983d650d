package student

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/mahasiswa/internal/config"
	"github.com/nao1215/mahasiswa/internal/database"
	"github.com/nao1215/mahasiswa/pkg/event"
	"github.com/nao1215/mahasiswa/pkg/httpclient"
	"github.com/nao1215/mahasiswa/pkg/logger"
	"github.com/nao1215/mahasiswa/pkg/middleware"
)

// serviceName はヘルスチェックで返すサービス名。
const serviceName = "mahasiswa"

// readHeaderTimeout はリクエストヘッダー読み込みの上限。
const readHeaderTimeout = 10 * time.Second

// routePrefixes は学生APIを公開するパス。旧クライアント向けの /api/mahasiswa も残す。
var routePrefixes = []string{"/api/students", "/api/mahasiswa"}

// Server は学生APIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はサービス設定。
	cfg *config.Config
	// store は学生レコードの永続化層。
	store Store
	// notifier は変更イベントの通知先。nilの場合は通知しない。
	notifier Notifier
	// db はStoreが使うデータベース接続。Run終了時に閉じる。
	db *database.DB
	// events は送信中の変更イベント。
	events sync.WaitGroup
}

// NewServer はデータベース接続とスキーマ適用を行い、新しいサーバーを生成する。
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Open(ctx, database.Config{
		Dialect: database.Dialect(cfg.Database.Driver),
		DSN:     cfg.Database.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	var notifier Notifier
	if cfg.Webhook.URL != "" {
		notifier = NewWebhookNotifier(httpclient.New(cfg.Webhook.URL, httpclient.WithTimeout(cfg.Webhook.Timeout)))
	}

	s := newServer(cfg, NewSQLStore(db), notifier)
	s.db = db
	return s, nil
}

// newServer はルーターとミドルウェアを組み立てる。テストからも使用する。
func newServer(cfg *config.Config, store Store, notifier Notifier) *Server {
	registerJSONTagNames()

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(middleware.StaticToken(middleware.TokenAuthConfig{
		Token:        cfg.Auth.Token,
		EchoReceived: cfg.Auth.EchoReceived,
	}))

	s := &Server{
		router:   router,
		cfg:      cfg,
		store:    store,
		notifier: notifier,
	}
	s.setupRoutes()
	return s
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	defer s.close()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("学生APIサービスを起動します")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("シャットダウンを開始します")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}
	// 各送信はwebhook.timeoutで打ち切られる
	s.waitEvents()
	return nil
}

func (s *Server) close() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		logger.Warn().Err(err).Msg("データベース接続のクローズに失敗")
	}
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	for _, prefix := range routePrefixes {
		students := s.router.Group(prefix)
		{
			// 一覧取得
			students.GET("", s.handleList())
			// 作成
			students.POST("", s.handleCreate())
			// 詳細取得
			students.GET("/:id", s.handleGet())
			// 更新
			students.PUT("/:id", s.handleUpdate())
			// 削除
			students.DELETE("/:id", s.handleDelete())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})

	// 未定義のルートもエンベロープで返す。認証は全体ミドルウェアで先に行われる
	s.router.NoRoute(respondNoRoute)
	s.router.NoMethod(respondNoMethod)
}

// parseID はパスパラメータのIDを解釈する。数値でない、または1未満の場合はfalse。
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// handleList は一覧取得を処理するハンドラを返す。
// 0件の場合も200を返し、statusで空であることを示す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := s.store.List(c.Request.Context())
		if err != nil {
			s.fail(c, "一覧取得", err)
			return
		}

		if len(list) == 0 {
			c.JSON(http.StatusOK, envelope{Status: statusEmpty, Pesan: pesanEmpty, Data: list})
			return
		}
		c.JSON(http.StatusOK, envelope{Status: statusSuccess, Pesan: pesanListed, Data: list})
	}
}

// handleCreate は作成を処理するハンドラを返す。
// 4つのフィールドはすべて必須で、NIMの重複は400を返す。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRequest
		if err := bindJSON(c, &req); err != nil {
			errs := fieldErrors{}
			if !errors.Is(err, io.EOF) {
				errs = bindingErrors(err)
			}
			if _, malformed := errs["body"]; !malformed {
				_, blank := req.validate()
				maps.Copy(errs, blank)
			}
			respondInvalid(c, errs)
			return
		}

		params, errs := req.validate()
		if len(errs) > 0 {
			respondInvalid(c, errs)
			return
		}

		m, err := s.store.Create(c.Request.Context(), params)
		if errors.Is(err, ErrDuplicateNIM) {
			respondInvalid(c, duplicateNIMErrors())
			return
		}
		if err != nil {
			s.fail(c, "作成", err)
			return
		}

		s.emitEvent(c, m.ID, event.TypeMahasiswaCreated, mahasiswaData(m))
		c.JSON(http.StatusCreated, envelope{Status: statusSuccess, Pesan: pesanCreated, Data: m})
	}
}

// handleGet は詳細取得を処理するハンドラを返す。
func (s *Server) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			respondNotFound(c)
			return
		}

		m, err := s.store.Get(c.Request.Context(), id)
		if errors.Is(err, ErrNotFound) {
			respondNotFound(c)
			return
		}
		if err != nil {
			s.fail(c, "取得", err)
			return
		}
		c.JSON(http.StatusOK, envelope{Status: statusSuccess, Pesan: pesanFetched, Data: m})
	}
}

// handleUpdate は部分更新を処理するハンドラを返す。
// 送信されたフィールドのみを上書きし、空のボディは現在のレコードを返す。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			respondNotFound(c)
			return
		}

		var (
			req    updateRequest
			params UpdateParams
			errs   fieldErrors
		)
		if err := bindJSON(c, &req); err != nil && !errors.Is(err, io.EOF) {
			errs = bindingErrors(err)
		} else {
			params, errs = req.validate()
		}

		if len(errs) > 0 {
			// 存在しないIDは検証エラーより先に404とする
			if _, err := s.store.Get(c.Request.Context(), id); err != nil {
				s.respondLookupError(c, err)
				return
			}
			respondInvalid(c, errs)
			return
		}

		m, err := s.store.Update(c.Request.Context(), id, params)
		switch {
		case errors.Is(err, ErrNotFound):
			respondNotFound(c)
			return
		case errors.Is(err, ErrDuplicateNIM):
			respondInvalid(c, duplicateNIMErrors())
			return
		case err != nil:
			s.fail(c, "更新", err)
			return
		}

		if !params.IsEmpty() {
			s.emitEvent(c, m.ID, event.TypeMahasiswaUpdated, mahasiswaData(m))
		}
		c.JSON(http.StatusOK, envelope{Status: statusSuccess, Pesan: pesanUpdated, Data: m})
	}
}

// handleDelete は削除を処理するハンドラを返す。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			respondNotFound(c)
			return
		}

		if err := s.store.Delete(c.Request.Context(), id); err != nil {
			s.respondLookupError(c, err)
			return
		}

		s.emitEvent(c, id, event.TypeMahasiswaDeleted, event.MahasiswaDeletedData{ID: id})
		c.JSON(http.StatusOK, envelope{Status: statusSuccess, Pesan: pesanDeleted})
	}
}

func (s *Server) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		respondNotFound(c)
		return
	}
	s.fail(c, "取得", err)
}

// fail は永続化層の失敗をログに記録して500を返す。
func (s *Server) fail(c *gin.Context, op string, err error) {
	logger.Error().Err(err).
		Str("op", op).
		Str("request_id", middleware.GetRequestID(c)).
		Msg("学生レコードの操作に失敗")
	respondFailed(c)
}

func duplicateNIMErrors() fieldErrors {
	return fieldErrors{"nim": "nim sudah digunakan."}
}

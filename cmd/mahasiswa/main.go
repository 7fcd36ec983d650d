// 学生APIサービスのエントリポイント。
// 共有シークレットで保護された学生レコードのCRUD APIを提供する。
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/mahasiswa/internal/config"
	"github.com/nao1215/mahasiswa/internal/student"
	"github.com/nao1215/mahasiswa/pkg/logger"
)

func main() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	configPath := flag.String("config", defaultPath, "設定ファイルのパス")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", *configPath).Msg("設定の読み込みに失敗")
		os.Exit(1)
	}

	logger.Configure(logger.Config{
		Level:  logger.Level(cfg.Logging.Level),
		Pretty: cfg.Logging.Format == "console",
	})
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := student.NewServer(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("学生サーバーの初期化に失敗")
		os.Exit(1)
	}

	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("学生APIサービスが異常終了しました")
		stop()
		os.Exit(1)
	}
	logger.Info().Msg("学生APIサービスを停止しました")
}

package student

import (
	"context"
	"embed"
	"fmt"

	"github.com/nao1215/mahasiswa/internal/database"
	"github.com/nao1215/mahasiswa/pkg/migration"
)

// migrationFS は方言ごとのマイグレーションファイル。
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Migrate は接続先の方言に対応するマイグレーションを適用する。
func Migrate(ctx context.Context, db *database.DB) error {
	_, err := migration.Run(ctx, db.DB, migration.Source{
		FS:          migrationFS,
		Dir:         "migrations/" + string(db.Dialect),
		Placeholder: db.Dialect.Placeholder(),
	})
	if err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}

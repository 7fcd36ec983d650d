// Package database はdatabase/sql接続の生成とドライバ差異の吸収を行う。
//
// SQLite（modernc.org/sqlite）とPostgreSQL（pgx）の2つのドライバに対応し、
// プレースホルダ形式や一意制約違反エラーの判定をドライバごとに切り替える。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect はSQL方言を表す。
type Dialect string

const (
	// DialectSQLite はmodernc.org/sqliteを使うSQLite方言。
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres はpgxを使うPostgreSQL方言。
	DialectPostgres Dialect = "postgres"
)

// driverName はdatabase/sqlに登録されたドライバ名を返す。
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("未対応のSQL方言: %q", string(d))
	}
}

// Placeholder は方言に対応するsquirrelのプレースホルダ形式を返す。
func (d Dialect) Placeholder() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// Builder は方言に合わせて設定済みのsquirrelステートメントビルダーを返す。
func (d Dialect) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.Placeholder())
}

// DB は方言情報を持つデータベース接続。
type DB struct {
	*sql.DB
	// Dialect は接続先のSQL方言。
	Dialect Dialect
}

// Config は接続設定。
type Config struct {
	Dialect Dialect
	DSN     string
}

// Open はデータベース接続を開き、疎通を確認する。
func Open(ctx context.Context, cfg Config) (*DB, error) {
	driver, err := cfg.Dialect.driverName()
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if cfg.Dialect == DialectSQLite {
		// SQLiteは書き込みが直列化されるため接続を1本に絞る。
		// :memory: の場合は接続ごとに別DBになるのを防ぐ意味もある。
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	return &DB{DB: sqlDB, Dialect: cfg.Dialect}, nil
}

package migration

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// openDB はテスト用のインメモリSQLiteを開く。
func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// testFS は2つのマイグレーションと無関係なファイルを含むファイルシステム。
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/000002_add_index.up.sql": &fstest.MapFile{
			Data: []byte(`CREATE INDEX idx_items_name ON items(name)`),
		},
		"migrations/000001_create_items.up.sql": &fstest.MapFile{
			Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`),
		},
		"migrations/000001_create_items.down.sql": &fstest.MapFile{
			Data: []byte(`DROP TABLE items`),
		},
		"migrations/README.md": &fstest.MapFile{Data: []byte("memo")},
		"migrations/abc_broken.up.sql": &fstest.MapFile{
			Data: []byte(`THIS IS NOT SQL`),
		},
	}
}

// TestRun はマイグレーションの適用を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("未適用のマイグレーションがバージョン順に適用されること", func(t *testing.T) {
		t.Parallel()
		db := openDB(t)

		n, err := Run(t.Context(), db, Source{FS: testFS(), Dir: "migrations"})
		if err != nil {
			t.Fatalf("Run()でエラー: %v", err)
		}
		if n != 2 {
			t.Errorf("適用件数 = %d, want 2", n)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("バージョン数の取得に失敗: %v", err)
		}
		if count != 2 {
			t.Errorf("記録されたバージョン数 = %d, want 2", count)
		}
		if _, err := db.Exec(`INSERT INTO items (name) VALUES ('a')`); err != nil {
			t.Errorf("作成されたテーブルへの挿入に失敗: %v", err)
		}
	})

	t.Run("2回目の実行では何も適用しないこと", func(t *testing.T) {
		t.Parallel()
		db := openDB(t)

		if _, err := Run(t.Context(), db, Source{FS: testFS(), Dir: "migrations"}); err != nil {
			t.Fatalf("1回目のRun()でエラー: %v", err)
		}
		n, err := Run(t.Context(), db, Source{FS: testFS(), Dir: "migrations"})
		if err != nil {
			t.Fatalf("2回目のRun()でエラー: %v", err)
		}
		if n != 0 {
			t.Errorf("適用件数 = %d, want 0", n)
		}
	})

	t.Run("SQLが不正な場合はロールバックされバージョンが記録されないこと", func(t *testing.T) {
		t.Parallel()
		db := openDB(t)
		fsys := fstest.MapFS{
			"m/000001_ok.up.sql":     &fstest.MapFile{Data: []byte(`CREATE TABLE ok (id INTEGER)`)},
			"m/000002_broken.up.sql": &fstest.MapFile{Data: []byte(`CREATE TABLE (`)},
		}

		n, err := Run(t.Context(), db, Source{FS: fsys, Dir: "m"})
		if err == nil {
			t.Fatal("エラーが返されませんでした")
		}
		if n != 1 {
			t.Errorf("適用件数 = %d, want 1", n)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = 2").Scan(&count); err != nil {
			t.Fatalf("バージョンの取得に失敗: %v", err)
		}
		if count != 0 {
			t.Errorf("失敗したバージョンが記録されています")
		}
	})

	t.Run("ディレクトリが存在しない場合はエラー", func(t *testing.T) {
		t.Parallel()
		db := openDB(t)
		if _, err := Run(t.Context(), db, Source{FS: testFS(), Dir: "missing"}); err == nil {
			t.Error("エラーが返されませんでした")
		}
	})
}

// TestCollect はファイル収集と並び替えを検証する。
func TestCollect(t *testing.T) {
	t.Parallel()

	files, err := collect(testFS(), "migrations")
	if err != nil {
		t.Fatalf("collect()でエラー: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	if files[0].version != 1 || files[0].name != "create_items" {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[1].version != 2 || files[1].path != "migrations/000002_add_index.up.sql" {
		t.Errorf("files[1] = %+v", files[1])
	}
}

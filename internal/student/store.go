package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nao1215/mahasiswa/internal/database"
)

// tableName は学生レコードのテーブル名。
const tableName = "mahasiswas"

// selectColumns はレコード取得時のカラム。scanの順序と一致させること。
var selectColumns = []string{"id", "nim", "nama_mahasiswa", "fakultas", "jurusan", "created_at", "updated_at"}

// Store は学生レコードの永続化を担う。
type Store interface {
	// List はすべてのレコードをID順に返す。
	List(ctx context.Context) ([]Mahasiswa, error)
	// Create はレコードを作成する。NIMが重複する場合はErrDuplicateNIMを返す。
	Create(ctx context.Context, p CreateParams) (Mahasiswa, error)
	// Get は指定IDのレコードを返す。存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, id int64) (Mahasiswa, error)
	// Update は指定されたフィールドのみを上書きする。
	// 存在しない場合はErrNotFound、NIMが重複する場合はErrDuplicateNIMを返す。
	Update(ctx context.Context, id int64, p UpdateParams) (Mahasiswa, error)
	// Delete は指定IDのレコードを削除する。存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id int64) error
}

// SQLStore はdatabase/sqlとsquirrelによるStoreの実装。
// 更新と削除は1文で行い、存在確認と書き込みの間に競合が入らないようにする。
type SQLStore struct {
	db  *database.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

// NewSQLStore は新しいSQLStoreを生成する。
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{
		db:  db,
		sb:  db.Dialect.Builder(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// List はすべてのレコードをID順に返す。
func (s *SQLStore) List(ctx context.Context) ([]Mahasiswa, error) {
	query, args, err := s.sb.Select(selectColumns...).From(tableName).OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("一覧取得SQLの生成に失敗: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("一覧取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	list := make([]Mahasiswa, 0)
	for rows.Next() {
		m, err := scanMahasiswa(rows)
		if err != nil {
			return nil, fmt.Errorf("一覧の読み取りに失敗: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("一覧の読み取りに失敗: %w", err)
	}
	return list, nil
}

// Create はレコードを作成する。
func (s *SQLStore) Create(ctx context.Context, p CreateParams) (Mahasiswa, error) {
	now := s.now()
	query, args, err := s.sb.Insert(tableName).
		Columns("nim", "nama_mahasiswa", "fakultas", "jurusan", "created_at", "updated_at").
		Values(p.NIM, p.NamaMahasiswa, p.Fakultas, p.Jurusan, now, now).
		Suffix(returningClause()).
		ToSql()
	if err != nil {
		return Mahasiswa{}, fmt.Errorf("作成SQLの生成に失敗: %w", err)
	}

	m, err := scanMahasiswa(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Mahasiswa{}, ErrDuplicateNIM
		}
		return Mahasiswa{}, fmt.Errorf("作成に失敗: %w", err)
	}
	return m, nil
}

// Get は指定IDのレコードを返す。
func (s *SQLStore) Get(ctx context.Context, id int64) (Mahasiswa, error) {
	query, args, err := s.sb.Select(selectColumns...).From(tableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Mahasiswa{}, fmt.Errorf("取得SQLの生成に失敗: %w", err)
	}

	m, err := scanMahasiswa(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Mahasiswa{}, ErrNotFound
	}
	if err != nil {
		return Mahasiswa{}, fmt.Errorf("取得に失敗: %w", err)
	}
	return m, nil
}

// Update は指定されたフィールドのみを上書きする。
// 更新対象が無い場合は現在のレコードをそのまま返す。
func (s *SQLStore) Update(ctx context.Context, id int64, p UpdateParams) (Mahasiswa, error) {
	if p.IsEmpty() {
		return s.Get(ctx, id)
	}

	query, args, err := s.sb.Update(tableName).
		SetMap(p.columns()).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": id}).
		Suffix(returningClause()).
		ToSql()
	if err != nil {
		return Mahasiswa{}, fmt.Errorf("更新SQLの生成に失敗: %w", err)
	}

	m, err := scanMahasiswa(s.db.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Mahasiswa{}, ErrNotFound
	case database.IsUniqueViolation(err):
		return Mahasiswa{}, ErrDuplicateNIM
	case err != nil:
		return Mahasiswa{}, fmt.Errorf("更新に失敗: %w", err)
	}
	return m, nil
}

// Delete は指定IDのレコードを削除する。
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	query, args, err := s.sb.Delete(tableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("削除SQLの生成に失敗: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("削除に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func returningClause() string {
	return "RETURNING " + strings.Join(selectColumns, ", ")
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMahasiswa(row rowScanner) (Mahasiswa, error) {
	var (
		m                Mahasiswa
		created, updated timestamp
	)
	if err := row.Scan(&m.ID, &m.NIM, &m.NamaMahasiswa, &m.Fakultas, &m.Jurusan, &created, &updated); err != nil {
		return Mahasiswa{}, err
	}
	m.CreatedAt = created.Time
	m.UpdatedAt = updated.Time
	return m, nil
}

// timestampLayouts はSQLiteがテキストで返す日時の形式。
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

// timestamp はドライバごとに異なる日時表現を読み取るsql.Scanner。
// PostgreSQLはtime.Timeを、SQLiteは文脈によって文字列を返す。
type timestamp struct {
	time.Time
}

// Scan はsql.Scannerを実装する。
func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("日時として読み取れない型: %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	// time.Time.String() はモノトニック時刻 " m=+..." を付けることがある
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("日時の解析に失敗: %q", s)
}

package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	sqlite "github.com/mattn/go-sqlite3"

	"github.com/deanDev5200/web-aspirasi/internal/models"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// sqliteDriver is go-sqlite3 with a Unicode-aware fold() function. SQLite's
// own LOWER() only folds ASCII, so "ÉLODIE" would never match "élodie".
const sqliteDriver = "sqlite3_aspirasi"

func init() {
	sql.Register(sqliteDriver, &sqlite.SQLiteDriver{
		ConnectHook: func(conn *sqlite.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

const aspirasiColumns = `id, nama, kelas, aspirasi, timestamp, status, is_anonymous, created_at, updated_at`

type aspirasiRow struct {
	ID          string `db:"id"`
	Nama        string `db:"nama"`
	Kelas       string `db:"kelas"`
	Aspirasi    string `db:"aspirasi"`
	Timestamp   int64  `db:"timestamp"`
	Status      string `db:"status"`
	IsAnonymous bool   `db:"is_anonymous"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r aspirasiRow) model() models.Aspirasi {
	return models.Aspirasi{
		ID:          r.ID,
		Nama:        r.Nama,
		Kelas:       r.Kelas,
		Aspirasi:    r.Aspirasi,
		Timestamp:   fromMillis(r.Timestamp),
		Status:      models.Status(r.Status),
		IsAnonymous: r.IsAnonymous,
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

// SQLiteAspirasiRepo stores submissions in an embedded SQLite file.
type SQLiteAspirasiRepo struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the database at path. Call
// EnsureIndexes before use to apply the schema.
func OpenSQLite(path string) (*SQLiteAspirasiRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sqlx.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: connect: %w", err)
	}

	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	return NewSQLiteAspirasiRepo(db), nil
}

func NewSQLiteAspirasiRepo(db *sqlx.DB) *SQLiteAspirasiRepo {
	return &SQLiteAspirasiRepo{db: db}
}

// EnsureIndexes applies the embedded migrations; it is idempotent.
func (r *SQLiteAspirasiRepo) EnsureIndexes(ctx context.Context) error {
	src, err := iofs.New(sqliteMigrations, "migrations/sqlite")
	if err != nil {
		return err
	}
	dst, err := sqlite3.WithInstance(r.db.DB, &sqlite3.Config{})
	if err != nil {
		return err
	}
	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// already up to date
	case err != nil:
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

func (r *SQLiteAspirasiRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteAspirasiRepo) Create(ctx context.Context, a *models.Aspirasi) error {
	row := aspirasiRow{
		ID:          uuid.NewString(),
		Nama:        a.Nama,
		Kelas:       a.Kelas,
		Aspirasi:    a.Aspirasi,
		Timestamp:   toMillis(a.Timestamp),
		Status:      string(a.Status),
		IsAnonymous: a.IsAnonymous,
		CreatedAt:   toMillis(a.CreatedAt),
		UpdatedAt:   toMillis(a.UpdatedAt),
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO aspirasis (`+aspirasiColumns+`)
		VALUES (:id, :nama, :kelas, :aspirasi, :timestamp, :status, :is_anonymous, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert: %w", err)
	}
	a.ID = row.ID
	return nil
}

func (r *SQLiteAspirasiRepo) FindByID(ctx context.Context, id string) (*models.Aspirasi, error) {
	var row aspirasiRow
	err := r.db.GetContext(ctx, &row, `SELECT `+aspirasiColumns+` FROM aspirasis WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find %s: %w", id, err)
	}
	a := row.model()
	return &a, nil
}

func (r *SQLiteAspirasiRepo) Find(ctx context.Context, f models.Filter, skip, limit int) ([]models.Aspirasi, int, error) {
	total, err := r.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	where, args := sqliteWhere(f)
	var rows []aspirasiRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT `+aspirasiColumns+`
		FROM aspirasis`+where+`
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ? OFFSET ?`,
		append(args, limit, skip)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: find: %w", err)
	}

	items := make([]models.Aspirasi, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.model())
	}
	return items, total, nil
}

func (r *SQLiteAspirasiRepo) Count(ctx context.Context, f models.Filter) (int, error) {
	where, args := sqliteWhere(f)
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM aspirasis`+where, args...); err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}

func (r *SQLiteAspirasiRepo) UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) (*models.Aspirasi, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE aspirasis
		SET status = ?, updated_at = ?
		WHERE id = ?`,
		string(status), toMillis(updatedAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: update %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: update %s: %w", id, err)
	}
	if n == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *SQLiteAspirasiRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM aspirasis WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: delete %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *SQLiteAspirasiRepo) Exists(ctx context.Context, nama, aspirasi string, ts time.Time) (bool, error) {
	var found bool
	err := r.db.GetContext(ctx, &found, `
		SELECT EXISTS (
			SELECT 1 FROM aspirasis
			WHERE timestamp = ? AND nama = ? AND aspirasi = ?
		)`,
		toMillis(ts), nama, aspirasi,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: exists: %w", err)
	}
	return found, nil
}

func (r *SQLiteAspirasiRepo) Close() error {
	return r.db.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// sqliteWhere renders f as a WHERE clause. Search terms are matched
// case-insensitively against nama, kelas and aspirasi; a row matches when
// any term does.
func sqliteWhere(f models.Filter) (string, []any) {
	var conds []string
	var args []any

	if terms := strings.Fields(strings.ToLower(f.Search)); len(terms) > 0 {
		var clauses []string
		for _, term := range terms {
			pattern := "%" + likeEscaper.Replace(term) + "%"
			clauses = append(clauses, `(fold(nama) LIKE ? ESCAPE '\' OR fold(kelas) LIKE ? ESCAPE '\' OR fold(aspirasi) LIKE ? ESCAPE '\')`)
			args = append(args, pattern, pattern, pattern)
		}
		conds = append(conds, "("+strings.Join(clauses, " OR ")+")")
	}
	if f.From != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, toMillis(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, toMillis(*f.To))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Anonymous != nil {
		conds = append(conds, "is_anonymous = ?")
		args = append(args, *f.Anonymous)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "equipment-manager/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteCacheRepository - файловый кеш для машин без Redis.
// Значения хранятся строками, срок жизни проверяется при чтении.
type SQLiteCacheRepository struct {
	db *sql.DB
}

func NewSQLiteCacheRepository(path string) (*SQLiteCacheRepository, error) {
	if path == "" {
		path = "cache.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("не удалось создать каталог кеша: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть sqlite: %w", err)
	}
	// Один писатель: sqlite не любит параллельные транзакции записи.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу кеша: %w", err)
	}
	return &SQLiteCacheRepository{db: db}, nil
}

func (r *SQLiteCacheRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteCacheRepository) Get(ctx context.Context, key string) (string, error) {
	var payload string
	var expiresAt int64
	err := r.db.QueryRowContext(ctx, `SELECT payload, expires_at FROM cache WHERE key = ?`, key).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	if expiresAt > 0 && time.Now().UnixNano() > expiresAt {
		_ = r.Del(ctx, key)
		return "", apperrors.ErrCacheMiss
	}
	return payload, nil
}

func (r *SQLiteCacheRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	payload, err := stringify(value)
	if err != nil {
		return err
	}
	var expiresAt int64
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration).UnixNano()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO cache (key, payload, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		key, payload, expiresAt)
	return err
}

func (r *SQLiteCacheRepository) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteCacheRepository) Incr(ctx context.Context, key string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT payload FROM cache WHERE key = ?`, key).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	var n int64
	if current != "" {
		if n, err = strconv.ParseInt(current, 10, 64); err != nil {
			return 0, fmt.Errorf("значение ключа %s не является числом: %w", key, err)
		}
	}
	n++
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cache (key, payload, expires_at) VALUES (?, ?, 0)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		key, strconv.FormatInt(n, 10)); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func stringify(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case int, int64, int32, uint, uint64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("неподдерживаемый тип значения кеша %T", value)
	}
}

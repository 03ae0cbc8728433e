package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "equipment-manager/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// rawDocument - строка таблицы документов: ключ и JSONB-тело.
type rawDocument struct {
	Key  string
	Data []byte
}

// documentTable - таблица вида (<key> TEXT PRIMARY KEY, data JSONB, updated_at).
// Запись сливается с существующей на верхнем уровне ключей (data || новое).
type documentTable struct {
	name   string
	keyCol string
}

func (t documentTable) upsertMerge(ctx context.Context, q querier, key string, doc interface{}) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать документ %s/%s: %w", t.name, key, err)
	}

	query, args, err := psql.Insert(t.name).
		Columns(t.keyCol, "data", "updated_at").
		Values(key, payload, sq.Expr("NOW()")).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (%[2]s) DO UPDATE SET data = %[1]s.data || EXCLUDED.data, updated_at = NOW()",
			t.name, t.keyCol,
		)).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка записи документа %s/%s: %w", t.name, key, err)
	}
	return nil
}

func (t documentTable) delete(ctx context.Context, q querier, key string) error {
	query, args, err := psql.Delete(t.name).Where(sq.Eq{t.keyCol: key}).ToSql()
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка удаления документа %s/%s: %w", t.name, key, err)
	}
	return nil
}

func (t documentTable) get(ctx context.Context, q querier, key string) (rawDocument, error) {
	query, args, err := psql.Select(t.keyCol, "data").From(t.name).Where(sq.Eq{t.keyCol: key}).ToSql()
	if err != nil {
		return rawDocument{}, err
	}

	var doc rawDocument
	if err := q.QueryRow(ctx, query, args...).Scan(&doc.Key, &doc.Data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rawDocument{}, apperrors.ErrNotFound
		}
		return rawDocument{}, err
	}
	return doc, nil
}

// list возвращает документы, отсортированные по ключу. where может быть nil.
func (t documentTable) list(ctx context.Context, q querier, where sq.Sqlizer) ([]rawDocument, error) {
	builder := psql.Select(t.keyCol, "data").From(t.name).OrderBy(t.keyCol)
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", t.name, err)
	}
	defer rows.Close()

	var docs []rawDocument
	for rows.Next() {
		var doc rawDocument
		if err := rows.Scan(&doc.Key, &doc.Data); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

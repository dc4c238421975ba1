package persistent

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Frame-Ingest/pkg/postgres"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
	"github.com/jackc/pgx/v5"
)

const (
	primaryKeyColumn = "id"
	returningAll     = "RETURNING *"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PassthroughRepo runs generic table operations for the /rest and /query
// endpoints. Table and column names are validated and quoted; values are
// always bound as parameters.
type PassthroughRepo struct {
	*postgres.Postgres
}

func NewPassthroughRepo(pg *postgres.Postgres) *PassthroughRepo {
	return &PassthroughRepo{pg}
}

func (r *PassthroughRepo) Query(ctx context.Context, sql string, params []any) ([]map[string]any, error) {
	if sql == "" {
		return nil, fmt.Errorf("PassthroughRepo - Query: %w", errs.ErrEmptyQuery)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Query - executor.Query: %w", err)
	}

	res, err := collectMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Query - collectMaps: %w", err)
	}

	return res, nil
}

func (r *PassthroughRepo) Select(ctx context.Context, table string, filters map[string]string, limit uint64) ([]map[string]any, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Select: %w", err)
	}

	where := squirrel.Eq{}
	for col, val := range filters {
		c, err := quoteIdent(col)
		if err != nil {
			return nil, fmt.Errorf("PassthroughRepo - Select: %w", err)
		}
		where[c] = val
	}

	b := r.Builder.Select("*").From(t)
	if len(where) > 0 {
		b = b.Where(where)
	}
	if limit > 0 {
		b = b.Limit(limit)
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Select - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Select - executor.Query: %w", err)
	}

	res, err := collectMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Select - collectMaps: %w", err)
	}

	return res, nil
}

func (r *PassthroughRepo) Get(ctx context.Context, table, id string) (map[string]any, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Get: %w", err)
	}

	sql, args, err := r.Builder.
		Select("*").
		From(t).
		Where(squirrel.Eq{primaryKeyColumn: id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Get - r.Builder.ToSql: %w", err)
	}

	row, err := r.queryOne(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Get: %w", err)
	}

	return row, nil
}

func (r *PassthroughRepo) Insert(ctx context.Context, table string, values map[string]any) (map[string]any, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Insert: %w", err)
	}

	cols, vals, err := splitValues(values)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Insert: %w", err)
	}

	sql, args, err := r.Builder.
		Insert(t).
		Columns(cols...).
		Values(vals...).
		Suffix(returningAll).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Insert - r.Builder.ToSql: %w", err)
	}

	row, err := r.queryOne(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Insert: %w", err)
	}

	return row, nil
}

func (r *PassthroughRepo) Update(ctx context.Context, table, id string, values map[string]any) (map[string]any, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Update: %w", err)
	}

	cols, vals, err := splitValues(values)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Update: %w", err)
	}

	b := r.Builder.Update(t)
	for i, col := range cols {
		b = b.Set(col, vals[i])
	}

	sql, args, err := b.
		Where(squirrel.Eq{primaryKeyColumn: id}).
		Suffix(returningAll).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Update - r.Builder.ToSql: %w", err)
	}

	row, err := r.queryOne(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("PassthroughRepo - Update: %w", err)
	}

	return row, nil
}

func (r *PassthroughRepo) Delete(ctx context.Context, table, id string) error {
	t, err := quoteIdent(table)
	if err != nil {
		return fmt.Errorf("PassthroughRepo - Delete: %w", err)
	}

	sql, args, err := r.Builder.
		Delete(t).
		Where(squirrel.Eq{primaryKeyColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("PassthroughRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("PassthroughRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("PassthroughRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *PassthroughRepo) queryOne(ctx context.Context, sql string, args []any) (map[string]any, error) {
	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executor.Query: %w", err)
	}

	res, err := collectMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("collectMaps: %w", err)
	}

	if len(res) == 0 {
		return nil, errs.ErrRecordNotFound
	}

	return res[0], nil
}

func collectMaps(rows pgx.Rows) ([]map[string]any, error) {
	res, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	if res == nil {
		res = []map[string]any{}
	}

	return res, nil
}

func splitValues(values map[string]any) ([]string, []any, error) {
	if len(values) == 0 {
		return nil, nil, errs.ErrEmptyValues
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]string, 0, len(keys))
	vals := make([]any, 0, len(keys))

	for _, k := range keys {
		c, err := quoteIdent(k)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, c)
		vals = append(vals, values[k])
	}

	return cols, vals, nil
}

func quoteIdent(name string) (string, error) {
	if !identifierRe.MatchString(name) {
		return "", fmt.Errorf("%q: %w", name, errs.ErrInvalidIdentifier)
	}

	return pgx.Identifier{name}.Sanitize(), nil
}

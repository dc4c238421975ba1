package passthrough

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Frame-Ingest/internal/repo"
)

const (
	_defaultLimit = 100
	_maxLimit     = 1000
)

type PassthroughUseCase struct {
	repo repo.PassthroughRepo
}

func New(r repo.PassthroughRepo) *PassthroughUseCase {
	return &PassthroughUseCase{repo: r}
}

func (uc *PassthroughUseCase) Query(ctx context.Context, sql string, params []any) ([]map[string]any, error) {
	rows, err := uc.repo.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("PassthroughUseCase - Query - uc.repo.Query: %w", err)
	}

	return rows, nil
}

// List returns at most limit rows matching every filter. Zero means the
// default limit.
func (uc *PassthroughUseCase) List(ctx context.Context, table string, filters map[string]string, limit uint64) ([]map[string]any, error) {
	switch {
	case limit == 0:
		limit = _defaultLimit
	case limit > _maxLimit:
		limit = _maxLimit
	}

	rows, err := uc.repo.Select(ctx, table, filters, limit)
	if err != nil {
		return nil, fmt.Errorf("PassthroughUseCase - List - uc.repo.Select: %w", err)
	}

	return rows, nil
}

func (uc *PassthroughUseCase) Get(ctx context.Context, table, id string) (map[string]any, error) {
	row, err := uc.repo.Get(ctx, table, id)
	if err != nil {
		return nil, fmt.Errorf("PassthroughUseCase - Get - uc.repo.Get: %w", err)
	}

	return row, nil
}

func (uc *PassthroughUseCase) Create(ctx context.Context, table string, values map[string]any) (map[string]any, error) {
	row, err := uc.repo.Insert(ctx, table, values)
	if err != nil {
		return nil, fmt.Errorf("PassthroughUseCase - Create - uc.repo.Insert: %w", err)
	}

	return row, nil
}

func (uc *PassthroughUseCase) Update(ctx context.Context, table, id string, values map[string]any) (map[string]any, error) {
	row, err := uc.repo.Update(ctx, table, id, values)
	if err != nil {
		return nil, fmt.Errorf("PassthroughUseCase - Update - uc.repo.Update: %w", err)
	}

	return row, nil
}

func (uc *PassthroughUseCase) Delete(ctx context.Context, table, id string) error {
	err := uc.repo.Delete(ctx, table, id)
	if err != nil {
		return fmt.Errorf("PassthroughUseCase - Delete - uc.repo.Delete: %w", err)
	}

	return nil
}

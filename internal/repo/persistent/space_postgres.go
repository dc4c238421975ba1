package persistent

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/pkg/postgres"
)

const (
	// Table
	spaceTable = "space"

	// Columns
	spaceIDColumn       = "id"
	spaceLotIDColumn    = "lot_id"
	spaceCategoryColumn = "category"
	spaceStatusColumn   = "status"
)

type SpaceRepo struct {
	*postgres.Postgres
}

func NewSpaceRepo(pg *postgres.Postgres) *SpaceRepo {
	return &SpaceRepo{pg}
}

func (r *SpaceRepo) List(ctx context.Context) ([]entity.Space, error) {
	sql, args, err := r.Builder.
		Select(spaceIDColumn, spaceLotIDColumn, spaceCategoryColumn, spaceStatusColumn).
		From(spaceTable).
		OrderBy(spaceLotIDColumn+" ASC", spaceIDColumn+" ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SpaceRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("SpaceRepo - List - executor.Query: %w", err)
	}
	defer rows.Close()

	spaces := make([]entity.Space, 0)
	for rows.Next() {
		var (
			space    entity.Space
			category string
		)
		if err = rows.Scan(&space.ID, &space.LotID, &category, &space.Status); err != nil {
			return nil, fmt.Errorf("SpaceRepo - List - rows.Scan: %w", err)
		}
		space.Category = entity.SpaceCategory(category)
		spaces = append(spaces, space)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("SpaceRepo - List - rows.Err: %w", err)
	}

	return spaces, nil
}

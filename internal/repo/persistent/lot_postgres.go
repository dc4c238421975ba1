package persistent

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/pkg/postgres"
)

const (
	// Table
	lotTable = "lot"

	// Columns
	lotIDColumn   = "lot_id"
	lotNameColumn = "lot_name"
)

type LotRepo struct {
	*postgres.Postgres
}

func NewLotRepo(pg *postgres.Postgres) *LotRepo {
	return &LotRepo{pg}
}

func (r *LotRepo) List(ctx context.Context) ([]entity.Lot, error) {
	sql, args, err := r.Builder.
		Select(lotIDColumn, lotNameColumn).
		From(lotTable).
		OrderBy(lotIDColumn + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("LotRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("LotRepo - List - executor.Query: %w", err)
	}
	defer rows.Close()

	lots := make([]entity.Lot, 0)
	for rows.Next() {
		var lot entity.Lot
		if err = rows.Scan(&lot.ID, &lot.Name); err != nil {
			return nil, fmt.Errorf("LotRepo - List - rows.Scan: %w", err)
		}
		lots = append(lots, lot)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("LotRepo - List - rows.Err: %w", err)
	}

	return lots, nil
}

package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/edition"
	"github.com/ferrumlabs/backoffice/pkg/composables"
)

var ErrEditionNotFound = errors.New("edition not found")

const editionFindQuery = `SELECT id, name, display_name, is_default FROM editions`

type EditionRepository struct{}

func NewEditionRepository() edition.Repository {
	return &EditionRepository{}
}

func (r *EditionRepository) GetDefault(ctx context.Context) (*edition.Edition, error) {
	return r.queryOne(ctx, editionFindQuery+" WHERE is_default = true LIMIT 1")
}

func (r *EditionRepository) GetByID(ctx context.Context, id uuid.UUID) (*edition.Edition, error) {
	return r.queryOne(ctx, editionFindQuery+" WHERE id = $1", id.String())
}

func (r *EditionRepository) Save(ctx context.Context, e *edition.Edition) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO editions (id, name, display_name, is_default)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET display_name = $3, is_default = $4
	`, e.ID.String(), e.Name, e.DisplayName, e.IsDefault)
	return errors.Wrap(err, "failed to save edition")
}

func (r *EditionRepository) queryOne(ctx context.Context, query string, args ...any) (*edition.Edition, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var (
		idStr string
		e     edition.Edition
	)
	err = tx.QueryRow(ctx, query, args...).Scan(&idStr, &e.Name, &e.DisplayName, &e.IsDefault)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEditionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query edition")
	}
	e.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencatalog/metadata-service/internal/model"
	"github.com/opencatalog/metadata-service/internal/repository"
)

type tagRepository struct{ pool *pgxpool.Pool }

func NewTagRepository(pool *pgxpool.Pool) repository.TagRepository {
	return &tagRepository{pool: pool}
}

// ApplyTags replaces the full tag set for a target. Callers wrap this in a
// transaction when it must be atomic with the entity write.
func (r *tagRepository) ApplyTags(ctx context.Context, targetFQN string, tags []model.TagLabel) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	exec := getQ(ctx, r.pool)
	if _, err := exec.Exec(ctx, `DELETE FROM tag_usage WHERE target_fqn = $1`, targetFQN); err != nil {
		return repository.MapPgError(err)
	}
	for _, t := range tags {
		_, err := exec.Exec(ctx,
			`INSERT INTO tag_usage (tag_fqn, target_fqn, label_type, state)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (tag_fqn, target_fqn) DO UPDATE SET label_type = $3, state = $4`,
			t.TagFQN, targetFQN, t.LabelType, t.State,
		)
		if err != nil {
			return repository.MapPgError(err)
		}
	}
	return nil
}

func (r *tagRepository) GetTags(ctx context.Context, targetFQN string) ([]model.TagLabel, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT tag_fqn, label_type, state FROM tag_usage WHERE target_fqn = $1 ORDER BY tag_fqn`,
		targetFQN,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	var out []model.TagLabel
	for rows.Next() {
		var t model.TagLabel
		if err := rows.Scan(&t.TagFQN, &t.LabelType, &t.State); err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tagRepository) DeleteTags(ctx context.Context, targetFQN string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	exec := getQ(ctx, r.pool)
	if _, err := exec.Exec(ctx, `DELETE FROM tag_usage WHERE target_fqn = $1`, targetFQN); err != nil {
		return repository.MapPgError(err)
	}
	return nil
}

var _ repository.TagRepository = (*tagRepository)(nil)

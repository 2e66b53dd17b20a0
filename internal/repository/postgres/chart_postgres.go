package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencatalog/metadata-service/internal/model"
	"github.com/opencatalog/metadata-service/internal/repository"
)

type chartRepository struct{ pool *pgxpool.Pool }

func NewChartRepository(pool *pgxpool.Pool) repository.ChartRepository {
	return &chartRepository{pool: pool}
}

// chartColumns is the shared projection for all chart reads. The service
// reference is joined in so callers get a populated scope without a second
// query.
const chartColumns = `
	c.id, c.name, c.display_name, c.description, c.chart_type, c.chart_url,
	c.fully_qualified_name, c.version, c.updated_by, c.updated_at,
	c.owner_id, c.owner_type, c.owner_name,
	s.id, s.name`

const chartFrom = ` FROM charts c JOIN dashboard_services s ON c.service_id = s.id`

func scanChart(row pgx.Row) (model.Chart, error) {
	var (
		out       model.Chart
		ownerID   *uuid.UUID
		ownerType *string
		ownerName *string
		svc       model.EntityReference
	)
	err := row.Scan(
		&out.ID, &out.Name, &out.DisplayName, &out.Description, &out.ChartType, &out.ChartURL,
		&out.FullyQualifiedName, &out.Version, &out.UpdatedBy, &out.UpdatedAt,
		&ownerID, &ownerType, &ownerName,
		&svc.ID, &svc.Name,
	)
	if err != nil {
		return model.Chart{}, err
	}
	svc.Type = "dashboardService"
	out.Service = &svc
	if ownerID != nil {
		owner := model.EntityReference{ID: *ownerID}
		if ownerType != nil {
			owner.Type = *ownerType
		}
		if ownerName != nil {
			owner.Name = *ownerName
		}
		out.Owner = &owner
	}
	return out, nil
}

func ownerFields(c model.Chart) (*uuid.UUID, *string, *string) {
	if c.Owner == nil {
		return nil, nil, nil
	}
	return &c.Owner.ID, &c.Owner.Type, &c.Owner.Name
}

func (r *chartRepository) Insert(ctx context.Context, c model.Chart) (model.Chart, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Chart{}, err
	}
	ownerID, ownerType, ownerName := ownerFields(c)
	exec := getQ(ctx, r.pool)
	_, err := exec.Exec(ctx,
		`INSERT INTO charts
		   (id, name, display_name, description, chart_type, chart_url,
		    fully_qualified_name, service_id, owner_id, owner_type, owner_name,
		    version, updated_by, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now())`,
		c.ID, c.Name, c.DisplayName, c.Description, c.ChartType, c.ChartURL,
		c.FullyQualifiedName, c.Service.ID, ownerID, ownerType, ownerName,
		c.Version, c.UpdatedBy,
	)
	if err != nil {
		return model.Chart{}, repository.MapPgError(err)
	}
	return r.FindByID(ctx, c.ID)
}

func (r *chartRepository) Update(ctx context.Context, c model.Chart) (model.Chart, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Chart{}, err
	}
	ownerID, ownerType, ownerName := ownerFields(c)
	exec := getQ(ctx, r.pool)
	tag, err := exec.Exec(ctx,
		`UPDATE charts SET
		   display_name = $2, description = $3, chart_type = $4, chart_url = $5,
		   owner_id = $6, owner_type = $7, owner_name = $8,
		   version = $9, updated_by = $10, updated_at = now()
		 WHERE id = $1`,
		c.ID, c.DisplayName, c.Description, c.ChartType, c.ChartURL,
		ownerID, ownerType, ownerName, c.Version, c.UpdatedBy,
	)
	if err != nil {
		return model.Chart{}, repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return model.Chart{}, repository.ErrNotFound
	}
	return r.FindByID(ctx, c.ID)
}

func (r *chartRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Chart, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Chart{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT`+chartColumns+chartFrom+` WHERE c.id = $1`, id)
	out, err := scanChart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Chart{}, repository.ErrNotFound
		}
		return model.Chart{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *chartRepository) FindByName(ctx context.Context, fqn string) (model.Chart, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Chart{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT`+chartColumns+chartFrom+` WHERE c.fully_qualified_name = $1`, fqn)
	out, err := scanChart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Chart{}, repository.ErrNotFound
		}
		return model.Chart{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *chartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	exec := getQ(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM charts WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *chartRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	exec := getQ(ctx, r.pool)
	err := exec.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM charts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

// scopeFilter matches the original catalog semantics: an empty prefix lists
// everything, a non-empty prefix only rows whose FQN is under "<prefix>.".
const scopeFilter = `($1 = '' OR c.fully_qualified_name LIKE $1 || '.%')`

func (r *chartRepository) FindAfter(ctx context.Context, prefix string, limit int, afterKey string) ([]model.Chart, error) {
	return r.findWindow(ctx,
		`SELECT`+chartColumns+chartFrom+` WHERE `+scopeFilter+`
		   AND c.fully_qualified_name > $2
		 ORDER BY c.fully_qualified_name
		 LIMIT $3`,
		prefix, afterKey, limit)
}

func (r *chartRepository) FindBefore(ctx context.Context, prefix string, limit int, beforeKey string) ([]model.Chart, error) {
	// Descending so the window holds the limit rows nearest the boundary;
	// the pagination engine re-sorts ascending.
	return r.findWindow(ctx,
		`SELECT`+chartColumns+chartFrom+` WHERE `+scopeFilter+`
		   AND c.fully_qualified_name < $2
		 ORDER BY c.fully_qualified_name DESC
		 LIMIT $3`,
		prefix, beforeKey, limit)
}

func (r *chartRepository) findWindow(ctx context.Context, query, prefix, boundary string, limit int) ([]model.Chart, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx, query, prefix, boundary, limit)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := make([]model.Chart, 0, limit)
	for rows.Next() {
		c, err := scanChart(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *chartRepository) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	var total int
	exec := getQ(ctx, r.pool)
	err := exec.QueryRow(ctx,
		`SELECT count(*) FROM charts c WHERE `+scopeFilter, prefix,
	).Scan(&total)
	if err != nil {
		return 0, repository.MapPgError(err)
	}
	return total, nil
}

func (r *chartRepository) AddFollower(ctx context.Context, chartID, userID uuid.UUID) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	exec := getQ(ctx, r.pool)
	tag, err := exec.Exec(ctx,
		`INSERT INTO chart_followers (chart_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (chart_id, user_id) DO NOTHING`,
		chartID, userID,
	)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *chartRepository) RemoveFollower(ctx context.Context, chartID, userID uuid.UUID) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	exec := getQ(ctx, r.pool)
	tag, err := exec.Exec(ctx,
		`DELETE FROM chart_followers WHERE chart_id = $1 AND user_id = $2`,
		chartID, userID,
	)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *chartRepository) ListFollowers(ctx context.Context, chartID uuid.UUID) ([]model.EntityReference, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT user_id FROM chart_followers WHERE chart_id = $1 ORDER BY user_id`, chartID,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	var out []model.EntityReference
	for rows.Next() {
		ref := model.EntityReference{Type: "user"}
		if err := rows.Scan(&ref.ID); err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

var _ repository.ChartRepository = (*chartRepository)(nil)

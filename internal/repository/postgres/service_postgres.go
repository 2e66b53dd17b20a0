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

type serviceRepository struct{ pool *pgxpool.Pool }

func NewServiceRepository(pool *pgxpool.Pool) repository.ServiceRepository {
	return &serviceRepository{pool: pool}
}

const serviceColumns = `id, name, service_type, description, created_at, updated_at`

func scanService(row pgx.Row) (model.DashboardService, error) {
	var out model.DashboardService
	err := row.Scan(&out.ID, &out.Name, &out.ServiceType, &out.Description, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

func (r *serviceRepository) Create(ctx context.Context, s model.DashboardService) (model.DashboardService, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.DashboardService{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO dashboard_services (id, name, service_type, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+serviceColumns,
		s.ID, s.Name, s.ServiceType, s.Description,
	)
	out, err := scanService(row)
	if err != nil {
		return model.DashboardService{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *serviceRepository) FindByID(ctx context.Context, id uuid.UUID) (model.DashboardService, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.DashboardService{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+serviceColumns+` FROM dashboard_services WHERE id = $1`, id)
	out, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DashboardService{}, repository.ErrNotFound
		}
		return model.DashboardService{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *serviceRepository) FindByName(ctx context.Context, name string) (model.DashboardService, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.DashboardService{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+serviceColumns+` FROM dashboard_services WHERE name = $1`, name)
	out, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DashboardService{}, repository.ErrNotFound
		}
		return model.DashboardService{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *serviceRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	exec := getQ(ctx, r.pool)
	err := exec.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM dashboard_services WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

func (r *serviceRepository) List(ctx context.Context) ([]model.DashboardService, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT `+serviceColumns+` FROM dashboard_services ORDER BY name`)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	var out []model.DashboardService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ repository.ServiceRepository = (*serviceRepository)(nil)

package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/opencatalog/metadata-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// Used to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// Context is passed through so nested calls honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// A single entry point keeps transaction boundaries explicit and testable.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// ChartRepository declares persistence operations for charts. Implementations
// return domain models and surface domain errors from errors.go rather than
// PG codes. FindAfter/FindBefore/CountByPrefix form the keyset query surface
// the pagination engine scans with: strict comparison on the unique
// fully-qualified name, optional service-prefix scope.
type ChartRepository interface {
	Insert(ctx context.Context, c model.Chart) (model.Chart, error)
	Update(ctx context.Context, c model.Chart) (model.Chart, error)
	FindByID(ctx context.Context, id uuid.UUID) (model.Chart, error)
	FindByName(ctx context.Context, fqn string) (model.Chart, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Keyset listing surface. FindAfter orders ascending by FQN, FindBefore
	// descending (nearest the boundary first); both honor the scope prefix.
	FindAfter(ctx context.Context, prefix string, limit int, afterKey string) ([]model.Chart, error)
	FindBefore(ctx context.Context, prefix string, limit int, beforeKey string) ([]model.Chart, error)
	CountByPrefix(ctx context.Context, prefix string) (int, error)

	AddFollower(ctx context.Context, chartID, userID uuid.UUID) (bool, error)
	RemoveFollower(ctx context.Context, chartID, userID uuid.UUID) error
	ListFollowers(ctx context.Context, chartID uuid.UUID) ([]model.EntityReference, error)
}

// ServiceRepository declares persistence operations for dashboard services,
// the containers that scope chart listings.
type ServiceRepository interface {
	Create(ctx context.Context, s model.DashboardService) (model.DashboardService, error)
	FindByID(ctx context.Context, id uuid.UUID) (model.DashboardService, error)
	FindByName(ctx context.Context, name string) (model.DashboardService, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]model.DashboardService, error)
}

// TagRepository declares tag label storage keyed by target FQN.
type TagRepository interface {
	ApplyTags(ctx context.Context, targetFQN string, tags []model.TagLabel) error
	GetTags(ctx context.Context, targetFQN string) ([]model.TagLabel, error)
	DeleteTags(ctx context.Context, targetFQN string) error
}

// Package service holds business logic orchestration across repositories and
// handlers. Kept intentionally lean: only use-case coordination, validation
// and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/opencatalog/metadata-service/internal/model"
	"github.com/opencatalog/metadata-service/internal/paging"
)

// ErrInvalidInput is the marker error for aggregated validation failures
// (maps to HTTP 400). Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 { // protective case
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	if v, ok := err.(feIface); ok && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// CreateChartRequest carries everything needed to create or upsert a chart.
// Service is the owning dashboard service's name; the chart FQN is derived
// from it.
type CreateChartRequest struct {
	Name        string                 `json:"name"`
	DisplayName string                 `json:"display_name"`
	Description string                 `json:"description"`
	ChartType   string                 `json:"chart_type"`
	ChartURL    string                 `json:"chart_url"`
	Service     string                 `json:"service"`
	Owner       *model.EntityReference `json:"owner,omitempty"`
	Tags        []model.TagLabel       `json:"tags,omitempty"`
	UpdatedBy   string                 `json:"updated_by"`
}

// ListChartsRequest describes one paginated listing call. Before and After are
// opaque cursors and mutually exclusive; Service is the optional scope prefix.
type ListChartsRequest struct {
	Service string
	Limit   int
	Before  string
	After   string
}

// ChartService defines chart-oriented use cases.
type ChartService interface {
	Create(ctx context.Context, req CreateChartRequest) (model.Chart, error)
	Get(ctx context.Context, id uuid.UUID) (model.Chart, error)
	GetByName(ctx context.Context, fqn string) (model.Chart, error)
	List(ctx context.Context, req ListChartsRequest) (paging.Page[model.Chart], error)
	// CreateOrUpdate implements PUT semantics; the bool reports whether a new
	// chart was created (201) versus an existing one updated (200).
	CreateOrUpdate(ctx context.Context, req CreateChartRequest) (model.Chart, bool, error)
	// Patch applies an RFC 6902 JSON patch to the stored chart document.
	// Identity fields (id, name, FQN, service) are immutable under patch.
	Patch(ctx context.Context, id uuid.UUID, updatedBy string, patch []byte) (model.Chart, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddFollower(ctx context.Context, chartID, userID uuid.UUID) (bool, error)
	RemoveFollower(ctx context.Context, chartID, userID uuid.UUID) error
}

// CreateServiceRequest carries the fields for registering a dashboard service.
type CreateServiceRequest struct {
	Name        string `json:"name"`
	ServiceType string `json:"service_type"`
	Description string `json:"description"`
}

// ServiceRegistry defines use cases for the dashboard services charts live under.
type ServiceRegistry interface {
	Create(ctx context.Context, req CreateServiceRequest) (model.DashboardService, error)
	GetByName(ctx context.Context, name string) (model.DashboardService, error)
	List(ctx context.Context) ([]model.DashboardService, error)
}

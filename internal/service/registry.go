package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencatalog/metadata-service/internal/model"
	"github.com/opencatalog/metadata-service/internal/repository"
)

// serviceRegistry manages the dashboard services that scope chart listings.
type serviceRegistry struct {
	repo repository.ServiceRepository
	log  zerolog.Logger
}

func NewServiceRegistry(repo repository.ServiceRepository, logger zerolog.Logger) ServiceRegistry {
	l := logger.With().Str("module", "service").Str("component", "registry").Logger()
	return &serviceRegistry{repo: repo, log: l}
}

func (s *serviceRegistry) Create(ctx context.Context, req CreateServiceRequest) (model.DashboardService, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ServiceType = strings.TrimSpace(req.ServiceType)

	ferrs := validateEntityName(req.Name)
	if req.ServiceType == "" {
		ferrs = append(ferrs, FieldError{Field: "service_type", Message: "must not be empty"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.DashboardService{}, err
	}

	out, err := s.repo.Create(ctx, model.DashboardService{
		ID:          uuid.New(),
		Name:        req.Name,
		ServiceType: req.ServiceType,
		Description: req.Description,
	})
	if err != nil {
		s.log.Error().Err(err).Str("name", req.Name).Msg("create service failed")
		return model.DashboardService{}, err
	}
	s.log.Info().Str("name", out.Name).Msg("service registered")
	return out, nil
}

func (s *serviceRegistry) GetByName(ctx context.Context, name string) (model.DashboardService, error) {
	if name == "" {
		return model.DashboardService{}, newInvalidInput([]FieldError{{Field: "name", Message: "must not be empty"}})
	}
	return s.repo.FindByName(ctx, name)
}

func (s *serviceRegistry) List(ctx context.Context) ([]model.DashboardService, error) {
	return s.repo.List(ctx)
}

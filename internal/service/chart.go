package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencatalog/metadata-service/internal/model"
	"github.com/opencatalog/metadata-service/internal/paging"
	"github.com/opencatalog/metadata-service/internal/repository"
)

// chartService holds chart use-case logic: validation + orchestration,
// no transport / SQL details.
type chartService struct {
	charts   repository.ChartRepository
	services repository.ServiceRepository
	tags     repository.TagRepository
	tx       repository.TxManager
	pager    *paging.Engine[model.Chart]
	log      zerolog.Logger
}

func NewChartService(
	charts repository.ChartRepository,
	services repository.ServiceRepository,
	tags repository.TagRepository,
	tx repository.TxManager,
	pager *paging.Engine[model.Chart],
	logger zerolog.Logger,
) ChartService {
	l := logger.With().Str("module", "service").Str("component", "chart").Logger()
	return &chartService{charts: charts, services: services, tags: tags, tx: tx, pager: pager, log: l}
}

func (s *chartService) validateRequest(req *CreateChartRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Service = strings.TrimSpace(req.Service)

	ferrs := validateEntityName(req.Name)
	if req.Service == "" {
		ferrs = append(ferrs, FieldError{Field: "service", Message: "must not be empty"})
	}
	if !isValidChartType(req.ChartType) {
		ferrs = append(ferrs, FieldError{Field: "chart_type", Message: "unknown chart type"})
	}
	if req.Owner != nil && req.Owner.Type != "user" && req.Owner.Type != "team" {
		ferrs = append(ferrs, FieldError{Field: "owner.type", Message: "must be user or team"})
	}
	return newInvalidInput(ferrs)
}

// resolveService validates the owning service exists and returns its reference.
func (s *chartService) resolveService(ctx context.Context, name string) (model.EntityReference, error) {
	svc, err := s.services.FindByName(ctx, name)
	if err != nil {
		return model.EntityReference{}, err
	}
	return model.EntityReference{ID: svc.ID, Type: "dashboardService", Name: svc.Name}, nil
}

func (s *chartService) Create(ctx context.Context, req CreateChartRequest) (model.Chart, error) {
	start := time.Now()
	if err := s.validateRequest(&req); err != nil {
		s.log.Debug().Str("name", req.Name).Interface("field_errors", FieldErrors(err)).Msg("chart validation failed")
		return model.Chart{}, err
	}
	svcRef, err := s.resolveService(ctx, req.Service)
	if err != nil {
		return model.Chart{}, err
	}

	chart := model.Chart{
		ID:                 uuid.New(),
		Name:               req.Name,
		DisplayName:        req.DisplayName,
		Description:        req.Description,
		ChartType:          strings.ToLower(strings.TrimSpace(req.ChartType)),
		ChartURL:           req.ChartURL,
		FullyQualifiedName: model.ChartFQN(svcRef.Name, req.Name),
		Version:            0.1,
		UpdatedBy:          req.UpdatedBy,
		Service:            &svcRef,
		Owner:              req.Owner,
	}

	var out model.Chart
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if out, err = s.charts.Insert(ctx, chart); err != nil {
			return err
		}
		if len(req.Tags) > 0 {
			if err := s.tags.ApplyTags(ctx, chart.FullyQualifiedName, req.Tags); err != nil {
				return err
			}
			out.Tags = req.Tags
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("fqn", chart.FullyQualifiedName).Msg("create chart failed")
		return model.Chart{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Str("fqn", out.FullyQualifiedName).Msg("chart created")
	return out, nil
}

func (s *chartService) Get(ctx context.Context, id uuid.UUID) (model.Chart, error) {
	chart, err := s.charts.FindByID(ctx, id)
	if err != nil {
		return model.Chart{}, err
	}
	return s.attachRelations(ctx, chart)
}

func (s *chartService) GetByName(ctx context.Context, fqn string) (model.Chart, error) {
	if fqn == "" {
		return model.Chart{}, newInvalidInput([]FieldError{{Field: "fqn", Message: "must not be empty"}})
	}
	chart, err := s.charts.FindByName(ctx, fqn)
	if err != nil {
		return model.Chart{}, err
	}
	return s.attachRelations(ctx, chart)
}

// attachRelations populates tags and followers for single-entity reads.
// Listings stay bare for cheap scans.
func (s *chartService) attachRelations(ctx context.Context, chart model.Chart) (model.Chart, error) {
	tags, err := s.tags.GetTags(ctx, chart.FullyQualifiedName)
	if err != nil {
		return model.Chart{}, err
	}
	chart.Tags = tags
	followers, err := s.charts.ListFollowers(ctx, chart.ID)
	if err != nil {
		return model.Chart{}, err
	}
	chart.Followers = followers
	return chart, nil
}

// List pages through charts by fully-qualified name. A non-empty service
// scope must name a registered service; unknown scopes fail with not found
// rather than returning a silently empty page.
func (s *chartService) List(ctx context.Context, req ListChartsRequest) (paging.Page[model.Chart], error) {
	if req.Before != "" && req.After != "" {
		return paging.Page[model.Chart]{}, newInvalidInput([]FieldError{
			{Field: "before", Message: "before and after are mutually exclusive"},
		})
	}
	limit := normalizeLimit(req.Limit)

	if req.Service != "" {
		ok, err := s.services.ExistsByName(ctx, req.Service)
		if err != nil {
			return paging.Page[model.Chart]{}, err
		}
		if !ok {
			return paging.Page[model.Chart]{}, fmt.Errorf("service %q: %w", req.Service, repository.ErrNotFound)
		}
	}

	var (
		page paging.Page[model.Chart]
		err  error
	)
	if req.Before != "" {
		page, err = s.pager.ListBefore(ctx, req.Service, limit, req.Before)
	} else {
		page, err = s.pager.ListAfter(ctx, req.Service, limit, req.After)
	}
	if err != nil {
		s.log.Error().Err(err).Str("service", req.Service).Int("limit", limit).Msg("list charts failed")
		return paging.Page[model.Chart]{}, err
	}
	return page, nil
}

func (s *chartService) CreateOrUpdate(ctx context.Context, req CreateChartRequest) (model.Chart, bool, error) {
	if err := s.validateRequest(&req); err != nil {
		return model.Chart{}, false, err
	}
	svcRef, err := s.resolveService(ctx, req.Service)
	if err != nil {
		return model.Chart{}, false, err
	}

	fqn := model.ChartFQN(svcRef.Name, req.Name)
	stored, err := s.charts.FindByName(ctx, fqn)
	switch {
	case err == nil:
		// Exists: update mutable fields and bump the version.
		stored.DisplayName = req.DisplayName
		stored.Description = req.Description
		stored.ChartType = strings.ToLower(strings.TrimSpace(req.ChartType))
		stored.ChartURL = req.ChartURL
		stored.Owner = req.Owner
		stored.UpdatedBy = req.UpdatedBy
		stored.Version = nextVersion(stored.Version)
		out, err := s.store(ctx, stored, req.Tags)
		return out, false, err
	case errors.Is(err, repository.ErrNotFound):
		out, err := s.Create(ctx, req)
		return out, true, err
	default:
		return model.Chart{}, false, err
	}
}

func (s *chartService) Patch(ctx context.Context, id uuid.UUID, updatedBy string, patch []byte) (model.Chart, error) {
	original, err := s.Get(ctx, id)
	if err != nil {
		return model.Chart{}, err
	}

	decoded, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return model.Chart{}, newInvalidInput([]FieldError{{Field: "patch", Message: "malformed JSON patch"}})
	}
	doc, err := json.Marshal(original)
	if err != nil {
		return model.Chart{}, fmt.Errorf("marshal chart: %w", err)
	}
	patched, err := decoded.Apply(doc)
	if err != nil {
		return model.Chart{}, newInvalidInput([]FieldError{{Field: "patch", Message: err.Error()}})
	}
	var updated model.Chart
	if err := json.Unmarshal(patched, &updated); err != nil {
		return model.Chart{}, newInvalidInput([]FieldError{{Field: "patch", Message: "patched document is not a chart"}})
	}

	// Identity fields cannot change under patch; silently restore them.
	updated.ID = original.ID
	updated.Name = original.Name
	updated.FullyQualifiedName = original.FullyQualifiedName
	updated.Service = original.Service
	updated.UpdatedBy = updatedBy
	updated.Version = nextVersion(original.Version)

	return s.store(ctx, updated, updated.Tags)
}

// store writes the chart row and its full tag set atomically.
func (s *chartService) store(ctx context.Context, chart model.Chart, tags []model.TagLabel) (model.Chart, error) {
	var out model.Chart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if out, err = s.charts.Update(ctx, chart); err != nil {
			return err
		}
		if err := s.tags.ApplyTags(ctx, chart.FullyQualifiedName, tags); err != nil {
			return err
		}
		out.Tags = tags
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("fqn", chart.FullyQualifiedName).Msg("store chart failed")
		return model.Chart{}, err
	}
	return out, nil
}

func (s *chartService) Delete(ctx context.Context, id uuid.UUID) error {
	chart, err := s.charts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tags.DeleteTags(ctx, chart.FullyQualifiedName); err != nil {
			return err
		}
		return s.charts.Delete(ctx, id)
	})
	if err != nil {
		s.log.Error().Err(err).Str("fqn", chart.FullyQualifiedName).Msg("delete chart failed")
		return err
	}
	s.log.Info().Str("fqn", chart.FullyQualifiedName).Msg("chart deleted")
	return nil
}

func (s *chartService) AddFollower(ctx context.Context, chartID, userID uuid.UUID) (bool, error) {
	if _, err := s.charts.FindByID(ctx, chartID); err != nil {
		return false, err
	}
	return s.charts.AddFollower(ctx, chartID, userID)
}

func (s *chartService) RemoveFollower(ctx context.Context, chartID, userID uuid.UUID) error {
	if _, err := s.charts.FindByID(ctx, chartID); err != nil {
		return err
	}
	return s.charts.RemoveFollower(ctx, chartID, userID)
}

// nextVersion bumps the entity version by 0.1, kept to one decimal place.
func nextVersion(v float64) float64 {
	return math.Round((v+0.1)*10) / 10
}

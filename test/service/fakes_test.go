package service_test

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/opencatalog/metadata-service/internal/model"
	"github.com/opencatalog/metadata-service/internal/repository"
)

// In-memory fakes backing the service tests. They honor the same error
// contracts as the postgres implementations so orchestration logic is
// exercised realistically.

type fakeChartRepo struct {
	items     map[uuid.UUID]model.Chart
	followers map[uuid.UUID]map[uuid.UUID]struct{}
	insertErr error
}

func newFakeChartRepo() *fakeChartRepo {
	return &fakeChartRepo{
		items:     map[uuid.UUID]model.Chart{},
		followers: map[uuid.UUID]map[uuid.UUID]struct{}{},
	}
}

func (f *fakeChartRepo) Insert(_ context.Context, c model.Chart) (model.Chart, error) {
	if f.insertErr != nil {
		return model.Chart{}, f.insertErr
	}
	for _, existing := range f.items {
		if existing.FullyQualifiedName == c.FullyQualifiedName {
			return model.Chart{}, repository.ErrAlreadyExists
		}
	}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeChartRepo) Update(_ context.Context, c model.Chart) (model.Chart, error) {
	if _, ok := f.items[c.ID]; !ok {
		return model.Chart{}, repository.ErrNotFound
	}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeChartRepo) FindByID(_ context.Context, id uuid.UUID) (model.Chart, error) {
	c, ok := f.items[id]
	if !ok {
		return model.Chart{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeChartRepo) FindByName(_ context.Context, fqn string) (model.Chart, error) {
	for _, c := range f.items {
		if c.FullyQualifiedName == fqn {
			return c, nil
		}
	}
	return model.Chart{}, repository.ErrNotFound
}

func (f *fakeChartRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	delete(f.followers, id)
	return nil
}

func (f *fakeChartRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.items[id]
	return ok, nil
}

func (f *fakeChartRepo) sortedInScope(prefix string) []model.Chart {
	var out []model.Chart
	for _, c := range f.items {
		if prefix == "" || strings.HasPrefix(c.FullyQualifiedName, prefix+".") {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FullyQualifiedName < out[j].FullyQualifiedName
	})
	return out
}

func (f *fakeChartRepo) FindAfter(_ context.Context, prefix string, limit int, afterKey string) ([]model.Chart, error) {
	var out []model.Chart
	for _, c := range f.sortedInScope(prefix) {
		if len(out) == limit {
			break
		}
		if c.FullyQualifiedName > afterKey {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChartRepo) FindBefore(_ context.Context, prefix string, limit int, beforeKey string) ([]model.Chart, error) {
	scoped := f.sortedInScope(prefix)
	var out []model.Chart
	for i := len(scoped) - 1; i >= 0 && len(out) < limit; i-- {
		if scoped[i].FullyQualifiedName < beforeKey {
			out = append(out, scoped[i])
		}
	}
	return out, nil
}

func (f *fakeChartRepo) CountByPrefix(_ context.Context, prefix string) (int, error) {
	return len(f.sortedInScope(prefix)), nil
}

func (f *fakeChartRepo) AddFollower(_ context.Context, chartID, userID uuid.UUID) (bool, error) {
	set, ok := f.followers[chartID]
	if !ok {
		set = map[uuid.UUID]struct{}{}
		f.followers[chartID] = set
	}
	if _, exists := set[userID]; exists {
		return false, nil
	}
	set[userID] = struct{}{}
	return true, nil
}

func (f *fakeChartRepo) RemoveFollower(_ context.Context, chartID, userID uuid.UUID) error {
	set := f.followers[chartID]
	if _, ok := set[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(set, userID)
	return nil
}

func (f *fakeChartRepo) ListFollowers(_ context.Context, chartID uuid.UUID) ([]model.EntityReference, error) {
	var out []model.EntityReference
	for id := range f.followers[chartID] {
		out = append(out, model.EntityReference{ID: id, Type: "user"})
	}
	return out, nil
}

var _ repository.ChartRepository = (*fakeChartRepo)(nil)

type fakeServiceRepo struct {
	items     map[string]model.DashboardService
	createErr error
}

func newFakeServiceRepo(names ...string) *fakeServiceRepo {
	f := &fakeServiceRepo{items: map[string]model.DashboardService{}}
	for _, n := range names {
		f.items[n] = model.DashboardService{ID: uuid.New(), Name: n, ServiceType: "Superset"}
	}
	return f
}

func (f *fakeServiceRepo) Create(_ context.Context, s model.DashboardService) (model.DashboardService, error) {
	if f.createErr != nil {
		return model.DashboardService{}, f.createErr
	}
	if _, ok := f.items[s.Name]; ok {
		return model.DashboardService{}, repository.ErrAlreadyExists
	}
	f.items[s.Name] = s
	return s, nil
}

func (f *fakeServiceRepo) FindByID(_ context.Context, id uuid.UUID) (model.DashboardService, error) {
	for _, s := range f.items {
		if s.ID == id {
			return s, nil
		}
	}
	return model.DashboardService{}, repository.ErrNotFound
}

func (f *fakeServiceRepo) FindByName(_ context.Context, name string) (model.DashboardService, error) {
	s, ok := f.items[name]
	if !ok {
		return model.DashboardService{}, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeServiceRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	_, ok := f.items[name]
	return ok, nil
}

func (f *fakeServiceRepo) List(_ context.Context) ([]model.DashboardService, error) {
	var out []model.DashboardService
	for _, s := range f.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var _ repository.ServiceRepository = (*fakeServiceRepo)(nil)

type fakeTagRepo struct {
	byTarget map[string][]model.TagLabel
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{byTarget: map[string][]model.TagLabel{}}
}

func (f *fakeTagRepo) ApplyTags(_ context.Context, targetFQN string, tags []model.TagLabel) error {
	f.byTarget[targetFQN] = append([]model.TagLabel(nil), tags...)
	return nil
}

func (f *fakeTagRepo) GetTags(_ context.Context, targetFQN string) ([]model.TagLabel, error) {
	return f.byTarget[targetFQN], nil
}

func (f *fakeTagRepo) DeleteTags(_ context.Context, targetFQN string) error {
	delete(f.byTarget, targetFQN)
	return nil
}

var _ repository.TagRepository = (*fakeTagRepo)(nil)

// fakeTx executes the unit of work directly; atomicity is a storage concern
// covered by the postgres contract tests.
type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn repository.TxFunc) error { return fn(ctx) }

var _ repository.TxManager = fakeTx{}

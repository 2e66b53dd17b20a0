package service_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencatalog/metadata-service/internal/cursor"
	"github.com/opencatalog/metadata-service/internal/model"
	"github.com/opencatalog/metadata-service/internal/paging"
	"github.com/opencatalog/metadata-service/internal/repository"
	"github.com/opencatalog/metadata-service/internal/service"
)

type chartFixture struct {
	charts   *fakeChartRepo
	services *fakeServiceRepo
	tags     *fakeTagRepo
	svc      service.ChartService
}

func newChartFixture(serviceNames ...string) *chartFixture {
	logger := zerolog.New(io.Discard)
	charts := newFakeChartRepo()
	services := newFakeServiceRepo(serviceNames...)
	tags := newFakeTagRepo()
	pager := paging.New[model.Chart](charts, cursor.Base64Codec{}, func(c model.Chart) string {
		return c.FullyQualifiedName
	})
	return &chartFixture{
		charts:   charts,
		services: services,
		tags:     tags,
		svc:      service.NewChartService(charts, services, tags, fakeTx{}, pager, logger),
	}
}

func validCreate(name string) service.CreateChartRequest {
	return service.CreateChartRequest{
		Name:      name,
		ChartType: "line",
		Service:   "superset",
		UpdatedBy: "tester",
	}
}

func TestChartService_Create_Validation(t *testing.T) {
	fx := newChartFixture("superset")

	cases := []struct {
		name      string
		mutate    func(*service.CreateChartRequest)
		wantField string
	}{
		{"empty name", func(r *service.CreateChartRequest) { r.Name = "" }, "name"},
		{"spaces only", func(r *service.CreateChartRequest) { r.Name = "   " }, "name"},
		{"dotted name", func(r *service.CreateChartRequest) { r.Name = "a.b" }, "name"},
		{"missing service", func(r *service.CreateChartRequest) { r.Service = "" }, "service"},
		{"bad chart type", func(r *service.CreateChartRequest) { r.ChartType = "hologram" }, "chart_type"},
		{"bad owner type", func(r *service.CreateChartRequest) {
			r.Owner = &model.EntityReference{ID: uuid.New(), Type: "robot"}
		}, "owner.type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreate("sales")
			tc.mutate(&req)
			_, err := fx.svc.Create(context.Background(), req)
			if !errors.Is(err, service.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			found := false
			for _, fe := range service.FieldErrors(err) {
				if fe.Field == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected field error for %s, got %+v", tc.wantField, service.FieldErrors(err))
			}
		})
	}
}

func TestChartService_Create_Persists(t *testing.T) {
	fx := newChartFixture("superset")
	req := validCreate("sales")
	req.Tags = []model.TagLabel{{TagFQN: "Tier.Tier1", LabelType: "manual", State: "confirmed"}}

	out, err := fx.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FullyQualifiedName != "superset.sales" {
		t.Fatalf("fqn = %q", out.FullyQualifiedName)
	}
	if out.Version != 0.1 {
		t.Fatalf("new chart version = %v, want 0.1", out.Version)
	}
	if out.Service == nil || out.Service.Name != "superset" {
		t.Fatalf("service ref missing: %+v", out.Service)
	}
	stored, err := fx.tags.GetTags(context.Background(), "superset.sales")
	if err != nil || len(stored) != 1 {
		t.Fatalf("tags not applied: %v %v", stored, err)
	}
}

func TestChartService_Create_UnknownService(t *testing.T) {
	fx := newChartFixture("superset")
	req := validCreate("sales")
	req.Service = "nonexistent"
	_, err := fx.svc.Create(context.Background(), req)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChartService_Create_DuplicatePropagates(t *testing.T) {
	fx := newChartFixture("superset")
	if _, err := fx.svc.Create(context.Background(), validCreate("sales")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := fx.svc.Create(context.Background(), validCreate("sales"))
	if !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestChartService_CreateOrUpdate(t *testing.T) {
	fx := newChartFixture("superset")
	ctx := context.Background()

	out, created, err := fx.svc.CreateOrUpdate(ctx, validCreate("sales"))
	if err != nil || !created {
		t.Fatalf("expected create path: created=%v err=%v", created, err)
	}
	if out.Version != 0.1 {
		t.Fatalf("version after create = %v", out.Version)
	}

	req := validCreate("sales")
	req.Description = "updated description"
	out, created, err = fx.svc.CreateOrUpdate(ctx, req)
	if err != nil || created {
		t.Fatalf("expected update path: created=%v err=%v", created, err)
	}
	if out.Version != 0.2 {
		t.Fatalf("version after update = %v, want 0.2", out.Version)
	}
	if out.Description != "updated description" {
		t.Fatalf("description not updated: %q", out.Description)
	}
	// ID is stable across upserts.
	again, _ := fx.charts.FindByName(ctx, "superset.sales")
	if again.ID != out.ID {
		t.Fatalf("upsert changed identity")
	}
}

func TestChartService_Patch(t *testing.T) {
	fx := newChartFixture("superset")
	ctx := context.Background()

	req := validCreate("sales")
	req.Description = "original"
	req.DisplayName = "Sales"
	created, err := fx.svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	patch := []byte(`[
		{"op": "replace", "path": "/description", "value": "patched"},
		{"op": "replace", "path": "/display_name", "value": "Sales Overview"}
	]`)
	out, err := fx.svc.Patch(ctx, created.ID, "editor", patch)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if out.Description != "patched" || out.DisplayName != "Sales Overview" {
		t.Fatalf("patch not applied: %+v", out)
	}
	if out.Version != 0.2 {
		t.Fatalf("version after patch = %v, want 0.2", out.Version)
	}
	if out.UpdatedBy != "editor" {
		t.Fatalf("updated_by = %q", out.UpdatedBy)
	}
}

func TestChartService_Patch_IdentityImmutable(t *testing.T) {
	fx := newChartFixture("superset")
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, validCreate("sales"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	patch := []byte(`[
		{"op": "replace", "path": "/name", "value": "hijacked"},
		{"op": "replace", "path": "/fully_qualified_name", "value": "other.hijacked"}
	]`)
	out, err := fx.svc.Patch(ctx, created.ID, "editor", patch)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if out.Name != "sales" || out.FullyQualifiedName != "superset.sales" {
		t.Fatalf("identity fields changed under patch: %+v", out)
	}
}

func TestChartService_Patch_Malformed(t *testing.T) {
	fx := newChartFixture("superset")
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, validCreate("sales"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = fx.svc.Patch(ctx, created.ID, "editor", []byte(`{not json patch`))
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChartService_List_Paging(t *testing.T) {
	fx := newChartFixture("superset", "tableau")
	ctx := context.Background()

	for _, name := range []string{"c1", "c2", "c3", "c4"} {
		if _, err := fx.svc.Create(ctx, validCreate(name)); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	other := validCreate("z1")
	other.Service = "tableau"
	if _, err := fx.svc.Create(ctx, other); err != nil {
		t.Fatalf("seed: %v", err)
	}

	page, err := fx.svc.List(ctx, service.ListChartsRequest{Service: "superset", Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 || page.Total != 4 {
		t.Fatalf("unexpected page: items=%d total=%d", len(page.Items), page.Total)
	}
	if page.After == nil || page.Before != nil {
		t.Fatalf("unexpected cursors on first page: before=%v after=%v", page.Before, page.After)
	}

	page2, err := fx.svc.List(ctx, service.ListChartsRequest{Service: "superset", Limit: 2, After: *page.After})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page2.Items) != 2 || page2.After != nil || page2.Before == nil {
		t.Fatalf("unexpected tail page: %+v", page2)
	}

	back, err := fx.svc.List(ctx, service.ListChartsRequest{Service: "superset", Limit: 2, Before: *page2.Before})
	if err != nil {
		t.Fatalf("list backward: %v", err)
	}
	if len(back.Items) != 2 || back.Items[0].FullyQualifiedName != "superset.c1" {
		t.Fatalf("unexpected backward page: %+v", back.Items)
	}
}

func TestChartService_List_UnknownScope(t *testing.T) {
	fx := newChartFixture("superset")
	_, err := fx.svc.List(context.Background(), service.ListChartsRequest{Service: "missing"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChartService_List_BeforeAndAfterExclusive(t *testing.T) {
	fx := newChartFixture("superset")
	_, err := fx.svc.List(context.Background(), service.ListChartsRequest{Before: "x", After: "y"})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChartService_List_LimitNormalization(t *testing.T) {
	fx := newChartFixture("superset")
	ctx := context.Background()
	if _, err := fx.svc.Create(ctx, validCreate("c1")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Non-positive limits fall back to the default rather than erroring.
	page, err := fx.svc.List(ctx, service.ListChartsRequest{Service: "superset", Limit: -3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("unexpected items: %d", len(page.Items))
	}
}

func TestChartService_Delete(t *testing.T) {
	fx := newChartFixture("superset")
	ctx := context.Background()

	req := validCreate("sales")
	req.Tags = []model.TagLabel{{TagFQN: "Tier.Tier1", LabelType: "manual", State: "confirmed"}}
	created, err := fx.svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := fx.svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := fx.svc.Get(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	tags, _ := fx.tags.GetTags(ctx, "superset.sales")
	if len(tags) != 0 {
		t.Fatalf("tags survived delete: %+v", tags)
	}
	if err := fx.svc.Delete(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("double delete should be ErrNotFound, got %v", err)
	}
}

func TestChartService_Followers(t *testing.T) {
	fx := newChartFixture("superset")
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, validCreate("sales"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	user := uuid.New()

	added, err := fx.svc.AddFollower(ctx, created.ID, user)
	if err != nil || !added {
		t.Fatalf("add follower: added=%v err=%v", added, err)
	}
	added, err = fx.svc.AddFollower(ctx, created.ID, user)
	if err != nil || added {
		t.Fatalf("repeat add: added=%v err=%v", added, err)
	}

	got, err := fx.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Followers) != 1 {
		t.Fatalf("followers not attached on read: %+v", got.Followers)
	}

	if err := fx.svc.RemoveFollower(ctx, created.ID, user); err != nil {
		t.Fatalf("remove follower: %v", err)
	}
	if _, err := fx.svc.AddFollower(ctx, uuid.New(), user); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("follow of unknown chart should be ErrNotFound, got %v", err)
	}
}

func TestChartService_GetByName(t *testing.T) {
	fx := newChartFixture("superset")
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, validCreate("sales"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := fx.svc.GetByName(ctx, "superset.sales")
	if err != nil || got.ID != created.ID {
		t.Fatalf("get by name: %+v %v", got, err)
	}
	if _, err := fx.svc.GetByName(ctx, ""); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty fqn, got %v", err)
	}
	if _, err := fx.svc.GetByName(ctx, "superset.none"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

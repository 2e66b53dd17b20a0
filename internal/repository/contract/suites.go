// Package contract defines reusable behavioral suites any repository
// implementation must satisfy. Wire them from an implementation-specific
// test with a factory; the suite owns assertions, the factory owns setup.
package contract

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/opencatalog/metadata-service/internal/model"
	"github.com/opencatalog/metadata-service/internal/repository"
)

// ChartFactory returns a chart repository plus a helper that registers a
// dashboard service (charts require an owning service) and a cleanup func.
type ChartFactory func(t *testing.T) (repo repository.ChartRepository, mkService func(ctx context.Context, name string) (model.EntityReference, error), cleanup func())

type ServiceFactory func(t *testing.T) (repository.ServiceRepository, func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func newChart(svc model.EntityReference, name string) model.Chart {
	return model.Chart{
		ID:                 uuid.New(),
		Name:               name,
		FullyQualifiedName: model.ChartFQN(svc.Name, name),
		Version:            0.1,
		Service:            &svc,
	}
}

func RunChartRepositoryContract(t *testing.T, makeRepo ChartFactory) {
	t.Helper()

	t.Run("insert_and_find", func(t *testing.T) {
		repo, mkService, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		svc, err := mkService(ctx, "superset")
		if err != nil {
			t.Fatalf("create service: %v", err)
		}
		created, err := repo.Insert(ctx, newChart(svc, "sales"))
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if created.FullyQualifiedName != "superset.sales" {
			t.Fatalf("fqn = %q", created.FullyQualifiedName)
		}

		byID, err := repo.FindByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("find by id: %v", err)
		}
		if byID.Service == nil || byID.Service.Name != "superset" {
			t.Fatalf("service ref not populated: %+v", byID.Service)
		}
		byName, err := repo.FindByName(ctx, "superset.sales")
		if err != nil {
			t.Fatalf("find by name: %v", err)
		}
		if byName.ID != created.ID {
			t.Fatalf("find by name returned wrong row")
		}
	})

	t.Run("duplicate_fqn_conflicts", func(t *testing.T) {
		repo, mkService, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		svc, _ := mkService(ctx, "superset")
		if _, err := repo.Insert(ctx, newChart(svc, "sales")); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		_, err := repo.Insert(ctx, newChart(svc, "sales"))
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("keyset_window_queries", func(t *testing.T) {
		repo, mkService, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		svc, _ := mkService(ctx, "superset")
		other, _ := mkService(ctx, "tableau")
		for _, name := range []string{"c1", "c2", "c3"} {
			if _, err := repo.Insert(ctx, newChart(svc, name)); err != nil {
				t.Fatalf("insert %s: %v", name, err)
			}
		}
		if _, err := repo.Insert(ctx, newChart(other, "z1")); err != nil {
			t.Fatalf("insert: %v", err)
		}

		rows, err := repo.FindAfter(ctx, "superset", 10, "")
		if err != nil {
			t.Fatalf("find after: %v", err)
		}
		if len(rows) != 3 || rows[0].FullyQualifiedName != "superset.c1" {
			t.Fatalf("unexpected window: %+v", rows)
		}

		rows, err = repo.FindAfter(ctx, "superset", 10, "superset.c1")
		if err != nil {
			t.Fatalf("find after: %v", err)
		}
		if len(rows) != 2 || rows[0].FullyQualifiedName != "superset.c2" {
			t.Fatalf("strict lower bound violated: %+v", rows)
		}

		rows, err = repo.FindBefore(ctx, "superset", 10, "superset.c3")
		if err != nil {
			t.Fatalf("find before: %v", err)
		}
		// Descending: nearest the boundary first.
		if len(rows) != 2 || rows[0].FullyQualifiedName != "superset.c2" || rows[1].FullyQualifiedName != "superset.c1" {
			t.Fatalf("unexpected reverse window: %+v", rows)
		}

		total, err := repo.CountByPrefix(ctx, "superset")
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if total != 3 {
			t.Fatalf("count = %d, want 3", total)
		}
		all, err := repo.CountByPrefix(ctx, "")
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if all != 4 {
			t.Fatalf("unscoped count = %d, want 4", all)
		}
	})

	t.Run("delete_and_not_found", func(t *testing.T) {
		repo, mkService, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		svc, _ := mkService(ctx, "superset")
		created, err := repo.Insert(ctx, newChart(svc, "gone"))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := repo.Delete(ctx, created.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.FindByID(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("double delete should be ErrNotFound, got %v", err)
		}
	})

	t.Run("followers", func(t *testing.T) {
		repo, mkService, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		svc, _ := mkService(ctx, "superset")
		created, err := repo.Insert(ctx, newChart(svc, "followed"))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		user := uuid.New()

		added, err := repo.AddFollower(ctx, created.ID, user)
		if err != nil || !added {
			t.Fatalf("add follower: added=%v err=%v", added, err)
		}
		// Idempotent: second add reports already-following.
		added, err = repo.AddFollower(ctx, created.ID, user)
		if err != nil || added {
			t.Fatalf("repeat add follower: added=%v err=%v", added, err)
		}
		followers, err := repo.ListFollowers(ctx, created.ID)
		if err != nil || len(followers) != 1 {
			t.Fatalf("list followers: %v %v", followers, err)
		}
		if err := repo.RemoveFollower(ctx, created.ID, user); err != nil {
			t.Fatalf("remove follower: %v", err)
		}
		if err := repo.RemoveFollower(ctx, created.ID, user); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunServiceRepositoryContract(t *testing.T, makeRepo ServiceFactory) {
	t.Helper()

	t.Run("create_get_list", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		created, err := repo.Create(ctx, model.DashboardService{ID: uuid.New(), Name: "superset", ServiceType: "Superset"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.FindByName(ctx, "superset")
		if err != nil || got.ID != created.ID {
			t.Fatalf("find by name: %+v %v", got, err)
		}
		ok, err := repo.ExistsByName(ctx, "superset")
		if err != nil || !ok {
			t.Fatalf("exists: %v %v", ok, err)
		}
		ok, err = repo.ExistsByName(ctx, "nope")
		if err != nil || ok {
			t.Fatalf("exists for unknown: %v %v", ok, err)
		}
		all, err := repo.List(ctx)
		if err != nil || len(all) != 1 {
			t.Fatalf("list: %v %v", all, err)
		}
	})

	t.Run("duplicate_name_conflicts", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		if _, err := repo.Create(ctx, model.DashboardService{ID: uuid.New(), Name: "dup", ServiceType: "Superset"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		_, err := repo.Create(ctx, model.DashboardService{ID: uuid.New(), Name: "dup", ServiceType: "Superset"})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

type TagFactory func(t *testing.T) (repository.TagRepository, func())

func RunTagRepositoryContract(t *testing.T, makeRepo TagFactory) {
	t.Helper()

	t.Run("apply_get_delete", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		tags := []model.TagLabel{
			{TagFQN: "PII.Sensitive", LabelType: "manual", State: "confirmed"},
			{TagFQN: "Tier.Tier1", LabelType: "manual", State: "confirmed"},
		}
		if err := repo.ApplyTags(ctx, "superset.sales", tags); err != nil {
			t.Fatalf("apply: %v", err)
		}
		got, err := repo.GetTags(ctx, "superset.sales")
		if err != nil || len(got) != 2 {
			t.Fatalf("get: %v %v", got, err)
		}

		// Re-applying replaces the set rather than accumulating.
		if err := repo.ApplyTags(ctx, "superset.sales", tags[:1]); err != nil {
			t.Fatalf("re-apply: %v", err)
		}
		got, err = repo.GetTags(ctx, "superset.sales")
		if err != nil || len(got) != 1 || got[0].TagFQN != "PII.Sensitive" {
			t.Fatalf("after re-apply: %v %v", got, err)
		}

		if err := repo.DeleteTags(ctx, "superset.sales"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		got, err = repo.GetTags(ctx, "superset.sales")
		if err != nil || len(got) != 0 {
			t.Fatalf("after delete: %v %v", got, err)
		}
	})
}

// TxFactory provides the tx manager alongside a chart repository so the suite
// can observe commit and rollback effects.
type TxFactory func(t *testing.T) (repository.TxManager, repository.ChartRepository, func(ctx context.Context, name string) (model.EntityReference, error), func())

func RunTxManagerContract(t *testing.T, makeTx TxFactory) {
	t.Helper()

	t.Run("commit_persists", func(t *testing.T) {
		tx, repo, mkService, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		svc, err := mkService(ctx, "superset")
		if err != nil {
			t.Fatalf("create service: %v", err)
		}
		chart := newChart(svc, "committed")
		err = tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := repo.Insert(ctx, chart)
			return err
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
		if _, err := repo.FindByID(ctx, chart.ID); err != nil {
			t.Fatalf("committed row missing: %v", err)
		}
	})

	t.Run("error_rolls_back", func(t *testing.T) {
		tx, repo, mkService, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		svc, err := mkService(ctx, "superset")
		if err != nil {
			t.Fatalf("create service: %v", err)
		}
		chart := newChart(svc, "rolledback")
		boom := errors.New("boom")
		err = tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := repo.Insert(ctx, chart); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected callback error, got %v", err)
		}
		if _, err := repo.FindByID(ctx, chart.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("rollback leaked row: %v", err)
		}
	})
}

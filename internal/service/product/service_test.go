package product

import (
	"context"
	"errors"
	"testing"

	"biomarket/internal/domain"
	"biomarket/internal/store"
	"github.com/shopspring/decimal"
)

var (
	farmerA = domain.Principal{Account: "farmerA", Roles: []string{domain.RoleFarmer}}
	farmerB = domain.Principal{Account: "farmerB", Roles: []string{domain.RoleFarmer}}
	buyer   = domain.Principal{Account: "alice", Roles: []string{domain.RoleClient}}
)

func newFixture(t *testing.T, accounts ...string) (*Service, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	data := m.Session()
	for _, account := range accounts {
		data.Farms().Add(&domain.Farm{Account: account})
	}
	if err := data.SaveChanges(context.Background()); err != nil {
		t.Fatalf("seed farms: %v", err)
	}
	return New(m), m
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreate_DuplicateNamePerFarm(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t, "farmerA", "farmerB")

	id, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("2.50")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	if _, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("3")}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("3")}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate must classify as ErrAlreadyExists, got %v", err)
	}

	otherID, err := svc.Create(ctx, farmerB, Input{Name: "Tomato", Price: price("2.50")})
	if err != nil {
		t.Fatalf("same name on another farm: %v", err)
	}
	if otherID == id {
		t.Fatalf("expected a new id for farm B")
	}
}

func TestCreate_AllowsNameOfDeletedProduct(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t, "farmerA")

	id, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("1")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Delete(ctx, farmerA, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("1")}); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
}

func TestCreate_RequiresFarm(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.Create(context.Background(), farmerA, Input{Name: "Tomato", Price: price("1")})
	if !errors.Is(err, domain.ErrFarmNotFound) {
		t.Fatalf("expected ErrFarmNotFound, got %v", err)
	}
}

func TestCreate_ValidatesInput(t *testing.T) {
	svc, _ := newFixture(t, "farmerA")
	cases := []struct {
		name string
		in   Input
	}{
		{"blank name", Input{Name: "   ", Price: price("1")}},
		{"zero price", Input{Name: "Kale", Price: decimal.Zero}},
		{"negative price", Input{Name: "Kale", Price: price("-1")}},
		{"rounds to zero", Input{Name: "Kale", Price: price("0.001")}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), farmerA, tc.in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestMutations_RequireFarmerRegardlessOfPayload(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t, "farmerA")
	id, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("1")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, in := range []Input{{Name: "Kale", Price: price("3")}, {}} {
		if _, err := svc.Create(ctx, buyer, in); !errors.Is(err, ErrNotFarmer) {
			t.Fatalf("create: expected ErrNotFarmer, got %v", err)
		}
		if _, err := svc.Update(ctx, buyer, id, in); !errors.Is(err, ErrNotFarmer) {
			t.Fatalf("update: expected ErrNotFarmer, got %v", err)
		}
	}
	if _, err := svc.Delete(ctx, buyer, id); !errors.Is(err, ErrNotFarmer) {
		t.Fatalf("delete: expected ErrNotFarmer, got %v", err)
	}
	if _, err := svc.Delete(ctx, domain.Principal{}, id); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("anonymous delete: expected ErrUnauthenticated, got %v", err)
	}
}

func TestUpdate_ChangesOnlyNameAndPrice(t *testing.T) {
	ctx := context.Background()
	svc, m := newFixture(t, "farmerA")
	id, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("2.50")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before, err := svc.ByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	updated, err := svc.Update(ctx, farmerA, id, Input{Name: "Kale", Price: price("3.0")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != id || updated.Name != "Kale" || !updated.Price.Equal(price("3")) {
		t.Fatalf("unexpected update result %+v", updated)
	}

	after, err := svc.ByID(ctx, id)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if after.Name != "Kale" || !after.Price.Equal(price("3")) {
		t.Fatalf("update not persisted: %+v", after)
	}
	if after.ID != before.ID || after.FarmID != before.FarmID || after.Deleted != before.Deleted {
		t.Fatalf("update touched other fields: before=%+v after=%+v", before, after)
	}

	all, _ := m.Session().Products().All(ctx)
	if len(all) != 1 {
		t.Fatalf("update must not add rows, got %d", len(all))
	}
}

func TestUpdate_MissingOrForeignProduct(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t, "farmerA", "farmerB")
	id, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("1")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, farmerA, id+1, Input{Name: "Kale", Price: price("1")}); !errors.Is(err, ErrNoSuchProduct) {
		t.Fatalf("expected ErrNoSuchProduct, got %v", err)
	}
	if _, err := svc.Update(ctx, farmerB, id, Input{Name: "Kale", Price: price("1")}); !errors.Is(err, ErrNotOwnProduct) {
		t.Fatalf("expected ErrNotOwnProduct, got %v", err)
	}
}

func TestDelete_SoftDeletes(t *testing.T) {
	ctx := context.Background()
	svc, m := newFixture(t, "farmerA")
	id, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("1")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := svc.Delete(ctx, farmerA, id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted.Deleted || deleted.ID != id {
		t.Fatalf("unexpected delete result %+v", deleted)
	}

	if _, err := svc.ByID(ctx, id); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID after delete, got %v", err)
	}
	if _, err := svc.Delete(ctx, farmerA, id); !errors.Is(err, ErrNoSuchProduct) {
		t.Fatalf("second delete: expected ErrNoSuchProduct, got %v", err)
	}
	mine, err := svc.ListMine(ctx, farmerA)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("deleted product listed: %+v", mine)
	}
	if _, err := svc.ByName(ctx, "Tomato"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	all, _ := m.Session().Products().All(ctx)
	if len(all) != 1 || !all[0].Deleted {
		t.Fatalf("expected row kept as deleted, got %+v", all)
	}
}

func TestListMine(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t, "farmerA", "farmerB")
	for _, name := range []string{"Tomato", "Kale"} {
		if _, err := svc.Create(ctx, farmerA, Input{Name: name, Price: price("1")}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := svc.Create(ctx, farmerB, Input{Name: "Corn", Price: price("1")}); err != nil {
		t.Fatalf("create corn: %v", err)
	}

	mine, err := svc.ListMine(ctx, farmerA)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 2 || mine[0].Name != "Tomato" || mine[1].Name != "Kale" {
		t.Fatalf("unexpected products %+v", mine)
	}

	if _, err := svc.ListMine(ctx, domain.Principal{Account: "nobody"}); !errors.Is(err, domain.ErrFarmNotFound) {
		t.Fatalf("expected ErrFarmNotFound, got %v", err)
	}
	if _, err := svc.ListMine(ctx, domain.Principal{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestByName_AcrossFarms(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t, "farmerA", "farmerB")
	for _, caller := range []domain.Principal{farmerA, farmerB} {
		if _, err := svc.Create(ctx, caller, Input{Name: "Tomato", Price: price("1")}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	found, err := svc.ByName(ctx, "Tomato")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 products, got %d", len(found))
	}
	if _, err := svc.ByName(ctx, "tomato"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("name match must be exact, got %v", err)
	}
}

// racingStore runs beforeSave ahead of every commit, standing in for a
// request that commits between this one's read and its SaveChanges.
type racingStore struct {
	store.Store
	beforeSave func()
}

func (s *racingStore) Session() store.Data {
	return racingData{Data: s.Store.Session(), beforeSave: s.beforeSave}
}

type racingData struct {
	store.Data
	beforeSave func()
}

func (d racingData) SaveChanges(ctx context.Context) error {
	if d.beforeSave != nil {
		d.beforeSave()
	}
	return d.Data.SaveChanges(ctx)
}

func TestUpdate_ProductDeletedBeforeCommit(t *testing.T) {
	ctx := context.Background()
	svc, mem := newFixture(t, "farmerA")
	id, err := svc.Create(ctx, farmerA, Input{Name: "Tomato", Price: price("2.50")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	racing := New(&racingStore{Store: mem, beforeSave: func() {
		if _, err := svc.Delete(ctx, farmerA, id); err != nil {
			t.Fatalf("concurrent delete: %v", err)
		}
	}})
	if _, err := racing.Update(ctx, farmerA, id, Input{Name: "Kale", Price: price("3")}); !errors.Is(err, ErrNoSuchProduct) {
		t.Fatalf("expected ErrNoSuchProduct, got %v", err)
	}

	all, err := mem.Session().Products().All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Tomato" || !all[0].Deleted {
		t.Fatalf("deleted product must stay untouched, got %+v", all)
	}
}

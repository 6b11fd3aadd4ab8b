//go:build integration

package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/paymandar/backend/internal/testutil"
)

func TestPostgresStore_Lifecycle(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	pay := &Payment{
		ID:         "pay_pg_1",
		ContractID: "ct_pg_1",
		Amount:     250000,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := store.Create(ctx, pay); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, pay.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Amount != 250000 || got.Status != StatusPending || got.Authority != "" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.PaidAt != nil || got.ReleasedAt != nil {
		t.Error("timestamps should be nil for a pending payment")
	}

	byContract, err := store.GetByContract(ctx, pay.ContractID)
	if err != nil {
		t.Fatalf("GetByContract failed: %v", err)
	}
	if byContract.ID != pay.ID {
		t.Errorf("GetByContract returned %s", byContract.ID)
	}

	// Attach authority and mark paid.
	now := time.Now().UTC().Truncate(time.Microsecond)
	got.Authority = "A000099"
	got.PayerName = "Sara"
	got.Status = StatusPaid
	got.RefID = "424242"
	got.PaidAt = &now
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	byAuth, err := store.GetByAuthority(ctx, "A000099")
	if err != nil {
		t.Fatalf("GetByAuthority failed: %v", err)
	}
	if byAuth.Status != StatusPaid || byAuth.RefID != "424242" || byAuth.PaidAt == nil {
		t.Errorf("paid record = %+v", byAuth)
	}
}

func TestPostgresStore_NotFound(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	if _, err := store.Get(ctx, "pay_missing"); err != ErrPaymentNotFound {
		t.Errorf("Get missing: got %v", err)
	}
	if _, err := store.GetByAuthority(ctx, "A_missing"); err != ErrPaymentNotFound {
		t.Errorf("GetByAuthority missing: got %v", err)
	}
	if err := store.Update(ctx, &Payment{ID: "pay_missing", Status: StatusPaid}); err != ErrPaymentNotFound {
		t.Errorf("Update missing: got %v", err)
	}
}

func TestPostgresStore_ListOrder(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, id := range []string{"pay_pg_a", "pay_pg_b", "pay_pg_c"} {
		p := &Payment{
			ID:         id,
			ContractID: "ct_" + id,
			Amount:     1000,
			Status:     StatusPending,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 || list[0].ID != "pay_pg_a" || list[2].ID != "pay_pg_c" {
		t.Errorf("list order wrong: %+v", list)
	}
}

package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"milsabores/pkg/catalog"
	"milsabores/pkg/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Memory) {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	store := storage.NewMemory()
	svc := NewService(cat, store, nil)
	t.Cleanup(svc.Close)
	return svc, store
}

func TestServiceAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("AddCreatesEntryWithCatalogData", func(t *testing.T) {
		svc, _ := newTestService(t)

		snap, err := svc.Add(ctx, "TC001", 2)
		require.NoError(t, err)
		require.Len(t, snap.Entries, 1)
		require.Equal(t, "TC001", snap.Entries[0].ID)
		require.Equal(t, "Torta Cuadrada de Chocolate", snap.Entries[0].Name)
		require.Equal(t, 45990, snap.Entries[0].Price)
		require.Equal(t, 2, snap.TotalItems)
		require.Equal(t, 91980, snap.TotalPrice)
	})

	t.Run("AddMergesIntoExistingEntry", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Add(ctx, "PI001", 1)
		require.NoError(t, err)
		snap, err := svc.Add(ctx, "PI001", 3)
		require.NoError(t, err)
		require.Len(t, snap.Entries, 1)
		require.Equal(t, 4, snap.Entries[0].Quantity)
	})

	t.Run("AddClampsAtMaxQuantity", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Add(ctx, "PI001", 90)
		require.NoError(t, err)
		snap, err := svc.Add(ctx, "PI001", 50)
		require.NoError(t, err)
		require.Equal(t, MaxQuantity, snap.Entries[0].Quantity)
	})

	t.Run("AddCoercesNonPositiveQuantityToOne", func(t *testing.T) {
		svc, _ := newTestService(t)

		snap, err := svc.Add(ctx, "PI001", -5)
		require.NoError(t, err)
		require.Equal(t, 1, snap.Entries[0].Quantity)
	})

	t.Run("AddUnknownProductLeavesCartUnchanged", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Add(ctx, "PI001", 1)
		require.NoError(t, err)
		snap, err := svc.Add(ctx, "ZZ999", 1)
		require.ErrorIs(t, err, catalog.ErrNotFound)
		require.Len(t, snap.Entries, 1)
		require.Equal(t, 1, snap.TotalItems)

		lastErr, err := svc.LastError(ctx)
		require.NoError(t, err)
		require.ErrorIs(t, lastErr, catalog.ErrNotFound)
	})
}

func TestServiceQuantityOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("SetQuantityReplacesCount", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Add(ctx, "PI001", 1)
		require.NoError(t, err)
		snap, err := svc.SetQuantity(ctx, "PI001", 7)
		require.NoError(t, err)
		require.Equal(t, 7, snap.Entries[0].Quantity)
	})

	t.Run("SetQuantityZeroRemovesEntry", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Add(ctx, "PI001", 3)
		require.NoError(t, err)
		snap, err := svc.SetQuantity(ctx, "PI001", 0)
		require.NoError(t, err)
		require.True(t, snap.IsEmpty())
	})

	t.Run("SetQuantityZeroOnAbsentIDBehavesLikeRemove", func(t *testing.T) {
		svc, _ := newTestService(t)

		snap, err := svc.SetQuantity(ctx, "PI001", -2)
		require.NoError(t, err)
		require.True(t, snap.IsEmpty())
	})

	t.Run("SetQuantityClampsAboveMax", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Add(ctx, "PI001", 1)
		require.NoError(t, err)
		snap, err := svc.SetQuantity(ctx, "PI001", 500)
		require.NoError(t, err)
		require.Equal(t, MaxQuantity, snap.Entries[0].Quantity)
	})

	t.Run("ChangeQuantityAdjustsByDelta", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Add(ctx, "PI001", 2)
		require.NoError(t, err)
		snap, err := svc.ChangeQuantity(ctx, "PI001", 3)
		require.NoError(t, err)
		require.Equal(t, 5, snap.Entries[0].Quantity)
	})

	t.Run("ChangeQuantityBelowOneRemovesEntry", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Add(ctx, "PI001", 1)
		require.NoError(t, err)
		snap, err := svc.ChangeQuantity(ctx, "PI001", -1)
		require.NoError(t, err)
		require.True(t, snap.IsEmpty())
	})

	t.Run("ChangeQuantityOnAbsentIDIsNoOp", func(t *testing.T) {
		svc, _ := newTestService(t)

		snap, err := svc.ChangeQuantity(ctx, "PI001", 1)
		require.NoError(t, err)
		require.True(t, snap.IsEmpty())
	})

	t.Run("RemoveAbsentIDIsNoOp", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Add(ctx, "PI001", 1)
		require.NoError(t, err)
		snap, err := svc.Remove(ctx, "TC001")
		require.NoError(t, err)
		require.Len(t, snap.Entries, 1)
	})
}

func TestServiceTotals(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Add(ctx, "TC001", 2) // 45990 each
	require.NoError(t, err)
	_, err = svc.Add(ctx, "PI001", 3) // 5990 each
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, snap.TotalItems)
	require.Equal(t, 2*45990+3*5990, snap.TotalPrice)

	quantity, err := svc.Quantity(ctx, "PI001")
	require.NoError(t, err)
	require.Equal(t, 3, quantity)

	contains, err := svc.Contains(ctx, "TC001")
	require.NoError(t, err)
	require.True(t, contains)

	contains, err = svc.Contains(ctx, "TE002")
	require.NoError(t, err)
	require.False(t, contains)
}

func TestServiceCheckoutScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	snap, err := svc.Add(ctx, "TC001", 2)
	require.NoError(t, err)
	require.Equal(t, 2, snap.TotalItems)
	require.Equal(t, 91980, snap.TotalPrice)

	snap, err = svc.ChangeQuantity(ctx, "TC001", -1)
	require.NoError(t, err)
	require.Equal(t, 1, snap.TotalItems)
	require.Equal(t, 45990, snap.TotalPrice)

	snap, err = svc.ChangeQuantity(ctx, "TC001", -1)
	require.NoError(t, err)
	require.True(t, snap.IsEmpty())
}

func TestServiceClear(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, err := svc.Add(ctx, "TC001", 1)
	require.NoError(t, err)
	snap, err := svc.Clear(ctx)
	require.NoError(t, err)
	require.True(t, snap.IsEmpty())
	require.Equal(t, 0, snap.TotalItems)
	require.Equal(t, 0, snap.TotalPrice)

	// The persisted payload stays a JSON array, never null.
	raw, err := store.Load(ctx, StorageKey)
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(raw))
}

func TestServiceRehydration(t *testing.T) {
	ctx := context.Background()
	cat, err := catalog.Load()
	require.NoError(t, err)

	t.Run("RoundTripThroughStorage", func(t *testing.T) {
		store := storage.NewMemory()

		first := NewService(cat, store, nil)
		_, err := first.Add(ctx, "TC001", 2)
		require.NoError(t, err)
		_, err = first.Add(ctx, "PI002", 1)
		require.NoError(t, err)
		first.Close()

		second := NewService(cat, store, nil)
		t.Cleanup(second.Close)
		snap, err := second.Snapshot(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Entries, 2)
		require.Equal(t, 3, snap.TotalItems)
	})

	t.Run("MalformedStoredValueStartsEmpty", func(t *testing.T) {
		store := storage.NewMemory()
		require.NoError(t, store.Save(ctx, StorageKey, []byte("{not json")))

		svc := NewService(cat, store, nil)
		t.Cleanup(svc.Close)
		snap, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		require.True(t, snap.IsEmpty())
	})

	t.Run("UnknownProductEntriesAreDropped", func(t *testing.T) {
		store := storage.NewMemory()
		stored := []Entry{
			{ID: "TC001", Name: "Torta Cuadrada de Chocolate", Price: 45990, Quantity: 1},
			{ID: "GONE1", Name: "Retired", Price: 1000, Quantity: 1},
		}
		payload, err := json.Marshal(stored)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, StorageKey, payload))

		svc := NewService(cat, store, nil)
		t.Cleanup(svc.Close)
		snap, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Entries, 1)
		require.Equal(t, "TC001", snap.Entries[0].ID)
	})

	t.Run("OutOfRangeQuantitiesAreDropped", func(t *testing.T) {
		store := storage.NewMemory()
		stored := []Entry{{ID: "TC001", Price: 45990, Quantity: 500}}
		payload, err := json.Marshal(stored)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, StorageKey, payload))

		svc := NewService(cat, store, nil)
		t.Cleanup(svc.Close)
		snap, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		require.True(t, snap.IsEmpty())
	})
}

// failingStore rejects writes so persistence failures can be observed.
type failingStore struct {
	inner storage.Store
	fail  bool
}

var errDiskFull = errors.New("disk full")

func (f *failingStore) Load(ctx context.Context, key string) ([]byte, error) {
	return f.inner.Load(ctx, key)
}

func (f *failingStore) Save(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errDiskFull
	}
	return f.inner.Save(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	return f.inner.Delete(ctx, key)
}

func TestServicePersistenceFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	cat, err := catalog.Load()
	require.NoError(t, err)

	store := &failingStore{inner: storage.NewMemory(), fail: true}
	svc := NewService(cat, store, nil)
	t.Cleanup(svc.Close)

	// The mutation itself succeeds even though the write failed.
	snap, err := svc.Add(ctx, "TC001", 1)
	require.NoError(t, err)
	require.Len(t, snap.Entries, 1)

	lastErr, err := svc.LastError(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, lastErr, errDiskFull)

	// The flag clears after the next successful write.
	store.fail = false
	_, err = svc.Add(ctx, "PI001", 1)
	require.NoError(t, err)

	lastErr, err = svc.LastError(ctx)
	require.NoError(t, err)
	require.NoError(t, lastErr)
}

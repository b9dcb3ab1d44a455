package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bft-labs/marketcart/internal/adapters/memory"
	"github.com/bft-labs/marketcart/internal/domain"
)

// recordingStorage wraps a memory storage, counts writes and can be told
// to fail them.
type recordingStorage struct {
	*memory.Storage

	mu       sync.Mutex
	sets     int
	failSet  error
	failGet  error
	lastData string
}

func newRecordingStorage() *recordingStorage {
	return &recordingStorage{Storage: memory.NewStorage()}
}

func (r *recordingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	failGet := r.failGet
	r.mu.Unlock()
	if failGet != nil {
		return "", false, failGet
	}
	return r.Storage.Get(ctx, key)
}

func (r *recordingStorage) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	r.sets++
	failSet := r.failSet
	if failSet == nil {
		r.lastData = value
	}
	r.mu.Unlock()
	if failSet != nil {
		return failSet
	}
	return r.Storage.Set(ctx, key, value)
}

func (r *recordingStorage) Sets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

func (r *recordingStorage) stored(t *testing.T) []Item {
	t.Helper()
	data, ok, err := r.Storage.Get(context.Background(), DefaultKey)
	if err != nil || !ok {
		t.Fatalf("stored cart missing: ok %v, err %v", ok, err)
	}
	items, err := domain.Decode(data)
	if err != nil {
		t.Fatalf("decode stored cart: %v", err)
	}
	return items
}

var productA = Product{ID: "a", Title: "T", ImageURL: "u", Price: 10}

func TestAddToCart_EmptyCart(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStorage()
	s := New(st)

	if err := s.AddToCart(ctx, productA); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	want := []Item{{ID: "a", Title: "T", ImageURL: "u", Price: 10, Quantity: 1}}
	if got := s.Products(); !domain.Equal(got, want) {
		t.Errorf("Products() = %+v, want %+v", got, want)
	}
	if got := st.stored(t); !domain.Equal(got, want) {
		t.Errorf("stored = %+v, want %+v", got, want)
	}
}

func TestAddToCart_TwiceIncrements(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStorage()
	s := New(st)

	for i := 0; i < 2; i++ {
		if err := s.AddToCart(ctx, productA); err != nil {
			t.Fatalf("AddToCart: %v", err)
		}
	}

	got := s.Products()
	if len(got) != 1 || got[0].Quantity != 2 {
		t.Errorf("Products() = %+v, want one line with quantity 2", got)
	}
	if st.Sets() != 2 {
		t.Errorf("writes = %d, want 2 (one per add)", st.Sets())
	}
}

func TestAddToCart_AppendsInOrder(t *testing.T) {
	ctx := context.Background()
	s := New(newRecordingStorage())

	for _, id := range []string{"c", "a", "b", "a"} {
		if err := s.AddToCart(ctx, Product{ID: id}); err != nil {
			t.Fatalf("AddToCart(%s): %v", id, err)
		}
	}

	got := s.Products()
	wantIDs := []string{"c", "a", "b"}
	if len(got) != len(wantIDs) {
		t.Fatalf("Products() = %+v", got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("line %d = %s, want %s", i, got[i].ID, id)
		}
	}
	if got[1].Quantity != 2 {
		t.Errorf("a quantity = %d, want 2", got[1].Quantity)
	}
}

func TestAddToCart_InvalidProduct(t *testing.T) {
	st := newRecordingStorage()
	s := New(st)

	err := s.AddToCart(context.Background(), Product{Title: "no id"})
	if !errors.Is(err, ErrInvalidProduct) {
		t.Errorf("AddToCart error = %v, want ErrInvalidProduct", err)
	}
	if st.Sets() != 0 {
		t.Errorf("writes = %d, want 0", st.Sets())
	}
}

func TestIncrement_NotFound(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStorage()
	s := New(st)
	if err := s.AddToCart(ctx, productA); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	before := s.Products()
	writes := st.Sets()

	found, err := s.Increment(ctx, "missing")
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if found {
		t.Error("Increment reported found for absent id")
	}
	if !domain.Equal(s.Products(), before) {
		t.Errorf("cart changed: %+v", s.Products())
	}
	if st.Sets() != writes {
		t.Errorf("writes = %d, want %d", st.Sets(), writes)
	}
}

func TestDecrement(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		wantLen int
		wantQty int
		decrID  string
	}{
		{name: "quantity one removes", start: 1, decrID: "a", wantLen: 0},
		{name: "quantity two leaves one", start: 2, decrID: "a", wantLen: 1, wantQty: 1},
		{name: "absent id unchanged", start: 2, decrID: "z", wantLen: 1, wantQty: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := newRecordingStorage()
			s := New(st)
			for i := 0; i < tt.start; i++ {
				if err := s.AddToCart(ctx, productA); err != nil {
					t.Fatalf("AddToCart: %v", err)
				}
			}
			writes := st.Sets()

			if err := s.Decrement(ctx, tt.decrID); err != nil {
				t.Fatalf("Decrement: %v", err)
			}

			got := s.Products()
			if len(got) != tt.wantLen {
				t.Fatalf("Products() = %+v, want %d lines", got, tt.wantLen)
			}
			if tt.wantLen == 1 && got[0].Quantity != tt.wantQty {
				t.Errorf("quantity = %d, want %d", got[0].Quantity, tt.wantQty)
			}
			if st.Sets() != writes+1 {
				t.Errorf("writes = %d, want %d (decrement always writes)", st.Sets(), writes+1)
			}
			if stored := st.stored(t); !domain.Equal(stored, got) {
				t.Errorf("stored = %+v, want %+v", stored, got)
			}
		})
	}
}

func TestScenario_AddIncrementDecrement(t *testing.T) {
	ctx := context.Background()
	s := New(newRecordingStorage())

	if err := s.AddToCart(ctx, productA); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if found, err := s.Increment(ctx, "a"); err != nil || !found {
		t.Fatalf("Increment = %v, %v", found, err)
	}
	if err := s.Decrement(ctx, "a"); err != nil {
		t.Fatalf("Decrement: %v", err)
	}

	want := []Item{{ID: "a", Title: "T", ImageURL: "u", Price: 10, Quantity: 1}}
	if got := s.Products(); !domain.Equal(got, want) {
		t.Errorf("Products() = %+v, want %+v", got, want)
	}
}

func TestScenario_HydratedSingleItemDecrement(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStorage()
	if err := st.Storage.Set(ctx, DefaultKey, `[{"id":"a","title":"T","image_url":"u","price":10,"quantity":1}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := New(st)
	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := s.Decrement(ctx, "a"); err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	if got := s.Products(); len(got) != 0 {
		t.Errorf("Products() = %+v, want empty", got)
	}
	if got := st.stored(t); len(got) != 0 {
		t.Errorf("stored = %+v, want empty", got)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		seed    *string
		getErr  error
		wantLen int
		wantErr error
	}{
		{name: "nothing stored", wantLen: 0},
		{name: "stored cart", seed: ptr(`[{"id":"a","quantity":3},{"id":"b","quantity":1}]`), wantLen: 2},
		{name: "corrupt data", seed: ptr(`not json`), wantLen: 0, wantErr: ErrCorruptCart},
		{name: "read failure", getErr: errors.New("storage offline"), wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := newRecordingStorage()
			if tt.seed != nil {
				if err := st.Storage.Set(ctx, DefaultKey, *tt.seed); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}
			st.failGet = tt.getErr
			s := New(st)

			err := s.Load(ctx)
			switch {
			case tt.wantErr != nil && !errors.Is(err, tt.wantErr):
				t.Errorf("Load error = %v, want %v", err, tt.wantErr)
			case tt.getErr != nil && !errors.Is(err, tt.getErr):
				t.Errorf("Load error = %v, want %v", err, tt.getErr)
			case tt.wantErr == nil && tt.getErr == nil && err != nil:
				t.Errorf("Load unexpected error: %v", err)
			}
			if got := s.Products(); len(got) != tt.wantLen {
				t.Errorf("Products() = %+v, want %d lines", got, tt.wantLen)
			}
			if st.Sets() != 0 {
				t.Errorf("Load wrote %d times", st.Sets())
			}
		})
	}
}

func TestOpen_SwallowsLoadFailure(t *testing.T) {
	st := newRecordingStorage()
	st.failGet = errors.New("storage offline")
	s := New(st)

	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open error = %v, want nil", err)
	}
	if got := s.Products(); len(got) != 0 {
		t.Errorf("Products() = %+v, want empty", got)
	}
}

func TestPersistBestEffort_AdvancesOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStorage()
	st.failSet = errors.New("disk full")
	s := New(st)

	if err := s.AddToCart(ctx, productA); err != nil {
		t.Fatalf("AddToCart error = %v, want nil under best effort", err)
	}
	if got := s.Products(); len(got) != 1 {
		t.Errorf("Products() = %+v, want one line", got)
	}
	if _, ok, _ := st.Storage.Get(ctx, DefaultKey); ok {
		t.Error("cart persisted despite failing storage")
	}
}

func TestPersistStrict_KeepsStateOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStorage()
	s := New(st, WithPersistPolicy(PersistStrict))

	if err := s.AddToCart(ctx, productA); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	diskFull := errors.New("disk full")
	st.mu.Lock()
	st.failSet = diskFull
	st.mu.Unlock()

	err := s.AddToCart(ctx, productA)
	if !errors.Is(err, ErrPersist) || !errors.Is(err, diskFull) {
		t.Fatalf("AddToCart error = %v, want ErrPersist wrapping cause", err)
	}
	if err := s.Decrement(ctx, "a"); !errors.Is(err, ErrPersist) {
		t.Fatalf("Decrement error = %v, want ErrPersist", err)
	}
	if err := s.AddToCart(ctx, Product{ID: "b"}); !errors.Is(err, ErrPersist) {
		t.Fatalf("AddToCart(b) error = %v, want ErrPersist", err)
	}

	got := s.Products()
	if len(got) != 1 || got[0].Quantity != 1 {
		t.Errorf("Products() = %+v, want unchanged single line", got)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStorage()
	s := New(st)
	_ = s.AddToCart(ctx, productA)
	_ = s.AddToCart(ctx, Product{ID: "b"})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := s.Products(); len(got) != 0 {
		t.Errorf("Products() = %+v, want empty", got)
	}
	if st.lastData != "[]" {
		t.Errorf("stored = %q, want []", st.lastData)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	s := New(newRecordingStorage())
	_ = s.AddToCart(ctx, Product{ID: "a", Price: 10})
	_ = s.AddToCart(ctx, Product{ID: "a", Price: 10})
	_ = s.AddToCart(ctx, Product{ID: "b", Price: 2.5})

	sum := s.Summary()
	if sum.Lines != 2 || sum.Units != 3 {
		t.Errorf("Summary = %+v", sum)
	}
	if sum.Total.StringFixed(2) != "22.50" {
		t.Errorf("Total = %s, want 22.50", sum.Total.StringFixed(2))
	}
}

func TestProducts_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(newRecordingStorage())
	_ = s.AddToCart(ctx, productA)

	got := s.Products()
	got[0].Quantity = 99

	if s.Products()[0].Quantity != 1 {
		t.Error("mutating Products() result changed the store")
	}
}

func TestConcurrentAddToCart(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStorage()
	s := New(st)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.AddToCart(ctx, productA); err != nil {
				t.Errorf("AddToCart: %v", err)
			}
		}()
	}
	wg.Wait()

	got := s.Products()
	if len(got) != 1 || got[0].Quantity != n {
		t.Fatalf("Products() = %+v, want one line with quantity %d", got, n)
	}
	if stored := st.stored(t); stored[0].Quantity != n {
		t.Errorf("stored quantity = %d, want %d", stored[0].Quantity, n)
	}
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStorage()
	s := New(st, WithKey("@Other:cart"))
	_ = s.AddToCart(ctx, productA)

	if s.Key() != "@Other:cart" {
		t.Errorf("Key() = %s", s.Key())
	}
	if _, ok, _ := st.Storage.Get(ctx, "@Other:cart"); !ok {
		t.Error("cart not written under custom key")
	}
	if _, ok, _ := st.Storage.Get(ctx, DefaultKey); ok {
		t.Error("cart written under default key")
	}
}

func TestPersistPolicy_String(t *testing.T) {
	if PersistBestEffort.String() != "best-effort" || PersistStrict.String() != "strict" {
		t.Errorf("unexpected names %s, %s", PersistBestEffort, PersistStrict)
	}
	if PersistPolicy(42).String() != "unknown" {
		t.Errorf("PersistPolicy(42) = %s", PersistPolicy(42))
	}
}

func ptr(s string) *string { return &s }

func TestReload(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("disk full")
	external := `[{"id":"x","title":"X","image_url":"u","price":3,"quantity":4}]`

	t.Run("own write is skipped", func(t *testing.T) {
		st := newRecordingStorage()
		s := New(st)
		var calls int
		s.Subscribe(func([]Item) { calls++ })

		_ = s.AddToCart(ctx, productA)
		if err := s.Reload(ctx); err != nil {
			t.Fatalf("Reload: %v", err)
		}
		if calls != 1 {
			t.Errorf("notifications = %d, want 1", calls)
		}
	})

	t.Run("external write replaces cart", func(t *testing.T) {
		st := newRecordingStorage()
		s := New(st)
		_ = s.AddToCart(ctx, productA)

		_ = st.Storage.Set(ctx, DefaultKey, external)
		if err := s.Reload(ctx); err != nil {
			t.Fatalf("Reload: %v", err)
		}
		got := s.Products()
		if len(got) != 1 || got[0].ID != "x" || got[0].Quantity != 4 {
			t.Errorf("Products() = %+v, want x x4", got)
		}
	})

	t.Run("unpersisted change survives stale storage", func(t *testing.T) {
		st := newRecordingStorage()
		s := New(st)
		_ = s.AddToCart(ctx, productA)

		st.mu.Lock()
		st.failSet = errDown
		st.mu.Unlock()
		if err := s.AddToCart(ctx, Product{ID: "b"}); err != nil {
			t.Fatalf("best-effort AddToCart: %v", err)
		}

		if err := s.Reload(ctx); err != nil {
			t.Fatalf("Reload: %v", err)
		}
		if got := s.Products(); len(got) != 2 {
			t.Fatalf("Products() after Reload = %+v, want a and b", got)
		}

		// External writes are ignored while local changes are unsaved.
		_ = st.Storage.Set(ctx, DefaultKey, external)
		if err := s.Reload(ctx); err != nil {
			t.Fatalf("Reload: %v", err)
		}
		if got := s.Products(); len(got) != 2 || got[1].ID != "b" {
			t.Fatalf("Products() after external write = %+v, want a and b", got)
		}

		// The next successful write persists the whole in-memory cart.
		st.mu.Lock()
		st.failSet = nil
		st.mu.Unlock()
		if _, err := s.Increment(ctx, "b"); err != nil {
			t.Fatalf("Increment: %v", err)
		}
		stored := st.stored(t)
		if len(stored) != 2 || stored[1].ID != "b" || stored[1].Quantity != 2 {
			t.Errorf("stored cart = %+v, want a x1, b x2", stored)
		}
	})

	t.Run("load still overrides", func(t *testing.T) {
		st := newRecordingStorage()
		s := New(st)
		st.mu.Lock()
		st.failSet = errDown
		st.mu.Unlock()
		_ = s.AddToCart(ctx, productA)

		_ = st.Storage.Set(ctx, DefaultKey, external)
		if err := s.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got := s.Products(); len(got) != 1 || got[0].ID != "x" {
			t.Errorf("Products() after Load = %+v, want x", got)
		}
	})
}

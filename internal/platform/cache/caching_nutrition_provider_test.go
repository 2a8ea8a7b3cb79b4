package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
)

// mockNutritionProvider はテスト用のNutritionProviderモック実装です。
type mockNutritionProvider struct {
	lookupFn func(ctx context.Context, query string) (*entity.NutritionRecord, error)
	calls    atomic.Int32
}

// Lookup はモックのLookup関数を呼び出します。
func (m *mockNutritionProvider) Lookup(ctx context.Context, query string) (*entity.NutritionRecord, error) {
	m.calls.Add(1)
	if m.lookupFn != nil {
		return m.lookupFn(ctx, query)
	}
	return nil, nil
}

var pizza = entity.NutritionRecord{Name: "pizza", Calories: 285, ProteinG: 12.2, FatTotalG: 10.4, CarbohydrateTotalG: 35.7, SugarsG: 3.8}

// TestNewCachingNutritionProvider_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingNutritionProvider_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{
			name:              "default values when zero/empty",
			expectedTTL:       24 * time.Hour,
			expectedNamespace: "nutrition",
		},
		{
			name:              "negative ttl uses default",
			ttl:               -1 * time.Minute,
			expectedTTL:       24 * time.Hour,
			expectedNamespace: "nutrition",
		},
		{
			name:              "custom values preserved",
			ttl:               10 * time.Minute,
			namespace:         "custom",
			expectedTTL:       10 * time.Minute,
			expectedNamespace: "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewCachingNutritionProvider(nil, tt.ttl, &mockNutritionProvider{}, tt.namespace)

			if p.ttl != tt.expectedTTL {
				t.Errorf("expected TTL %v, got %v", tt.expectedTTL, p.ttl)
			}
			if p.namespace != tt.expectedNamespace {
				t.Errorf("expected namespace %q, got %q", tt.expectedNamespace, p.namespace)
			}
		})
	}
}

// TestCachingNutritionProvider_Lookup_NilRedis はRedisがnilの場合にキャッシュをバイパスすることを検証します。
func TestCachingNutritionProvider_Lookup_NilRedis(t *testing.T) {
	t.Parallel()

	inner := &mockNutritionProvider{
		lookupFn: func(ctx context.Context, query string) (*entity.NutritionRecord, error) {
			rec := pizza
			return &rec, nil
		},
	}

	p := NewCachingNutritionProvider(nil, time.Hour, inner, "nutrition")

	rec, err := p.Lookup(context.Background(), "pizza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Calories != 285 {
		t.Errorf("expected calories 285, got %v", rec.Calories)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls.Load())
	}
}

// TestCachingNutritionProvider_Lookup_CacheHit はキャッシュヒット時に内部プロバイダーを呼ばないことを検証します。
func TestCachingNutritionProvider_Lookup_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	cached, _ := json.Marshal(pizza)
	mock.ExpectGet("nutrition:pizza").SetVal(string(cached))

	inner := &mockNutritionProvider{}
	p := NewCachingNutritionProvider(rdb, time.Hour, inner, "nutrition")

	rec, err := p.Lookup(context.Background(), "pizza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *rec != pizza {
		t.Errorf("expected %+v, got %+v", pizza, *rec)
	}
	if inner.calls.Load() != 0 {
		t.Error("inner provider should not be called on cache hit")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingNutritionProvider_Lookup_CacheMiss はキャッシュミス時にプロバイダーから取得し、キャッシュに保存することを検証します。
func TestCachingNutritionProvider_Lookup_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	expectedJSON, _ := json.Marshal(pizza)

	// Spaces in the query are escaped in the key
	mock.ExpectGet("nutrition:grilled_chicken").RedisNil()
	mock.ExpectSet("nutrition:grilled_chicken", expectedJSON, time.Hour).SetVal("OK")

	inner := &mockNutritionProvider{
		lookupFn: func(ctx context.Context, query string) (*entity.NutritionRecord, error) {
			rec := pizza
			return &rec, nil
		},
	}

	p := NewCachingNutritionProvider(rdb, time.Hour, inner, "nutrition")
	if _, err := p.Lookup(context.Background(), "grilled chicken"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingNutritionProvider_Lookup_InnerError はプロバイダーのエラーが伝播され、キャッシュされないことを検証します。
func TestCachingNutritionProvider_Lookup_InnerError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	expectedErr := errors.New("provider down")
	mock.ExpectGet("nutrition:pizza").RedisNil()

	inner := &mockNutritionProvider{
		lookupFn: func(ctx context.Context, query string) (*entity.NutritionRecord, error) {
			return nil, expectedErr
		},
	}

	p := NewCachingNutritionProvider(rdb, time.Hour, inner, "nutrition")
	_, err := p.Lookup(context.Background(), "pizza")

	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingNutritionProvider_Lookup_CorruptedCache は破損したキャッシュを削除してプロバイダーにフォールバックすることを検証します。
func TestCachingNutritionProvider_Lookup_CorruptedCache(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	expectedJSON, _ := json.Marshal(pizza)

	mock.ExpectGet("nutrition:pizza").SetVal("invalid json")
	mock.ExpectDel("nutrition:pizza").SetVal(1)
	mock.ExpectSet("nutrition:pizza", expectedJSON, time.Hour).SetVal("OK")

	inner := &mockNutritionProvider{
		lookupFn: func(ctx context.Context, query string) (*entity.NutritionRecord, error) {
			rec := pizza
			return &rec, nil
		},
	}

	p := NewCachingNutritionProvider(rdb, time.Hour, inner, "nutrition")
	rec, err := p.Lookup(context.Background(), "pizza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "pizza" {
		t.Errorf("expected name pizza, got %q", rec.Name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingNutritionProvider_Lookup_CollapsesConcurrentCalls は同一クエリの同時呼び出しが1回の上流呼び出しにまとめられることを検証します。
func TestCachingNutritionProvider_Lookup_CollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	inner := &mockNutritionProvider{
		lookupFn: func(ctx context.Context, query string) (*entity.NutritionRecord, error) {
			<-release
			rec := pizza
			return &rec, nil
		},
	}
	p := NewCachingNutritionProvider(nil, time.Hour, inner, "nutrition")

	const n = 8
	var wg sync.WaitGroup
	results := make([]*entity.NutritionRecord, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := p.Lookup(context.Background(), "pizza")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = rec
		}(i)
	}

	// Let the goroutines pile up on the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := inner.calls.Load(); got < 1 || got > n {
		t.Fatalf("unexpected inner call count %d", got)
	}
	// Callers receive independent copies
	results[0].Name = "mutated"
	for i := 1; i < n; i++ {
		if results[i] != nil && results[i].Name != "pizza" {
			t.Errorf("result %d shares memory with another caller", i)
		}
	}
}

// TestCachingNutritionProvider_Lookup_CancelledCallerDoesNotFailOthers は先行した呼び出し元の
// キャンセルが、同じクエリを待っている他の呼び出し元に伝播しないことを検証します。
func TestCachingNutritionProvider_Lookup_CancelledCallerDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var (
		startOnce   sync.Once
		innerCtxErr atomic.Value
	)
	inner := &mockNutritionProvider{
		lookupFn: func(ctx context.Context, query string) (*entity.NutritionRecord, error) {
			startOnce.Do(func() { close(started) })
			<-release
			if err := ctx.Err(); err != nil {
				innerCtxErr.Store(err)
				return nil, err
			}
			rec := pizza
			return &rec, nil
		},
	}
	p := NewCachingNutritionProvider(nil, time.Hour, inner, "nutrition")

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := p.Lookup(ctxA, "pizza")
		errA <- err
	}()
	<-started

	type result struct {
		rec *entity.NutritionRecord
		err error
	}
	resB := make(chan result, 1)
	go func() {
		rec, err := p.Lookup(context.Background(), "pizza")
		resB <- result{rec, err}
	}()

	// Let caller B join the in-flight call before A goes away
	time.Sleep(50 * time.Millisecond)
	cancelA()

	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected caller A to see context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)

	select {
	case r := <-resB:
		if r.err != nil {
			t.Fatalf("caller B: unexpected error: %v", r.err)
		}
		if r.rec.Calories != 285 {
			t.Errorf("caller B: expected calories 285, got %v", r.rec.Calories)
		}
	case <-time.After(time.Second):
		t.Fatal("caller B did not return")
	}

	if v := innerCtxErr.Load(); v != nil {
		t.Errorf("shared lookup context was cancelled: %v", v)
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("expected 1 inner call, got %d", got)
	}
}

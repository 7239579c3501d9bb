package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/claude-watch/internal/models"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "cache.json"))
}

func testSnapshot(session float64) *models.UsageSnapshot {
	return &models.UsageSnapshot{
		FiveHour: models.WindowUsage{Utilization: session},
		SevenDay: models.WindowUsage{Utilization: 50},
	}
}

// writeAgedRecord writes a cache record whose cached_at lies age in the past.
func writeAgedRecord(t *testing.T, c *Cache, snapshot *models.UsageSnapshot, age time.Duration) {
	t.Helper()
	rec := record{
		CachedAt: time.Now().UTC().Add(-age),
		Data:     snapshot,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Failed to encode record: %v", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		t.Fatalf("Failed to write cache file: %v", err)
	}
}

func TestRead_MissingFile(t *testing.T) {
	c := newTestCache(t)
	if got := c.Read(time.Minute); got != nil {
		t.Errorf("Expected nil for a missing cache file, got %+v", got)
	}
}

func TestRead_FreshnessBoundary(t *testing.T) {
	ttl := time.Minute

	tests := []struct {
		name    string
		age     time.Duration
		wantHit bool
	}{
		{"just inside ttl", ttl - 5*time.Second, true},
		{"just past ttl", ttl + 5*time.Second, false},
		{"ancient", 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCache(t)
			writeAgedRecord(t, c, testSnapshot(33), tt.age)

			got := c.Read(ttl)
			if tt.wantHit && got == nil {
				t.Fatal("Expected a cache hit, got nil")
			}
			if !tt.wantHit && got != nil {
				t.Fatalf("Expected a cache miss, got %+v", got)
			}
			if tt.wantHit && got.SessionUtilization() != 33 {
				t.Errorf("Expected cached snapshot, got %+v", got)
			}
		})
	}
}

func TestRead_CorruptFile(t *testing.T) {
	c := newTestCache(t)
	if err := os.WriteFile(c.path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}
	if got := c.Read(time.Minute); got != nil {
		t.Errorf("Expected nil for a corrupt cache, got %+v", got)
	}
}

func TestReadStale_IgnoresAge(t *testing.T) {
	c := newTestCache(t)
	writeAgedRecord(t, c, testSnapshot(77), 48*time.Hour)

	got := c.ReadStale()
	if got == nil {
		t.Fatal("Expected the stale snapshot, got nil")
	}
	if got.SessionUtilization() != 77 {
		t.Errorf("Expected stale snapshot value 77, got %v", got.SessionUtilization())
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	c.Write(testSnapshot(42))

	got := c.Read(time.Minute)
	if got == nil {
		t.Fatal("Expected a hit immediately after write")
	}
	if got.SessionUtilization() != 42 {
		t.Errorf("Expected 42, got %v", got.SessionUtilization())
	}

	info, err := os.Stat(c.path)
	if err != nil {
		t.Fatalf("Failed to stat cache file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}
}

func TestFetch_HitSkipsNetwork(t *testing.T) {
	c := newTestCache(t)
	writeAgedRecord(t, c, testSnapshot(10), time.Second)

	calls := 0
	fetch := func(ctx context.Context) (*models.UsageSnapshot, error) {
		calls++
		return testSnapshot(99), nil
	}

	got, err := c.Fetch(context.Background(), fetch, time.Minute, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no network call on a cache hit, got %d", calls)
	}
	if got.SessionUtilization() != 10 {
		t.Errorf("Expected cached value 10, got %v", got.SessionUtilization())
	}
}

func TestFetch_MissPopulatesCache(t *testing.T) {
	c := newTestCache(t)

	fetch := func(ctx context.Context) (*models.UsageSnapshot, error) {
		return testSnapshot(55), nil
	}

	got, err := c.Fetch(context.Background(), fetch, time.Minute, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got.SessionUtilization() != 55 {
		t.Errorf("Expected fetched value 55, got %v", got.SessionUtilization())
	}

	if cached := c.Read(time.Minute); cached == nil || cached.SessionUtilization() != 55 {
		t.Errorf("Expected fetch result cached, got %+v", cached)
	}
}

func TestFetch_ErrorPropagates(t *testing.T) {
	c := newTestCache(t)
	fetchErr := errors.New("network down")

	fetch := func(ctx context.Context) (*models.UsageSnapshot, error) {
		return nil, fetchErr
	}

	if _, err := c.Fetch(context.Background(), fetch, time.Minute, false); !errors.Is(err, fetchErr) {
		t.Errorf("Expected the fetch error, got %v", err)
	}
}

func TestFetch_SilentFallsBackToStale(t *testing.T) {
	c := newTestCache(t)
	writeAgedRecord(t, c, testSnapshot(70), time.Hour)

	fetch := func(ctx context.Context) (*models.UsageSnapshot, error) {
		return nil, errors.New("network down")
	}

	got, err := c.Fetch(context.Background(), fetch, time.Minute, true)
	if err != nil {
		t.Fatalf("Expected silent mode to swallow the error, got %v", err)
	}
	if got == nil {
		t.Fatal("Expected the stale snapshot, got nil")
	}
	if got.SessionUtilization() != 70 {
		t.Errorf("Expected stale value 70, got %v", got.SessionUtilization())
	}
}

func TestFetch_SilentNoCacheReturnsNil(t *testing.T) {
	c := newTestCache(t)

	fetch := func(ctx context.Context) (*models.UsageSnapshot, error) {
		return nil, errors.New("network down")
	}

	got, err := c.Fetch(context.Background(), fetch, time.Minute, true)
	if err != nil {
		t.Fatalf("Expected nil error in silent mode, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil snapshot with no cache to fall back on, got %+v", got)
	}
}

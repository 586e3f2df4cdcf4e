package routing

import (
	"context"
	"testing"

	"github.com/teslashibe/go-nain/pkg/geo"
)

func TestSQLiteCache(t *testing.T) {
	c, err := OpenSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteCache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Errorf("Get missing: got ok=%v err=%v", ok, err)
	}

	want := Place{Name: "Library", Location: geo.Point{Lat: 40.5, Lon: -74.25}}
	if err := c.Put(ctx, "library", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(ctx, "library")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if err := c.Put(ctx, " ", want); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestCachedGeocoder(t *testing.T) {
	c, err := OpenSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteCache: %v", err)
	}
	defer c.Close()

	inner := &stubGeocoder{place: Place{Name: "Cafe", Location: geo.Point{Lat: 1, Lon: 2}}}
	g := NewCachedGeocoder(inner, c, nil)
	near := geo.Point{Lat: 40.001, Lon: -74.001}

	for i := 0; i < 3; i++ {
		p, err := g.Geocode(context.Background(), "The  Cafe", near)
		if err != nil {
			t.Fatalf("Geocode: %v", err)
		}
		if p.Name != "Cafe" {
			t.Errorf("got %q, want Cafe", p.Name)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls: got %d, want 1", inner.calls)
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("  The Library ", geo.Point{Lat: 40.001, Lon: -74.001})
	b := CacheKey("the   library", geo.Point{Lat: 40.002, Lon: -74.002})
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	if c := CacheKey("the library", geo.Point{Lat: 41, Lon: -74}); c == a {
		t.Errorf("keys for distant areas should differ: %q", c)
	}
}

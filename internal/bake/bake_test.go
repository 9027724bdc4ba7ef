package bake

import (
	"path/filepath"
	"testing"

	"scatter3d/internal/physics"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "bakes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testConfig() physics.Config {
	return physics.Config{
		BodyCount: 50, StepCount: 240, DropHeight: 8, Radius: 0.5,
		HalfExtentX: 30, HalfExtentZ: 30, Restitution: 0.3, Friction: 0.8,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTemp(t)
	cfg := testConfig()
	want := physics.Settle(cfg, 7)

	if err := s.Put(7, cfg, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get(7, cfg)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get reported a miss after Put")
	}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGetMiss(t *testing.T) {
	s := openTemp(t)
	_, ok, err := s.Get(99, testConfig())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get reported a hit on an empty store")
	}
}

func TestKeyDependsOnSeedAndConfig(t *testing.T) {
	cfg := testConfig()
	if Key(1, cfg) == Key(2, cfg) {
		t.Error("different seeds produced the same key")
	}
	other := cfg
	other.BodyCount++
	if Key(1, cfg) == Key(1, other) {
		t.Error("different configs produced the same key")
	}
	if Key(1, cfg) != Key(1, testConfig()) {
		t.Error("identical inputs produced different keys")
	}
}

func TestPutReplacesExisting(t *testing.T) {
	s := openTemp(t)
	cfg := testConfig()

	first := physics.Settle(cfg, 3)
	if err := s.Put(3, cfg, first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	shorter := first[:10]
	if err := s.Put(3, cfg, shorter); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, ok, err := s.Get(3, cfg)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got) != len(shorter) {
		t.Errorf("got %d results after replace, want %d", len(got), len(shorter))
	}
}

func TestListAndDelete(t *testing.T) {
	s := openTemp(t)
	cfg := testConfig()
	for seed := uint32(1); seed <= 3; seed++ {
		if err := s.Put(seed, cfg, physics.Settle(cfg, seed)); err != nil {
			t.Fatalf("Put seed %d: %v", seed, err)
		}
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Bodies != cfg.BodyCount {
			t.Errorf("entry %s records %d bodies, want %d", e.Key, e.Bodies, cfg.BodyCount)
		}
	}

	if err := s.Delete(2, cfg); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(2, cfg); ok {
		t.Error("deleted entry still readable")
	}
	if err := s.Delete(2, cfg); err != nil {
		t.Errorf("deleting a missing key errored: %v", err)
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bakes.db")
	cfg := testConfig()
	want := physics.Settle(cfg, 11)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(11, cfg, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, ok, err := s2.Get(11, cfg)
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if len(got) != len(want) {
		t.Errorf("got %d results after reopen, want %d", len(got), len(want))
	}
}

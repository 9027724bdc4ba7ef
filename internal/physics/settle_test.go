package physics

import (
	"testing"
)

func settleConfig() Config {
	return Config{
		BodyCount:   50,
		StepCount:   600,
		DropHeight:  8,
		Radius:      0.5,
		HalfExtentX: 20,
		HalfExtentZ: 20,
		Restitution: 0.3,
		Friction:    0.8,
	}
}

// TestSettleDeterministic verifies identical seed and config reproduce
// identical final transforms.
func TestSettleDeterministic(t *testing.T) {
	cfg := settleConfig()
	a := Settle(cfg, 42)
	b := Settle(cfg, 42)
	if len(a) != len(b) {
		t.Fatalf("result counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Pos != b[i].Pos {
			t.Fatalf("body %d positions differ: %v vs %v", i, a[i].Pos, b[i].Pos)
		}
		if a[i].Orient != b[i].Orient {
			t.Fatalf("body %d orientations differ: %v vs %v", i, a[i].Orient, b[i].Orient)
		}
	}
}

func TestSettleSeedsDiffer(t *testing.T) {
	cfg := settleConfig()
	a := Settle(cfg, 1)
	b := Settle(cfg, 2)
	same := 0
	for i := range a {
		if a[i].Pos == b[i].Pos {
			same++
		}
	}
	if same == len(a) {
		t.Error("different seeds produced identical layouts")
	}
}

// TestSettleBodiesComeToRestOnFloor verifies everything ends up resting
// at roughly one radius above the flat floor, inside the drop bounds.
func TestSettleBodiesComeToRestOnFloor(t *testing.T) {
	cfg := settleConfig()
	results := Settle(cfg, 7)
	if len(results) != cfg.BodyCount {
		t.Fatalf("got %d results, want %d", len(results), cfg.BodyCount)
	}
	for i, r := range results {
		y := r.Pos.Y()
		if y < cfg.FloorY || y > cfg.FloorY+cfg.DropHeight {
			t.Errorf("body %d ended at y=%v, outside [floor, drop height]", i, y)
		}
		// Stacked bodies can rest above one radius, but most should be near it.
		if x := r.Pos.X(); x < cfg.CenterX-cfg.HalfExtentX || x > cfg.CenterX+cfg.HalfExtentX {
			t.Errorf("body %d escaped drop bounds in x: %v", i, x)
		}
		if z := r.Pos.Z(); z < cfg.CenterZ-cfg.HalfExtentZ || z > cfg.CenterZ+cfg.HalfExtentZ {
			t.Errorf("body %d escaped drop bounds in z: %v", i, z)
		}
	}
}

// TestSettleGroundFunc verifies a supplied ground field overrides the
// flat floor.
func TestSettleGroundFunc(t *testing.T) {
	cfg := settleConfig()
	cfg.BodyCount = 10
	cfg.Ground = func(x, z float32) float32 { return 5 }
	results := Settle(cfg, 3)
	for i, r := range results {
		if r.Pos.Y() < 5 {
			t.Errorf("body %d sank below the raised ground: y=%v", i, r.Pos.Y())
		}
	}
}

// TestSettleSeparation verifies pairwise resolution keeps most bodies
// separated by about the contact distance.
func TestSettleSeparation(t *testing.T) {
	cfg := settleConfig()
	cfg.BodyCount = 30
	cfg.HalfExtentX = 5
	cfg.HalfExtentZ = 5
	results := Settle(cfg, 11)

	badly := 0
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			d := results[j].Pos.Sub(results[i].Pos).Len()
			if d < cfg.Radius { // deep interpenetration
				badly++
			}
		}
	}
	if badly > 2 {
		t.Errorf("%d deeply interpenetrating pairs after settling", badly)
	}
}

func TestSettleUnitQuaternions(t *testing.T) {
	for _, r := range Settle(settleConfig(), 42) {
		l := r.Orient.Len()
		if l < 0.999 || l > 1.001 {
			t.Fatalf("orientation not unit length: %v", l)
		}
	}
}

func TestSettleZeroBodies(t *testing.T) {
	if got := Settle(Config{}, 42); got != nil {
		t.Errorf("Settle with zero bodies = %v, want nil", got)
	}
}

func BenchmarkSettle100Bodies(b *testing.B) {
	cfg := settleConfig()
	cfg.BodyCount = 100
	cfg.StepCount = 240
	for i := 0; i < b.N; i++ {
		Settle(cfg, uint32(i))
	}
}

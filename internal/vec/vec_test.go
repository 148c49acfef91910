package vec

import (
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func approx(a, b Vec3) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6 && math.Abs(a.Z-b.Z) < 1e-6
}

// TestNormalize tests unit vectors and the zero vector
func TestNormalize(t *testing.T) {
	n := New(3, 0, 4).Normalize()
	if math.Abs(n.Length()-1) > eps {
		t.Errorf("Expected unit length, got %f", n.Length())
	}
	if !Zero.Normalize().IsZero() {
		t.Error("Zero vector should normalize to zero")
	}
}

// TestChangeDir tests direction changes keep magnitude
func TestChangeDir(t *testing.T) {
	tests := []struct {
		name     string
		v, dir   Vec3
		expected Vec3
	}{
		{"forward to up", New(0, 0, 2), Up, New(0, 2, 0)},
		{"zero vector", Zero, Up, Zero},
		{"zero dir", New(1, 2, 3), Zero, New(1, 2, 3)},
		{"unnormalized dir", New(0, 0, 5), New(10, 0, 0), New(5, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChangeDir(tt.v, tt.dir)
			if !approx(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// TestRelativeToHead tests view-space offsets
func TestRelativeToHead(t *testing.T) {
	head := New(10, 5, 10)

	got := RelativeToHead(head, Forward, New(0, 0, 2))
	if !approx(got, New(10, 5, 12)) {
		t.Errorf("Forward offset: got %v", got)
	}

	got = RelativeToHead(head, Forward, New(0, 1, 0))
	if !approx(got, New(10, 6, 10)) {
		t.Errorf("Up offset: got %v", got)
	}

	// right of a +Z facing actor is -X
	got = RelativeToHead(head, Forward, New(1, 0, 0))
	if !approx(got, New(9, 5, 10)) {
		t.Errorf("Right offset: got %v", got)
	}

	got = RelativeToHead(head, Down, New(1, 0, 1))
	if math.IsNaN(got.X) || math.IsNaN(got.Y) || math.IsNaN(got.Z) {
		t.Errorf("Looking straight down should not produce NaN, got %v", got)
	}
}

// TestRotationRoundTrip tests rotation/direction conversion
func TestRotationRoundTrip(t *testing.T) {
	rots := []Vec2{{0, 0}, {45, 90}, {-30, -120}, {80, 10}}
	for _, r := range rots {
		back := RotationFromDirection(DirectionFromRotation(r))
		if math.Abs(back.X-r.X) > 1e-6 || math.Abs(back.Y-r.Y) > 1e-6 {
			t.Errorf("Expected %v, got %v", r, back)
		}
	}

	if d := DirectionFromRotation(Vec2{90, 0}); !approx(d, Down) {
		t.Errorf("Pitch 90 should look down, got %v", d)
	}
}

// TestRotate tests axis rotations
func TestRotate(t *testing.T) {
	if got := RotateY(New(1, 0, 0), 90); !approx(got, New(0, 0, -1)) {
		t.Errorf("RotateY: got %v", got)
	}
	if got := RotateAxis(New(1, 0, 0), Up, 90); !approx(got, RotateY(New(1, 0, 0), 90)) {
		t.Errorf("RotateAxis around up should match RotateY, got %v", got)
	}
}

// TestReflectAndAngle tests reflection and angles
func TestReflectAndAngle(t *testing.T) {
	if got := Reflect(New(1, -1, 0), Up); !approx(got, New(1, 1, 0)) {
		t.Errorf("Reflect: got %v", got)
	}
	if a := Angle(Forward, Up); math.Abs(a-math.Pi/2) > eps {
		t.Errorf("Expected pi/2, got %f", a)
	}
	if a := Angle(Zero, Up); a != 0 {
		t.Errorf("Angle with zero vector should be 0, got %f", a)
	}
}

// TestSampling tests line and circle sampling
func TestSampling(t *testing.T) {
	pts := LinePoints(Zero, New(4, 0, 0), 5)
	if len(pts) != 5 || !approx(pts[2], New(2, 0, 0)) || !approx(pts[4], New(4, 0, 0)) {
		t.Errorf("Unexpected line points %v", pts)
	}

	circle := CirclePoints(New(1, 1, 1), 2, 8, Up)
	if len(circle) != 8 {
		t.Fatalf("Expected 8 points, got %d", len(circle))
	}
	for _, p := range circle {
		if math.Abs(p.Distance(New(1, 1, 1))-2) > 1e-6 {
			t.Errorf("Point %v not on circle", p)
		}
		if math.Abs(p.Y-1) > 1e-6 {
			t.Errorf("Point %v not in horizontal plane", p)
		}
	}
}

// TestRandRanges tests random helpers stay in range
func TestRandRanges(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		if f := RandF(r, 0.85, 0.95); f < 0.85 || f >= 0.95 {
			t.Fatalf("RandF out of range: %f", f)
		}
		if n := RandI(r, 2, 4); n < 2 || n > 4 {
			t.Fatalf("RandI out of range: %d", n)
		}
	}
	if Clamp(12, 4, 11) != 11 || Clamp(1, 4, 11) != 4 {
		t.Error("Clamp bounds incorrect")
	}
}

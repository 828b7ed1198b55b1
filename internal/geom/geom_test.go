package geom

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// refMinRadius computes the minimum enclosing sphere radius from side
// lengths alone: half the longest side for right/obtuse triangles (law of
// cosines on squared lengths), else the circumradius abc/(4·Area).
func refMinRadius(t Triangle) float64 {
	ab := r3.Norm(r3.Sub(t.B, t.A))
	ac := r3.Norm(r3.Sub(t.C, t.A))
	bc := r3.Norm(r3.Sub(t.C, t.B))

	longest, sum := 0.0, 0.0
	for _, v := range []float64{ab, ac, bc} {
		if v > longest {
			longest = v
		}
		sum += v * v
	}
	if longest*longest >= sum-longest*longest {
		return longest / 2
	}
	area := 0.5 * r3.Norm(r3.Cross(r3.Sub(t.B, t.A), r3.Sub(t.C, t.A)))
	return ab * ac * bc / (4 * area)
}

func TestBoundingSphere_Acute(t *testing.T) {
	// Equilateral triangle: circumradius = side/sqrt(3).
	tri := Triangle{
		A: r3.Vec{X: 0, Y: 0, Z: 0},
		B: r3.Vec{X: 1, Y: 0, Z: 0},
		C: r3.Vec{X: 0.5, Y: math.Sqrt(3) / 2, Z: 0},
	}
	s, err := BoundingSphere(tri)
	if err != nil {
		t.Fatalf("BoundingSphere: %v", err)
	}
	want := 1 / math.Sqrt(3)
	if math.Abs(s.Radius-want) > 1e-12 {
		t.Errorf("radius = %v, want %v", s.Radius, want)
	}
	wantCenter := r3.Vec{X: 0.5, Y: 1 / (2 * math.Sqrt(3)), Z: 0}
	if r3.Norm(r3.Sub(s.Center, wantCenter)) > 1e-12 {
		t.Errorf("center = %v, want %v", s.Center, wantCenter)
	}
}

func TestBoundingSphere_Right(t *testing.T) {
	// Right angle at A: hypotenuse BC is the diameter.
	tri := Triangle{
		A: r3.Vec{X: 0, Y: 0, Z: 0},
		B: r3.Vec{X: 2, Y: 0, Z: 0},
		C: r3.Vec{X: 0, Y: 2, Z: 0},
	}
	s, err := BoundingSphere(tri)
	if err != nil {
		t.Fatalf("BoundingSphere: %v", err)
	}
	if want := math.Sqrt2; math.Abs(s.Radius-want) > 1e-12 {
		t.Errorf("radius = %v, want %v", s.Radius, want)
	}
	if want := (r3.Vec{X: 1, Y: 1, Z: 0}); r3.Norm(r3.Sub(s.Center, want)) > 1e-12 {
		t.Errorf("center = %v, want %v", s.Center, want)
	}
}

func TestBoundingSphere_Obtuse(t *testing.T) {
	// Obtuse at B: longest edge AC is the diameter; the circumsphere would
	// be strictly larger.
	tri := Triangle{
		A: r3.Vec{X: 0, Y: 0, Z: 0},
		B: r3.Vec{X: 1, Y: 0.2, Z: 0},
		C: r3.Vec{X: 2, Y: 0, Z: 0},
	}
	s, err := BoundingSphere(tri)
	if err != nil {
		t.Fatalf("BoundingSphere: %v", err)
	}
	if want := 1.0; math.Abs(s.Radius-want) > 1e-12 {
		t.Errorf("radius = %v, want %v", s.Radius, want)
	}
	if want := (r3.Vec{X: 1, Y: 0, Z: 0}); r3.Norm(r3.Sub(s.Center, want)) > 1e-12 {
		t.Errorf("center = %v, want %v", s.Center, want)
	}
}

func TestBoundingSphere_RandomMinimality(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randVec := func() r3.Vec {
		return r3.Vec{X: rng.Float64()*4 - 2, Y: rng.Float64()*4 - 2, Z: rng.Float64()*4 - 2}
	}
	for i := 0; i < 500; i++ {
		tri := Triangle{A: randVec(), B: randVec(), C: randVec()}
		if r3.Norm(r3.Cross(r3.Sub(tri.B, tri.A), r3.Sub(tri.C, tri.A))) < 1e-9 {
			continue // nearly degenerate draw
		}
		s, err := BoundingSphere(tri)
		if err != nil {
			t.Fatalf("case %d: BoundingSphere: %v", i, err)
		}
		for _, v := range []r3.Vec{tri.A, tri.B, tri.C} {
			if d := r3.Norm(r3.Sub(v, s.Center)); d > s.Radius+1e-9 {
				t.Fatalf("case %d: vertex %v at distance %v outside radius %v", i, v, d, s.Radius)
			}
		}
		if want := refMinRadius(tri); math.Abs(s.Radius-want) > 1e-9*(1+want) {
			t.Fatalf("case %d: radius = %v, want minimal %v", i, s.Radius, want)
		}
	}
}

func TestBoundingSphere_Degenerate(t *testing.T) {
	tri := Triangle{
		A: r3.Vec{X: 0, Y: 0, Z: 0},
		B: r3.Vec{X: 1, Y: 1, Z: 1},
		C: r3.Vec{X: 2, Y: 2, Z: 2},
	}
	if _, err := BoundingSphere(tri); !errors.Is(err, ErrDegenerateTriangle) {
		t.Errorf("BoundingSphere(collinear) error = %v, want ErrDegenerateTriangle", err)
	}
}

var unitRight = Triangle{
	A: r3.Vec{X: 0, Y: 0, Z: 0},
	B: r3.Vec{X: 1, Y: 0, Z: 0},
	C: r3.Vec{X: 0, Y: 1, Z: 0},
}

func TestClosestPointOnTriangle_Regions(t *testing.T) {
	cases := []struct {
		name string
		p    r3.Vec
		want r3.Vec
	}{
		{"above interior", r3.Vec{X: 0.2, Y: 0.2, Z: 5}, r3.Vec{X: 0.2, Y: 0.2, Z: 0}},
		{"inside in-plane", r3.Vec{X: 0.25, Y: 0.25, Z: 0}, r3.Vec{X: 0.25, Y: 0.25, Z: 0}},
		{"beyond vertex A", r3.Vec{X: -1, Y: -1, Z: 0}, r3.Vec{X: 0, Y: 0, Z: 0}},
		{"beyond vertex B", r3.Vec{X: 3, Y: -0.5, Z: 0}, r3.Vec{X: 1, Y: 0, Z: 0}},
		{"beyond vertex C", r3.Vec{X: -0.5, Y: 3, Z: 0}, r3.Vec{X: 0, Y: 1, Z: 0}},
		{"beyond edge AB", r3.Vec{X: 0.5, Y: -2, Z: 0}, r3.Vec{X: 0.5, Y: 0, Z: 0}},
		{"beyond edge AC", r3.Vec{X: -2, Y: 0.5, Z: 0}, r3.Vec{X: 0, Y: 0.5, Z: 0}},
		{"beyond edge BC", r3.Vec{X: 1, Y: 1, Z: 0}, r3.Vec{X: 0.5, Y: 0.5, Z: 0}},
	}
	for _, tc := range cases {
		got := ClosestPointOnTriangle(tc.p, unitRight)
		if r3.Norm(r3.Sub(got, tc.want)) > 1e-12 {
			t.Errorf("%s: ClosestPointOnTriangle = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestProjectPointToTriangle_NoThickness(t *testing.T) {
	// The hypotenuse boundary case: (0.5, 0.5, 1) projects to (0.5, 0.5, 0)
	// at distance 1.
	p := r3.Vec{X: 0.5, Y: 0.5, Z: 1}
	got := ProjectPointToTriangle(p, unitRight, 0)
	want := r3.Vec{X: 0.5, Y: 0.5, Z: 0}
	if r3.Norm(r3.Sub(got, want)) > 1e-12 {
		t.Errorf("projection = %v, want %v", got, want)
	}
	if d := r3.Norm(r3.Sub(p, got)); math.Abs(d-1) > 1e-12 {
		t.Errorf("distance = %v, want 1", d)
	}
}

func TestProjectPointToTriangle_ThicknessClamp(t *testing.T) {
	p := r3.Vec{X: 0.25, Y: 0.25, Z: 1}
	got := ProjectPointToTriangle(p, unitRight, 0.3)
	want := r3.Vec{X: 0.25, Y: 0.25, Z: 0.3}
	if r3.Norm(r3.Sub(got, want)) > 1e-12 {
		t.Errorf("projection = %v, want %v", got, want)
	}

	// A point within the slab projects to itself.
	p = r3.Vec{X: 0.25, Y: 0.25, Z: 0.1}
	got = ProjectPointToTriangle(p, unitRight, 0.3)
	if r3.Norm(r3.Sub(got, p)) > 1e-12 {
		t.Errorf("in-slab projection = %v, want %v", got, p)
	}
}

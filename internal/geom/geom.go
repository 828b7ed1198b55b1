// Package geom provides the triangle-level geometric primitives used by the
// surface projection tree: minimum bounding spheres and point-to-triangle
// projection. All coordinates are in the same Cartesian frame as the input
// point cloud.
package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateTriangle is returned when a triangle has collinear (or
// coincident) vertices. Such a triangle has an undefined normal and cannot be
// indexed; callers must filter these out of the boundary mesh before
// construction.
var ErrDegenerateTriangle = errors.New("geom: degenerate triangle")

// Triangle is a single face of the boundary surface. Immutable once
// extracted from the mesh.
type Triangle struct {
	A, B, C r3.Vec
}

// Sphere is a center/radius pair.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// Contains reports whether p lies within the sphere (boundary inclusive).
func (s Sphere) Contains(p r3.Vec) bool {
	return r3.Norm(r3.Sub(p, s.Center)) <= s.Radius
}

// BoundingSphere returns the minimum sphere enclosing the triangle's three
// vertices.
//
// If the triangle is right or obtuse, the minimum sphere is the one whose
// diameter is the longest edge. Otherwise the triangle is acute and the
// circumsphere is minimal: with N = AB×AC,
//
//	center = A + (|AB|²·(AC×N) + |AC|²·(N×AB)) / (2·|N|²)
//
// The returned radius is the max distance from the center to the three
// vertices, which absorbs floating-point asymmetry in the circumcenter.
func BoundingSphere(t Triangle) (Sphere, error) {
	ab := r3.Sub(t.B, t.A)
	ac := r3.Sub(t.C, t.A)
	bc := r3.Sub(t.C, t.B)

	n := r3.Cross(ab, ac)
	if r3.Norm2(n) == 0 {
		return Sphere{}, fmt.Errorf("%w: collinear vertices %v %v %v", ErrDegenerateTriangle, t.A, t.B, t.C)
	}

	// A non-positive dot product of the two edge vectors meeting at a vertex
	// means the angle at that vertex is >= 90 degrees.
	atA := r3.Dot(ab, ac)
	atB := r3.Dot(r3.Scale(-1, ab), bc)
	atC := r3.Dot(r3.Scale(-1, ac), r3.Scale(-1, bc))

	if atA <= 0 || atB <= 0 || atC <= 0 {
		// Right or obtuse: longest edge is the diameter.
		center := midpoint(t.A, t.B)
		longest := r3.Norm(ab)
		if l := r3.Norm(ac); l > longest {
			center = midpoint(t.A, t.C)
			longest = l
		}
		if l := r3.Norm(bc); l > longest {
			center = midpoint(t.B, t.C)
			longest = l
		}
		return Sphere{Center: center, Radius: longest / 2}, nil
	}

	// Acute: circumsphere.
	center := r3.Add(t.A, r3.Scale(1/(2*r3.Norm2(n)),
		r3.Add(r3.Scale(r3.Norm2(ab), r3.Cross(ac, n)),
			r3.Scale(r3.Norm2(ac), r3.Cross(n, ab)))))
	radius := math.Max(r3.Norm(r3.Sub(t.A, center)),
		math.Max(r3.Norm(r3.Sub(t.B, center)), r3.Norm(r3.Sub(t.C, center))))
	return Sphere{Center: center, Radius: radius}, nil
}

func midpoint(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}

// ClosestPointOnTriangle returns the point of the triangle nearest to p,
// using the Voronoi-region walk over vertex, edge and face regions.
func ClosestPointOnTriangle(p r3.Vec, t Triangle) r3.Vec {
	ab := r3.Sub(t.B, t.A)
	ac := r3.Sub(t.C, t.A)

	ap := r3.Sub(p, t.A)
	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return t.A
	}

	bp := r3.Sub(p, t.B)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return t.B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(t.A, r3.Scale(v, ab))
	}

	cp := r3.Sub(p, t.C)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return t.C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(t.A, r3.Scale(w, ac))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(t.B, r3.Scale(w, r3.Sub(t.C, t.B)))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return r3.Add(r3.Add(t.A, r3.Scale(v, ab)), r3.Scale(w, ac))
}

// ProjectPointToTriangle projects p onto the triangle treated as a slab of
// half-extent thickness along its normal: the closest point on the bare
// triangle, shifted along the normal toward p by at most thickness. With
// thickness = 0 this is exactly the closest point on the triangle.
func ProjectPointToTriangle(p r3.Vec, t Triangle, thickness float64) r3.Vec {
	q := ClosestPointOnTriangle(p, t)
	if thickness <= 0 {
		return q
	}
	n := r3.Cross(r3.Sub(t.B, t.A), r3.Sub(t.C, t.A))
	if r3.Norm2(n) == 0 {
		return q
	}
	off := r3.Dot(r3.Sub(p, q), r3.Unit(n))
	if off > thickness {
		off = thickness
	} else if off < -thickness {
		off = -thickness
	}
	return r3.Add(q, r3.Scale(off, r3.Unit(n)))
}

package projtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshband/surfproj/internal/geom"
)

// Nearest returns the closest point on the indexed surface to p, and its
// distance. queryRadius must be an upper bound on the true nearest-surface
// distance; a smaller value can prune the subtree holding the true nearest
// point and yield a non-global result. Use math.Inf(1) when correctness
// matters more than speed.
//
// An empty tree returns a zero point and +Inf; callers should keep the
// original point in that case.
func (t *Tree) Nearest(p r3.Vec, queryRadius float64) (r3.Vec, float64) {
	return t.nearest(p, queryRadius, t.root)
}

func (t *Tree) nearest(p r3.Vec, queryRadius float64, n treeNode) (r3.Vec, float64) {
	switch nd := n.(type) {
	case *leafNode:
		best := r3.Vec{}
		bestDist := math.Inf(1)
		for _, ti := range nd.bucket {
			q := geom.ProjectPointToTriangle(p, t.tris[ti], t.cfg.Thickness)
			if d := r3.Norm(r3.Sub(p, q)); d < bestDist {
				best, bestDist = q, d
			}
		}
		return best, bestDist

	case *partitionNode:
		d := r3.Norm(r3.Sub(p, nd.center))
		switch {
		case d > nd.radius+queryRadius:
			// Query sphere entirely clear of the partition sphere.
			return t.nearest(p, queryRadius, nd.outside)
		case d <= nd.radius-queryRadius:
			// Query sphere entirely within the partition sphere.
			return t.nearest(p, queryRadius, nd.inside)
		default:
			// The spheres' boundaries overlap: the nearest point may sit on
			// either side. Ties go to the inside branch.
			qi, di := t.nearest(p, queryRadius, nd.inside)
			qo, do := t.nearest(p, queryRadius, nd.outside)
			if di <= do {
				return qi, di
			}
			return qo, do
		}
	}
	return r3.Vec{}, math.Inf(1)
}

// Package projtree indexes a triangulated boundary surface for fast
// nearest-surface-point queries. The tree is a randomized metric tree over
// per-triangle bounding spheres: each internal node carries a partition
// sphere, with triangles whose bounding spheres straddle the partition
// boundary assigned to both children.
//
// A tree is built once from a fixed triangle set and is immutable afterward;
// concurrent read-only queries are safe without locking.
package projtree

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshband/surfproj/internal/geom"
)

// ErrInvalidConfig is returned for malformed construction or projection
// input: negative thickness, out-of-range face indices, or mismatched batch
// lengths.
var ErrInvalidConfig = errors.New("projtree: invalid configuration")

// Config holds the scalar construction parameters.
type Config struct {
	// AlphaStd is the alpha-shape parameter of the upstream border
	// extraction. The tree does not use it; it is carried so that run
	// metadata stays complete.
	AlphaStd float64

	// Thickness is a non-negative margin added to every triangle's bounding
	// sphere radius and forwarded to the point-to-triangle projection.
	Thickness float64
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.Thickness < 0 {
		return fmt.Errorf("%w: thickness %v is negative", ErrInvalidConfig, c.Thickness)
	}
	return nil
}

// Tree is an immutable spatial index over a triangle set. The zero value is
// not usable; construct with New or NewFromTriangles.
type Tree struct {
	cfg  Config
	tris []geom.Triangle // flat arena; nodes hold indices into it
	root treeNode        // nil means an empty triangle set
}

// The node variants. A nil treeNode is the empty tree.
type treeNode interface{ isTreeNode() }

// partitionNode splits its subtree's triangles by a partition sphere.
// Every triangle below appears in at least one of inside/outside; a
// straddling triangle appears in both.
type partitionNode struct {
	center          r3.Vec
	radius          float64
	inside, outside treeNode
}

// leafNode is a terminal bucket of arena indices, produced either for a
// single triangle or when partitioning made no progress.
type leafNode struct {
	bucket []int
}

func (*partitionNode) isTreeNode() {}
func (*leafNode) isTreeNode()      {}

// New builds a tree from border points and triangular faces given as index
// triples into points, the construction input produced by the upstream
// alpha-shape border extraction.
//
// rng drives the randomized partition-center choice; passing a seeded source
// makes builds reproducible. A nil rng gets a time-seeded one.
func New(points []r3.Vec, faces [][3]int, cfg Config, rng *rand.Rand) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tris := make([]geom.Triangle, len(faces))
	for i, f := range faces {
		for _, v := range f {
			if v < 0 || v >= len(points) {
				return nil, fmt.Errorf("%w: face %d references vertex %d of %d", ErrInvalidConfig, i, v, len(points))
			}
		}
		tris[i] = geom.Triangle{A: points[f[0]], B: points[f[1]], C: points[f[2]]}
	}
	return NewFromTriangles(tris, cfg, rng)
}

// NewFromTriangles builds a tree directly from a triangle list.
func NewFromTriangles(tris []geom.Triangle, cfg Config, rng *rand.Rand) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	t := &Tree{cfg: cfg, tris: append([]geom.Triangle(nil), tris...)}

	b := builder{
		centers: make([]r3.Vec, len(tris)),
		radii:   make([]float64, len(tris)),
		rng:     rng,
	}
	for i, tri := range t.tris {
		s, err := geom.BoundingSphere(tri)
		if err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, err)
		}
		b.centers[i] = s.Center
		b.radii[i] = s.Radius + cfg.Thickness
	}

	idx := make([]int, len(tris))
	for i := range idx {
		idx[i] = i
	}
	t.root = b.build(idx)
	return t, nil
}

// builder carries the per-triangle bounding sphere data (margin-inflated
// radii) through the recursive construction.
type builder struct {
	centers []r3.Vec
	radii   []float64
	rng     *rand.Rand
}

// build recursively partitions the arena indices in idx.
func (b *builder) build(idx []int) treeNode {
	if len(idx) == 0 {
		return nil
	}
	if len(idx) == 1 {
		return &leafNode{bucket: idx}
	}

	// Partition around the bounding-sphere center of a random triangle.
	pc := b.centers[idx[b.rng.Intn(len(idx))]]

	// reach is the distance from the partition center to the farthest point
	// of each triangle's bounding sphere.
	centerDist := make([]float64, len(idx))
	reach := make([]float64, len(idx))
	for k, i := range idx {
		centerDist[k] = r3.Norm(r3.Sub(b.centers[i], pc))
		reach[k] = centerDist[k] + b.radii[i]
	}

	// Order positions by reach, descending, so the median reach splits the
	// set into an outside-candidate half and an inside-candidate half of
	// floor(n/2) and ceil(n/2). Equal reaches sort toward the inside half.
	order := make([]int, len(idx))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(x, y int) bool { return reach[order[x]] > reach[order[y]] })

	mid := len(idx) / 2
	partitionRadius := reach[order[mid]]

	inside := make([]int, 0, len(idx)-mid)
	outside := make([]int, 0, mid)
	for _, k := range order[mid:] {
		inside = append(inside, idx[k])
	}
	for _, k := range order[:mid] {
		outside = append(outside, idx[k])
		// An outside candidate whose nearest sphere point is still within
		// the partition sphere straddles the boundary: it belongs to both
		// children.
		if centerDist[k]-b.radii[idx[k]] <= partitionRadius {
			inside = append(inside, idx[k])
		}
	}

	if len(inside) == len(idx) {
		// The partition separated nothing (the spheres cluster around the
		// partition center). Stop here rather than recursing forever.
		return &leafNode{bucket: idx}
	}

	return &partitionNode{
		center:  pc,
		radius:  partitionRadius,
		inside:  b.build(inside),
		outside: b.build(outside),
	}
}

// Len returns the number of indexed triangles.
func (t *Tree) Len() int { return len(t.tris) }

// Thickness returns the margin the tree was built with.
func (t *Tree) Thickness() float64 { return t.cfg.Thickness }

// Stats describes the shape of a built tree.
type Stats struct {
	Triangles     int // input triangles
	Partitions    int // internal nodes
	Leaves        int
	MaxDepth      int
	LargestBucket int
	BucketEntries int // leaf entries including dual membership
}

// Stats walks the tree and reports its shape. Useful for tuning and
// diagnostics; queries do not use it.
func (t *Tree) Stats() Stats {
	s := Stats{Triangles: len(t.tris)}
	var walk func(n treeNode, depth int)
	walk = func(n treeNode, depth int) {
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		switch nd := n.(type) {
		case *leafNode:
			s.Leaves++
			s.BucketEntries += len(nd.bucket)
			if len(nd.bucket) > s.LargestBucket {
				s.LargestBucket = len(nd.bucket)
			}
		case *partitionNode:
			s.Partitions++
			walk(nd.inside, depth+1)
			walk(nd.outside, depth+1)
		}
	}
	walk(t.root, 0)
	return s
}

// walkLeaves calls fn for every leaf bucket.
func (t *Tree) walkLeaves(fn func(bucket []int)) {
	var walk func(n treeNode)
	walk = func(n treeNode) {
		switch nd := n.(type) {
		case *leafNode:
			fn(nd.bucket)
		case *partitionNode:
			walk(nd.inside)
			walk(nd.outside)
		}
	}
	walk(t.root)
}

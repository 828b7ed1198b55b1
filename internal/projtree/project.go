package projtree

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Project maps each perturbed point to the nearest point on the indexed
// surface, using the magnitude of the point's own perturbation vector as the
// query radius. Output order matches input order. Points and perturbs are
// paired by position and must have the same length.
//
// The perturbation magnitude is a heuristic bound, not a proven one; see
// ProjectWithRadius for an explicit bound when a global nearest result is
// required.
func (t *Tree) Project(points, perturbs []r3.Vec) ([]r3.Vec, error) {
	if len(points) != len(perturbs) {
		return nil, fmt.Errorf("%w: %d points but %d perturbation vectors", ErrInvalidConfig, len(points), len(perturbs))
	}
	out := make([]r3.Vec, len(points))
	for i := range points {
		out[i] = t.projectOne(points[i], r3.Norm(perturbs[i]))
	}
	return out, nil
}

// ProjectWithRadius projects every point with the same caller-chosen query
// radius. Pass math.Inf(1) for an exhaustive, guaranteed-global search.
func (t *Tree) ProjectWithRadius(points []r3.Vec, queryRadius float64) []r3.Vec {
	out := make([]r3.Vec, len(points))
	for i := range points {
		out[i] = t.projectOne(points[i], queryRadius)
	}
	return out
}

// ProjectParallel is Project fanned out over a fixed pool of workers, each
// writing results back at the original indices. Per-point queries share no
// mutable state, so results are identical to the serial driver. workers <= 0
// uses GOMAXPROCS.
func (t *Tree) ProjectParallel(points, perturbs []r3.Vec, workers int) ([]r3.Vec, error) {
	if len(points) != len(perturbs) {
		return nil, fmt.Errorf("%w: %d points but %d perturbation vectors", ErrInvalidConfig, len(points), len(perturbs))
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]r3.Vec, len(points))
	chunk := (len(points) + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < len(points); lo += chunk {
		hi := lo + chunk
		if hi > len(points) {
			hi = len(points)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				out[i] = t.projectOne(points[i], r3.Norm(perturbs[i]))
			}
		}(lo, hi)
	}
	wg.Wait()
	return out, nil
}

// projectOne keeps the original point when the tree is empty (no surface to
// project onto).
func (t *Tree) projectOne(p r3.Vec, queryRadius float64) r3.Vec {
	q, d := t.Nearest(p, queryRadius)
	if math.IsInf(d, 1) {
		return p
	}
	return q
}

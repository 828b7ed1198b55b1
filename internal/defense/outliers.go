// Package defense implements the model-free point-cloud defense pass that
// runs before surface projection: statistical outlier removal. Each point is
// scored by the mean distance to its k nearest neighbours; points whose score
// exceeds mean + numStd·std of all scores are snapped onto the first
// surviving point, keeping the cloud size fixed.
//
// The gradient-guided salient-point defense needs a classifier and is out of
// scope here.
package defense

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/meshband/surfproj/internal/projtree"
)

// RemoveOutliers returns a copy of points with outliers replaced, plus the
// number of points that were replaced. topK must be in [1, len(points)) and
// numStd non-negative.
func RemoveOutliers(points []r3.Vec, topK int, numStd float64) ([]r3.Vec, int, error) {
	if topK < 1 || topK >= len(points) {
		return nil, 0, fmt.Errorf("%w: topK %d outside [1, %d)", projtree.ErrInvalidConfig, topK, len(points))
	}
	if numStd < 0 {
		return nil, 0, fmt.Errorf("%w: numStd %v is negative", projtree.ErrInvalidConfig, numStd)
	}

	n := len(points)
	scores := make([]float64, n)
	row := make([]float64, 0, n-1)
	for i, p := range points {
		row = row[:0]
		for j, q := range points {
			if i == j {
				continue
			}
			row = append(row, r3.Norm(r3.Sub(p, q)))
		}
		sort.Float64s(row)
		scores[i] = stat.Mean(row[:topK], nil)
	}

	threshold := stat.Mean(scores, nil) + numStd*stat.PopStdDev(scores, nil)

	// Snap target: the first inlier (or point 0 when everything scored as an
	// outlier).
	anchor := 0
	for i, s := range scores {
		if s <= threshold {
			anchor = i
			break
		}
	}

	out := append([]r3.Vec(nil), points...)
	replaced := 0
	for i, s := range scores {
		if s > threshold {
			out[i] = points[anchor]
			replaced++
		}
	}
	return out, replaced, nil
}

package defense

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshband/surfproj/internal/projtree"
)

func TestRemoveOutliers(t *testing.T) {
	// A tight cluster plus one point far away: only the far point should be
	// replaced, and it should be snapped onto a surviving cluster point.
	rng := rand.New(rand.NewSource(1))
	var points []r3.Vec
	for i := 0; i < 40; i++ {
		points = append(points, r3.Vec{
			X: rng.NormFloat64() * 0.1,
			Y: rng.NormFloat64() * 0.1,
			Z: rng.NormFloat64() * 0.1,
		})
	}
	points = append(points, r3.Vec{X: 50, Y: 50, Z: 50})

	got, replaced, err := RemoveOutliers(points, 5, 2.0)
	if err != nil {
		t.Fatalf("RemoveOutliers: %v", err)
	}
	if replaced != 1 {
		t.Errorf("replaced = %d, want 1", replaced)
	}
	if len(got) != len(points) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(points))
	}
	if got[40] == points[40] {
		t.Error("outlier survived the filter")
	}
	if got[40] != points[0] {
		t.Errorf("outlier snapped to %v, want first inlier %v", got[40], points[0])
	}
	for i := 0; i < 40; i++ {
		if got[i] != points[i] {
			t.Errorf("inlier %d moved from %v to %v", i, points[i], got[i])
		}
	}
}

func TestRemoveOutliers_NoOutliers(t *testing.T) {
	points := []r3.Vec{{X: 0}, {X: 1}, {X: 2}, {X: 3}}
	got, replaced, err := RemoveOutliers(points, 2, 3.0)
	if err != nil {
		t.Fatalf("RemoveOutliers: %v", err)
	}
	if replaced != 0 {
		t.Errorf("replaced = %d, want 0", replaced)
	}
	for i := range points {
		if got[i] != points[i] {
			t.Errorf("point %d moved without being an outlier", i)
		}
	}
}

func TestRemoveOutliers_Validation(t *testing.T) {
	points := []r3.Vec{{}, {X: 1}, {X: 2}}
	if _, _, err := RemoveOutliers(points, 0, 1); !errors.Is(err, projtree.ErrInvalidConfig) {
		t.Errorf("topK=0 error = %v, want ErrInvalidConfig", err)
	}
	if _, _, err := RemoveOutliers(points, 3, 1); !errors.Is(err, projtree.ErrInvalidConfig) {
		t.Errorf("topK=len error = %v, want ErrInvalidConfig", err)
	}
	if _, _, err := RemoveOutliers(points, 1, -0.5); !errors.Is(err, projtree.ErrInvalidConfig) {
		t.Errorf("negative numStd error = %v, want ErrInvalidConfig", err)
	}
}

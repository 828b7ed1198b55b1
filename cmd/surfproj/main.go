// Package main provides the surface projection tool. It loads a triangulated
// boundary surface (OFF) and a perturbed point cloud (XYZ), builds the
// projection tree, and writes the cloud projected back onto the surface,
// optionally recording the run to sqlite and emitting an HTML report.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshband/surfproj/internal/cloud"
	"github.com/meshband/surfproj/internal/defense"
	"github.com/meshband/surfproj/internal/monitoring"
	"github.com/meshband/surfproj/internal/params"
	"github.com/meshband/surfproj/internal/projtree"
	"github.com/meshband/surfproj/internal/report"
	"github.com/meshband/surfproj/internal/runstore"
)

// Config holds the tool configuration.
type Config struct {
	MeshFile     string
	PointsFile   string
	OriginalFile string
	PerturbFile  string
	OutFile      string
	DBFile       string
	ReportFile   string
	ParamsFile   string

	AlphaStd  float64
	Thickness float64
	Radius    float64
	Seed      int64
	Workers   int

	RemoveOutliers bool
	OutlierTopK    int
	OutlierNumStd  float64

	Verbose bool
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.MeshFile, "mesh", "", "boundary surface mesh (OFF, required)")
	flag.StringVar(&cfg.PointsFile, "points", "", "perturbed point cloud (XYZ, required)")
	flag.StringVar(&cfg.OriginalFile, "original", "", "unperturbed cloud (XYZ); perturbation vectors are points minus original")
	flag.StringVar(&cfg.PerturbFile, "perturb", "", "explicit perturbation vectors (XYZ)")
	flag.StringVar(&cfg.OutFile, "out", "", "projected cloud output (XYZ); default stdout")
	flag.StringVar(&cfg.DBFile, "db", "", "sqlite database to record the run in")
	flag.StringVar(&cfg.ReportFile, "report", "", "HTML report output path")
	flag.StringVar(&cfg.ParamsFile, "params", "", "JSON parameter file; present fields override flags")
	flag.Float64Var(&cfg.AlphaStd, "alpha-std", 0, "alpha-shape parameter of the upstream border extraction (recorded only)")
	flag.Float64Var(&cfg.Thickness, "thickness", 0, "bounding sphere margin added at construction")
	flag.Float64Var(&cfg.Radius, "radius", math.Inf(1), "fixed query radius when no perturbation vectors are given")
	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed for tree construction (0 = time-based)")
	flag.IntVar(&cfg.Workers, "workers", 0, "projection worker count (0 = GOMAXPROCS)")
	flag.BoolVar(&cfg.RemoveOutliers, "remove-outliers", false, "run statistical outlier removal before projecting")
	flag.IntVar(&cfg.OutlierTopK, "outlier-top-k", 10, "neighbours per point for outlier scoring")
	flag.Float64Var(&cfg.OutlierNumStd, "outlier-num-std", 1.0, "std-dev multiplier for the outlier threshold")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable debug logging")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if cfg.MeshFile == "" || cfg.PointsFile == "" {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.Verbose {
		monitoring.EnableDebug(true)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("surfproj: %v", err)
	}
}

// applyParams folds a parameter file's present fields over the flag values.
func applyParams(cfg *Config, f *params.File) {
	if f.AlphaStd != nil {
		cfg.AlphaStd = *f.AlphaStd
	}
	if f.Thickness != nil {
		cfg.Thickness = *f.Thickness
	}
	if f.Seed != nil {
		cfg.Seed = *f.Seed
	}
	if f.Workers != nil {
		cfg.Workers = *f.Workers
	}
	if f.RemoveOutliers != nil {
		cfg.RemoveOutliers = *f.RemoveOutliers
	}
	if f.OutlierTopK != nil {
		cfg.OutlierTopK = *f.OutlierTopK
	}
	if f.OutlierNumStd != nil {
		cfg.OutlierNumStd = *f.OutlierNumStd
	}
}

func run(cfg Config) error {
	if cfg.ParamsFile != "" {
		f, err := params.Load(cfg.ParamsFile)
		if err != nil {
			return err
		}
		applyParams(&cfg, f)
	}

	borderPoints, faces, err := cloud.ReadOFFFile(cfg.MeshFile)
	if err != nil {
		return fmt.Errorf("reading mesh: %w", err)
	}
	points, err := cloud.ReadXYZFile(cfg.PointsFile)
	if err != nil {
		return fmt.Errorf("reading points: %w", err)
	}
	monitoring.Logf("loaded %d border points, %d triangles, %d cloud points",
		len(borderPoints), len(faces), len(points))

	if cfg.RemoveOutliers {
		cleaned, replaced, err := defense.RemoveOutliers(points, cfg.OutlierTopK, cfg.OutlierNumStd)
		if err != nil {
			return err
		}
		monitoring.Logf("outlier removal replaced %d of %d points", replaced, len(points))
		points = cleaned
	}

	perturbs, err := loadPerturbations(cfg, points)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	buildStart := time.Now()
	tree, err := projtree.New(borderPoints, faces, projtree.Config{
		AlphaStd:  cfg.AlphaStd,
		Thickness: cfg.Thickness,
	}, rng)
	if err != nil {
		return fmt.Errorf("building tree: %w", err)
	}
	st := tree.Stats()
	monitoring.Debugf("tree built in %v: %d partitions, %d leaves, depth %d, largest bucket %d",
		time.Since(buildStart), st.Partitions, st.Leaves, st.MaxDepth, st.LargestBucket)

	projStart := time.Now()
	var projected []r3.Vec
	if perturbs != nil {
		projected, err = tree.ProjectParallel(points, perturbs, cfg.Workers)
		if err != nil {
			return err
		}
	} else {
		projected = tree.ProjectWithRadius(points, cfg.Radius)
	}
	duration := time.Since(projStart)

	dists := make([]float64, len(points))
	for i := range points {
		dists[i] = r3.Norm(r3.Sub(points[i], projected[i]))
	}
	summary := report.Summarize(dists)
	monitoring.Logf("projected %d points in %v (mean dist %.4g, p95 %.4g, max %.4g)",
		len(points), duration, summary.Mean, summary.P95, summary.Max)

	if cfg.OutFile != "" {
		if err := cloud.WriteXYZFile(cfg.OutFile, projected); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	} else if err := cloud.WriteXYZ(os.Stdout, projected); err != nil {
		return err
	}

	if cfg.DBFile != "" {
		if err := recordRun(cfg, seed, tree.Len(), len(points), summary, duration); err != nil {
			return err
		}
	}

	if cfg.ReportFile != "" {
		f, err := os.Create(cfg.ReportFile)
		if err != nil {
			return err
		}
		if err := report.Render(f, "Surface projection distances", dists); err != nil {
			f.Close()
			return fmt.Errorf("rendering report: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// loadPerturbations resolves the per-point perturbation vectors: an explicit
// vector file wins, otherwise they are derived from the original cloud. A nil
// return means the fixed -radius should be used instead.
func loadPerturbations(cfg Config, points []r3.Vec) ([]r3.Vec, error) {
	switch {
	case cfg.PerturbFile != "":
		perturbs, err := cloud.ReadXYZFile(cfg.PerturbFile)
		if err != nil {
			return nil, fmt.Errorf("reading perturbation vectors: %w", err)
		}
		if len(perturbs) != len(points) {
			return nil, errors.New("perturbation vector count does not match point count")
		}
		return perturbs, nil
	case cfg.OriginalFile != "":
		original, err := cloud.ReadXYZFile(cfg.OriginalFile)
		if err != nil {
			return nil, fmt.Errorf("reading original cloud: %w", err)
		}
		if len(original) != len(points) {
			return nil, errors.New("original cloud point count does not match perturbed count")
		}
		perturbs := make([]r3.Vec, len(points))
		for i := range points {
			perturbs[i] = r3.Sub(points[i], original[i])
		}
		return perturbs, nil
	default:
		return nil, nil
	}
}

func recordRun(cfg Config, seed int64, numTriangles, numPoints int, s report.Summary, d time.Duration) error {
	store, err := runstore.Open(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer store.Close()

	run := runstore.Run{
		MeshPath:     cfg.MeshFile,
		CloudPath:    cfg.PointsFile,
		NumPoints:    numPoints,
		NumTriangles: numTriangles,
		AlphaStd:     cfg.AlphaStd,
		Thickness:    cfg.Thickness,
		Seed:         seed,
		MeanDist:     s.Mean,
		MaxDist:      s.Max,
		P95Dist:      s.P95,
		DurationMs:   d.Milliseconds(),
	}
	if err := store.Insert(&run); err != nil {
		return err
	}
	monitoring.Logf("recorded run %s", run.ID)
	return nil
}

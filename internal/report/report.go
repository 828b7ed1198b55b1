// Package report renders an HTML summary of a projection batch: distance
// percentiles plus a histogram of how far each perturbed point moved to reach
// the surface.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
)

// histogramBins is the fixed bucket count for the distance histogram.
const histogramBins = 30

// Summary holds the distance statistics of one projection batch.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Median float64
	P95    float64
}

// Summarize computes distance statistics. An empty input yields a zero
// Summary.
func Summarize(dists []float64) Summary {
	if len(dists) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), dists...)
	sort.Float64s(sorted)
	return Summary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Std:    stat.PopStdDev(sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}

// Render writes the HTML report to w.
func Render(w io.Writer, title string, dists []float64) error {
	s := Summarize(dists)
	labels, counts := histogram(dists, histogramBins)

	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		data[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Subtitle: fmt.Sprintf("points=%d mean=%.4g std=%.4g median=%.4g p95=%.4g max=%.4g",
				s.Count, s.Mean, s.Std, s.Median, s.P95, s.Max),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "projection distance"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "points"}),
	)
	bar.SetXAxis(labels).AddSeries("points", data)
	return bar.Render(w)
}

// histogram buckets dists into bins equal-width buckets over [0, max].
func histogram(dists []float64, bins int) (labels []string, counts []int) {
	labels = make([]string, bins)
	counts = make([]int, bins)

	max := 0.0
	for _, d := range dists {
		if d > max && !math.IsInf(d, 1) {
			max = d
		}
	}
	if max == 0 {
		max = 1
	}
	width := max / float64(bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.3g", width*float64(i+1))
	}
	for _, d := range dists {
		if math.IsInf(d, 1) {
			continue
		}
		b := int(d / width)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}
	return labels, counts
}

// Package cloud reads and writes the file formats the projection tools work
// with: ASCII XYZ point clouds and OFF triangle meshes. The OFF surface
// (vertex list plus triangular faces as index triples) is exactly the
// construction input the tree expects from the upstream border extraction.
package cloud

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReadXYZ parses whitespace-separated "x y z" lines. Blank lines and lines
// starting with '#' are skipped.
func ReadXYZ(r io.Reader) ([]r3.Vec, error) {
	var points []r3.Vec
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		f, skip := fields(sc.Text())
		if skip {
			continue
		}
		if len(f) < 3 {
			return nil, fmt.Errorf("cloud: line %d: expected 3 coordinates, got %d", line, len(f))
		}
		var coords [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(f[i], 64)
			if err != nil {
				return nil, fmt.Errorf("cloud: line %d: %w", line, err)
			}
			coords[i] = v
		}
		points = append(points, r3.Vec{X: coords[0], Y: coords[1], Z: coords[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cloud: %w", err)
	}
	return points, nil
}

// ReadXYZFile reads an XYZ point cloud from disk.
func ReadXYZFile(path string) ([]r3.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadXYZ(f)
}

// WriteXYZ writes one "x y z" line per point.
func WriteXYZ(w io.Writer, points []r3.Vec) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		if _, err := fmt.Fprintf(bw, "%g %g %g\n", p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteXYZFile writes an XYZ point cloud to disk.
func WriteXYZFile(path string, points []r3.Vec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteXYZ(f, points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadOFF parses an ASCII OFF mesh: the "OFF" magic, a "nv nf ne" count
// line, nv vertex lines and nf face lines. Only triangular faces are
// accepted.
func ReadOFF(r io.Reader) (points []r3.Vec, faces [][3]int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0

	next := func() ([]string, error) {
		for sc.Scan() {
			line++
			if f, skip := fields(sc.Text()); !skip {
				return f, nil
			}
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}

	magic, err := next()
	if err != nil {
		return nil, nil, fmt.Errorf("cloud: reading OFF header: %w", err)
	}
	if len(magic) != 1 || magic[0] != "OFF" {
		return nil, nil, fmt.Errorf("cloud: line %d: not an OFF file", line)
	}

	counts, err := next()
	if err != nil {
		return nil, nil, fmt.Errorf("cloud: reading OFF counts: %w", err)
	}
	if len(counts) < 2 {
		return nil, nil, fmt.Errorf("cloud: line %d: malformed count line", line)
	}
	nv, err := strconv.Atoi(counts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("cloud: line %d: %w", line, err)
	}
	nf, err := strconv.Atoi(counts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("cloud: line %d: %w", line, err)
	}

	points = make([]r3.Vec, 0, nv)
	for i := 0; i < nv; i++ {
		f, err := next()
		if err != nil {
			return nil, nil, fmt.Errorf("cloud: vertex %d: %w", i, err)
		}
		if len(f) < 3 {
			return nil, nil, fmt.Errorf("cloud: line %d: expected 3 coordinates, got %d", line, len(f))
		}
		var coords [3]float64
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(f[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("cloud: line %d: %w", line, err)
			}
			coords[j] = v
		}
		points = append(points, r3.Vec{X: coords[0], Y: coords[1], Z: coords[2]})
	}

	faces = make([][3]int, 0, nf)
	for i := 0; i < nf; i++ {
		f, err := next()
		if err != nil {
			return nil, nil, fmt.Errorf("cloud: face %d: %w", i, err)
		}
		n, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, nil, fmt.Errorf("cloud: line %d: %w", line, err)
		}
		if n != 3 || len(f) < 4 {
			return nil, nil, fmt.Errorf("cloud: line %d: only triangular faces are supported", line)
		}
		var tri [3]int
		for j := 0; j < 3; j++ {
			v, err := strconv.Atoi(f[j+1])
			if err != nil {
				return nil, nil, fmt.Errorf("cloud: line %d: %w", line, err)
			}
			if v < 0 || v >= nv {
				return nil, nil, fmt.Errorf("cloud: line %d: vertex index %d out of range [0,%d)", line, v, nv)
			}
			tri[j] = v
		}
		faces = append(faces, tri)
	}
	return points, faces, nil
}

// ReadOFFFile reads an OFF mesh from disk.
func ReadOFFFile(path string) ([]r3.Vec, [][3]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadOFF(f)
}

// fields splits a data line, reporting skip for blanks and comments.
func fields(s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return nil, true
	}
	return strings.Fields(s), false
}

// Package params loads projection parameters from a JSON file. Fields are
// pointers so that a file only overrides what it mentions; flags keep their
// values for everything else. The same schema is recorded alongside runs,
// keeping parameter sweeps reproducible from their files alone.
package params

import (
	"encoding/json"
	"fmt"
	"os"
)

// File is the on-disk parameter schema.
type File struct {
	AlphaStd  *float64 `json:"alpha_std,omitempty"`
	Thickness *float64 `json:"thickness,omitempty"`
	Seed      *int64   `json:"seed,omitempty"`
	Workers   *int     `json:"workers,omitempty"`

	RemoveOutliers *bool    `json:"remove_outliers,omitempty"`
	OutlierTopK    *int     `json:"outlier_top_k,omitempty"`
	OutlierNumStd  *float64 `json:"outlier_num_std,omitempty"`
}

// Load reads and validates a parameter file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params: reading %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("params: parsing %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("params: %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks ranges for every field that is present.
func (f *File) Validate() error {
	if f.Thickness != nil && *f.Thickness < 0 {
		return fmt.Errorf("thickness %v is negative", *f.Thickness)
	}
	if f.OutlierTopK != nil && *f.OutlierTopK < 1 {
		return fmt.Errorf("outlier_top_k %d must be at least 1", *f.OutlierTopK)
	}
	if f.OutlierNumStd != nil && *f.OutlierNumStd < 0 {
		return fmt.Errorf("outlier_num_std %v is negative", *f.OutlierNumStd)
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by TestConfiguration.Validate.
var ErrInvalidConfig = errors.New("invalid testing configuration")

// CompactionMethod selects the field density test. The two methods are mutually exclusive.
type CompactionMethod string

const (
	CompactionSand    CompactionMethod = "sand"
	CompactionNuclear CompactionMethod = "nuclear"
)

// TestConfiguration project-scoped parameters for requirement derivation.
// Frequencies are tests per 1000 m².
type TestConfiguration struct {
	CompactionMethod    CompactionMethod `json:"compactionMethod" yaml:"compaction_method"`
	SandReplacementFreq float64          `json:"sandReplacementFreq" yaml:"sand_replacement_freq"`
	NuclearFreq         float64          `json:"nuclearFreq" yaml:"nuclear_freq"`
	MinTestsPerLine     int              `json:"minTestsPerLine" yaml:"min_tests_per_line"`

	// UCS testing for stabilised material
	IncludeUCS        bool    `json:"includeUCS" yaml:"include_ucs"`
	UCSFreq           float64 `json:"ucsFreq" yaml:"ucs_freq"`
	UCS28DayFreq      float64 `json:"ucs28DayFreq" yaml:"ucs_28day_freq"`
	UCS28DayThreshold float64 `json:"ucs28DayThreshold" yaml:"ucs_28day_threshold"` // m², strict >

	IncludeMaterialTesting bool `json:"includeMaterialTesting" yaml:"include_material_testing"` // one per line

	MinAreaForTesting float64 `json:"minAreaForTesting" yaml:"min_area_for_testing"` // m²
}

// DefaultTestConfiguration nuclear densometer at 2/1000 m², min 2 per line, UCS and material testing off.
func DefaultTestConfiguration() TestConfiguration {
	return TestConfiguration{
		CompactionMethod:       CompactionNuclear,
		SandReplacementFreq:    1,
		NuclearFreq:            2,
		MinTestsPerLine:        2,
		IncludeUCS:             false,
		UCSFreq:                0.5,
		UCS28DayFreq:           0.2,
		UCS28DayThreshold:      5000,
		IncludeMaterialTesting: false,
		MinAreaForTesting:      100,
	}
}

// Validate rejects unknown compaction methods and negative parameters.
func (c TestConfiguration) Validate() error {
	if c.CompactionMethod != CompactionSand && c.CompactionMethod != CompactionNuclear {
		return fmt.Errorf("%w: unknown compaction method %q", ErrInvalidConfig, c.CompactionMethod)
	}
	checks := []struct {
		name string
		v    float64
	}{
		{"sandReplacementFreq", c.SandReplacementFreq},
		{"nuclearFreq", c.NuclearFreq},
		{"minTestsPerLine", float64(c.MinTestsPerLine)},
		{"ucsFreq", c.UCSFreq},
		{"ucs28DayFreq", c.UCS28DayFreq},
		{"ucs28DayThreshold", c.UCS28DayThreshold},
		{"minAreaForTesting", c.MinAreaForTesting},
	}
	for _, ch := range checks {
		if ch.v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, ch.name)
		}
	}
	return nil
}

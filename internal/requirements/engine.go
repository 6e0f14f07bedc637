// Package requirements derives MRTS testing requirements for Form 4 lines
// and keeps their progress counters consistent.
package requirements

import (
	"math"
	"strings"
	"time"

	"form4qa/internal/classifier"
	"form4qa/internal/domain"

	"github.com/google/uuid"
)

// test names double as the key for carrying progress across regeneration
const (
	SandReplacementTest = "Sand Replacement Test (MRTS04)"
	NuclearDensityTest  = "Nuclear Densometer Test (MRTS04)"
	UCS7DayTest         = "UCS Testing 7-day (MRTS07a)"
	UCS28DayTest        = "UCS Testing 28-day (MRTS07a)"
	MaterialTest        = "Material Testing (MRTS05)"
)

// LineInput the treatment geometry a derivation needs.
type LineInput struct {
	Description string
	Quantity    float64
	Unit        string
	Area        float64
	LineNo      int
}

// Engine derives requirements. ids and timestamps come from injectable functions.
type Engine struct {
	newID func() string
	now   func() time.Time
}

// NewEngine uses uuid v4 ids and the wall clock.
func NewEngine() *Engine {
	return &Engine{
		newID: func() string { return uuid.New().String() },
		now:   time.Now,
	}
}

// NewEngineWith allows tests to fix ids and time.
func NewEngineWith(newID func() string, now func() time.Time) *Engine {
	return &Engine{newID: newID, now: now}
}

// EffectiveArea returns the area used for sizing tests, and false when none can be computed.
func EffectiveArea(quantity float64, unit string, area float64) (float64, bool) {
	if IsAreaUnit(unit) {
		return quantity, true
	}
	if area > 0 {
		return area, true
	}
	return 0, false
}

// IsAreaUnit reports whether unit is square metres.
func IsAreaUnit(unit string) bool {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "m2", "m²", "sqm", "sq m":
		return true
	}
	return false
}

// Derive returns the ordered requirements for one line. Lines that cannot be
// sized, are not pavement work or fall under the minimum area get none.
func (e *Engine) Derive(in LineInput, cfg domain.TestConfiguration) []domain.TestingRequirement {
	area, ok := EffectiveArea(in.Quantity, in.Unit, in.Area)
	if !ok {
		return nil
	}
	if !classifier.IsPavementWork(in.Description) || area < cfg.MinAreaForTesting {
		return nil
	}

	var tests []domain.TestingRequirement

	// one compaction method, never both
	if cfg.CompactionMethod == domain.CompactionSand {
		tests = append(tests, domain.TestingRequirement{
			TestName:    SandReplacementTest,
			Frequency:   max(cfg.MinTestsPerLine, perThousand(area, cfg.SandReplacementFreq)),
			Description: "Field density testing of compacted pavement layers",
			Standard:    "MRTS04",
			TargetValue: "≥100% SMDD",
			Priority:    domain.PriorityHigh,
			Method:      "Sand Replacement",
		})
	} else {
		tests = append(tests, domain.TestingRequirement{
			TestName:    NuclearDensityTest,
			Frequency:   max(cfg.MinTestsPerLine, perThousand(area, cfg.NuclearFreq)),
			Description: "Nuclear density testing for ongoing quality control",
			Standard:    "MRTS04",
			TargetValue: "≥100% SMDD",
			Priority:    domain.PriorityHigh,
			Method:      "Nuclear Densometer",
		})
	}

	if cfg.IncludeUCS && classifier.IsStabilizedMaterial(in.Description) {
		tests = append(tests, domain.TestingRequirement{
			TestName:    UCS7DayTest,
			Frequency:   max(1, perThousand(area, cfg.UCSFreq)),
			Description: "Unconfined compressive strength at 7 days",
			Standard:    "MRTS07a",
			TargetValue: "≥1.5 MPa @ 7 days",
			Priority:    domain.PriorityHigh,
			Method:      "Laboratory Testing",
		})
		if area > cfg.UCS28DayThreshold {
			tests = append(tests, domain.TestingRequirement{
				TestName:    UCS28DayTest,
				Frequency:   max(1, perThousand(area, cfg.UCS28DayFreq)),
				Description: "Unconfined compressive strength at 28 days",
				Standard:    "MRTS07a",
				TargetValue: "≥2.0 MPa @ 28 days",
				Priority:    domain.PriorityMedium,
				Method:      "Laboratory Testing",
			})
		}
	}

	if cfg.IncludeMaterialTesting {
		tests = append(tests, domain.TestingRequirement{
			TestName:    MaterialTest,
			Frequency:   1,
			Description: "Grading, Plasticity Index, and CBR testing of imported material",
			Standard:    "MRTS05",
			TargetValue: "PI ≤6, CBR ≥80%",
			Priority:    domain.PriorityMedium,
			Method:      "Laboratory Testing",
		})
	}

	now := e.now()
	for i := range tests {
		tests[i].ID = e.newID()
		tests[i].LineNo = in.LineNo
		tests[i].Status = domain.TestPending
		tests[i].DateCreated = now
		tests[i].AreaUsed = area
	}
	return tests
}

// DeriveFor derives requirements for a record and tags them with its id, chainage and description.
func (e *Engine) DeriveFor(rec *domain.TreatmentRecord, cfg domain.TestConfiguration) []domain.TestingRequirement {
	tests := e.Derive(LineInput{
		Description: rec.TreatmentDescription,
		Quantity:    rec.Quantity,
		Unit:        rec.Unit,
		Area:        rec.Area,
		LineNo:      rec.LineNo,
	}, cfg)
	for i := range tests {
		tests[i].EntryID = rec.ID
		tests[i].Chainage = rec.Chainage()
		tests[i].TreatmentType = rec.TreatmentDescription
	}
	return tests
}

// perThousand is ceil(area*freq/1000), saturated at math.MaxInt32.
func perThousand(area, freq float64) int {
	n := math.Ceil(area * freq / 1000)
	switch {
	case math.IsNaN(n) || n <= 0:
		return 0
	case n >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(n)
}

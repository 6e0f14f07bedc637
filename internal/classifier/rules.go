package classifier

import "strings"

// Verdict of a single rule against a description.
type Verdict int

const (
	NoMatch Verdict = iota
	Exclude
	Include
)

// Rule one row of the pavement-work rule table.
// A rule matches when the text contains any of Phrases and none of Unless.
type Rule struct {
	Name    string
	Phrases []string
	Unless  []string
	Verdict Verdict
}

// Apply evaluates the rule against lower-cased text.
func (r Rule) Apply(lower string) Verdict {
	if !containsAny(lower, r.Phrases) {
		return NoMatch
	}
	if containsAny(lower, r.Unless) {
		return NoMatch
	}
	return r.Verdict
}

// Exclusions are checked first; any match means no compaction testing.
var Exclusions = Rule{
	Name: "non-pavement",
	Phrases: []string{
		"bulk fill",
		"reshape table drain",
		"table drain",
		"drainage",
		"shoulder grading",
		"light formation grading",
		"medium formation grading",
		"gravel resheeting",
		"pothole repair",
		"crack repair",
		"edge repair",
		"bitumen spray seal",
		"spray seal",
		"asphalt surfacing",
	},
	Verdict: Exclude,
}

// SealOnly excludes seal work unless a qualifying pavement term accompanies it.
var SealOnly = Rule{
	Name:    "seal-without-pavement",
	Phrases: []string{"seal"},
	Unless:  []string{"stabilisation", "pavement", "overlay"},
	Verdict: Exclude,
}

// Inclusions mark pavement work requiring compaction testing.
var Inclusions = Rule{
	Name: "pavement",
	Phrases: []string{
		"heavy formation grading",
		"reconstruct unbound",
		"in-situ stabilisation",
		"insitu stabilisation",
		"in situ stabilisation",
		"stabilisation",
		"granular overlay",
		"pavement",
		"foamed bitumen",
		"cement stabilisation",
		"lime stabilisation",
	},
	Verdict: Include,
}

// PavementRules evaluated in order, first decisive verdict wins.
var PavementRules = []Rule{Exclusions, SealOnly, Inclusions}

var stabilisedPhrases = []string{"stabilisation", "stabilization", "foamed bitumen", "cement", "lime"}

var granularPhrases = []string{"reconstruct unbound", "granular overlay"}

// IsPavementWork reports whether the treatment needs compaction testing.
func IsPavementWork(description string) bool {
	lower := strings.ToLower(description)
	for _, r := range PavementRules {
		switch r.Apply(lower) {
		case Exclude:
			return false
		case Include:
			return true
		}
	}
	return false
}

// IsStabilizedMaterial reports whether the treatment works a stabilised material.
func IsStabilizedMaterial(description string) bool {
	return containsAny(strings.ToLower(description), stabilisedPhrases)
}

// IsGranularPavement granular and stabilised are mutually exclusive.
func IsGranularPavement(description string) bool {
	return containsAny(strings.ToLower(description), granularPhrases) && !IsStabilizedMaterial(description)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

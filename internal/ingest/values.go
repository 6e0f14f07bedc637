package ingest

import (
	"math"
	"strconv"
	"strings"
)

// parseNumber coerces a cell to float64. Blank or unparsable cells become 0.
func parseNumber(s string) float64 {
	v, ok := parseFloat(s)
	if !ok {
		return 0
	}
	return v
}

// parseLineNo reads a line number; false ends the data block.
func parseLineNo(s string) (int, bool) {
	v, ok := parseFloat(s)
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

func parseFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseYes accepts Y / YES in any case.
func parseYes(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "YES":
		return true
	}
	return false
}

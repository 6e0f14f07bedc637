package domain

import "time"

// Priority of a testing requirement.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// TestStatus is the progress state of a testing requirement.
type TestStatus string

const (
	TestPending    TestStatus = "pending"
	TestInProgress TestStatus = "in-progress"
	TestCompleted  TestStatus = "completed"
)

// Valid reports whether s is one of the known test statuses.
func (s TestStatus) Valid() bool {
	switch s {
	case TestPending, TestInProgress, TestCompleted:
		return true
	}
	return false
}

// ReportResult is the outcome of a single submitted test.
type ReportResult string

const (
	ResultPass ReportResult = "pass"
	ResultFail ReportResult = "fail"
)

// PassThreshold measured value (percent of target) at or above which a report passes.
const PassThreshold = 100.0

// TestReport a single submitted test result
type TestReport struct {
	ReportNumber  string       `json:"reportNumber"`
	MeasuredValue float64      `json:"measuredValue"` // percent of target density
	Result        ReportResult `json:"result"`
	TestDate      time.Time    `json:"testDate"`
	Notes         string       `json:"notes,omitempty"`
}

// ResultFor derives pass/fail from a measured value.
func ResultFor(measured float64) ReportResult {
	if measured >= PassThreshold {
		return ResultPass
	}
	return ResultFail
}

// TestingRequirement one derived test obligation for a treatment line.
// TestsCompleted + TestsInProgress + TestsPending() == Frequency.
type TestingRequirement struct {
	ID            string `json:"id"`
	EntryID       string `json:"entryId"` // TreatmentRecord.ID
	LineNo        int    `json:"lineNo"`
	Chainage      string `json:"chainage"`
	TreatmentType string `json:"treatmentType"`

	// what to test
	TestName    string   `json:"test"`
	Description string   `json:"description"`
	Standard    string   `json:"standard"`
	Method      string   `json:"method"`
	Frequency   int      `json:"frequency"`
	TargetValue string   `json:"targetValue"`
	Priority    Priority `json:"priority"`

	// progress
	Status          TestStatus   `json:"status"`
	TestsCompleted  int          `json:"testsCompleted"`
	TestsInProgress int          `json:"testsInProgress"`
	TestsFailed     int          `json:"testsFailed"`
	TestReports     []TestReport `json:"testReports,omitempty"`

	AreaUsed    float64   `json:"areaUsed"`
	DateCreated time.Time `json:"dateCreated"`
}

// TestsPending is derived from the frequency and the two explicit counters.
func (t *TestingRequirement) TestsPending() int {
	p := t.Frequency - t.TestsCompleted - t.TestsInProgress
	if p < 0 {
		return 0
	}
	return p
}

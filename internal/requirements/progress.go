package requirements

import (
	"errors"
	"fmt"
	"strings"

	"form4qa/internal/domain"
)

var (
	ErrReportNotFound  = errors.New("test report not found")
	ErrDuplicateReport = errors.New("duplicate test report number")
	ErrInvalidProgress = errors.New("invalid test progress")
)

// AddReport appends a report, derives its result and recomputes the counters.
func AddReport(t *domain.TestingRequirement, r domain.TestReport) error {
	r.ReportNumber = strings.TrimSpace(r.ReportNumber)
	if r.ReportNumber == "" {
		return fmt.Errorf("%w: report number is required", ErrInvalidProgress)
	}
	for _, existing := range t.TestReports {
		if existing.ReportNumber == r.ReportNumber {
			return fmt.Errorf("%w: %s", ErrDuplicateReport, r.ReportNumber)
		}
	}
	r.Result = domain.ResultFor(r.MeasuredValue)
	t.TestReports = append(t.TestReports, r)
	Recount(t)
	return nil
}

// RemoveReport drops the report with the given number and recomputes the counters.
func RemoveReport(t *domain.TestingRequirement, reportNumber string) error {
	for i, r := range t.TestReports {
		if r.ReportNumber == reportNumber {
			t.TestReports = append(t.TestReports[:i], t.TestReports[i+1:]...)
			if len(t.TestReports) == 0 {
				// counters came from the reports; none remain to back them
				t.TestsCompleted = 0
				t.TestsFailed = 0
			}
			Recount(t)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrReportNotFound, reportNumber)
}

// SetProgress sets the manual counters. Requirements with reports take
// their completed count from the reports; only in-progress is applied.
func SetProgress(t *domain.TestingRequirement, completed, inProgress int) error {
	if completed < 0 || inProgress < 0 {
		return fmt.Errorf("%w: counters must not be negative", ErrInvalidProgress)
	}
	if len(t.TestReports) == 0 {
		if completed+inProgress > t.Frequency {
			return fmt.Errorf("%w: %d completed + %d in progress exceeds frequency %d",
				ErrInvalidProgress, completed, inProgress, t.Frequency)
		}
		t.TestsCompleted = completed
	} else if t.TestsCompleted+inProgress > t.Frequency {
		return fmt.Errorf("%w: %d in progress exceeds the %d remaining tests",
			ErrInvalidProgress, inProgress, t.Frequency-t.TestsCompleted)
	}
	t.TestsInProgress = inProgress
	t.Status = statusOf(t)
	return nil
}

// Recount derives completed/failed from the reports, clamps in-progress and sets the status.
func Recount(t *domain.TestingRequirement) {
	if len(t.TestReports) > 0 {
		passed, failed := 0, 0
		for _, r := range t.TestReports {
			if r.Result == domain.ResultPass {
				passed++
			} else {
				failed++
			}
		}
		t.TestsCompleted = passed
		t.TestsFailed = failed
	} else {
		t.TestsFailed = 0
	}
	clamp(t)
	t.Status = statusOf(t)
}

func clamp(t *domain.TestingRequirement) {
	if t.TestsCompleted > t.Frequency {
		t.TestsCompleted = t.Frequency
	}
	if t.TestsCompleted < 0 {
		t.TestsCompleted = 0
	}
	if room := t.Frequency - t.TestsCompleted; t.TestsInProgress > room {
		t.TestsInProgress = room
	}
	if t.TestsInProgress < 0 {
		t.TestsInProgress = 0
	}
}

func statusOf(t *domain.TestingRequirement) domain.TestStatus {
	switch {
	case t.Frequency > 0 && t.TestsCompleted >= t.Frequency:
		return domain.TestCompleted
	case t.TestsCompleted > 0 || t.TestsInProgress > 0 || t.TestsFailed > 0:
		return domain.TestInProgress
	default:
		return domain.TestPending
	}
}

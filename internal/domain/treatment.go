package domain

import (
	"fmt"
	"strconv"
	"time"
)

// TreatmentStatus is the work status of a Form 4 line.
type TreatmentStatus string

const (
	TreatmentPlanned    TreatmentStatus = "planned"
	TreatmentInProgress TreatmentStatus = "in-progress"
	TreatmentCompleted  TreatmentStatus = "completed"
)

// Valid reports whether s is one of the known treatment statuses.
func (s TreatmentStatus) Valid() bool {
	switch s {
	case TreatmentPlanned, TreatmentInProgress, TreatmentCompleted:
		return true
	}
	return false
}

// OtherTreatmentCode is returned for descriptions missing from the QRA mapping table.
const OtherTreatmentCode = "OTHER"

// TreatmentRecord one Form 4 line item
type TreatmentRecord struct {
	ID     string `json:"id"`
	LineNo int    `json:"lineNo"`

	// chainage along the road, metres
	StartChainage  float64 `json:"startChainage"`
	FinishChainage float64 `json:"finishChainage"`

	// treatment
	TreatmentDescription  string `json:"treatmentDescription"`
	TreatmentCode         string `json:"treatmentCode"`         // QRA code or OTHER
	AdditionalDescription string `json:"additionalDescription"` // free text, may carry LHS/RHS

	// quantities
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	DamageLength float64 `json:"damageLength,omitempty"`
	DamageWidth  float64 `json:"damageWidth,omitempty"`
	DamageDepth  float64 `json:"damageDepth,omitempty"`
	Area         float64 `json:"area"` // length*width, or quantity

	// progress
	Status             TreatmentStatus `json:"status"`
	PhotosReceived     bool            `json:"photosReceived"`
	PhotosReviewed     bool            `json:"photosReviewed"`
	ITPReceived        bool            `json:"itpReceived"`
	LineComplete       bool            `json:"lineComplete"`
	CompactionRequired bool            `json:"compactionRequired"`

	DateCreated time.Time `json:"dateCreated"`
}

// Length returns finish minus start chainage.
func (r *TreatmentRecord) Length() float64 {
	return r.FinishChainage - r.StartChainage
}

// Chainage is the "start - finish" display string attached to derived requirements.
func (r *TreatmentRecord) Chainage() string {
	return fmt.Sprintf("%s - %s", formatNumber(r.StartChainage), formatNumber(r.FinishChainage))
}

// ComputeArea returns damage length x width when both are non-zero, otherwise the quantity.
func ComputeArea(length, width, quantity float64) float64 {
	if length != 0 && width != 0 {
		return length * width
	}
	return quantity
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

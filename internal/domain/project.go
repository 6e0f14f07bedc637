package domain

import "time"

// Project the whole tracked state: Form 4 lines, derived tests and the configuration that produced them.
type Project struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Created             time.Time            `json:"created"`
	Updated             time.Time            `json:"updated"`
	TreatmentRecords    []TreatmentRecord    `json:"treatmentRecords"`
	TestingRequirements []TestingRequirement `json:"testingRequirements"`
	TestConfiguration   TestConfiguration    `json:"testConfiguration"`
}

// FindTreatment returns the index of the record with id, or -1.
func (p *Project) FindTreatment(id string) int {
	for i := range p.TreatmentRecords {
		if p.TreatmentRecords[i].ID == id {
			return i
		}
	}
	return -1
}

// FindRequirement returns the index of the requirement with id, or -1.
func (p *Project) FindRequirement(id string) int {
	for i := range p.TestingRequirements {
		if p.TestingRequirements[i].ID == id {
			return i
		}
	}
	return -1
}

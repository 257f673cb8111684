// internal/workers/matching/create-advisor-assignment/models.go
package createadvisorassignment

type Input struct {
	FounderID  string `json:"founderId"`
	AdvisorID  string `json:"advisorId"`
	AssignedBy string `json:"assignedBy"`
	Manual     bool   `json:"manual,omitempty"`
}

type Output struct {
	AssignmentID     string `json:"assignmentId"`
	AssignmentStatus string `json:"assignmentStatus"`
	MatchScore       int    `json:"matchScore"`
	CreatedAt        string `json:"createdAt"` // ISO 8601
}

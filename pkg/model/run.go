package model

import "time"

const (
	RunSuccess = "success"
	RunFailed  = "failed"
)

// Run records one generation attempt.
type Run struct {
	ID         string    `json:"id"`
	CIDR       string    `json:"cidr"`
	Role       string    `json:"role"`
	Ports      []string  `json:"ports,omitempty"`
	OutputPath string    `json:"outputPath"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

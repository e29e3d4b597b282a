package store

import "nebula-nodeconf/pkg/model"

// RunStore persists the history of generation runs.
type RunStore interface {
	SaveRun(model.Run) error
	// ListRuns returns up to limit runs, most recent first. limit <= 0 means all.
	ListRuns(limit int) ([]model.Run, error)
	Close() error
}

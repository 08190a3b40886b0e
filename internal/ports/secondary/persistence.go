package secondary

import "context"

// RunRepository defines the secondary port for run history persistence.
type RunRepository interface {
	// Create persists a finished run together with its steps.
	Create(ctx context.Context, run *RunRecord) error

	// GetByID retrieves a run and its steps by ID.
	GetByID(ctx context.Context, id string) (*RunRecord, error)

	// List retrieves runs matching the given filters, newest first.
	List(ctx context.Context, filters RunFilters) ([]*RunRecord, error)
}

// RunRecord represents an executor run as stored in persistence.
type RunRecord struct {
	ID            string
	RepoPath      string
	Branch        string
	DryRun        bool
	Replanned     bool
	Status        string // "succeeded", "partial", "failed"
	Error         string
	InitialCost   float64
	FinalCost     float64
	ExecutedCount int
	Payload       string // JSON rendering of the execution result
	StartedAt     string
	FinishedAt    string
	Steps         []*RunStepRecord
}

// RunStepRecord is one executed or failed action within a run.
type RunStepRecord struct {
	Seq    int
	Action string
	Status string
	Error  string
	Output string
}

// RunFilters contains filter options for querying runs.
type RunFilters struct {
	RepoPath string
	Limit    int
}

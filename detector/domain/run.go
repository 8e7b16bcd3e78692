package domain

import (
	"fmt"
	"time"
)

// RunStatus represents the state of a planning run.
type RunStatus int

const (
	RunPending    RunStatus = iota // Run recorded, not yet started
	RunRunning                     // Pipeline in progress
	RunComplete                    // Every required pair covered
	RunIncomplete                  // Schedules written but pairs remain
	RunFailed                      // Pipeline error
)

func (s RunStatus) String() string {
	switch s {
	case RunPending:
		return "PENDING"
	case RunRunning:
		return "RUNNING"
	case RunComplete:
		return "COMPLETE"
	case RunIncomplete:
		return "INCOMPLETE"
	case RunFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ParseRunStatus is the inverse of RunStatus.String.
func ParseRunStatus(s string) (RunStatus, error) {
	for st := RunPending; st <= RunFailed; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return RunPending, fmt.Errorf("unknown run status %q", s)
}

// IsTerminal returns true if this is a final status.
func (s RunStatus) IsTerminal() bool {
	return s == RunComplete || s == RunIncomplete || s == RunFailed
}

// Run is the persisted summary of one planning run.
type Run struct {
	ID     string
	Status RunStatus

	// SelectAll is true when change detection or config forced the whole universe.
	SelectAll bool

	UniverseSize   int
	AffectedCount  int
	UnitCount      int
	PairCount      int
	ScheduleCount  int
	RemainingPairs int

	// Construction and SquareOrder describe the square used, if any.
	Construction Construction
	SquareOrder  int

	// FailureReason contains the failure reason if Status is RunFailed.
	FailureReason string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// NewRun creates a pending run.
func NewRun(id string) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:        id,
		Status:    RunPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus transitions the run to a new status.
func (r *Run) SetStatus(newStatus RunStatus) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot transition from terminal status %s",
			ErrInvalidState, r.Status)
	}
	r.Status = newStatus
	r.UpdatedAt = time.Now().UTC()
	if newStatus.IsTerminal() {
		now := time.Now().UTC()
		r.CompletedAt = &now
	}
	return nil
}

// SetFailed marks the run as failed with a reason.
func (r *Run) SetFailed(reason string) error {
	if err := r.SetStatus(RunFailed); err != nil {
		return err
	}
	r.FailureReason = reason
	return nil
}

// Record copies the plan counters onto the run.
func (r *Run) Record(p *Plan) {
	r.SelectAll = p.SelectAll
	r.UniverseSize = p.UniverseSize
	r.AffectedCount = len(p.Affected)
	r.UnitCount = len(p.Units)
	r.PairCount = p.RequiredPairs
	r.ScheduleCount = len(p.Schedules)
	r.RemainingPairs = len(p.Remaining)
	r.Construction = p.Construction
	r.SquareOrder = p.SquareOrder
	r.UpdatedAt = time.Now().UTC()
}

// Duration returns how long the run took, or zero if it is still open.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.CreatedAt)
}

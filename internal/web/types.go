package web

import (
	"time"

	"github.com/example/flakeorder/detector/domain"
)

// ListRunsResponse is the response for GET /api/runs
type ListRunsResponse struct {
	Runs []RunSummary `json:"runs"`
}

// RunSummary is the JSON form of a recorded run.
type RunSummary struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	SelectAll      bool       `json:"selectAll"`
	UniverseSize   int        `json:"universeSize"`
	AffectedCount  int        `json:"affectedCount"`
	UnitCount      int        `json:"unitCount"`
	PairCount      int        `json:"pairCount"`
	ScheduleCount  int        `json:"scheduleCount"`
	RemainingPairs int        `json:"remainingPairs"`
	Construction   string     `json:"construction,omitempty"`
	SquareOrder    int        `json:"squareOrder,omitempty"`
	FailureReason  string     `json:"failureReason,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	DurationMillis int64      `json:"durationMillis"`
}

func runToSummary(run *domain.Run) RunSummary {
	s := RunSummary{
		ID:             run.ID,
		Status:         run.Status.String(),
		SelectAll:      run.SelectAll,
		UniverseSize:   run.UniverseSize,
		AffectedCount:  run.AffectedCount,
		UnitCount:      run.UnitCount,
		PairCount:      run.PairCount,
		ScheduleCount:  run.ScheduleCount,
		RemainingPairs: run.RemainingPairs,
		FailureReason:  run.FailureReason,
		CreatedAt:      run.CreatedAt,
		UpdatedAt:      run.UpdatedAt,
		CompletedAt:    run.CompletedAt,
		DurationMillis: run.Duration().Milliseconds(),
	}
	if run.Construction != domain.ConstructionUnknown {
		s.Construction = run.Construction.String()
		s.SquareOrder = run.SquareOrder
	}
	return s
}

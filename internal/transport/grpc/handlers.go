package grpc

import (
	"context"
	"errors"
	"math"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/flakeorder/detector/domain"
)

const defaultHistoryLimit = 20

// Plan implements the Plan RPC.
func (s *Server) Plan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.planner.Plan(ctx)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return toStruct(planToMap(plan))
}

// Square implements the Square RPC.
func (s *Server) Square(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	order, err := intField(req, "order", 0)
	if err != nil {
		return nil, err
	}
	sq, err := s.planner.Square(order)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}

	rows := make([]interface{}, len(sq.Rows))
	for i, row := range sq.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		rows[i] = cells
	}
	return toStruct(map[string]interface{}{
		"order":        sq.Order,
		"construction": sq.Construction.String(),
		"exact":        sq.Exact(),
		"rows":         rows,
	})
}

// Affected implements the Affected RPC.
func (s *Server) Affected(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.planner.ComputeAffected(ctx)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return toStruct(map[string]interface{}{
		"universe_size": len(res.Universe),
		"tests":         stringList(res.Tests),
		"select_all":    res.SelectAll,
		"reason":        res.Reason,
		"skipped":       stringList(res.Skipped),
	})
}

// History implements the History RPC.
func (s *Server) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := intField(req, "limit", defaultHistoryLimit)
	if err != nil {
		return nil, err
	}
	runs, err := s.planner.History(ctx, limit)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	out := make([]interface{}, len(runs))
	for i, run := range runs {
		out[i] = runToMap(run)
	}
	return toStruct(map[string]interface{}{"runs": out})
}

// MapErrorToStatus converts domain errors to gRPC status errors.
func MapErrorToStatus(err error) error {
	if err == nil {
		return nil
	}

	// Already a gRPC status error
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrRunNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrInvalidPair):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func planToMap(plan *domain.Plan) map[string]interface{} {
	schedules := make([]interface{}, len(plan.Schedules))
	for i, sched := range plan.Schedules {
		schedules[i] = stringList(sched.Tests)
	}
	remaining := make([]string, len(plan.Remaining))
	for i, p := range plan.Remaining {
		remaining[i] = p.String()
	}
	return map[string]interface{}{
		"run_id":         plan.RunID,
		"status":         plan.Status().String(),
		"select_all":     plan.SelectAll,
		"universe_size":  plan.UniverseSize,
		"affected":       stringList(plan.Affected),
		"units":          stringList(plan.Units),
		"required_pairs": plan.RequiredPairs,
		"schedules":      schedules,
		"remaining":      stringList(remaining),
		"incomplete":     plan.Incomplete,
		"construction":   plan.Construction.String(),
		"square_order":   plan.SquareOrder,
	}
}

func runToMap(run *domain.Run) map[string]interface{} {
	m := map[string]interface{}{
		"id":              run.ID,
		"status":          run.Status.String(),
		"select_all":      run.SelectAll,
		"universe_size":   run.UniverseSize,
		"affected_count":  run.AffectedCount,
		"unit_count":      run.UnitCount,
		"pair_count":      run.PairCount,
		"schedule_count":  run.ScheduleCount,
		"remaining_pairs": run.RemainingPairs,
		"construction":    run.Construction.String(),
		"square_order":    run.SquareOrder,
		"created_at":      run.CreatedAt.Format(time.RFC3339Nano),
	}
	if run.FailureReason != "" {
		m["failure_reason"] = run.FailureReason
	}
	if run.CompletedAt != nil {
		m["completed_at"] = run.CompletedAt.Format(time.RFC3339Nano)
	}
	return m
}

func toStruct(m map[string]interface{}) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return st, nil
}

func stringList(items []string) []interface{} {
	out := make([]interface{}, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

// intField reads a whole-number field, returning def when it is absent.
func intField(req *structpb.Struct, name string, def int) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return def, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	return int(n.NumberValue), nil
}

package fitness

import (
	"context"
	"fmt"
	"net/http"

	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"
)

type ProgressParams struct {
	AssignmentID    int    `json:"assignment_id" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
	CaloriesBurned  int    `json:"calories_burned" validate:"gte=0"`
	ProgressScore   int    `json:"progress_score" validate:"required,min=1,max=10"`
	Remarks         string `json:"remarks,omitempty"`
}

// LogProgress appends a progress entry. Entries are append-only, the
// backend never allows edits.
func (c *Client) LogProgress(ctx context.Context, params ProgressParams) (created *ProgressLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.logProgress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateParams(params); err != nil {
		return nil, err
	}

	created = &ProgressLog{}
	if err := c.api.Do(ctx, http.MethodPost, "/progress", nil, params, created); err != nil {
		return nil, err
	}
	return created, nil
}

// WeeklyProgress returns the server-computed stats for the current period.
// Zero userID yields the zeroed stats object, the canonical "no data yet"
// value.
func (c *Client) WeeklyProgress(ctx context.Context, userID int) (stats WeeklyStats, err error) {
	if userID == 0 {
		return WeeklyStats{}, nil
	}

	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.weeklyProgress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/progress/user/%d/weekly", userID), nil, nil, &stats); err != nil {
		return WeeklyStats{}, err
	}
	return stats, nil
}

func (c *Client) ProgressSummary(ctx context.Context, userID int) (summary ProgressSummary, err error) {
	if userID == 0 {
		return ProgressSummary{}, nil
	}

	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.progressSummary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/progress/user/%d/summary", userID), nil, nil, &summary); err != nil {
		return ProgressSummary{}, err
	}
	return summary, nil
}

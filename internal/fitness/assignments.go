package fitness

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"
)

const DefaultAssignmentStatus = "Active"

type AssignmentParams struct {
	UserID     int    `json:"user_id" validate:"required"`
	ExerciseID int    `json:"exercise_id" validate:"required"`
	AssignedBy int    `json:"assigned_by" validate:"required"`
	Frequency  string `json:"frequency" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date,omitempty"`
}

// UserAssignments lists a user's assignments, filtered by status. A zero
// userID means the session is not hydrated yet: return the empty default
// without touching the network.
func (c *Client) UserAssignments(ctx context.Context, userID int, status string) (assignments []Assignment, err error) {
	if userID == 0 {
		return []Assignment{}, nil
	}

	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.userAssignments")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if status == "" {
		status = DefaultAssignmentStatus
	}
	query := url.Values{}
	query.Set("status", status)

	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/assignments/user/%d", userID), query, nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (c *Client) AllAssignments(ctx context.Context) (assignments []Assignment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.allAssignments")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := c.api.Do(ctx, http.MethodGet, "/assignments/all", nil, nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (c *Client) CreateAssignment(ctx context.Context, params AssignmentParams) (created *Assignment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.createAssignment")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateParams(params); err != nil {
		return nil, err
	}

	created = &Assignment{}
	if err := c.api.Do(ctx, http.MethodPost, "/assignments", nil, params, created); err != nil {
		return nil, err
	}
	return created, nil
}

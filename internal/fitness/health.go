package fitness

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"
)

const DefaultHealthMetricsLimit = 5

type HealthMetricParams struct {
	Weight        float64 `json:"weight" validate:"required,gt=0"`
	BloodPressure string  `json:"blood_pressure" validate:"required"`
	MobilityScore int     `json:"mobility_score" validate:"required,min=1,max=10"`
	Notes         string  `json:"notes,omitempty"`
}

// HealthMetrics lists the most recent metrics for a user, newest first.
func (c *Client) HealthMetrics(ctx context.Context, userID, limit int) (metrics []HealthMetric, err error) {
	if userID == 0 {
		return []HealthMetric{}, nil
	}

	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.healthMetrics")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if limit <= 0 {
		limit = DefaultHealthMetricsLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/health-metrics/user/%d", userID), query, nil, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

func (c *Client) AddHealthMetric(ctx context.Context, userID int, params HealthMetricParams) (created *HealthMetric, err error) {
	if userID == 0 {
		return nil, &ValidationError{Reason: "missing user id"}
	}

	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.addHealthMetric")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateParams(params); err != nil {
		return nil, err
	}

	created = &HealthMetric{}
	if err := c.api.Do(ctx, http.MethodPost, fmt.Sprintf("/health-metrics/user/%d", userID), nil, params, created); err != nil {
		return nil, err
	}
	return created, nil
}

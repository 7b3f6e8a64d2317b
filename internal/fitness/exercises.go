package fitness

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

type ExerciseParams struct {
	Name              string     `json:"exercise_name" validate:"required"`
	Description       string     `json:"description,omitempty"`
	Difficulty        Difficulty `json:"difficulty_level" validate:"required,oneof=Easy Medium Hard"`
	TargetMuscleGroup string     `json:"target_muscle_group,omitempty"`
	EquipmentNeeded   string     `json:"equipment_needed,omitempty"`
}

// Exercises returns the full catalog, served from the in-process cache when
// fresh. The catalog is read-mostly; mutations below invalidate it.
func (c *Client) Exercises(ctx context.Context) (exercises []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.exercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if cached, err := c.cache.Get([]byte(exercisesCacheKey)); err == nil {
		if err := json.Unmarshal(cached, &exercises); err == nil {
			log.Tracef("exercise catalog served from cache (%d entries)", len(exercises))
			return exercises, nil
		}
		log.Errorf("failed to unmarshal cached exercise catalog: %s", err)
	}

	if err := c.api.Do(ctx, http.MethodGet, "/exercises", nil, nil, &exercises); err != nil {
		return nil, err
	}

	if catalogBytes, err := json.Marshal(exercises); err == nil {
		if err := c.cache.Set([]byte(exercisesCacheKey), catalogBytes, c.cacheTTL); err != nil {
			log.Errorf("failed to cache exercise catalog: %s", err)
		}
	}

	return exercises, nil
}

func (c *Client) Exercise(ctx context.Context, id int) (*Exercise, error) {
	if id == 0 {
		return nil, ErrNotFound
	}

	var exercise Exercise
	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/exercises/%d", id), nil, nil, &exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (c *Client) CreateExercise(ctx context.Context, params ExerciseParams) (created *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.createExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateParams(params); err != nil {
		return nil, err
	}

	created = &Exercise{}
	if err := c.api.Do(ctx, http.MethodPost, "/exercises", nil, params, created); err != nil {
		return nil, err
	}

	c.invalidateExerciseCache()
	return created, nil
}

func (c *Client) UpdateExercise(ctx context.Context, id int, params ExerciseParams) (updated *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.updateExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateParams(params); err != nil {
		return nil, err
	}

	updated = &Exercise{}
	if err := c.api.Do(ctx, http.MethodPut, fmt.Sprintf("/exercises/%d", id), nil, params, updated); err != nil {
		return nil, err
	}

	c.invalidateExerciseCache()
	return updated, nil
}

func (c *Client) DeleteExercise(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.deleteExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := c.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/exercises/%d", id), nil, nil, nil); err != nil {
		return err
	}

	c.invalidateExerciseCache()
	return nil
}

func (c *Client) invalidateExerciseCache() {
	c.cache.Del([]byte(exercisesCacheKey))
}

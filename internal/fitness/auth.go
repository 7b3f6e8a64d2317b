package fitness

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"
)

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterParams struct {
	Name           string `json:"name" validate:"required"`
	Age            int    `json:"age,omitempty" validate:"gte=0,lte=130"`
	Gender         string `json:"gender,omitempty"`
	DisabilityType string `json:"disability_type,omitempty"`
	ContactInfo    string `json:"contact_info,omitempty"`
	Username       string `json:"username" validate:"required"`
	Password       string `json:"password" validate:"required,min=6"`
	Role           Role   `json:"role" validate:"required,oneof=PWD THERAPIST CAREGIVER ADMIN"`
}

// Login exchanges credentials for the backend's user record. The backend
// has answered both as a bare user object and wrapped in a "user" field
// over its lifetime, so both shapes are accepted.
func (c *Client) Login(ctx context.Context, creds Credentials) (user *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateParams(creds); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.api.Do(ctx, http.MethodPost, "/auth/login", nil, creds, &raw); err != nil {
		return nil, err
	}

	user, err = decodeUserPayload(raw)
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("invalid user data returned from server")
	}
	if !user.Role.Valid() {
		return nil, fmt.Errorf("invalid role returned from server: %s", user.Role)
	}

	return user, nil
}

func (c *Client) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.api.Do(ctx, http.MethodPost, "/auth/register", nil, params, &raw); err != nil {
		return nil, err
	}

	return decodeUserPayload(raw)
}

func decodeUserPayload(raw json.RawMessage) (*User, error) {
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	user := &User{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, fmt.Errorf("unmarshal user payload: %w", err)
	}
	return user, nil
}

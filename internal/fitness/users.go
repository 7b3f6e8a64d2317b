package fitness

import (
	"context"
	"errors"
	"net/http"

	"github.com/accessfit/accessfit-gateway/internal/backend"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

func (c *Client) AllUsers(ctx context.Context) (users []User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.allUsers")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := c.api.Do(ctx, http.MethodGet, "/users/all", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Patients lists PWD users. Older backend deployments have no dedicated
// patients endpoint, so a 404 falls back to filtering the full user list.
func (c *Client) Patients(ctx context.Context) (patients []User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.patients")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = c.api.Do(ctx, http.MethodGet, "/users/patients", nil, nil, &patients)
	if err == nil {
		return patients, nil
	}

	var reqErr *backend.RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusNotFound {
		return nil, err
	}

	log.Debugf("patients endpoint not available, falling back to /users/all")
	users, err := c.AllUsers(ctx)
	if err != nil {
		return nil, err
	}

	patients = []User{}
	for _, u := range users {
		if u.Role == RolePWD {
			patients = append(patients, u)
		}
	}
	return patients, nil
}

package fitness_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/accessfit/accessfit-gateway/internal/fitness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_login(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		wantID   int
		wantErr  string
	}{
		{
			name:     "bare user object",
			response: `{"id":7,"name":"Pat","role":"PWD"}`,
			wantID:   7,
		},
		{
			name:     "wrapped user object",
			response: `{"message":"login successful","user":{"id":9,"name":"Terry","role":"THERAPIST"}}`,
			wantID:   9,
		},
		{
			name:     "missing id",
			response: `{"name":"Ghost","role":"PWD"}`,
			wantErr:  "invalid user data returned from server",
		},
		{
			name:     "unknown role",
			response: `{"id":3,"name":"Pat","role":"WIZARD"}`,
			wantErr:  "invalid role returned from server: WIZARD",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/auth/login", r.URL.Path)
				_, _ = w.Write([]byte(tc.response))
			}))

			user, err := client.Login(context.Background(), fitness.Credentials{
				Username: "pat",
				Password: "secret1",
			})
			if tc.wantErr != "" {
				require.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, user.ID)
		})
	}
}

func TestClient_login_emptyCredentials(t *testing.T) {
	requestsSeen := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsSeen++
	}))

	_, err := client.Login(context.Background(), fitness.Credentials{})
	var valErr *fitness.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Zero(t, requestsSeen)
}

func TestClient_register(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)
		_, _ = w.Write([]byte(`{"user":{"id":21,"name":"New Person","role":"CAREGIVER"}}`))
	}))

	user, err := client.Register(context.Background(), fitness.RegisterParams{
		Name:     "New Person",
		Username: "newbie",
		Password: "secret1",
		Role:     fitness.RoleCaregiver,
	})
	require.NoError(t, err)
	assert.Equal(t, 21, user.ID)
	assert.Equal(t, fitness.RoleCaregiver, user.Role)
}

func TestClient_register_validation(t *testing.T) {
	requestsSeen := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsSeen++
	}))

	testCases := []fitness.RegisterParams{
		{Username: "u", Password: "secret1", Role: fitness.RolePWD},            // no name
		{Name: "n", Password: "secret1", Role: fitness.RolePWD},                // no username
		{Name: "n", Username: "u", Password: "short", Role: fitness.RolePWD},   // password too short
		{Name: "n", Username: "u", Password: "secret1", Role: "MODERATOR"},     // bad role
		{Name: "n", Username: "u", Password: "secret1", Role: fitness.RolePWD, Age: 200},
	}
	for i, params := range testCases {
		_, err := client.Register(context.Background(), params)
		var valErr *fitness.ValidationError
		require.True(t, errors.As(err, &valErr), "case %d should fail validation", i)
	}
	assert.Zero(t, requestsSeen)
}

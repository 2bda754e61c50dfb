package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lionix-portal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfileGateway(t *testing.T, handler http.HandlerFunc) *ProfileGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewProfileGateway(server.URL, testAnonKey, 2*time.Second)
}

func profileBody() map[string]any {
	return map[string]any{
		"id":                   "user-123",
		"username":             "lionix_fan",
		"phone_number":         "612345678",
		"phone_country_code":   "+33",
		"country_of_residence": "FR",
		"sport_discipline":     "football",
	}
}

func TestProfileGateway_GetByID(t *testing.T) {
	g := newTestProfileGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "eq.user-123", r.URL.Query().Get("id"))
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-access-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profileBody())
	})

	profile, err := g.GetByID(context.Background(), "user-access-token", "user-123")

	assert.NoError(t, err)
	assert.Equal(t, "user-123", profile.ID)
	assert.Equal(t, "lionix_fan", profile.Username)
	assert.Equal(t, "football", profile.SportDiscipline)
}

func TestProfileGateway_GetByID_NotFound(t *testing.T) {
	// Single-object representation answers 406 when the row does not exist.
	g := newTestProfileGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
	})

	profile, err := g.GetByID(context.Background(), "user-access-token", "user-123")

	assert.Nil(t, profile)
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))
}

func TestProfileGateway_Create(t *testing.T) {
	g := newTestProfileGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var row map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		assert.Equal(t, "user-123", row["id"])
		assert.Equal(t, "lionix_fan", row["username"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(profileBody())
	})

	created, err := g.Create(context.Background(), "user-access-token", &domain.Profile{
		ID:       "user-123",
		Username: "lionix_fan",
	})

	assert.NoError(t, err)
	assert.Equal(t, "user-123", created.ID)
}

func TestProfileGateway_Update_SendsOnlyChangedFields(t *testing.T) {
	g := newTestProfileGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.user-123", r.URL.Query().Get("id"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"username": "renamed"}, body)

		w.Header().Set("Content-Type", "application/json")
		resp := profileBody()
		resp["username"] = "renamed"
		json.NewEncoder(w).Encode(resp)
	})

	username := "renamed"
	updated, err := g.Update(context.Background(), "user-access-token", "user-123",
		domain.ProfileUpdate{Username: &username})

	assert.NoError(t, err)
	assert.Equal(t, "renamed", updated.Username)
}

func TestProfileGateway_Update_ExpiredToken(t *testing.T) {
	g := newTestProfileGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	username := "renamed"
	_, err := g.Update(context.Background(), "stale-token", "user-123",
		domain.ProfileUpdate{Username: &username})

	assert.True(t, errors.Is(err, domain.ErrSessionExpired))
}

func TestProfileGateway_TransportFailure(t *testing.T) {
	g := NewProfileGateway("http://127.0.0.1:1", testAnonKey, 500*time.Millisecond)

	_, err := g.GetByID(context.Background(), "user-access-token", "user-123")

	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}

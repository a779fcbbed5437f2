package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pawtastic/internal/ports/backend"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, token string) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "anon", Timeout: time.Second}, func() string { return token }, nil)
	require.NoError(t, err)
	return c
}

func TestSelect_BuildsPostgrestQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/pets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "eq.u1", q.Get("owner_id"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-jwt", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"id":"p2","name":"B"},{"id":"p1","name":"A"}]`)
	}, "user-jwt")

	rows, err := c.Select(context.Background(), "pets", backend.Query{Column: "owner_id", Equals: "u1", OrderBy: "created_at", Descending: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p2", rows[0].ID())
}

func TestSelect_AnonBearerWithoutSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}, "")

	rows, err := c.Select(context.Background(), "pets", backend.Query{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInsert_ReturnsRepresentation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in["id"] = "b1"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]map[string]any{in})
	}, "jwt")

	row, err := c.Insert(context.Background(), "service_bookings", backend.Row{"pet_id": "p1", "status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, "b1", row.ID())
	assert.Equal(t, "pending", row.Field("status"))
}

func TestUpdateDelete_NotFoundOnEmptyRepresentation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.missing", r.URL.Query().Get("id"))
		_, _ = io.WriteString(w, `[]`)
	}, "jwt")

	_, err := c.Update(context.Background(), "pets", "missing", backend.Row{"name": "x"})
	assert.ErrorIs(t, err, backend.ErrNotFound)
	assert.ErrorIs(t, c.Delete(context.Background(), "pets", "missing"), backend.ErrNotFound)
}

func TestErrorsAreWrapped(t *testing.T) {
	status := http.StatusForbidden
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"message":"new row violates row-level security policy"}`)
	}, "jwt")

	_, err := c.Insert(context.Background(), "pets", backend.Row{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	status = http.StatusInternalServerError
	_, err = c.Select(context.Background(), "pets", backend.Query{})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestNotConfigured(t *testing.T) {
	c, err := NewClient(Config{}, nil, nil)
	require.NoError(t, err)
	_, err = c.Select(context.Background(), "pets", backend.Query{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

package router_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pawtastic/internal/app"
	"pawtastic/internal/platform/config"
	"pawtastic/internal/router"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	b, err := app.NewBackends(config.Config{Port: "0", AuthProvider: config.AuthMemory, DataProvider: config.DataMemory}, nil)
	require.NoError(t, err)
	a, err := app.New(b, nil)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))

	ts := httptest.NewServer(router.NewRouter(router.Options{App: a}))
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return ts
}

func TestHTTP_EndToEnd_BookingFlow(t *testing.T) {
	ts := newServer(t)

	// 1) Anónimo: árbol público
	{
		st, body := doReq(t, ts.URL, "GET", "/session", nil)
		require.Equal(t, http.StatusOK, st)
		var s sessionBody
		require.NoError(t, json.Unmarshal(body, &s))
		assert.Nil(t, s.User)
		assert.False(t, s.Loading)
		assert.Equal(t, "public", s.Route.Tree)
		assert.Equal(t, "Landing", s.Route.Entry)
	}

	// 2) Sin sesión no hay mascotas
	{
		st, body := doReq(t, ts.URL, "GET", "/pets", nil)
		assert.Equal(t, http.StatusUnauthorized, st)
		assert.Contains(t, string(body), `"error":"no_session"`)
	}

	// 3) Registro abre sesión
	var userID string
	{
		st, body := doReq(t, ts.URL, "POST", "/auth/register", map[string]any{
			"email": "a@b.com", "password": "abcdef", "first_name": "Ana",
		})
		require.Equal(t, http.StatusCreated, st, string(body))
		var resp struct {
			UserID string `json:"user_id"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.NotEmpty(t, resp.UserID)
		userID = resp.UserID
	}
	{
		_, body := doReq(t, ts.URL, "GET", "/session", nil)
		var s sessionBody
		require.NoError(t, json.Unmarshal(body, &s))
		require.NotNil(t, s.User)
		assert.Equal(t, userID, s.User.UserID)
		assert.Equal(t, "protected", s.Route.Tree)
		assert.Equal(t, "Home", s.Route.Entry)
	}

	// 4) Login con password incorrecta: 401 y la sesión sigue igual
	{
		st, body := doReq(t, ts.URL, "POST", "/auth/login", map[string]any{"email": "a@b.com", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, st)
		assert.Contains(t, string(body), "invalid_credentials")

		_, body = doReq(t, ts.URL, "GET", "/session", nil)
		var s sessionBody
		require.NoError(t, json.Unmarshal(body, &s))
		require.NotNil(t, s.User)
		assert.Equal(t, userID, s.User.UserID)
	}

	// 5) Perfil creado en el registro
	{
		st, body := doReq(t, ts.URL, "GET", "/me/profile", nil)
		require.Equal(t, http.StatusOK, st, string(body))
		assert.Contains(t, string(body), `"first_name":"Ana"`)

		st, body = doReq(t, ts.URL, "PATCH", "/me/profile", map[string]any{"first_name": "Ana"})
		assert.Equal(t, http.StatusBadRequest, st)
		assert.Contains(t, string(body), `"field":"last_name"`)
	}

	// 6) Alta de mascota: aparece en /pets por el feed
	petID := createPet(t, ts.URL, map[string]any{"name": "Luna", "species": "perro", "breed": "Mestizo", "age": 3})
	require.Eventually(t, func() bool {
		var list listBody
		_, body := doReq(t, ts.URL, "GET", "/pets", nil)
		if json.Unmarshal(body, &list) != nil {
			return false
		}
		return list.Status == "live" && len(list.Items) == 1 && list.Items[0].ID == petID
	}, 2*time.Second, 10*time.Millisecond)

	// 7) Reserva en el pasado: 400 invalid_date y nada escrito
	{
		yesterday := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)
		st, body := doReq(t, ts.URL, "POST", "/bookings", map[string]any{
			"pet_id": petID, "service_type": "paseo", "scheduled_at": yesterday,
		})
		assert.Equal(t, http.StatusBadRequest, st)
		assert.Contains(t, string(body), "invalid_date")

		var list listBody
		_, body = doReq(t, ts.URL, "GET", "/bookings", nil)
		require.NoError(t, json.Unmarshal(body, &list))
		assert.Empty(t, list.Items)
	}

	// 8) Mascota que no está cargada: 400 invalid_field
	{
		st, body := doReq(t, ts.URL, "POST", "/bookings", map[string]any{
			"pet_id": "otra", "service_type": "walk", "date": "01/01/2099", "time": "10:00",
		})
		assert.Equal(t, http.StatusBadRequest, st)
		assert.Contains(t, string(body), `"field":"pet_id"`)
	}

	// 9) Reserva válida con fecha de formulario
	{
		st, body := doReq(t, ts.URL, "POST", "/bookings", map[string]any{
			"pet_id": petID, "service_type": "salud", "date": "01/01/2099", "time": "10:00", "notes": "control anual",
		})
		require.Equal(t, http.StatusCreated, st, string(body))
		assert.Contains(t, string(body), `"status":"pending"`)
	}
	require.Eventually(t, func() bool {
		var list listBody
		_, body := doReq(t, ts.URL, "GET", "/bookings", nil)
		if json.Unmarshal(body, &list) != nil || len(list.Items) != 1 {
			return false
		}
		return list.Items[0].PetName == "Luna" && list.Items[0].Price == 35
	}, 2*time.Second, 10*time.Millisecond)

	// 10) Logout: vuelve al árbol público
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/logout", nil)
		assert.Equal(t, http.StatusNoContent, st)

		_, body := doReq(t, ts.URL, "GET", "/session", nil)
		var s sessionBody
		require.NoError(t, json.Unmarshal(body, &s))
		assert.Nil(t, s.User)
		assert.Equal(t, "public", s.Route.Tree)
	}
}

func TestHTTP_RegisterValidation(t *testing.T) {
	ts := newServer(t)

	cases := map[string]struct {
		payload map[string]any
		status  int
		kind    string
	}{
		"bad email":  {map[string]any{"email": "nope", "password": "abcdef"}, http.StatusBadRequest, "invalid_email"},
		"short pass": {map[string]any{"email": "a@b.com", "password": "abc"}, http.StatusBadRequest, "weak_password"},
		"missing":    {map[string]any{"email": "a@b.com"}, http.StatusBadRequest, "missing_field"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			st, body := doReq(t, ts.URL, "POST", "/auth/register", tc.payload)
			assert.Equal(t, tc.status, st)
			assert.Contains(t, string(body), tc.kind)
		})
	}

	st, _ := doReq(t, ts.URL, "POST", "/auth/register", map[string]any{"email": "a@b.com", "password": "abcdef"})
	require.Equal(t, http.StatusCreated, st)
	st, body := doReq(t, ts.URL, "POST", "/auth/register", map[string]any{"email": "a@b.com", "password": "abcdef"})
	assert.Equal(t, http.StatusConflict, st)
	assert.Contains(t, string(body), "email_in_use")
}

func TestHTTP_ProtectedRoutesRequireSession(t *testing.T) {
	ts := newServer(t)

	protected := []struct{ method, path string }{
		{"GET", "/me/profile"},
		{"PATCH", "/me/profile"},
		{"DELETE", "/me"},
		{"GET", "/pets"},
		{"POST", "/pets"},
		{"PATCH", "/pets/p1"},
		{"DELETE", "/pets/p1"},
		{"GET", "/bookings"},
		{"POST", "/bookings"},
	}
	for _, tc := range protected {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			st, body := doReq(t, ts.URL, tc.method, tc.path, map[string]any{})
			assert.Equal(t, http.StatusUnauthorized, st)
			assert.Contains(t, string(body), `"error":"no_session"`)
		})
	}

	// Las públicas siguen abiertas sin sesión.
	st, _ := doReq(t, ts.URL, "GET", "/services", nil)
	assert.Equal(t, http.StatusOK, st)
	st, _ = doReq(t, ts.URL, "GET", "/session", nil)
	assert.Equal(t, http.StatusOK, st)
	st, _ = doReq(t, ts.URL, "POST", "/auth/logout", nil)
	assert.NotEqual(t, http.StatusUnauthorized, st)
}

func TestHTTP_HealthAndServices(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, st)
	assert.Equal(t, "ok", string(body))

	st, body = doReq(t, ts.URL, "GET", "/services", nil)
	require.Equal(t, http.StatusOK, st)
	var offerings []struct {
		Type  string  `json:"type"`
		Price float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(body, &offerings))
	assert.Len(t, offerings, 5)
}

type sessionBody struct {
	User *struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	} `json:"user"`
	Loading bool `json:"loading"`
	Route   struct {
		Tree  string `json:"tree"`
		Entry string `json:"entry"`
	} `json:"route"`
}

type listBody struct {
	Status string `json:"status"`
	Items  []struct {
		ID      string  `json:"id"`
		PetName string  `json:"pet_name"`
		Price   float64 `json:"price"`
	} `json:"items"`
}

func createPet(t *testing.T, baseURL string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", payload)
	require.Equal(t, http.StatusCreated, st, string(body))

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.ID, string(body))
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path string, payload any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

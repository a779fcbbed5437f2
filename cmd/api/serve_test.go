package main

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

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPServer_BookingDateUsesConfiguredTimezone(t *testing.T) {
	cfg := config.Config{
		Port:         "0",
		AuthProvider: config.AuthMemory,
		DataProvider: config.DataMemory,
		Timezone:     "America/Argentina/Buenos_Aires",
	}
	require.NoError(t, cfg.Validate())

	b, err := app.NewBackends(cfg, nil)
	require.NoError(t, err)
	a, err := app.New(b, nil)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))

	ts := httptest.NewServer(newHTTPServer(cfg, a, nil).Handler)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})

	st, body := post(t, ts.URL+"/auth/register", map[string]any{"email": "tz@b.com", "password": "abcdef"})
	require.Equal(t, http.StatusCreated, st, string(body))

	st, body = post(t, ts.URL+"/pets", map[string]any{"name": "Luna", "species": "perro", "breed": "Mestizo", "age": 3})
	require.Equal(t, http.StatusCreated, st, string(body))
	var pet struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &pet))

	var booking struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	require.Eventually(t, func() bool {
		st, body = post(t, ts.URL+"/bookings", map[string]any{
			"pet_id": pet.ID, "service_type": "paseo", "date": "2099-03-10", "time": "12:00",
		})
		return st == http.StatusCreated && json.Unmarshal(body, &booking) == nil
	}, 2*time.Second, 10*time.Millisecond)

	// 12:00 en Buenos Aires (UTC-3) son las 15:00 UTC.
	assert.True(t, booking.ScheduledAt.Equal(time.Date(2099, 3, 10, 15, 0, 0, 0, time.UTC)), booking.ScheduledAt.String())
}

func post(t *testing.T, url string, payload any) (int, []byte) {
	t.Helper()

	b, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

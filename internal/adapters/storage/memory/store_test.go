package memory

import (
	"context"
	"testing"
	"time"

	"pawtastic/internal/ports/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func nextEvent(t *testing.T, sub backend.Subscription) backend.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return backend.ChangeEvent{}
}

func TestStore_SelectFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.Insert(ctx, "pets", backend.Row{"owner_id": "u1", "name": "A"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "pets", backend.Row{"owner_id": "u2", "name": "B"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "pets", backend.Row{"owner_id": "u1", "name": "C"})
	require.NoError(t, err)

	rows, err := s.Select(ctx, "pets", backend.Query{Column: "owner_id", Equals: "u1", OrderBy: "created_at", Descending: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "C", rows[0].Field("name"))
	assert.Equal(t, "A", rows[1].Field("name"))

	asc, err := s.Select(ctx, "pets", backend.Query{Column: "owner_id", Equals: "u1", OrderBy: "created_at"})
	require.NoError(t, err)
	assert.Equal(t, "A", asc[0].Field("name"))
}

func TestStore_InsertAssignsIDAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	r, err := s.Insert(ctx, "pets", backend.Row{"name": "Luna"})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID())
	assert.NotEmpty(t, r.Field("created_at"))

	_, err = s.Insert(ctx, "pets", backend.Row{"id": r.ID()})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestStore_UpdateDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.Update(ctx, "pets", "nope", backend.Row{"name": "x"})
	assert.ErrorIs(t, err, backend.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "pets", "nope"), backend.ErrNotFound)

	r, err := s.Insert(ctx, "pets", backend.Row{"name": "Luna"})
	require.NoError(t, err)

	up, err := s.Update(ctx, "pets", r.ID(), backend.Row{"id": "hijack", "name": "Sol"})
	require.NoError(t, err)
	assert.Equal(t, r.ID(), up.ID())
	assert.Equal(t, "Sol", up.Field("name"))
}

func TestFeed_DeliversMatchingEventsInOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	sub, err := s.Subscribe(ctx, "pets", backend.Filter{Column: "owner_id", Equals: "u1"})
	require.NoError(t, err)
	defer sub.Close()

	a, err := s.Insert(ctx, "pets", backend.Row{"owner_id": "u1", "name": "A"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "pets", backend.Row{"owner_id": "u2", "name": "other"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "bookings", backend.Row{"owner_id": "u1"})
	require.NoError(t, err)
	_, err = s.Update(ctx, "pets", a.ID(), backend.Row{"name": "A2"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "pets", a.ID()))

	ev := nextEvent(t, sub)
	assert.Equal(t, backend.EventInsert, ev.Type)
	assert.Equal(t, "A", ev.New.Field("name"))

	ev = nextEvent(t, sub)
	assert.Equal(t, backend.EventUpdate, ev.Type)
	assert.Equal(t, "A", ev.Old.Field("name"))
	assert.Equal(t, "A2", ev.New.Field("name"))

	ev = nextEvent(t, sub)
	assert.Equal(t, backend.EventDelete, ev.Type)
	assert.Equal(t, a.ID(), ev.Old.ID())
	assert.Nil(t, ev.New)
}

func TestFeed_UpdateLeavingFilterIsDelivered(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	r, err := s.Insert(ctx, "pets", backend.Row{"owner_id": "u1"})
	require.NoError(t, err)

	sub, err := s.Subscribe(ctx, "pets", backend.Filter{Column: "owner_id", Equals: "u1"})
	require.NoError(t, err)
	defer sub.Close()

	_, err = s.Update(ctx, "pets", r.ID(), backend.Row{"owner_id": "u2"})
	require.NoError(t, err)

	ev := nextEvent(t, sub)
	assert.Equal(t, backend.EventUpdate, ev.Type)
	assert.False(t, ev.New.Matches(backend.Filter{Column: "owner_id", Equals: "u1"}))
}

func TestFeed_CloseReleasesAndClosesChannel(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	sub, err := s.Subscribe(ctx, "pets", backend.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Subscribers())

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, s.Subscribers())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}

	// Escribir después de Close no bloquea.
	_, err = s.Insert(ctx, "pets", backend.Row{"name": "x"})
	require.NoError(t, err)
}

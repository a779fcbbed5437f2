package livesync

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"pawtastic/internal/adapters/storage/memory"
	"pawtastic/internal/platform/apperr"
	"pawtastic/internal/ports/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPet struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

func (p testPet) RecordID() string { return p.ID }

// -------------------------
// Fakes
// -------------------------

type fakeSub struct {
	ch     chan backend.ChangeEvent
	once   sync.Once
	closed bool
	mu     sync.Mutex
}

func (s *fakeSub) Events() <-chan backend.ChangeEvent { return s.ch }

func (s *fakeSub) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.ch)
	})
	return nil
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeFeed struct {
	mu   sync.Mutex
	subs []*fakeSub
	err  error
}

func (f *fakeFeed) Subscribe(ctx context.Context, table string, filter backend.Filter) (backend.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSub{ch: make(chan backend.ChangeEvent)}
	f.subs = append(f.subs, s)
	return s, nil
}

func (f *fakeFeed) last() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[len(f.subs)-1]
}

type fakeData struct {
	backend.DataAPI
	selectFn func(ctx context.Context, table string, q backend.Query) ([]backend.Row, error)
}

func (d *fakeData) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	return d.selectFn(ctx, table, q)
}

func rowsOf(pets ...testPet) []backend.Row {
	out := make([]backend.Row, 0, len(pets))
	for _, p := range pets {
		out = append(out, backend.Row{"id": p.ID, "owner_id": p.OwnerID, "name": p.Name})
	}
	return out
}

func insertEv(id, owner, name string) backend.ChangeEvent {
	return backend.ChangeEvent{Type: backend.EventInsert, New: backend.Row{"id": id, "owner_id": owner, "name": name}}
}

func updateEv(id, owner, name string) backend.ChangeEvent {
	return backend.ChangeEvent{Type: backend.EventUpdate, New: backend.Row{"id": id, "owner_id": owner, "name": name}, Old: backend.Row{"id": id}}
}

func deleteEv(id string) backend.ChangeEvent {
	return backend.ChangeEvent{Type: backend.EventDelete, Old: backend.Row{"id": id}}
}

func newPetsChannel(data backend.DataAPI, feed backend.ChangeFeed, owner string) *Channel[testPet] {
	return New[testPet](data, feed, Config[testPet]{Table: "pets", OwnerColumn: "owner_id", OwnerID: owner}, nil)
}

func ids(items []testPet) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

// send entrega ev al pump; con canal sin buffer, al volver el evento anterior
// ya fue procesado.
func send(t *testing.T, s *fakeSub, evs ...backend.ChangeEvent) {
	t.Helper()
	for _, ev := range evs {
		select {
		case s.ch <- ev:
		case <-time.After(time.Second):
			t.Fatal("pump not receiving")
		}
	}
	// Evento marcador: garantiza que el último ya se aplicó.
	select {
	case s.ch <- deleteEv("__marker__"):
	case <-time.After(time.Second):
		t.Fatal("pump not receiving")
	}
}

// -------------------------
// Tests
// -------------------------

func TestStart_LoadsSnapshotAndAppliesEvents(t *testing.T) {
	feed := &fakeFeed{}
	data := &fakeData{selectFn: func(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
		assert.Equal(t, "pets", table)
		assert.Equal(t, backend.Query{Column: "owner_id", Equals: "u1", OrderBy: "created_at", Descending: true}, q)
		return rowsOf(testPet{ID: "p2", OwnerID: "u1", Name: "B"}, testPet{ID: "p1", OwnerID: "u1", Name: "A"}), nil
	}}

	ch := newPetsChannel(data, feed, "u1")
	items, err := ch.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, ids(items))

	st, stErr := ch.Status()
	assert.Equal(t, StatusLive, st)
	assert.NoError(t, stErr)

	sub := feed.last()

	// insert -> al frente
	send(t, sub, insertEv("p3", "u1", "C"))
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(ch.List()))

	// update -> reemplaza en su lugar
	send(t, sub, updateEv("p2", "u1", "B2"))
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(ch.List()))
	p2, ok := ch.Get("p2")
	require.True(t, ok)
	assert.Equal(t, "B2", p2.Name)

	// filas de otro dueño se ignoran
	send(t, sub, insertEv("x1", "u2", "other"))
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(ch.List()))

	// delete
	send(t, sub, deleteEv("p1"))
	assert.Equal(t, []string{"p3", "p2"}, ids(ch.List()))

	// delete de id desconocido: no-op
	send(t, sub, deleteEv("ghost"))
	assert.Equal(t, []string{"p3", "p2"}, ids(ch.List()))

	require.NoError(t, ch.Stop())
	assert.True(t, sub.isClosed())
	assert.Empty(t, ch.List())
}

func TestStart_InsertBeforeLoadIsNotDuplicated(t *testing.T) {
	feed := &fakeFeed{}
	release := make(chan struct{})
	data := &fakeData{selectFn: func(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
		<-release
		return rowsOf(testPet{ID: "p1", OwnerID: "u1", Name: "Luna"}), nil
	}}

	ch := newPetsChannel(data, feed, "u1")

	type result struct {
		items []testPet
		err   error
	}
	done := make(chan result, 1)
	go func() {
		items, err := ch.Start(context.Background())
		done <- result{items, err}
	}()

	require.Eventually(t, func() bool {
		feed.mu.Lock()
		defer feed.mu.Unlock()
		return len(feed.subs) == 1
	}, time.Second, 5*time.Millisecond)

	send(t, feed.last(), insertEv("p1", "u1", "Luna"))
	close(release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, []string{"p1"}, ids(res.items))
	assert.Len(t, ch.List(), 1)
}

func TestStart_LoadErrorReleasesSubscription(t *testing.T) {
	feed := &fakeFeed{}
	data := &fakeData{selectFn: func(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
		return nil, errors.New("connection refused")
	}}

	ch := newPetsChannel(data, feed, "u1")
	items, err := ch.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrLoad)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.True(t, feed.last().isClosed())

	st, stErr := ch.Status()
	assert.Equal(t, StatusFailed, st)
	assert.ErrorIs(t, stErr, apperr.ErrLoad)

	// Stop después de un fallo vuelve a idle; otro Stop ya no corresponde.
	require.NoError(t, ch.Stop())
	assert.ErrorIs(t, ch.Stop(), ErrNotStarted)
}

func TestStart_SubscribeError(t *testing.T) {
	feed := &fakeFeed{err: errors.New("socket closed")}
	data := &fakeData{selectFn: func(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
		t.Fatal("select must not run without a subscription")
		return nil, nil
	}}

	ch := newPetsChannel(data, feed, "u1")
	_, err := ch.Start(context.Background())
	assert.ErrorIs(t, err, apperr.ErrLoad)
}

func TestStart_RequiresOwner(t *testing.T) {
	ch := newPetsChannel(&fakeData{}, &fakeFeed{}, "")
	_, err := ch.Start(context.Background())
	assert.ErrorIs(t, err, apperr.ErrMissingField)
}

func TestStop_WithoutStart(t *testing.T) {
	ch := newPetsChannel(&fakeData{}, &fakeFeed{}, "u1")
	assert.ErrorIs(t, ch.Stop(), ErrNotStarted)
}

func TestStart_TwiceDoesNotLeakSubscription(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	ch := newPetsChannel(store, store, "u1")
	_, err := ch.Start(ctx)
	require.NoError(t, err)
	_, err = ch.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Subscribers())

	require.NoError(t, ch.Stop())
	assert.Equal(t, 0, store.Subscribers())
	assert.ErrorIs(t, ch.Stop(), ErrNotStarted)
}

func TestUpdateLeavingFilterRemoves(t *testing.T) {
	feed := &fakeFeed{}
	data := &fakeData{selectFn: func(context.Context, string, backend.Query) ([]backend.Row, error) {
		return rowsOf(testPet{ID: "p1", OwnerID: "u1"}), nil
	}}

	ch := newPetsChannel(data, feed, "u1")
	_, err := ch.Start(context.Background())
	require.NoError(t, err)

	send(t, feed.last(), updateEv("p1", "u2", "moved"))
	assert.Empty(t, ch.List())

	// update de un id desconocido que sí matchea: entra al frente
	send(t, feed.last(), updateEv("p9", "u1", "late"))
	assert.Equal(t, []string{"p9"}, ids(ch.List()))
}

func TestFeedLostMarksFailed(t *testing.T) {
	feed := &fakeFeed{}
	data := &fakeData{selectFn: func(context.Context, string, backend.Query) ([]backend.Row, error) {
		return rowsOf(testPet{ID: "p1", OwnerID: "u1"}), nil
	}}

	ch := newPetsChannel(data, feed, "u1")
	_, err := ch.Start(context.Background())
	require.NoError(t, err)

	// el transporte se corta sin Stop
	require.NoError(t, feed.last().Close())

	require.Eventually(t, func() bool {
		st, _ := ch.Status()
		return st == StatusFailed
	}, time.Second, 5*time.Millisecond)

	_, stErr := ch.Status()
	assert.ErrorIs(t, stErr, ErrFeedLost)
	assert.Len(t, ch.List(), 1)
	require.NoError(t, ch.Stop())
}

func TestWatchReceivesChanges(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	ch := newPetsChannel(store, store, "u1")

	var (
		mu   sync.Mutex
		last []testPet
	)
	cancel := ch.Watch(func(items []testPet) {
		mu.Lock()
		last = items
		mu.Unlock()
	})
	defer cancel()

	_, err := ch.Start(ctx)
	require.NoError(t, err)

	_, err = store.Insert(ctx, "pets", backend.Row{"owner_id": "u1", "name": "Luna"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(last) == 1 && last[0].Name == "Luna"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, ch.Stop())
}

func TestMirrorMatchesBackendAtQuiescence(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	// datos previos
	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, "pets", backend.Row{"id": fmt.Sprintf("pre%d", i), "owner_id": "u1"})
		require.NoError(t, err)
	}

	ch := newPetsChannel(store, store, "u1")
	_, err := ch.Start(ctx)
	require.NoError(t, err)
	defer ch.Stop()

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("p%d", rnd.Intn(10))
		owner := []string{"u1", "u1", "u2"}[rnd.Intn(3)]
		switch rnd.Intn(3) {
		case 0:
			_, _ = store.Insert(ctx, "pets", backend.Row{"id": id, "owner_id": owner})
		case 1:
			_, _ = store.Update(ctx, "pets", id, backend.Row{"owner_id": owner, "name": fmt.Sprint(i)})
		case 2:
			_ = store.Delete(ctx, "pets", id)
		}
	}

	want, err := store.Select(ctx, "pets", backend.Query{Column: "owner_id", Equals: "u1"})
	require.NoError(t, err)
	wantIDs := make([]string, 0, len(want))
	for _, r := range want {
		wantIDs = append(wantIDs, r.ID())
	}

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(sortedCopy(wantIDs), sortedCopy(ids(ch.List())))
	}, 2*time.Second, 10*time.Millisecond)

	seen := map[string]bool{}
	for _, id := range ids(ch.List()) {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

// Para toda intercalación de carga inicial y eventos, cada id aparece a lo sumo una vez.
func TestIdempotentMergeAcrossInterleavings(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		rnd := rand.New(rand.NewSource(seed))

		snapshot := make([]testPet, 0)
		n := rnd.Intn(5)
		for i := 0; i < n; i++ {
			snapshot = append(snapshot, testPet{ID: fmt.Sprintf("p%d", i), OwnerID: "u1"})
		}

		events := make([]backend.ChangeEvent, 0)
		for i := 0; i < 10; i++ {
			id := fmt.Sprintf("p%d", rnd.Intn(6))
			switch rnd.Intn(3) {
			case 0:
				events = append(events, insertEv(id, "u1", "x"))
			case 1:
				events = append(events, updateEv(id, "u1", "y"))
			default:
				events = append(events, deleteEv(id))
			}
		}
		split := rnd.Intn(len(events) + 1)

		feed := &fakeFeed{}
		release := make(chan struct{})
		data := &fakeData{selectFn: func(context.Context, string, backend.Query) ([]backend.Row, error) {
			<-release
			return rowsOf(snapshot...), nil
		}}
		ch := newPetsChannel(data, feed, "u1")

		done := make(chan error, 1)
		go func() {
			_, err := ch.Start(context.Background())
			done <- err
		}()
		require.Eventually(t, func() bool {
			feed.mu.Lock()
			defer feed.mu.Unlock()
			return len(feed.subs) == 1
		}, time.Second, time.Millisecond)

		send(t, feed.last(), events[:split]...)
		close(release)
		require.NoError(t, <-done)
		send(t, feed.last(), events[split:]...)

		seen := map[string]bool{}
		for _, id := range ids(ch.List()) {
			require.False(t, seen[id], "seed %d: duplicate id %s", seed, id)
			seen[id] = true
		}
		require.NoError(t, ch.Stop())
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

package navigation

import (
	"testing"

	"pawtastic/internal/domain/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn(id string) session.State {
	return session.State{Session: session.Session{UserID: id, Email: id + "@x.com", IsAuthenticated: true}}
}

func TestSelect(t *testing.T) {
	sel := Select(session.State{Loading: true})
	assert.Equal(t, TreeSplash, sel.Tree)
	assert.Equal(t, Splash, sel.Entry)

	// loading gana aunque ya haya usuario
	sel = Select(session.State{Loading: true, Session: signedIn("u1").Session})
	assert.Equal(t, TreeSplash, sel.Tree)

	sel = Select(session.State{})
	assert.Equal(t, TreePublic, sel.Tree)
	assert.Equal(t, Landing, sel.Entry)
	assert.True(t, sel.Allows(Login))
	assert.False(t, sel.Allows(MyPets))

	sel = Select(signedIn("u1"))
	assert.Equal(t, TreeProtected, sel.Tree)
	assert.Equal(t, Home, sel.Entry)
	assert.True(t, sel.Allows(ServiceBooking))
	assert.False(t, sel.Allows(Login))
	assert.Len(t, sel.Screens, 12)
}

func TestSelect_ScreensAreCopies(t *testing.T) {
	a := Select(session.State{})
	a.Screens[0] = "Hacked"
	assert.Equal(t, Landing, Select(session.State{}).Screens[0])
}

func TestResolve(t *testing.T) {
	pub := Select(session.State{})
	assert.Equal(t, Register, pub.Resolve(Register))
	assert.Equal(t, Landing, pub.Resolve(ServiceHistory))

	prot := Select(signedIn("u1"))
	assert.Equal(t, ServiceHistory, prot.Resolve(ServiceHistory))
	assert.Equal(t, Home, prot.Resolve(Login))
}

type fakeSource struct {
	fns []func(session.State)
	cur session.State
}

func (f *fakeSource) Subscribe(fn func(session.State)) func() {
	f.fns = append(f.fns, fn)
	fn(f.cur)
	return func() { f.fns = nil }
}

func (f *fakeSource) set(st session.State) {
	f.cur = st
	for _, fn := range f.fns {
		fn(st)
	}
}

func TestWatch(t *testing.T) {
	src := &fakeSource{cur: session.State{Loading: true}}

	var trees []Tree
	cancel := Watch(src, func(sel Selection) { trees = append(trees, sel.Tree) })

	src.set(session.State{})
	src.set(signedIn("u1"))
	src.set(signedIn("u2")) // mismo árbol: no renotifica
	src.set(session.State{})

	cancel()
	src.set(signedIn("u3"))

	require.Len(t, trees, 4)
	assert.Equal(t, []Tree{TreeSplash, TreePublic, TreeProtected, TreePublic}, trees)
}

func TestWatch_WithSessionStore(t *testing.T) {
	store := session.NewStore(nil)
	defer store.Close()

	var got []Selection
	cancel := Watch(store, func(sel Selection) { got = append(got, sel) })
	defer cancel()

	require.Len(t, got, 1)
	assert.Equal(t, TreeSplash, got[0].Tree)
}

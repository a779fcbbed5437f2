// Package navigation decide qué árbol de rutas ve la capa de presentación
// según el estado de sesión. No guarda estado propio.
package navigation

import (
	"slices"

	"pawtastic/internal/domain/session"
)

type Tree string

const (
	TreeSplash    Tree = "splash"
	TreePublic    Tree = "public"
	TreeProtected Tree = "protected"
)

type Route string

const (
	Splash Route = "Splash"

	// públicas
	Landing  Route = "Landing"
	Login    Route = "Login"
	Register Route = "Register"

	// protegidas
	Home           Route = "Home"
	Market         Route = "Market"
	Profile        Route = "Profile"
	ServiceBooking Route = "ServiceBooking"
	PersonalInfo   Route = "PersonalInfo"
	PetRegister    Route = "PetRegister"
	EditProfile    Route = "EditProfile"
	MyPets         Route = "MyPets"
	ServiceHistory Route = "ServiceHistory"
	Notifications  Route = "Notifications"
	Privacy        Route = "Privacy"
	HelpSupport    Route = "HelpSupport"
)

var (
	splashScreens = []Route{Splash}
	publicScreens = []Route{Landing, Login, Register}

	protectedScreens = []Route{
		Home, Market, Profile, ServiceBooking, PersonalInfo, PetRegister,
		EditProfile, MyPets, ServiceHistory, Notifications, Privacy, HelpSupport,
	}
)

// Selection es el árbol activo: Entry es la pantalla inicial y Screens
// todas las alcanzables.
type Selection struct {
	Tree    Tree    `json:"tree"`
	Entry   Route   `json:"entry"`
	Screens []Route `json:"screens"`
}

// Select es función pura del estado de sesión.
func Select(st session.State) Selection {
	switch {
	case st.Loading:
		return Selection{Tree: TreeSplash, Entry: Splash, Screens: slices.Clone(splashScreens)}
	case !st.Session.IsAuthenticated:
		return Selection{Tree: TreePublic, Entry: Landing, Screens: slices.Clone(publicScreens)}
	default:
		return Selection{Tree: TreeProtected, Entry: Home, Screens: slices.Clone(protectedScreens)}
	}
}

// Allows indica si route pertenece al árbol seleccionado.
func (s Selection) Allows(route Route) bool {
	return slices.Contains(s.Screens, route)
}

// Resolve devuelve route si el árbol la permite, o la entrada del árbol.
// Es lo que usa un deep link al cambiar la sesión.
func (s Selection) Resolve(route Route) Route {
	if s.Allows(route) {
		return route
	}
	return s.Entry
}

// StateSource es lo mínimo que necesita Watch del session.Store.
type StateSource interface {
	Subscribe(fn func(session.State)) (cancel func())
}

// Watch reevalúa la selección en cada cambio de sesión y llama fn solo
// cuando cambia el árbol. fn se invoca de inmediato con la selección actual.
func Watch(src StateSource, fn func(Selection)) (cancel func()) {
	var last Tree
	return src.Subscribe(func(st session.State) {
		sel := Select(st)
		if sel.Tree == last {
			return
		}
		last = sel.Tree
		fn(sel)
	})
}

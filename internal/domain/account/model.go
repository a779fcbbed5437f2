package account

import "time"

// ProfilesTable es la tabla de perfiles (uno por usuario, id = user id).
const ProfilesTable = "profiles"

// Profile es el perfil editable del usuario.
type Profile struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Phone      string         `json:"phone"`
	Address    string         `json:"address"`
	City       string         `json:"city"`
	PostalCode string         `json:"postal_code"`
	Bio        string         `json:"bio"`
	Extra      map[string]any `json:"extra,omitempty"`
	CreatedAt  *time.Time     `json:"created_at,omitempty"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
}

// ProfileSeed son los datos opcionales que se cargan al registrarse.
type ProfileSeed struct {
	FirstName string
	LastName  string
	Phone     string
}

// ProfileUpdate reemplaza los campos editables. Nombre y apellido son
// obligatorios.
type ProfileUpdate struct {
	FirstName  string
	LastName   string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Bio        string
	Extra      map[string]any
}

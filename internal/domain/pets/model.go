package pets

import (
	"strings"
	"time"
)

// PetsTable es la tabla remota de mascotas.
const PetsTable = "pets"

// OwnerColumn filtra las mascotas del usuario actual.
const OwnerColumn = "owner_id"

// Species define las especies soportadas.
// @Enum dog, cat, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

// ParseSpecies acepta el valor canónico o su nombre en español.
func ParseSpecies(s string) (Species, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dog", "perro":
		return SpeciesDog, true
	case "cat", "gato":
		return SpeciesCat, true
	case "other", "otro":
		return SpeciesOther, true
	default:
		return "", false
	}
}

// Pet es una mascota registrada. La identidad es el ID que asigna el
// backend, nunca la combinación nombre/raza/especie.
type Pet struct {
	ID       string   `json:"id"`
	OwnerID  string   `json:"owner_id"`
	Name     string   `json:"name"`
	Species  Species  `json:"species"`
	Breed    string   `json:"breed"`
	Age      int      `json:"age"`                 // años
	WeightKg *float64 `json:"weight_kg,omitempty"` // opcional
	Notes    string   `json:"notes"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (p Pet) RecordID() string { return p.ID }

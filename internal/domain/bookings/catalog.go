package bookings

// Offering describe un servicio del catálogo.
type Offering struct {
	Type        ServiceType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
}

var catalog = []Offering{
	{Type: ServiceWalk, Title: "Paseo", Description: "30 minutos de paseo", Price: 15.00},
	{Type: ServiceDaycare, Title: "Cuidado Diario", Description: "Cuidado personalizado", Price: 25.00},
	{Type: ServiceVeterinary, Title: "Salud y Bienestar", Description: "Consulta veterinaria", Price: 35.00},
	{Type: ServiceNutrition, Title: "Plan Nutricional", Description: "Asesoría nutricional", Price: 30.00},
	{Type: ServiceGrooming, Title: "Baño y Peluquería", Description: "Baño, corte y cepillado", Price: 20.00},
}

// Catalog devuelve una copia del catálogo en orden de presentación.
func Catalog() []Offering {
	out := make([]Offering, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(t ServiceType) (Offering, bool) {
	for _, o := range catalog {
		if o.Type == t {
			return o, true
		}
	}
	return Offering{}, false
}

package bookings

import "strings"

// ServiceType es el tipo de servicio reservable.
// @Enum walk, grooming, veterinary, daycare, nutrition
type ServiceType string

const (
	ServiceWalk       ServiceType = "walk"
	ServiceGrooming   ServiceType = "grooming"
	ServiceVeterinary ServiceType = "veterinary"
	ServiceDaycare    ServiceType = "daycare"
	ServiceNutrition  ServiceType = "nutrition"
)

// ParseServiceType acepta el valor canónico o el nombre que usa la app.
func ParseServiceType(s string) (ServiceType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "walk", "paseo":
		return ServiceWalk, true
	case "grooming", "peluqueria", "peluquería", "baño":
		return ServiceGrooming, true
	case "veterinary", "salud":
		return ServiceVeterinary, true
	case "daycare", "cuidado":
		return ServiceDaycare, true
	case "nutrition", "alimentacion", "alimentación":
		return ServiceNutrition, true
	default:
		return "", false
	}
}

// Status lo cambia el backend o el staff; el cliente solo lo observa.
// @Enum pending, completed, cancelled
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

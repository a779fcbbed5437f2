package bookings

import (
	"strings"
	"time"

	"pawtastic/internal/platform/apperr"
)

const (
	dateLayout  = "02/01/2006"
	clockLayout = "15:04"
)

// ParseSchedule arma el horario a partir de los campos del formulario:
// fecha "DD/MM/YYYY" y hora "HH:MM" en la zona loc (nil = UTC).
// Una hora vacía se toma como 00:00.
func ParseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	const op = "bookings.parse_schedule"

	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, apperr.Missing(op, "date")
	}
	if clock == "" {
		clock = "00:00"
	}

	t, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.KindInvalidDate, op, err)
	}
	return t, nil
}

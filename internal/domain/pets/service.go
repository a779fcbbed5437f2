package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pawtastic/internal/platform/apperr"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"
)

// Service escribe mascotas en el backend. No toca la lista local: el canal
// de sincronización refleja cada escritura cuando llega el evento push.
type Service struct {
	data backend.DataAPI
	log  logger.Logger
	now  func() time.Time
}

func NewService(data backend.DataAPI, log logger.Logger) *Service {
	return &Service{
		data: data,
		log:  logger.OrNop(log).With(map[string]any{"component": "pets"}),
		now:  time.Now,
	}
}

type CreateInput struct {
	Name     string
	Species  string
	Breed    string
	Age      *int
	WeightKg *float64
	Notes    string
}

// UpdateInput: nil = no tocar.
type UpdateInput struct {
	Name     *string
	Species  *string
	Breed    *string
	Age      *int
	WeightKg *float64
	Notes    *string
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Pet, error) {
	const op = "pets.create"

	if strings.TrimSpace(ownerID) == "" {
		return Pet{}, apperr.New(apperr.KindNoSession, op)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Pet{}, apperr.Missing(op, "name")
	}
	if strings.TrimSpace(in.Species) == "" {
		return Pet{}, apperr.Missing(op, "species")
	}
	species, ok := ParseSpecies(in.Species)
	if !ok {
		return Pet{}, apperr.Invalid(op, "species")
	}
	breed := strings.TrimSpace(in.Breed)
	if breed == "" {
		return Pet{}, apperr.Missing(op, "breed")
	}
	if in.Age == nil {
		return Pet{}, apperr.Missing(op, "age")
	}
	if *in.Age < 0 {
		return Pet{}, apperr.Invalid(op, "age")
	}
	if in.WeightKg != nil && *in.WeightKg < 0 {
		return Pet{}, apperr.Invalid(op, "weight_kg")
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	row := backend.Row{
		"owner_id":   ownerID,
		"name":       name,
		"species":    string(species),
		"breed":      breed,
		"age":        *in.Age,
		"notes":      strings.TrimSpace(in.Notes),
		"created_at": now,
		"updated_at": now,
	}
	if in.WeightKg != nil {
		row["weight_kg"] = *in.WeightKg
	}

	out, err := s.data.Insert(ctx, PetsTable, row)
	if err != nil {
		s.log.Error("pet insert failed", map[string]any{"op": op, "user_id": ownerID, "err": err})
		return Pet{}, apperr.Wrap(apperr.KindWriteError, op, err)
	}
	return decodePet(op, out)
}

// Update modifica la mascota id del usuario ownerID. Una mascota ajena se
// reporta como inexistente.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (Pet, error) {
	const op = "pets.update"

	patch := backend.Row{}
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return Pet{}, apperr.Missing(op, "name")
		}
		patch["name"] = v
	}
	if in.Species != nil {
		sp, ok := ParseSpecies(*in.Species)
		if !ok {
			return Pet{}, apperr.Invalid(op, "species")
		}
		patch["species"] = string(sp)
	}
	if in.Breed != nil {
		v := strings.TrimSpace(*in.Breed)
		if v == "" {
			return Pet{}, apperr.Missing(op, "breed")
		}
		patch["breed"] = v
	}
	if in.Age != nil {
		if *in.Age < 0 {
			return Pet{}, apperr.Invalid(op, "age")
		}
		patch["age"] = *in.Age
	}
	if in.WeightKg != nil {
		if *in.WeightKg < 0 {
			return Pet{}, apperr.Invalid(op, "weight_kg")
		}
		patch["weight_kg"] = *in.WeightKg
	}
	if in.Notes != nil {
		patch["notes"] = strings.TrimSpace(*in.Notes)
	}

	if err := s.checkOwner(ctx, op, ownerID, id); err != nil {
		return Pet{}, err
	}

	patch["updated_at"] = s.now().UTC().Format(time.RFC3339Nano)
	out, err := s.data.Update(ctx, PetsTable, id, patch)
	if err != nil {
		s.log.Error("pet update failed", map[string]any{"op": op, "user_id": ownerID, "pet_id": id, "err": err})
		return Pet{}, apperr.Wrap(apperr.KindWriteError, op, err)
	}
	return decodePet(op, out)
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	const op = "pets.delete"

	if err := s.checkOwner(ctx, op, ownerID, id); err != nil {
		return err
	}
	if err := s.data.Delete(ctx, PetsTable, id); err != nil {
		s.log.Error("pet delete failed", map[string]any{"op": op, "user_id": ownerID, "pet_id": id, "err": err})
		return apperr.Wrap(apperr.KindWriteError, op, err)
	}
	return nil
}

// checkOwner lee la fila por id y verifica el dueño. El backend con RLS
// ya filtra, pero el backend en memoria no.
func (s *Service) checkOwner(ctx context.Context, op, ownerID, id string) error {
	if strings.TrimSpace(ownerID) == "" {
		return apperr.New(apperr.KindNoSession, op)
	}
	if strings.TrimSpace(id) == "" {
		return apperr.Missing(op, "id")
	}

	rows, err := s.data.Select(ctx, PetsTable, backend.Query{Column: "id", Equals: id})
	if err != nil {
		s.log.Error("pet lookup failed", map[string]any{"op": op, "pet_id": id, "err": err})
		return apperr.Wrap(apperr.KindLoadError, op, err)
	}
	if len(rows) == 0 || rows[0].Field(OwnerColumn) != ownerID {
		return apperr.Wrap(apperr.KindWriteError, op, fmt.Errorf("pet %s: %w", id, backend.ErrNotFound))
	}
	return nil
}

func decodePet(op string, row backend.Row) (Pet, error) {
	p, err := backend.Decode[Pet](row)
	if err != nil {
		return Pet{}, apperr.Wrap(apperr.KindWriteError, op, err)
	}
	return p, nil
}

// IsNotFound indica si err corresponde a una mascota inexistente o ajena.
func IsNotFound(err error) bool {
	return errors.Is(err, backend.ErrNotFound)
}

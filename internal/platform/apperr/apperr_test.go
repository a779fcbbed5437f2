package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	cause := errors.New("upstream 500: relation pets does not exist")
	err := fmt.Errorf("handler: %w", Wrap(KindLoadError, "livesync.start", cause))

	assert.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrWrite)
	assert.Equal(t, KindLoadError, KindOf(err))
	assert.Equal(t, CategoryData, KindOf(err).Category())
}

func TestMessageHidesBackendText(t *testing.T) {
	err := Wrap(KindWriteError, "bookings.submit", errors.New("duplicate key value violates unique constraint"))

	msg := Message(err)
	assert.NotContains(t, msg, "duplicate")
	assert.Equal(t, messages[KindWriteError], msg)

	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Ocurrió un error inesperado", Message(errors.New("x")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "pets.create: missing_field (name)", Missing("pets.create", "name").Error())
	assert.Equal(t, "invalid_email", ErrInvalidEmail.Error())
	assert.Equal(t, "breed", FieldOf(Invalid("pets.create", "breed")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidEmail:       http.StatusBadRequest,
		KindInvalidDate:        http.StatusBadRequest,
		KindInvalidCredentials: http.StatusUnauthorized,
		KindNoSession:          http.StatusUnauthorized,
		KindEmailInUse:         http.StatusConflict,
		KindLoadError:          http.StatusBadGateway,
	}
	for k, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(k, "op")), k)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, CategoryAuth, KindEmailInUse.Category())
	assert.Equal(t, CategoryValidation, KindInvalidDate.Category())
	assert.Equal(t, CategoryData, KindWriteError.Category())
}

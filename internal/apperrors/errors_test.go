package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHelpers(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"not found", NotFound("comment %d not found", 7), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("edge already exists"), KindConflict, http.StatusConflict},
		{"validation", Validation("body must not be empty"), KindValidation, http.StatusBadRequest},
		{"authorization", Authorization("not allowed"), KindAuthorization, http.StatusForbidden},
		{"store", Store(errors.New("connection refused")), KindStore, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), 0, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestWrappedErrorsKeepTheirKind(t *testing.T) {
	err := fmt.Errorf("respond friend: %w", Conflict("friend request is not pending"))

	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "friend request is not pending", PublicMessage(err))
}

func TestStoreErrorIsOpaque(t *testing.T) {
	cause := errors.New("pq: relation does not exist")
	err := Store(cause)

	assert.True(t, IsStore(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.Same(t, err, Store(err), "wrapping a store error twice keeps the original")
	assert.Nil(t, Store(nil))
}

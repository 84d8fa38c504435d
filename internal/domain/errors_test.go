package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("record not found")
	wrapped := NewAppError(CodeNotFound, "order not found", cause)
	assert.Equal(t, "order not found: record not found", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	bare := NewAppError(CodeNotFound, "order not found", nil)
	assert.Equal(t, "order not found", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestCategoryHelpers(t *testing.T) {
	checks := map[int]func(error) bool{
		CodeNotFound:      IsNotFound,
		CodeAlreadyExists: IsAlreadyExists,
		CodeValidation:    IsValidation,
		CodeInternal:      IsInternal,
		CodeUnauthorized:  IsUnauthorized,
		CodeForbidden:     IsForbidden,
	}
	sentinels := []*AppError{ErrNotFound, ErrAlreadyExists, ErrValidation, ErrInternal, ErrUnauthorized, ErrForbidden}

	for _, sentinel := range sentinels {
		t.Run(sentinel.Message, func(t *testing.T) {
			built := NewAppError(sentinel.Code, "built elsewhere", nil)
			deep := fmt.Errorf("list orders: %w", built)
			for code, check := range checks {
				want := code == sentinel.Code
				assert.Equal(t, want, check(sentinel), "sentinel code %d", code)
				assert.Equal(t, want, check(deep), "wrapped code %d", code)
			}
		})
	}

	plain := errors.New("plain")
	for _, check := range checks {
		assert.False(t, check(plain))
		assert.False(t, check(nil))
	}
}

func TestPermissionDenied(t *testing.T) {
	err := PermissionDenied(PermDeleteOrders)

	assert.True(t, IsForbidden(err))
	assert.Equal(t, http.StatusForbidden, HTTPStatusCode(err))
	assert.Equal(t, ErrForbidden.Message, err.Message)
	assert.Equal(t, "You're not allowed to do this operation: missing permission nexopos.delete.orders", err.Error())
}

func TestValidationFailure(t *testing.T) {
	err := ValidationFailure(FieldErrors{"value": "numeric", "name": "required"})

	assert.True(t, IsValidation(err))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusCode(err))
	assert.Equal(t, "validation error: invalid fields: name, value", err.Error())

	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "required", fields["name"])
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrInternal, http.StatusInternalServerError},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("delete order 9: %w", ErrNotFound), http.StatusNotFound},
		{NewAppError(999, "unknown", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), "%v", tt.err)
	}
}

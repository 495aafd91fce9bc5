package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindPredicatesSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("save deck: %w", Validation(ReasonMaxCopies))

	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "save deck: max copies", err.Error())
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindTransport, KindOf(errors.New("boom")))
}

func TestTransportUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport("get card", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "get card: connection refused", err.Error())
}

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusNotFound, KindNotFound},
		{http.StatusGone, KindNotFound},
		{http.StatusBadRequest, KindValidation},
		{http.StatusConflict, KindValidation},
		{http.StatusInternalServerError, KindTransport},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.kind, FromStatus(tc.status, "").Kind)
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(Validation("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("x")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Auth("x")))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(errors.New("x")))
}

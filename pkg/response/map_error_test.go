package response_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/okravets/volleyball-match-service/internal/repository"
	"github.com/okravets/volleyball-match-service/internal/service"
	"github.com/okravets/volleyball-match-service/pkg/response"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"Nil error", nil, http.StatusOK, "ok"},
		{"Invalid input", service.NewInvalidInputError([]service.FieldError{{Field: "team", Message: "bad"}}), http.StatusBadRequest, "invalid_input"},
		{"Guard rejection", service.ErrRejected, http.StatusConflict, "rejected"},
		{"Wrapped rejection", errors.Join(service.ErrRejected), http.StatusConflict, "rejected"},
		{"Not found", repository.ErrNotFound, http.StatusNotFound, "not_found"},
		{"Already exists", repository.ErrAlreadyExists, http.StatusConflict, "already_exists"},
		{"Conflict", repository.ErrConflict, http.StatusConflict, "conflict"},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := response.MapError(tc.err)
			if status != tc.wantStatus || payload.Error != tc.wantCode {
				t.Errorf("MapError(%v) = %d %q; want %d %q", tc.err, status, payload.Error, tc.wantStatus, tc.wantCode)
			}
		})
	}
}

func TestMapErrorCarriesFieldErrors(t *testing.T) {
	err := service.NewInvalidInputError([]service.FieldError{
		{Field: "config.total_sets", Message: "must be >= 1"},
		{Field: "lineup", Message: "must have exactly 6 positions"},
	})
	_, payload := response.MapError(err)
	if len(payload.FieldErrors) != 2 {
		t.Fatalf("field errors = %+v; want both carried through", payload.FieldErrors)
	}
}

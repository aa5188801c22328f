package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", apperrors.NewNotFound("content x", nil), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", apperrors.NewNotFound("content x", nil)), http.StatusNotFound},
		{"bad request", apperrors.NewBadRequest("bad page", nil), http.StatusBadRequest},
		{"invalid argument", apperrors.NewInvalidArgument("nil source"), http.StatusBadRequest},
		{"duplicate", apperrors.NewDuplicateID("dermatology-acne"), http.StatusConflict},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "bad page", PublicMessage(apperrors.NewBadRequest("bad page", errors.New("strconv"))))
	assert.Equal(t, "Internal server error", PublicMessage(apperrors.NewInternal(errors.New("db down"))))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("boom")))
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]string{"a"}, 2, 2, 5)
	assert.Equal(t, Pagination{Page: 2, PageSize: 2, Total: 5, TotalPage: 3}, resp.Pagination)
	assert.Zero(t, NewPaginatedResponse(nil, 1, 0, 5).Pagination.TotalPage)
}

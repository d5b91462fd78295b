package render_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/http/render"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "validation",
			err:      transaction.ErrMissingReason,
			wantCode: http.StatusBadRequest,
			wantBody: `{"success":false,"error":"validation failed: reason is required"}`,
		},
		{
			name:     "insufficient balance",
			err:      fmt.Errorf("%w: requested 150.00, available 100.00", transaction.ErrInsufficientBalance),
			wantCode: http.StatusBadRequest,
			wantBody: `{"success":false,"error":"insufficient balance: requested 150.00, available 100.00"}`,
		},
		{
			name:     "not found",
			err:      catalog.ErrServiceNotFound,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "invalid state",
			err:      transaction.ErrInvalidStateForRevoke,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "forbidden",
			err:      transaction.ErrForbidden,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "storage detail is hidden",
			err:      errors.New("pq: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"success":false,"error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			render.Error(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	render.JSON(w, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, w.Body.String())
}

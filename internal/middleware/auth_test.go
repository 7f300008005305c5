package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckcosting/internal/utils"
)

func echoOperator() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(Operator(r.Context())))
	})
}

func TestOperatorAuthDisabled(t *testing.T) {
	h := OperatorAuth("")(echoOperator())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rates", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestOperatorAuth(t *testing.T) {
	const secret = "s3cret"
	token, err := utils.GenerateOperatorToken("Operator_07", secret, time.Hour)
	require.NoError(t, err)

	h := OperatorAuth(secret)(echoOperator())

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer " + token, http.StatusOK, "Operator_07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/rates", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

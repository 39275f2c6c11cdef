package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("scorer-secret")

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestRequireScorer(t *testing.T) {
	var seen Scorer
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := ScorerFromContext(r.Context())
		require.NoError(t, err)
		seen = s
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireScorer(testSecret, nil)(next)
	valid := jwt.MapClaims{"sub": "strip-4", "role": RoleScorer, "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("nope"), valid), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
			"sub": "strip-4", "role": RoleScorer, "exp": time.Now().Add(-time.Minute).Unix(),
		}), http.StatusUnauthorized},
		{"no subject", "Bearer " + sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"role": RoleScorer}), http.StatusUnauthorized},
		{"viewer role", "Bearer " + sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "fan", "role": "viewer"}), http.StatusForbidden},
		{"scorer", "Bearer " + sign(t, jwt.SigningMethodHS256, testSecret, valid), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rounds/1/initialize", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, Scorer{Subject: "strip-4", Role: RoleScorer}, seen)
}

func TestRequireScorerDisabledWithoutSecret(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	rec := httptest.NewRecorder()
	RequireScorer(nil, nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScorerFromContextMissing(t *testing.T) {
	_, err := ScorerFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.ErrorIs(t, err, errNoScorer)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireAuth(testSecret, roles...), func(c *gin.Context) {
		if id := UserID(c); id != nil {
			c.String(http.StatusOK, id.String())
			return
		}
		c.String(http.StatusOK, "")
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New()
	valid := signToken(t, testSecret, jwt.MapClaims{"sub": userID.String(), "role": "staff", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signToken(t, testSecret, jwt.MapClaims{"sub": userID.String(), "exp": time.Now().Add(-time.Hour).Unix()})
	forged := signToken(t, []byte("other"), jwt.MapClaims{"sub": userID.String()})

	tests := []struct {
		name   string
		header string
		roles  []string
		want   int
	}{
		{"valid token", "Bearer " + valid, nil, http.StatusOK},
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, nil, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, nil, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, nil, http.StatusUnauthorized},
		{"role allowed", "Bearer " + valid, []string{"admin", "staff"}, http.StatusOK},
		{"role denied", "Bearer " + valid, []string{"admin"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newRouter(tt.roles...).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusOK && rec.Body.String() != userID.String() {
				t.Fatalf("expected user id %s in context, got %q", userID, rec.Body.String())
			}
		})
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
)

var secret = []byte("s3cret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func authRouter(seen *domain.Initiator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", AuthRequired(secret), RequireRoles(RoleAgency, RoleAdmin), func(c *gin.Context) {
		*seen = Initiator(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	valid := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	expired := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), Claims{Role: RoleAgency, RegisteredClaims: valid}), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, Claims{Role: RoleAgency, RegisteredClaims: expired}), http.StatusUnauthorized},
		{"wrong role", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, Claims{Role: "customer", RegisteredClaims: valid}), http.StatusForbidden},
		{"agency", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, Claims{Role: RoleAgency, AgencyID: 3, RegisteredClaims: valid}), http.StatusNoContent},
	}
	for _, tc := range cases {
		var seen domain.Initiator
		r := authRouter(&seen)
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.status, w.Code, w.Body.String())
		}
		if tc.status == http.StatusNoContent && (seen != domain.Initiator{Agency: true, AgencyID: 3}) {
			t.Fatalf("%s: unexpected initiator %+v", tc.name, seen)
		}
	}
}

func TestInitiatorWithoutClaimsIsCustomer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := Initiator(c); got != domain.Customer {
		t.Fatalf("expected customer, got %+v", got)
	}
}

func TestRequestIDKeepsIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var got string
	r.GET("/x", func(c *gin.Context) { got = GetRequestID(c) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("expected incoming id, got %q", got)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

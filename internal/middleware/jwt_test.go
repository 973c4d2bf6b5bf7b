package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-secret")

func signedToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func runJWT(t *testing.T, authorization string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTAuth(testSecret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	t.Parallel()

	t.Run("valid token populates identity", func(t *testing.T) {
		token := signedToken(t, testSecret, jwt.MapClaims{
			"user_id": "user-1",
			"role":    "member",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		rec, c := runJWT(t, "Bearer "+token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got, _ := c.Get("user_id").(string); got != "user-1" {
			t.Fatalf("expected user_id user-1, got %q", got)
		}
		if got, _ := c.Get("role").(string); got != "member" {
			t.Fatalf("expected role member, got %q", got)
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec, _ := runJWT(t, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token := signedToken(t, []byte("other-secret"), jwt.MapClaims{
			"user_id": "user-1",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		rec, _ := runJWT(t, "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token := signedToken(t, testSecret, jwt.MapClaims{
			"user_id": "user-1",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		rec, _ := runJWT(t, "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("token without user_id rejected", func(t *testing.T) {
		token := signedToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		rec, _ := runJWT(t, "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAdminGuard(t *testing.T) {
	t.Parallel()

	run := func(role string, set bool) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/admin/transactions", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if set {
			c.Set("role", role)
		}
		handler := AdminGuard(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := handler(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		return rec
	}

	if rec := run("admin", true); rec.Code != http.StatusOK {
		t.Fatalf("expected admin through, got %d", rec.Code)
	}
	if rec := run("member", true); rec.Code != http.StatusForbidden {
		t.Fatalf("expected member blocked, got %d", rec.Code)
	}
	if rec := run("", false); rec.Code != http.StatusForbidden {
		t.Fatalf("expected missing role blocked, got %d", rec.Code)
	}
}

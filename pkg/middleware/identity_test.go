package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
)

func identityRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequireUserID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, strconv.FormatInt(GetUserID(c), 10))
	})
	return r
}

func TestRequireUserID_Valid(t *testing.T) {
	r := identityRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(UserIDHeader, "42")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "42" {
		t.Errorf("expected user id 42, got %q", w.Body.String())
	}
}

func TestRequireUserID_Missing(t *testing.T) {
	r := identityRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestRequireUserID_Invalid(t *testing.T) {
	r := identityRouter()

	for _, bad := range []string{"abc", "-3", "0"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(UserIDHeader, bad)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected status 401, got %d", bad, w.Code)
		}
	}
}

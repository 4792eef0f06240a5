package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/gin-gonic/gin"
)

func TestReadTokenPrefersBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager(config.Config{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer header-token")
	c.Request.AddCookie(&http.Cookie{Name: DefaultName, Value: "cookie-token"})

	token, ok := m.ReadToken(c)
	if !ok || token != "header-token" {
		t.Fatalf("expected header token, got %q (%v)", token, ok)
	}
}

func TestReadTokenFallsBackToCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager(config.Config{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: DefaultName, Value: "cookie-token"})

	token, ok := m.ReadToken(c)
	if !ok || token != "cookie-token" {
		t.Fatalf("expected cookie token, got %q (%v)", token, ok)
	}

	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := m.ReadToken(c); ok {
		t.Fatal("expected no token")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bottega/config"
	"bottega/internal/auth"
	"bottega/internal/domain"

	"github.com/gin-gonic/gin"
)

func authTestRouter(t *testing.T, cfg *config.JWTConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/who", AuthRequired(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})
	r.GET("/admin", AuthRequired(cfg), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func jwtCfg() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "s",
		RefreshSecret: "r",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "bottega",
	}
}

func get(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredExposesClaims(t *testing.T) {
	cfg := jwtCfg()
	r := authTestRouter(t, cfg)
	token, err := auth.GenerateAccessToken(cfg, 7, "a@b.c", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	w := get(r, "/who", token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if body != `{"role":"CUSTOMER","user_id":7}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestAuthRequiredRejectsMissingAndMalformedTokens(t *testing.T) {
	r := authTestRouter(t, jwtCfg())
	if w := get(r, "/who", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", w.Code)
	}
	if w := get(r, "/who", "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d, want 401", w.Code)
	}
}

func TestAdminRequiredForbidsCustomers(t *testing.T) {
	cfg := jwtCfg()
	r := authTestRouter(t, cfg)
	customer, _ := auth.GenerateAccessToken(cfg, 7, "a@b.c", domain.RoleCustomer)
	admin, _ := auth.GenerateAccessToken(cfg, 1, "ops@b.c", domain.RoleAdmin)

	if w := get(r, "/admin", customer); w.Code != http.StatusForbidden {
		t.Fatalf("customer: status = %d, want 403", w.Code)
	}
	if w := get(r, "/admin", admin); w.Code != http.StatusOK {
		t.Fatalf("admin: status = %d, want 200", w.Code)
	}
}

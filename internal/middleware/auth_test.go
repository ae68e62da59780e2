package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatflow-service/internal/model"
	"chatflow-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newJWTUtil() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "testkey", ExpirationHours: 1})
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, called
}

func TestJWTAuthMiddlewareMissingToken(t *testing.T) {
	rec, called := invoke(t, JWTAuthMiddleware(newJWTUtil()), "")
	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Error)
}

func TestJWTAuthMiddlewareWrongScheme(t *testing.T) {
	rec, called := invoke(t, JWTAuthMiddleware(newJWTUtil()), "Basic abc")
	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMiddlewareInvalidToken(t *testing.T) {
	rec, called := invoke(t, JWTAuthMiddleware(newJWTUtil()), "Bearer not-a-token")
	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMiddlewareStoresClaims(t *testing.T) {
	jwt := newJWTUtil()
	token, err := jwt.GenerateToken("p1", "kim@acme.test", model.RoleAdmin)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTAuthMiddleware(jwt)(func(c echo.Context) error {
		claims := ClaimsFromEcho(c)
		require.NotNil(t, claims)
		require.Equal(t, "p1", claims.Subject)
		require.Equal(t, model.RoleAdmin, claims.Role)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &jwtutil.UserClaims{Role: model.RoleRedactor})

	called := false
	handler := RequireRoles(model.RoleAdmin, model.RoleRedactor)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	require.True(t, called)
}

func TestRequireRolesRejectsWithConflict(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &jwtutil.UserClaims{Role: model.RoleEmpleado})

	handler := RequireRoles(model.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Error)
	require.Equal(t, "You do not have permission", resp.Message)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireRoles(model.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

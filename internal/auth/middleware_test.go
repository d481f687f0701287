package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/course-auth-service/internal/domain"
	apperrors "github.com/spec-kit/course-auth-service/pkg/util/errorutil"
)

type managerVerifier struct {
	tm *TokenManager
}

func (v managerVerifier) Verify(token string) (*Claims, error) {
	return v.tm.Decode(token)
}

func newTestApp(t *testing.T, tm *TokenManager, guards ...fiber.Handler) (*fiber.App, *bool) {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})

	reached := false
	handlers := []fiber.Handler{NewAuthMiddleware(managerVerifier{tm: tm}).Handle}
	handlers = append(handlers, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		reached = true
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewInternalError(nil)
		}
		return c.JSON(claims.Identity())
	})
	app.Get("/protected", handlers...)
	return app, &reached
}

func doRequest(t *testing.T, app *fiber.App, authorization string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp, body
}

func issueFor(t *testing.T, tm *TokenManager, role domain.Role) string {
	t.Helper()
	u := testUser()
	u.Role = role
	token, _, err := tm.Issue(u)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer   ", "Basic dXNlcjpwdw=="} {
		app, reached := newTestApp(t, tm)
		resp, body := doRequest(t, app, header)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, header)
		assert.Equal(t, string(apperrors.KindMissingAuthHeader), body["code"], header)
		assert.False(t, *reached, header)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	foreign := issueFor(t, NewTokenManager("other-secret", time.Hour), domain.RoleStudent)

	expiredIssuer := NewTokenManager("test-secret", time.Hour, WithTimeFunc(fixedClock(time.Now().Add(-2*time.Hour))))
	expired := issueFor(t, expiredIssuer, domain.RoleStudent)

	for name, token := range map[string]string{"garbage": "garbage", "foreign": foreign, "expired": expired} {
		t.Run(name, func(t *testing.T) {
			app, reached := newTestApp(t, tm)
			resp, body := doRequest(t, app, "Bearer "+token)

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, string(apperrors.KindInvalidToken), body["code"])
			assert.False(t, *reached)
		})
	}
}

func TestAuthMiddleware_ValidTokenAttachesClaims(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	app, reached := newTestApp(t, tm)

	resp, body := doRequest(t, app, "bearer "+issueFor(t, tm, domain.RoleInstructor))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, *reached)
	assert.EqualValues(t, 42, body["id"])
	assert.Equal(t, "ana@x.com", body["email"])
	assert.Equal(t, "instructor", body["role"])
}

func TestRoleGuards(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	tests := []struct {
		name   string
		guard  fiber.Handler
		role   domain.Role
		status int
	}{
		{name: "student on admin", guard: RequireAdmin(), role: domain.RoleStudent, status: http.StatusForbidden},
		{name: "instructor on admin", guard: RequireAdmin(), role: domain.RoleInstructor, status: http.StatusForbidden},
		{name: "admin on admin", guard: RequireAdmin(), role: domain.RoleAdmin, status: http.StatusOK},
		{name: "student on instructor", guard: RequireInstructor(), role: domain.RoleStudent, status: http.StatusForbidden},
		{name: "instructor on instructor", guard: RequireInstructor(), role: domain.RoleInstructor, status: http.StatusOK},
		{name: "admin on instructor", guard: RequireInstructor(), role: domain.RoleAdmin, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, reached := newTestApp(t, tm, tt.guard)
			resp, body := doRequest(t, app, "Bearer "+issueFor(t, tm, tt.role))

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.status == http.StatusOK, *reached)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, string(apperrors.KindInsufficientPermissions), body["code"])
			}
		})
	}
}

func TestRequireRoles_WithoutAdmission(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(string(de.Code))
		},
	})
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAllowed(t *testing.T) {
	admin := &Claims{Role: domain.RoleAdmin}
	student := &Claims{Role: domain.RoleStudent}

	assert.True(t, Allowed(admin, domain.RoleAdmin))
	assert.True(t, Allowed(admin, domain.RoleAdmin, domain.RoleInstructor))
	assert.False(t, Allowed(student, domain.RoleAdmin))
	assert.False(t, Allowed(nil, domain.RoleAdmin))
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = BearerToken("abc.def.ghi")
	assert.False(t, ok)
}

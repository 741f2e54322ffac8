package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(SessionToken(c, "session"))
	})

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer wins", "Bearer abc", "cookie-token", "abc"},
		{"cookie fallback", "", "cookie-token", "cookie-token"},
		{"malformed header falls back", "Token abc", "cookie-token", "cookie-token"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			buf := make([]byte, 64)
			n, _ := resp.Body.Read(buf)
			assert.Equal(t, tt.want, string(buf[:n]))
		})
	}
}

func TestLoginRedirectURL(t *testing.T) {
	assert.Equal(t, "/auth/login/", LoginRedirectURL(""))
	assert.Equal(t, "/auth/login/?next=%2Ffollow%2F", LoginRedirectURL("/follow/"))
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/posts/1/", SafeNext("/posts/1/"))
	assert.Equal(t, "/", SafeNext(""))
	assert.Equal(t, "/", SafeNext("https://evil.example"))
	assert.Equal(t, "/", SafeNext("//evil.example"))
	assert.Equal(t, "/", SafeNext(`/\evil.example`))
}

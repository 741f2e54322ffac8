package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"scribble/internal/config"
	"scribble/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-at-least-32-characters"

func newTestAuthService(t *testing.T, users *userRepoStub) (*AuthService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg := &config.Config{JWTSecret: testSecret, SessionTTLHours: 1}
	return NewAuthService(users, cfg, rdb), mr
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	t.Parallel()
	users := newUserRepoStub()
	svc, _ := newTestAuthService(t, users)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Username: "carol", Email: "carol@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", user.Password)
	assert.True(t, strings.HasPrefix(user.Password, "$2"))

	got, err := svc.Login(ctx, "carol", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, "carol", "wrong-password1")
	assertFormError(t, err, "__all__")
	_, err = svc.Login(ctx, "nobody", "hunter22")
	assertFormError(t, err, "__all__")
}

func TestAuthService_SignupValidation(t *testing.T) {
	t.Parallel()
	users := newUserRepoStub("taken")
	svc, _ := newTestAuthService(t, users)

	tests := []struct {
		name   string
		in     SignupInput
		fields []string
	}{
		{"short username", SignupInput{Username: "ab", Email: "a@example.com", Password: "password1"}, []string{"username"}},
		{"bad characters", SignupInput{Username: "has space", Email: "a@example.com", Password: "password1"}, []string{"username"}},
		{"bad email", SignupInput{Username: "dave", Email: "nope", Password: "password1"}, []string{"email"}},
		{"weak password", SignupInput{Username: "dave", Email: "d@example.com", Password: "short"}, []string{"password"}},
		{"no digit", SignupInput{Username: "dave", Email: "d@example.com", Password: "onlyletters"}, []string{"password"}},
		{"duplicate username", SignupInput{Username: "taken", Email: "new@example.com", Password: "password1"}, []string{"username"}},
		{"duplicate email", SignupInput{Username: "dave", Email: "taken@example.com", Password: "password1"}, []string{"email"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.in)
			assertFormError(t, err, tc.fields...)
		})
	}
}

func TestAuthService_TokenRoundTripAndRevoke(t *testing.T) {
	t.Parallel()
	svc, mr := newTestAuthService(t, newUserRepoStub("alice"))
	ctx := context.Background()

	token, expiresAt, err := svc.IssueToken(&models.User{ID: 1, Username: "alice"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	session, err := svc.ParseToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), session.UserID)
	assert.Equal(t, "alice", session.Username)
	assert.NotEmpty(t, session.JTI)

	require.NoError(t, svc.Revoke(ctx, session))
	assert.True(t, mr.Exists("blacklist:"+session.JTI))
	assert.Greater(t, mr.TTL("blacklist:"+session.JTI), time.Duration(0))

	_, err = svc.ParseToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestAuthService_ParseTokenRejects(t *testing.T) {
	t.Parallel()
	svc, _ := newTestAuthService(t, newUserRepoStub())
	ctx := context.Background()

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "1",
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
			"jti": "abc",
		}
	}

	wrongIssuer := valid()
	wrongIssuer["iss"] = "someone-else"
	wrongAudience := valid()
	wrongAudience["aud"] = "other-client"
	expired := valid()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noExpiry := valid()
	delete(noExpiry, "exp")
	badSubject := valid()
	badSubject["sub"] = "abc"

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not.a.token",
		"wrong secret":   sign(valid(), "another-secret-key-with-32-characters!!"),
		"wrong issuer":   sign(wrongIssuer, testSecret),
		"wrong audience": sign(wrongAudience, testSecret),
		"expired":        sign(expired, testSecret),
		"no expiry":      sign(noExpiry, testSecret),
		"bad subject":    sign(badSubject, testSecret),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(ctx, token)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}

	_, err := svc.ParseToken(ctx, sign(valid(), testSecret))
	assert.NoError(t, err)
}

func TestAuthService_WithoutRedis(t *testing.T) {
	t.Parallel()
	svc := NewAuthService(newUserRepoStub(), &config.Config{JWTSecret: testSecret}, nil)
	token, _, err := svc.IssueToken(&models.User{ID: 3, Username: "x"})
	require.NoError(t, err)
	session, err := svc.ParseToken(context.Background(), token)
	require.NoError(t, err)
	assert.NoError(t, svc.Revoke(context.Background(), session))
	assert.Equal(t, 7*24*time.Hour, svc.TTL())
}

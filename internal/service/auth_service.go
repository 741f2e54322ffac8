package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"scribble/internal/cache"
	"scribble/internal/config"
	"scribble/internal/middleware"
	"scribble/internal/models"
	"scribble/internal/repository"
	"scribble/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "scribble-api"
	TokenAudience = "scribble-client"

	invalidLoginMsg = "Please enter a correct username and password."
)

// ErrInvalidSession is returned by ParseToken for any token that must not authenticate.
var ErrInvalidSession = errors.New("invalid or expired session")

// Session is the authenticated identity carried by a token.
type Session struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// AuthService issues, verifies and revokes session tokens.
type AuthService struct {
	userRepo repository.UserRepository
	secret   []byte
	ttl      time.Duration
	redis    *redis.Client
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config, rdb *redis.Client) *AuthService {
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{
		userRepo: userRepo,
		secret:   []byte(cfg.JWTSecret),
		ttl:      ttl,
		redis:    rdb,
	}
}

// Signup creates an account. Problems with the submitted values, duplicates
// included, come back as *models.FormError.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	form := models.NewFormError()
	if err := validation.ValidateUsername(in.Username); err != nil {
		form.Add("username", err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		form.Add("email", err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		form.Add("password", err.Error())
	}
	if err := form.OrNil(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		form.Add("username", "a user with that username already exists")
	}
	existing, err = s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		form.Add("email", "user with this email already exists")
	}
	if err := form.OrNil(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			form.Add("username", "a user with that username or email already exists")
			return nil, form
		}
		return nil, err
	}
	return user, nil
}

// Login checks credentials. Any mismatch is the same form-level error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	form := models.NewFormError()
	if user == nil {
		// Spend a comparable amount of time so unknown usernames are not observable.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		form.Add("__all__", invalidLoginMsg)
		return nil, form
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		form.Add("__all__", invalidLoginMsg)
		return nil, form
	}
	return user, nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, issuer, audience, expiry and revocation.
func (s *AuthService) ParseToken(ctx context.Context, tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrInvalidSession
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidSession
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidSession
	}
	username, _ := claims["username"].(string)
	jti, _ := claims["jti"].(string)

	session := &Session{
		UserID:    uint(userID),
		Username:  username,
		JTI:       jti,
		ExpiresAt: exp.Time,
	}
	if s.isRevoked(ctx, jti) {
		return nil, ErrInvalidSession
	}
	return session, nil
}

// Revoke blacklists the session's token id until the token would have expired.
// Without Redis logout only clears the cookie.
func (s *AuthService) Revoke(ctx context.Context, session *Session) error {
	if s.redis == nil || session == nil || session.JTI == "" {
		return nil
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, cache.BlacklistKey(session.JTI), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// TTL is the lifetime of newly issued tokens.
func (s *AuthService) TTL() time.Duration { return s.ttl }

func (s *AuthService) isRevoked(ctx context.Context, jti string) bool {
	if s.redis == nil || jti == "" {
		return false
	}
	n, err := s.redis.Exists(ctx, cache.BlacklistKey(jti)).Result()
	if err != nil {
		// Fail open: an unreachable Redis must not log everyone out.
		middleware.Logger.WarnContext(ctx, "revocation check failed", "error", err)
		return false
	}
	return n > 0
}

// generateJTI creates a unique JWT ID so individual sessions can be revoked.
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

// dummyHash is compared against on unknown usernames.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	return h
})

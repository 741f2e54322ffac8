package server

import (
	"scribble/internal/middleware"
	"scribble/internal/models"
	"scribble/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SignupForm handles GET /auth/signup/
// @Summary Signup form
// @Tags auth
// @Produce json
// @Success 200 {object} object{form=object}
// @Router /auth/signup/ [get]
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, fiber.Map{
		"form": fiber.Map{"values": fiber.Map{"username": "", "email": ""}, "errors": fiber.Map{}},
	})
}

// Signup handles POST /auth/signup/
// @Summary User signup
// @Description Register a new account and start a session
// @Tags auth
// @Accept x-www-form-urlencoded,json
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 302 "Redirect to the index with the session cookie set"
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/signup/ [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	values := formValues(c, "username", "email", "password")
	user, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Username: values["username"],
		Email:    values["email"],
		Password: values["password"],
	})
	if err != nil {
		delete(values, "password")
		return s.renderInvalidForm(c, err, values, nil)
	}
	if err := s.startSession(c, user); err != nil {
		return respondServiceError(c, err)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// LoginForm handles GET /auth/login/
// @Summary Login form
// @Tags auth
// @Produce json
// @Param next query string false "Local path to return to"
// @Success 200 {object} object{next=string}
// @Router /auth/login/ [get]
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.Map{
		"form": fiber.Map{"values": fiber.Map{"username": ""}, "errors": fiber.Map{}},
		"next": middleware.SafeNext(c.Query("next")),
	})
}

// Login handles POST /auth/login/
// @Summary User login
// @Tags auth
// @Accept x-www-form-urlencoded,json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param next formData string false "Local path to return to"
// @Success 302 "Redirect to next with the session cookie set"
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	values := formValues(c, "username", "password", "next")
	next := values["next"]
	if next == "" {
		next = c.Query("next")
	}
	next = middleware.SafeNext(next)

	user, err := s.authService.Login(c.UserContext(), values["username"], values["password"])
	if err != nil {
		delete(values, "password")
		return s.renderInvalidForm(c, err, values, fiber.Map{"next": next})
	}
	if err := s.startSession(c, user); err != nil {
		return respondServiceError(c, err)
	}
	return c.Redirect(next, fiber.StatusFound)
}

// Logout handles POST /auth/logout/
// @Summary Logout
// @Description Revokes the current session token and clears the cookie
// @Tags auth
// @Success 302 "Redirect to the index"
// @Router /auth/logout/ [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if session := currentSession(c); session != nil {
		if err := s.authService.Revoke(c.UserContext(), session); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session",
				"jti", session.JTI, "error", err)
		}
	}
	s.clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	token, expiresAt, err := s.authService.IssueToken(user)
	if err != nil {
		return models.NewInternalError(err)
	}
	s.setSessionCookie(c, token, expiresAt)
	return nil
}

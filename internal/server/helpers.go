package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"scribble/internal/featureflags"
	"scribble/internal/middleware"
	"scribble/internal/models"
	"scribble/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	flashCookie = "flash"
	flashTTL    = 5 * time.Minute
)

// parseID extracts a route parameter by name as a positive uint.
// A malformed id cannot name an existing row, so it answers 404 and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Invalid " + humanizeParam(param)})
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "postId" -> "post ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// mapServiceError picks the HTTP status for an error returned by a service.
func mapServiceError(err error) int {
	var formErr *models.FormError
	if errors.As(err, &formErr) {
		return fiber.StatusBadRequest
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeNotFound:
			return fiber.StatusNotFound
		case models.CodeValidation:
			return fiber.StatusBadRequest
		case models.CodeUnauthorized:
			return fiber.StatusForbidden
		case models.CodeConflict:
			return fiber.StatusConflict
		}
	}
	return fiber.StatusInternalServerError
}

// respondServiceError renders err with the status mapServiceError picks.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err)
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, status, err)
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localsUserID).(uint)
	return id
}

func currentUsername(c *fiber.Ctx) string {
	name, _ := c.Locals(localsUsername).(string)
	return name
}

func currentSession(c *fiber.Ctx) *service.Session {
	session, _ := c.Locals(localsSession).(*service.Session)
	return session
}

// formValues reads the named fields from a urlencoded, multipart or JSON body.
func formValues(c *fiber.Ctx, fields ...string) map[string]string {
	values := make(map[string]string, len(fields))
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body map[string]any
		if err := c.BodyParser(&body); err == nil {
			for _, f := range fields {
				switch v := body[f].(type) {
				case nil:
				case string:
					values[f] = v
				default:
					values[f] = fmt.Sprint(v)
				}
			}
		}
		return values
	}
	for _, f := range fields {
		values[f] = c.FormValue(f)
	}
	return values
}

// readImageUpload returns the multipart "image" file, or nil when none was sent.
// A file sent while post images are switched off is a form error.
func (s *Server) readImageUpload(c *fiber.Ctx) (*service.ImageUpload, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	header, err := c.FormFile("image")
	if err != nil || header == nil || header.Size == 0 {
		return nil, nil
	}
	if !s.flags.Enabled(featureflags.PostImages, currentUserID(c)) {
		form := models.NewFormError()
		form.Add("image", "Image uploads are currently disabled.")
		return nil, form
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// FlashMessage is a one-shot notice shown on the next page.
type FlashMessage struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// setFlash queues a message for the next read route.
func setFlash(c *fiber.Ctx, level, message string) {
	writeFlash(c, append(readFlash(c), FlashMessage{Level: level, Message: message}))
}

// writeFlash replaces the pending flash cookie with messages.
func writeFlash(c *fiber.Ctx, messages []FlashMessage) {
	raw, err := json.Marshal(messages)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(flashTTL),
	})
}

func readFlash(c *fiber.Ctx) []FlashMessage {
	value := c.Cookies(flashCookie)
	if value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var messages []FlashMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil
	}
	return messages
}

// consumeFlash returns pending messages and clears the cookie.
func consumeFlash(c *fiber.Ctx) []FlashMessage {
	messages := readFlash(c)
	if messages == nil {
		return []FlashMessage{}
	}
	c.ClearCookie(flashCookie)
	return messages
}

// flashFromError turns a service error into a flash notice.
func flashFromError(c *fiber.Ctx, err error) {
	var formErr *models.FormError
	if errors.As(err, &formErr) {
		fields := make([]string, 0, len(formErr.Fields))
		for field := range formErr.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		messages := readFlash(c)
		for _, field := range fields {
			messages = append(messages, FlashMessage{Level: "error", Message: field + ": " + formErr.Fields[field]})
		}
		writeFlash(c, messages)
		return
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		setFlash(c, "error", appErr.Message)
		return
	}
	setFlash(c, "error", err.Error())
}

// render answers a read route with its context plus the session user and flash messages.
func (s *Server) render(c *fiber.Ctx, ctx fiber.Map) error {
	ctx["messages"] = consumeFlash(c)
	ctx["features"] = s.flags.Snapshot(currentUserID(c))
	if id := currentUserID(c); id != 0 {
		ctx["user"] = fiber.Map{"id": id, "username": currentUsername(c)}
	} else {
		ctx["user"] = nil
	}
	return c.JSON(ctx)
}

// renderInvalidForm answers 400 with the submitted values and per-field errors.
func (s *Server) renderInvalidForm(c *fiber.Ctx, err error, values map[string]string, extra fiber.Map) error {
	var formErr *models.FormError
	if !errors.As(err, &formErr) {
		return respondServiceError(c, err)
	}
	body := fiber.Map{
		"error":  "Invalid form",
		"code":   models.CodeValidation,
		"fields": formErr.Fields,
		"form": fiber.Map{
			"values": values,
			"errors": formErr.Fields,
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	c.Status(fiber.StatusBadRequest)
	return s.render(c, body)
}

// setSessionCookie stores token in the session cookie until expiresAt.
func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

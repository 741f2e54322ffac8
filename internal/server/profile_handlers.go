package server

import (
	"scribble/internal/models"
	"scribble/internal/service"

	"github.com/gofiber/fiber/v2"
)

var profileFormFields = []string{"first_name", "last_name", "email", "bio", "avatar"}

func profileFormValues(u *models.User) fiber.Map {
	return fiber.Map{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"bio":        u.Bio,
		"avatar":     u.Avatar,
	}
}

// EditProfileForm handles GET /users/:id/edit/
// @Summary Profile edit form
// @Description Only the signed-in user's own id resolves; any other id is 404
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{profile=models.User}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/edit/ [get]
func (s *Server) EditProfileForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.EditableProfile(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.render(c, fiber.Map{
		"profile": user,
		"form":    fiber.Map{"values": profileFormValues(user), "errors": fiber.Map{}},
	})
}

// EditProfile handles POST /users/:id/edit/
// @Summary Update the profile
// @Tags users
// @Accept x-www-form-urlencoded,json
// @Param id path int true "User ID"
// @Param first_name formData string false "First name"
// @Param last_name formData string false "Last name"
// @Param email formData string true "Email"
// @Param bio formData string false "Bio"
// @Param avatar formData string false "Avatar URL"
// @Success 302 "Redirect back to the form"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/edit/ [post]
func (s *Server) EditProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	values := formValues(c, profileFormFields...)

	_, err = s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		RequesterID: currentUserID(c),
		TargetID:    id,
		FirstName:   values["first_name"],
		LastName:    values["last_name"],
		Email:       values["email"],
		Bio:         values["bio"],
		Avatar:      values["avatar"],
	})
	if err != nil {
		return s.renderInvalidForm(c, err, values, nil)
	}
	setFlash(c, "success", "Profile updated")
	return c.Redirect("/users/"+c.Params("id")+"/edit/", fiber.StatusFound)
}

package server

import (
	"scribble/internal/models"
	"scribble/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FollowIndex handles GET /follow/
// @Summary Follow feed
// @Description Posts by authors the current user follows
// @Tags follows
// @Produce json
// @Param page query int false "1-based page number"
// @Success 200 {object} object{page_obj=service.Page[models.Post]}
// @Router /follow/ [get]
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.postService.Feed(c.UserContext(), currentUserID(c), service.ParsePageNumber(c.Query("page")))
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.render(c, fiber.Map{"page_obj": page})
}

// ProfileFollow handles POST /profile/:username/follow/
// @Summary Follow an author
// @Tags follows
// @Param username path string true "Username"
// @Success 302 "Redirect to the profile"
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/follow/ [post]
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	username := c.Params("username")
	author, err := s.followService.Follow(c.UserContext(), currentUserID(c), username)
	switch {
	case err == nil:
	case models.HasCode(err, models.CodeValidation):
		flashFromError(c, err)
	case models.HasCode(err, models.CodeConflict):
		setFlash(c, "info", "You already follow "+author.Username)
	default:
		return respondServiceError(c, err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// ProfileUnfollow handles POST /profile/:username/unfollow/
// @Summary Unfollow an author
// @Tags follows
// @Param username path string true "Username"
// @Success 302 "Redirect to the profile"
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/unfollow/ [post]
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	author, err := s.followService.Unfollow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

package server

import (
	"scribble/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /posts/:id/comment/
// @Summary Comment on a post
// @Description Invalid comments are reported as a flash message on the post page
// @Tags comments
// @Accept x-www-form-urlencoded,json
// @Param id path int true "Post ID"
// @Param text formData string true "Comment text"
// @Success 302 "Redirect to the post"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comment/ [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	values := formValues(c, "text")

	_, err = s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID: currentUserID(c),
		PostID: id,
		Text:   values["text"],
	})
	switch status := mapServiceError(err); {
	case err == nil:
	case status == fiber.StatusBadRequest:
		flashFromError(c, err)
	default:
		return respondServiceError(c, err)
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

// LikeComment handles POST /posts/like_comment/:id/
// @Summary Toggle a like on a comment
// @Tags comments
// @Param id path int true "Comment ID"
// @Success 302 "Redirect to the comment's post"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/like_comment/{id}/ [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	postID, _, err := s.commentService.ToggleLike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Redirect(postURL(postID), fiber.StatusFound)
}

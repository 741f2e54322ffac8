package server

import (
	"errors"
	"fmt"
	"net/url"

	"scribble/internal/models"
	"scribble/internal/service"

	"github.com/gofiber/fiber/v2"
)

var postFormFields = []string{"text", "group"}

// Index handles GET /
// @Summary List posts
// @Description Newest posts first, optionally filtered by a text substring
// @Tags posts
// @Produce json
// @Param search query string false "Substring to search for in post text"
// @Param page query int false "1-based page number"
// @Success 200 {object} object{page_obj=service.Page[models.Post],search=string}
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	search := c.Query("search")
	page, err := s.postService.Index(c.UserContext(), search, service.ParsePageNumber(c.Query("page")), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.render(c, fiber.Map{
		"page_obj": page,
		"search":   search,
	})
}

// GroupPosts handles GET /group/:slug/
// @Summary List a group's posts
// @Tags posts
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query int false "1-based page number"
// @Success 200 {object} object{group=models.Group,page_obj=service.Page[models.Post]}
// @Failure 404 {object} models.ErrorResponse
// @Router /group/{slug}/ [get]
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.postService.GroupPosts(c.UserContext(), c.Params("slug"),
		service.ParsePageNumber(c.Query("page")), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.render(c, fiber.Map{
		"group":    group,
		"page_obj": page,
	})
}

// Profile handles GET /profile/:username/
// @Summary A user's posts
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "1-based page number"
// @Success 200 {object} service.ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/ [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	view, err := s.postService.Profile(c.UserContext(), c.Params("username"),
		service.ParsePageNumber(c.Query("page")), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.render(c, fiber.Map{
		"author":      view.Author,
		"count_posts": view.CountPosts,
		"following":   view.Following,
		"page_obj":    view.Page,
	})
}

// PostDetail handles GET /posts/:id/
// @Summary Post detail
// @Description The post with its comments, like state and the author's post count
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [get]
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.postService.Detail(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.render(c, fiber.Map{
		"post":        detail.Post,
		"count_posts": detail.CountPosts,
		"liked":       detail.Liked,
		"likes_count": detail.Post.LikesCount,
		"comments":    detail.Comments,
		"form":        fiber.Map{"values": fiber.Map{"text": ""}, "errors": fiber.Map{}},
	})
}

// CreatePostForm handles GET /create/
// @Summary New post form
// @Tags posts
// @Produce json
// @Success 200 {object} object{groups=[]models.Group,is_edit=bool}
// @Router /create/ [get]
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	groups, err := s.postService.Groups(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.render(c, fiber.Map{
		"form":    fiber.Map{"values": fiber.Map{"text": "", "group": ""}, "errors": fiber.Map{}},
		"groups":  groups,
		"is_edit": false,
	})
}

// CreatePost handles POST /create/
// @Summary Create a post
// @Tags posts
// @Accept mpfd,x-www-form-urlencoded,json
// @Produce json
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Optional image"
// @Success 302 "Redirect to the author's profile"
// @Failure 400 {object} models.ErrorResponse
// @Router /create/ [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	values := formValues(c, postFormFields...)
	const isEdit = false
	image, err := s.readImageUpload(c)
	if err != nil {
		return s.renderPostFormError(c, err, values, isEdit)
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		UserID: currentUserID(c),
		Text:   values["text"],
		Group:  values["group"],
		Image:  image,
	})
	if err != nil {
		return s.renderPostFormError(c, err, values, isEdit)
	}
	return c.Redirect(profileURL(post.User.Username), fiber.StatusFound)
}

// EditPostForm handles GET /posts/:id/edit/
// @Summary Edit post form
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{post=models.Post,groups=[]models.Group,is_edit=bool}
// @Success 302 "Non-authors are sent back to the post"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/edit/ [get]
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	post, err := s.postService.Get(ctx, id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if post.UserID != currentUserID(c) {
		return c.Redirect(postURL(id), fiber.StatusFound)
	}
	groups, err := s.postService.Groups(ctx)
	if err != nil {
		return respondServiceError(c, err)
	}

	group := ""
	if post.GroupID != nil {
		group = fmt.Sprint(*post.GroupID)
	}
	return s.render(c, fiber.Map{
		"post":    post,
		"form":    fiber.Map{"values": fiber.Map{"text": post.Text, "group": group}, "errors": fiber.Map{}},
		"groups":  groups,
		"is_edit": true,
	})
}

// EditPost handles POST /posts/:id/edit/
// @Summary Edit a post
// @Tags posts
// @Accept mpfd,x-www-form-urlencoded,json
// @Produce json
// @Param id path int true "Post ID"
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Replacement image"
// @Success 302 "Redirect to the post"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/edit/ [post]
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	values := formValues(c, postFormFields...)
	const isEdit = true
	image, err := s.readImageUpload(c)
	if err != nil {
		return s.renderPostFormError(c, err, values, isEdit)
	}

	_, err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID: currentUserID(c),
		PostID: id,
		Text:   values["text"],
		Group:  values["group"],
		Image:  image,
	})
	if models.HasCode(err, models.CodeUnauthorized) {
		return c.Redirect(postURL(id), fiber.StatusFound)
	}
	if err != nil {
		return s.renderPostFormError(c, err, values, isEdit)
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

// DeletePost handles POST /posts/delete/:id
// @Summary Delete a post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 302 "Redirect to the author's profile, or to the index for non-authors"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/delete/{id} [post]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	err = s.postService.DeletePost(c.UserContext(), currentUserID(c), id)
	if models.HasCode(err, models.CodeUnauthorized) {
		return c.Redirect("/", fiber.StatusFound)
	}
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Redirect(profileURL(currentUsername(c)), fiber.StatusFound)
}

// LikePost handles POST /posts/like/:id/
// @Summary Toggle a like on a post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 302 "Redirect to the post"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/like/{id}/ [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

// renderPostFormError answers an invalid create/edit submission; other errors fall
// through to the usual mapping.
func (s *Server) renderPostFormError(c *fiber.Ctx, err error, values map[string]string, isEdit bool) error {
	var formErr *models.FormError
	if !errors.As(err, &formErr) {
		return respondServiceError(c, err)
	}
	groups, gerr := s.postService.Groups(c.UserContext())
	if gerr != nil {
		return respondServiceError(c, gerr)
	}
	return s.renderInvalidForm(c, err, values, fiber.Map{
		"groups":  groups,
		"is_edit": isEdit,
	})
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

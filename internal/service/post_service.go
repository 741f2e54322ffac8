package service

import (
	"context"
	"strconv"
	"strings"

	"scribble/internal/middleware"
	"scribble/internal/models"
	"scribble/internal/notifications"
	"scribble/internal/observability"
	"scribble/internal/repository"
	"scribble/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultPageSize = 10
	groupChoiceMsg  = "Select a valid choice. That choice is not one of the available choices."
)

type PostService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	images      ImageStore
	notifier    notifications.Publisher
	pageSize    int
}

type CreatePostInput struct {
	UserID uint
	Text   string
	Group  string // raw form value: empty or a group id
	Image  *ImageUpload
}

type UpdatePostInput struct {
	UserID uint
	PostID uint
	Text   string
	Group  string
	Image  *ImageUpload
}

// ProfileView is the context of a user's profile page.
type ProfileView struct {
	Author     *models.User        `json:"author"`
	CountPosts int64               `json:"count_posts"`
	Following  bool                `json:"following"`
	Page       *Page[*models.Post] `json:"page_obj"`
}

// PostDetail is the context of a single post page.
type PostDetail struct {
	Post       *models.Post      `json:"post"`
	CountPosts int64             `json:"count_posts"`
	Liked      bool              `json:"liked"`
	Comments   []*models.Comment `json:"comments"`
}

// NewPostService wires the post use cases. images and notifier may be nil.
func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	commentRepo repository.CommentRepository,
	followRepo repository.FollowRepository,
	images ImageStore,
	notifier notifications.Publisher,
	pageSize int,
) *PostService {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &PostService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		followRepo:  followRepo,
		images:      images,
		notifier:    notifier,
		pageSize:    pageSize,
	}
}

// PageSize is the number of posts per listing page.
func (s *PostService) PageSize() int { return s.pageSize }

// Index lists all posts newest first, or those whose text contains search.
func (s *PostService) Index(ctx context.Context, search string, page int, viewerID uint) (*Page[*models.Post], error) {
	if search == "" {
		return Paginate(ctx, page, s.pageSize, func(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
			return s.postRepo.List(ctx, limit, offset, viewerID)
		})
	}
	return Paginate(ctx, page, s.pageSize, func(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
		return s.postRepo.Search(ctx, search, limit, offset, viewerID)
	})
}

// GroupPosts lists the posts of the group with the given slug.
func (s *PostService) GroupPosts(ctx context.Context, slug string, page int, viewerID uint) (*models.Group, *Page[*models.Post], error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	posts, err := Paginate(ctx, page, s.pageSize, func(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
		return s.postRepo.GetByGroupID(ctx, group.ID, limit, offset, viewerID)
	})
	if err != nil {
		return nil, nil, err
	}
	return group, posts, nil
}

// Profile lists a user's posts with the post count and whether viewerID follows them.
// viewerID 0 is an anonymous visitor.
func (s *PostService) Profile(ctx context.Context, username string, page int, viewerID uint) (*ProfileView, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	posts, err := Paginate(ctx, page, s.pageSize, func(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
		return s.postRepo.GetByUserID(ctx, author.ID, limit, offset, viewerID)
	})
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != 0 {
		if following, err = s.followRepo.Exists(ctx, viewerID, author.ID); err != nil {
			return nil, err
		}
	}

	return &ProfileView{
		Author:     author,
		CountPosts: posts.Count,
		Following:  following,
		Page:       posts,
	}, nil
}

// Feed lists posts by the authors viewerID follows.
func (s *PostService) Feed(ctx context.Context, viewerID uint, page int) (*Page[*models.Post], error) {
	if viewerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return Paginate(ctx, page, s.pageSize, func(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
		return s.postRepo.GetFeed(ctx, viewerID, limit, offset)
	})
}

// Get returns one post with its computed fields for viewerID.
func (s *PostService) Get(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, viewerID)
}

// Detail loads a post, its comments oldest first and the author's post count.
func (s *PostService) Detail(ctx context.Context, postID, viewerID uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.CountByUser(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID, viewerID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return &PostDetail{
		Post:       post,
		CountPosts: count,
		Liked:      post.Liked,
		Comments:   comments,
	}, nil
}

// Groups lists the choices for the post form's group field.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

// CreatePost validates the form, stores the optional image and persists the post.
// Followers of the author are notified; notification failures are only logged.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost",
		attribute.Int64("user.id", int64(in.UserID)))
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	form := models.NewFormError()
	groupID := s.resolveGroup(ctx, in.Group, form)
	if err := validation.ValidatePostText(in.Text); err != nil {
		form.Add("text", err.Error())
	}
	if err := form.OrNil(); err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, in.Image, form)
	if err != nil {
		return nil, err
	}
	if err := form.OrNil(); err != nil {
		return nil, err
	}

	post = &models.Post{
		Text:    in.Text,
		Image:   image,
		UserID:  in.UserID,
		GroupID: groupID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.Inc()

	created, err := s.postRepo.GetByID(ctx, post.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	s.notifyFollowers(ctx, created)
	return created, nil
}

// UpdatePost edits a post owned by in.UserID. A missing post is NOT_FOUND;
// someone else's post is UNAUTHORIZED and left untouched.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("Only the author can edit this post")
	}

	form := models.NewFormError()
	groupID := s.resolveGroup(ctx, in.Group, form)
	if err := validation.ValidatePostText(in.Text); err != nil {
		form.Add("text", err.Error())
	}
	if err := form.OrNil(); err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, in.Image, form)
	if err != nil {
		return nil, err
	}
	if err := form.OrNil(); err != nil {
		return nil, err
	}

	post.Text = in.Text
	post.GroupID = groupID
	if image != "" {
		post.Image = image
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// DeletePost removes a post owned by userID along with its comments and likes.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewUnauthorizedError("Only the author can delete this post")
	}
	return s.postRepo.Delete(ctx, postID)
}

// ToggleLike adds userID to the post's like-set, or removes them if present.
// It reports whether the post is liked afterwards.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (liked bool, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "ToggleLike",
		attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err = s.postRepo.GetByID(ctx, postID, userID); err != nil {
		return false, err
	}
	present, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if present {
		err = s.postRepo.Unlike(ctx, userID, postID)
	} else {
		err = s.postRepo.Like(ctx, userID, postID)
	}
	if err != nil {
		return false, err
	}
	observability.LikesToggled.WithLabelValues("post", observability.LikeResult(!present)).Inc()
	return !present, nil
}

// resolveGroup parses the optional group choice, recording a field error when it
// does not name an existing group.
func (s *PostService) resolveGroup(ctx context.Context, raw string, form *models.FormError) *uint {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		form.Add("group", groupChoiceMsg)
		return nil
	}
	group, err := s.groupRepo.GetByID(ctx, uint(id))
	if err != nil {
		// Lookup failures other than a miss still read as an invalid choice to the user.
		if !models.IsNotFound(err) {
			middleware.Logger.ErrorContext(ctx, "group lookup failed", "group_id", id, "error", err)
		}
		form.Add("group", groupChoiceMsg)
		return nil
	}
	return &group.ID
}

func (s *PostService) storeImage(ctx context.Context, upload *ImageUpload, form *models.FormError) (string, error) {
	if upload == nil || len(upload.Content) == 0 || s.images == nil {
		return "", nil
	}
	rel, err := s.images.Store(ctx, *upload)
	if err != nil {
		if appErr := validationMessage(err); appErr != "" {
			form.Add("image", appErr)
			return "", nil
		}
		return "", err
	}
	return rel, nil
}

func (s *PostService) notifyFollowers(ctx context.Context, post *models.Post) {
	if s.notifier == nil || s.followRepo == nil {
		return
	}
	followers, err := s.followRepo.FollowerIDs(ctx, post.UserID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "load followers for notification failed", "post_id", post.ID, "error", err)
		return
	}
	ev := notifications.Event{
		Type:    notifications.EventPostCreated,
		ActorID: post.UserID,
		Actor:   post.User.Username,
		PostID:  post.ID,
		Text:    truncate(post.Text, 140),
	}
	for _, id := range followers {
		if err := s.notifier.PublishUser(ctx, id, ev); err != nil {
			middleware.Logger.WarnContext(ctx, "publish post notification failed", "user_id", id, "error", err)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

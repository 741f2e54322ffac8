package service

import (
	"context"

	"scribble/internal/models"
	"scribble/internal/observability"
	"scribble/internal/repository"
	"scribble/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// CreateComment attaches a comment by in.UserID to an existing post.
// An invalid body is returned as a *models.FormError.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID, 0); err != nil {
		return nil, err
	}

	form := models.NewFormError()
	if err := validation.ValidateCommentText(in.Text); err != nil {
		form.Add("text", err.Error())
	}
	if err := form.OrNil(); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:   in.Text,
		UserID: in.UserID,
		PostID: in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments returns a post's comments oldest first, with like state for viewerID.
func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, viewerID)
}

// ToggleLike flips userID's membership in the comment's like-set and returns the
// parent post id so callers can redirect to it.
func (s *CommentService) ToggleLike(ctx context.Context, userID, commentID uint) (postID uint, liked bool, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "ToggleLike",
		attribute.Int64("comment.id", int64(commentID)))
	defer func() { observability.EndSpan(span, err) }()

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return 0, false, err
	}
	present, err := s.commentRepo.IsLiked(ctx, userID, commentID)
	if err != nil {
		return 0, false, err
	}
	if present {
		err = s.commentRepo.Unlike(ctx, userID, commentID)
	} else {
		err = s.commentRepo.Like(ctx, userID, commentID)
	}
	if err != nil {
		return 0, false, err
	}
	observability.LikesToggled.WithLabelValues("comment", observability.LikeResult(!present)).Inc()
	return comment.PostID, !present, nil
}

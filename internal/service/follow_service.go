package service

import (
	"context"

	"scribble/internal/middleware"
	"scribble/internal/models"
	"scribble/internal/notifications"
	"scribble/internal/observability"
	"scribble/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	notifier   notifications.Publisher
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	notifier notifications.Publisher,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

// Follow makes followerID follow the user named username.
//
// It returns NOT_FOUND for an unknown username, VALIDATION_ERROR for a self-follow
// and CONFLICT when a concurrent request inserted the same edge first. An edge
// that already exists is not an error.
func (s *FollowService) Follow(ctx context.Context, followerID uint, username string) (*models.User, error) {
	author, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == followerID {
		return author, models.NewValidationError("You cannot follow yourself")
	}

	exists, err := s.followRepo.Exists(ctx, followerID, author.ID)
	if err != nil {
		return author, err
	}
	if exists {
		return author, nil
	}

	if err := s.followRepo.Create(ctx, &models.Follow{UserID: followerID, AuthorID: author.ID}); err != nil {
		return author, err
	}
	observability.FollowsCreated.Inc()
	s.notifyAuthor(ctx, followerID, author.ID)
	return author, nil
}

// Unfollow removes the edge if present; a missing edge is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, username string) (*models.User, error) {
	author, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, err := s.followRepo.Delete(ctx, followerID, author.ID); err != nil {
		return author, err
	}
	return author, nil
}

// IsFollowing reports whether followerID follows authorID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	if followerID == 0 {
		return false, nil
	}
	return s.followRepo.Exists(ctx, followerID, authorID)
}

func (s *FollowService) lookup(ctx context.Context, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return author, nil
}

func (s *FollowService) notifyAuthor(ctx context.Context, followerID, authorID uint) {
	if s.notifier == nil {
		return
	}
	follower, err := s.userRepo.GetByID(ctx, followerID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "load follower for notification failed", "user_id", followerID, "error", err)
		return
	}
	ev := notifications.Event{
		Type:    notifications.EventNewFollower,
		ActorID: follower.ID,
		Actor:   follower.Username,
	}
	if err := s.notifier.PublishUser(ctx, authorID, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "publish follower notification failed", "user_id", authorID, "error", err)
	}
}

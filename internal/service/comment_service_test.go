package service

import (
	"context"
	"strings"
	"testing"

	"scribble/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateComment(t *testing.T) {
	t.Parallel()

	t.Run("valid comment is stored for the requester", func(t *testing.T) {
		t.Parallel()
		var saved *models.Comment
		comments := noopCommentRepo()
		comments.createFn = func(_ context.Context, c *models.Comment) error {
			c.ID = 5
			saved = c
			return nil
		}
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			cp := *saved
			return &cp, nil
		}
		svc := NewCommentService(comments, noopPostRepo())

		c, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 3, PostID: 9, Text: "nice"})
		require.NoError(t, err)
		assert.Equal(t, uint(5), c.ID)
		assert.Equal(t, uint(3), saved.UserID)
		assert.Equal(t, uint(9), saved.PostID)
	})

	t.Run("invalid text is a form error", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), noopPostRepo())
		for _, text := range []string{"", "  ", strings.Repeat("y", 2001)} {
			_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 1, PostID: 1, Text: text})
			assertFormError(t, err, "text")
		}
	})

	t.Run("missing post is not found", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		}
		svc := NewCommentService(noopCommentRepo(), posts)
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 1, PostID: 404, Text: "hi"})
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), noopPostRepo())
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{PostID: 1, Text: "hi"})
		assertUnauthorizedError(t, err)
	})
}

func TestCommentService_ToggleLike(t *testing.T) {
	t.Parallel()

	likes := map[uint]bool{}
	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		return &models.Comment{ID: id, PostID: 77}, nil
	}
	comments.isLikedFn = func(_ context.Context, userID, _ uint) (bool, error) { return likes[userID], nil }
	comments.likeFn = func(_ context.Context, userID, _ uint) error {
		likes[userID] = true
		return nil
	}
	comments.unlikeFn = func(_ context.Context, userID, _ uint) error {
		delete(likes, userID)
		return nil
	}
	svc := NewCommentService(comments, noopPostRepo())

	postID, liked, err := svc.ToggleLike(context.Background(), 4, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(77), postID)
	assert.True(t, liked)

	_, liked, err = svc.ToggleLike(context.Background(), 4, 1)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, likes)
}

func TestCommentService_ToggleLike_MissingComment(t *testing.T) {
	t.Parallel()
	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		return nil, models.NewNotFoundError("Comment", id)
	}
	_, _, err := NewCommentService(comments, noopPostRepo()).ToggleLike(context.Background(), 1, 1)
	assert.True(t, models.IsNotFound(err))
}

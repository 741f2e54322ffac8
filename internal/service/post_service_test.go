package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scribble/internal/models"
	"scribble/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostService(posts *postRepoStub) *PostService {
	groups := &groupRepoStub{groups: []models.Group{{ID: 1, Slug: "cats", Title: "Cats"}}}
	return NewPostService(posts, groups, newUserRepoStub("alice", "bob"), noopCommentRepo(), newFollowRepoStub(), nil, nil, 10)
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestPostService(noopPostRepo())
	ctx := context.Background()

	tests := []struct {
		name   string
		input  CreatePostInput
		fields []string
	}{
		{"empty text", CreatePostInput{UserID: 1}, []string{"text"}},
		{"blank text", CreatePostInput{UserID: 1, Text: "   \n"}, []string{"text"}},
		{"text too long", CreatePostInput{UserID: 1, Text: strings.Repeat("x", 10001)}, []string{"text"}},
		{"non-numeric group", CreatePostInput{UserID: 1, Text: "hi", Group: "cats"}, []string{"group"}},
		{"unknown group", CreatePostInput{UserID: 1, Text: "hi", Group: "99"}, []string{"group"}},
		{"both fields", CreatePostInput{UserID: 1, Group: "0"}, []string{"text", "group"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreatePost(ctx, tc.input)
			assertFormError(t, err, tc.fields...)
		})
	}
}

func TestPostService_CreatePost_RequiresUser(t *testing.T) {
	t.Parallel()
	svc := newTestPostService(noopPostRepo())
	_, err := svc.CreatePost(context.Background(), CreatePostInput{Text: "hi"})
	assertUnauthorizedError(t, err)
}

func TestPostService_CreatePost_PersistsAndNotifiesFollowers(t *testing.T) {
	t.Parallel()

	var saved *models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 42
		saved = p
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		cp := *saved
		cp.User = models.User{ID: cp.UserID, Username: "alice"}
		return &cp, nil
	}

	follows := newFollowRepoStub()
	follows.edges[[2]uint{2, 1}] = true
	pub := newPublisherStub()
	groups := &groupRepoStub{groups: []models.Group{{ID: 1, Slug: "cats"}}}
	svc := NewPostService(repo, groups, newUserRepoStub("alice", "bob"), noopCommentRepo(), follows,
		imageStoreStub{path: "posts/abc.jpg"}, pub, 10)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1,
		Text:   "Hello",
		Group:  "1",
		Image:  &ImageUpload{Content: []byte{1}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), post.ID)
	assert.Equal(t, uint(1), saved.UserID)
	require.NotNil(t, saved.GroupID)
	assert.Equal(t, uint(1), *saved.GroupID)
	assert.Equal(t, "posts/abc.jpg", saved.Image)

	events := pub.For(2)
	require.Len(t, events, 1)
	assert.Equal(t, notifications.EventPostCreated, events[0].Type)
	assert.Equal(t, uint(42), events[0].PostID)
	assert.Equal(t, "alice", events[0].Actor)
	assert.Empty(t, pub.For(1))
}

func TestPostService_CreatePost_ImageRejected(t *testing.T) {
	t.Parallel()

	created := false
	repo := noopPostRepo()
	repo.createFn = func(context.Context, *models.Post) error {
		created = true
		return nil
	}
	svc := NewPostService(repo, &groupRepoStub{}, newUserRepoStub("alice"), noopCommentRepo(), newFollowRepoStub(),
		imageStoreStub{err: models.NewValidationError("Upload a valid image.")}, nil, 10)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1,
		Text:   "with a broken picture",
		Image:  &ImageUpload{Content: []byte("nope")},
	})
	formErr := assertFormError(t, err, "image")
	assert.Equal(t, "Upload a valid image.", formErr.Fields["image"])
	assert.False(t, created)
}

func TestPostService_DeletePost_Ownership(t *testing.T) {
	t.Parallel()

	t.Run("owner can delete", func(t *testing.T) {
		t.Parallel()
		deleted := false
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
			return &models.Post{ID: 1, UserID: 1}, nil
		}
		repo.deleteFn = func(context.Context, uint) error {
			deleted = true
			return nil
		}
		err := newTestPostService(repo).DeletePost(context.Background(), 1, 1)
		assert.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("non-owner returns unauthorized and deletes nothing", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
			return &models.Post{ID: 1, UserID: 10}, nil
		}
		repo.deleteFn = func(context.Context, uint) error {
			t.Fatal("delete must not be called")
			return nil
		}
		err := newTestPostService(repo).DeletePost(context.Background(), 1, 1)
		assertUnauthorizedError(t, err)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		}
		err := newTestPostService(repo).DeletePost(context.Background(), 1, 5)
		assert.True(t, models.IsNotFound(err))
	})
}

func TestPostService_UpdatePost(t *testing.T) {
	t.Parallel()

	t.Run("non-owner cannot update", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
			return &models.Post{ID: 1, UserID: 10, Text: "old"}, nil
		}
		repo.updateFn = func(context.Context, *models.Post) error {
			t.Fatal("update must not be called")
			return nil
		}
		_, err := newTestPostService(repo).UpdatePost(context.Background(), UpdatePostInput{UserID: 1, PostID: 1, Text: "new"})
		assertUnauthorizedError(t, err)
	})

	t.Run("owner can update text and clear group", func(t *testing.T) {
		t.Parallel()
		groupID := uint(1)
		stored := &models.Post{ID: 1, UserID: 1, Text: "old", GroupID: &groupID, Image: "posts/keep.jpg"}
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
			cp := *stored
			return &cp, nil
		}
		repo.updateFn = func(_ context.Context, p *models.Post) error {
			stored = p
			return nil
		}
		post, err := newTestPostService(repo).UpdatePost(context.Background(), UpdatePostInput{UserID: 1, PostID: 1, Text: "new"})
		require.NoError(t, err)
		assert.Equal(t, "new", post.Text)
		assert.Nil(t, post.GroupID)
		assert.Equal(t, "posts/keep.jpg", post.Image)
	})

	t.Run("invalid form", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
			return &models.Post{ID: 1, UserID: 1, Text: "old"}, nil
		}
		_, err := newTestPostService(repo).UpdatePost(context.Background(), UpdatePostInput{UserID: 1, PostID: 1})
		assertFormError(t, err, "text")
	})
}

func TestPostService_ToggleLike_IsItsOwnInverse(t *testing.T) {
	t.Parallel()

	likes := map[uint]bool{}
	repo := noopPostRepo()
	repo.isLikedFn = func(_ context.Context, userID, _ uint) (bool, error) { return likes[userID], nil }
	repo.likeFn = func(_ context.Context, userID, _ uint) error {
		likes[userID] = true
		return nil
	}
	repo.unlikeFn = func(_ context.Context, userID, _ uint) error {
		delete(likes, userID)
		return nil
	}
	svc := newTestPostService(repo)

	liked, err := svc.ToggleLike(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, likes[2])

	liked, err = svc.ToggleLike(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, likes)
}

func TestPostService_ToggleLike_MissingPost(t *testing.T) {
	t.Parallel()
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	_, err := newTestPostService(repo).ToggleLike(context.Background(), 1, 9)
	assert.True(t, models.IsNotFound(err))
}

func TestPostService_Index_UsesSearchOnlyWithQuery(t *testing.T) {
	t.Parallel()

	var searched string
	listed := false
	repo := noopPostRepo()
	repo.listFn = func(context.Context, int, int, uint) ([]*models.Post, int64, error) {
		listed = true
		return nil, 0, nil
	}
	repo.searchFn = func(_ context.Context, q string, _, _ int, _ uint) ([]*models.Post, int64, error) {
		searched = q
		return []*models.Post{{ID: 1, Text: "a cat"}}, 1, nil
	}
	svc := newTestPostService(repo)

	page, err := svc.Index(context.Background(), "cat", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "cat", searched)
	assert.False(t, listed)
	assert.Equal(t, int64(1), page.Count)

	_, err = svc.Index(context.Background(), "", 1, 0)
	require.NoError(t, err)
	assert.True(t, listed)
}

func TestPostService_GroupPosts_UnknownSlug(t *testing.T) {
	t.Parallel()
	_, _, err := newTestPostService(noopPostRepo()).GroupPosts(context.Background(), "dogs", 1, 0)
	assert.True(t, models.IsNotFound(err))
}

func TestPostService_Profile(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.getByUserIDFn = func(_ context.Context, userID uint, limit, offset int, _ uint) ([]*models.Post, int64, error) {
		assert.Equal(t, uint(1), userID)
		return []*models.Post{{ID: 3, UserID: 1}}, 1, nil
	}
	follows := newFollowRepoStub()
	follows.edges[[2]uint{2, 1}] = true
	svc := NewPostService(repo, &groupRepoStub{}, newUserRepoStub("alice", "bob"), noopCommentRepo(), follows, nil, nil, 10)

	view, err := svc.Profile(context.Background(), "alice", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Author.Username)
	assert.Equal(t, int64(1), view.CountPosts)
	assert.True(t, view.Following)

	view, err = svc.Profile(context.Background(), "alice", 1, 0)
	require.NoError(t, err)
	assert.False(t, view.Following)

	_, err = svc.Profile(context.Background(), "nobody", 1, 0)
	assert.True(t, models.IsNotFound(err))
}

func TestPostService_Feed_RequiresViewer(t *testing.T) {
	t.Parallel()
	_, err := newTestPostService(noopPostRepo()).Feed(context.Background(), 0, 1)
	assertUnauthorizedError(t, err)
}

func TestPostService_Detail(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, Liked: true, LikesCount: 2}, nil
	}
	repo.countByUserFn = func(context.Context, uint) (int64, error) { return 4, nil }
	comments := noopCommentRepo()
	comments.listByPostFn = func(context.Context, uint, uint) ([]*models.Comment, error) {
		return []*models.Comment{{ID: 1}, {ID: 2}}, nil
	}
	svc := NewPostService(repo, &groupRepoStub{}, newUserRepoStub("alice"), comments, newFollowRepoStub(), nil, nil, 10)

	detail, err := svc.Detail(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(7), detail.Post.ID)
	assert.Equal(t, int64(4), detail.CountPosts)
	assert.True(t, detail.Liked)
	assert.Len(t, detail.Comments, 2)
}

func TestPostService_RepoErrorsPropagate(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	repo := noopPostRepo()
	repo.listFn = func(context.Context, int, int, uint) ([]*models.Post, int64, error) { return nil, 0, boom }
	_, err := newTestPostService(repo).Index(context.Background(), "", 1, 0)
	assert.ErrorIs(t, err, boom)
}

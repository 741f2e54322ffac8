package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"scribble/internal/models"
	"scribble/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	getByIDFn      func(context.Context, uint, uint) (*models.Post, error)
	listFn         func(context.Context, int, int, uint) ([]*models.Post, int64, error)
	searchFn       func(context.Context, string, int, int, uint) ([]*models.Post, int64, error)
	getByGroupIDFn func(context.Context, uint, int, int, uint) ([]*models.Post, int64, error)
	getByUserIDFn  func(context.Context, uint, int, int, uint) ([]*models.Post, int64, error)
	getFeedFn      func(context.Context, uint, int, int) ([]*models.Post, int64, error)
	countByUserFn  func(context.Context, uint) (int64, error)
	updateFn       func(context.Context, *models.Post) error
	deleteFn       func(context.Context, uint) error
	isLikedFn      func(context.Context, uint, uint) (bool, error)
	likeFn         func(context.Context, uint, uint) error
	unlikeFn       func(context.Context, uint, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	return s.listFn(ctx, limit, offset, currentUserID)
}
func (s *postRepoStub) Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	return s.searchFn(ctx, query, limit, offset, currentUserID)
}
func (s *postRepoStub) GetByGroupID(ctx context.Context, groupID uint, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	return s.getByGroupIDFn(ctx, groupID, limit, offset, currentUserID)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset, currentUserID)
}
func (s *postRepoStub) GetFeed(ctx context.Context, followerID uint, limit, offset int) ([]*models.Post, int64, error) {
	return s.getFeedFn(ctx, followerID, limit, offset)
}
func (s *postRepoStub) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return s.countByUserFn(ctx, userID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}

func emptyPage(context.Context, int, int, uint) ([]*models.Post, int64, error) {
	return nil, 0, nil
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:       func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:      func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:         emptyPage,
		searchFn:       func(_ context.Context, _ string, _, _ int, _ uint) ([]*models.Post, int64, error) { return nil, 0, nil },
		getByGroupIDFn: func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, int64, error) { return nil, 0, nil },
		getByUserIDFn:  func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, int64, error) { return nil, 0, nil },
		getFeedFn:      func(_ context.Context, _ uint, _, _ int) ([]*models.Post, int64, error) { return nil, 0, nil },
		countByUserFn:  func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		updateFn:       func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
		isLikedFn:      func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:         func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:       func(_ context.Context, _, _ uint) error { return nil },
	}
}

// groupRepoStub is a stub for repository.GroupRepository backed by a slice.
type groupRepoStub struct {
	groups []models.Group
}

func (s *groupRepoStub) GetBySlug(_ context.Context, slug string) (*models.Group, error) {
	for i := range s.groups {
		if s.groups[i].Slug == slug {
			return &s.groups[i], nil
		}
	}
	return nil, models.NewNotFoundError("Group", slug)
}
func (s *groupRepoStub) GetByID(_ context.Context, id uint) (*models.Group, error) {
	for i := range s.groups {
		if s.groups[i].ID == id {
			return &s.groups[i], nil
		}
	}
	return nil, models.NewNotFoundError("Group", id)
}
func (s *groupRepoStub) List(_ context.Context) ([]models.Group, error) {
	return s.groups, nil
}
func (s *groupRepoStub) Create(_ context.Context, g *models.Group) error {
	g.ID = uint(len(s.groups) + 1)
	s.groups = append(s.groups, *g)
	return nil
}

// userRepoStub is a stub for repository.UserRepository backed by a slice.
type userRepoStub struct {
	mu        sync.Mutex
	users     []*models.User
	createErr error
	updateErr error
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = uint(len(s.users) + 1)
	cp := *user
	s.users = append(s.users, &cp)
	return nil
}
func (s *userRepoStub) UpdateProfile(_ context.Context, user *models.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID == user.ID {
			cp := *user
			s.users[i] = &cp
			return nil
		}
	}
	return models.NewNotFoundError("User", user.ID)
}

func newUserRepoStub(usernames ...string) *userRepoStub {
	s := &userRepoStub{}
	for i, name := range usernames {
		s.users = append(s.users, &models.User{ID: uint(i + 1), Username: name, Email: name + "@example.com"})
	}
	return s
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint, uint) ([]*models.Comment, error)
	isLikedFn    func(context.Context, uint, uint) (bool, error)
	likeFn       func(context.Context, uint, uint) error
	unlikeFn     func(context.Context, uint, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID, currentUserID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, currentUserID)
}
func (s *commentRepoStub) IsLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, commentID)
}
func (s *commentRepoStub) Like(ctx context.Context, userID, commentID uint) error {
	return s.likeFn(ctx, userID, commentID)
}
func (s *commentRepoStub) Unlike(ctx context.Context, userID, commentID uint) error {
	return s.unlikeFn(ctx, userID, commentID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _, _ uint) ([]*models.Comment, error) { return nil, nil },
		isLikedFn:    func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:       func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:     func(_ context.Context, _, _ uint) error { return nil },
	}
}

// followRepoStub is an in-memory repository.FollowRepository.
type followRepoStub struct {
	mu        sync.Mutex
	edges     map[[2]uint]bool
	createErr error
}

func newFollowRepoStub() *followRepoStub {
	return &followRepoStub{edges: map[[2]uint]bool{}}
}

func (s *followRepoStub) Exists(_ context.Context, userID, authorID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edges[[2]uint{userID, authorID}], nil
}
func (s *followRepoStub) Create(_ context.Context, f *models.Follow) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uint{f.UserID, f.AuthorID}
	if s.edges[key] {
		return models.NewConflictError("Already following this author", nil)
	}
	s.edges[key] = true
	return nil
}
func (s *followRepoStub) Delete(_ context.Context, userID, authorID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uint{userID, authorID}
	existed := s.edges[key]
	delete(s.edges, key)
	return existed, nil
}
func (s *followRepoStub) FollowerIDs(_ context.Context, authorID uint) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint
	for k := range s.edges {
		if k[1] == authorID {
			ids = append(ids, k[0])
		}
	}
	return ids, nil
}

// publisherStub records published events.
type publisherStub struct {
	mu     sync.Mutex
	events map[uint][]notifications.Event
}

func newPublisherStub() *publisherStub {
	return &publisherStub{events: map[uint][]notifications.Event{}}
}

func (p *publisherStub) PublishUser(_ context.Context, userID uint, ev notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], ev)
	return nil
}

func (p *publisherStub) For(userID uint) []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[userID]
}

// imageStoreStub returns a fixed path or error.
type imageStoreStub struct {
	path string
	err  error
}

func (s imageStoreStub) Store(context.Context, ImageUpload) (string, error) {
	return s.path, s.err
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

// assertFormError asserts that err is a FormError naming every field in fields.
func assertFormError(t *testing.T, err error, fields ...string) *models.FormError {
	t.Helper()
	require.Error(t, err)
	var formErr *models.FormError
	require.True(t, errors.As(err, &formErr), "expected FormError, got %T: %v", err, err)
	for _, f := range fields {
		assert.Contains(t, formErr.Fields, f)
	}
	return formErr
}

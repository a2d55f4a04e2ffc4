package post

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context, limit, offset int) ([]Post, int, error) {
	args := m.Called(ctx, limit, offset)
	posts, _ := args.Get(0).([]Post)
	return posts, args.Int(1), args.Error(2)
}

func (m *MockRepository) Get(ctx context.Context, id int64) (*Post, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*Post)
	return p, args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, in *NewPost) (*Post, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*Post)
	return p, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id int64, patch *Patch) (*Post, error) {
	args := m.Called(ctx, id, patch)
	p, _ := args.Get(0).(*Post)
	return p, args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func samplePost(id int64) *Post {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Post{ID: id, Title: "T", Content: "C", CreatedAt: now, UpdatedAt: now}
}

func TestService_List(t *testing.T) {
	t.Run("Should pass limit and offset and build pagination", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("List", mock.Anything, 10, 10).Return([]Post{*samplePost(3)}, 11, nil)
		svc := NewService(repo)

		page, err := svc.List(t.Context(), ListParams{Page: 2, Limit: 10})
		require.NoError(t, err)

		assert.Len(t, page.Posts, 1)
		assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 2, TotalPosts: 11, HasNext: false, HasPrev: true}, page.Pagination)
		repo.AssertExpectations(t)
	})

	t.Run("Should return an empty slice rather than nil", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("List", mock.Anything, 10, 0).Return(nil, 0, nil)

		page, err := NewService(repo).List(t.Context(), ListParams{Page: 1, Limit: 10})
		require.NoError(t, err)

		assert.NotNil(t, page.Posts)
		assert.Empty(t, page.Posts)
	})

	t.Run("Should wrap storage errors", func(t *testing.T) {
		repo := new(MockRepository)
		boom := errors.New("connection refused")
		repo.On("List", mock.Anything, 10, 0).Return(nil, 0, boom)

		_, err := NewService(repo).List(t.Context(), ListParams{Page: 1, Limit: 10})

		assert.ErrorIs(t, err, boom)
	})
}

func TestService_Get(t *testing.T) {
	t.Run("Should propagate not found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Get", mock.Anything, int64(999999)).Return(nil, ErrNotFound)

		_, err := NewService(repo).Get(t.Context(), 999999)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Create(t *testing.T) {
	t.Run("Should store sanitized values", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", mock.Anything, &NewPost{Title: "T", Content: "C"}).Return(samplePost(1), nil)

		p, err := NewService(repo).Create(t.Context(), &CreateInput{Title: NewField(" T "), Content: NewField("C")})
		require.NoError(t, err)

		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, p.CreatedAt, p.UpdatedAt)
		repo.AssertExpectations(t)
	})

	t.Run("Should not touch storage when validation fails", func(t *testing.T) {
		repo := new(MockRepository)

		_, err := NewService(repo).Create(t.Context(), &CreateInput{Title: NewField("")})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_Update(t *testing.T) {
	t.Run("Should send an empty patch so only updated_at changes", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Update", mock.Anything, int64(4), &Patch{}).Return(samplePost(4), nil)

		_, err := NewService(repo).Update(t.Context(), 4, &UpdateInput{})
		require.NoError(t, err)

		repo.AssertExpectations(t)
	})

	t.Run("Should propagate not found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Update", mock.Anything, int64(5), mock.Anything).Return(nil, ErrNotFound)

		_, err := NewService(repo).Update(t.Context(), 5, &UpdateInput{Content: NewField("x")})

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("Should propagate not found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Delete", mock.Anything, int64(8)).Return(ErrNotFound)

		err := NewService(repo).Delete(t.Context(), 8)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

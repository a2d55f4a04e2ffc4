package postgres

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/devopsblog/blog/engine/post"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postColumnNames = []string{"id", "title", "content", "excerpt", "tags", "created_at", "updated_at"}

func TestPostRepo_List(t *testing.T) {
	t.Run("Should select a page newest first and count all rows", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		mockPool.MatchExpectationsInOrder(false)
		repo := NewPostRepo(store)
		newer := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
		older := newer.Add(-time.Hour)
		excerpt := "short"
		var nilText *string
		rows := mockPool.NewRows(postColumnNames).
			AddRow(int64(2), "Second", "body 2", &excerpt, nilText, newer, newer).
			AddRow(int64(1), "First", "body 1", nilText, nilText, older, older)
		mockPool.ExpectQuery(regexp.QuoteMeta(
			"SELECT " + postColumns + " FROM posts ORDER BY created_at DESC, id DESC LIMIT 2 OFFSET 0",
		)).WillReturnRows(rows)
		expectCount(mockPool, 5)

		posts, total, err := repo.List(t.Context(), 2, 0)
		require.NoError(t, err)

		assert.Equal(t, 5, total)
		require.Len(t, posts, 2)
		assert.Equal(t, int64(2), posts[0].ID)
		require.NotNil(t, posts[0].Excerpt)
		assert.Equal(t, "short", *posts[0].Excerpt)
		assert.Nil(t, posts[1].Excerpt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should wrap a failed count in StorageError", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		mockPool.MatchExpectationsInOrder(false)
		repo := NewPostRepo(store)
		mockPool.ExpectQuery("FROM posts ORDER BY").WillReturnRows(mockPool.NewRows(postColumnNames))
		mockPool.ExpectQuery(regexp.QuoteMeta(countPostsSQL)).WillReturnError(errors.New("timeout"))

		_, _, err := repo.List(t.Context(), 10, 0)

		var serr *StorageError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "list posts", serr.Op)
	})
}

func TestPostRepo_Get(t *testing.T) {
	t.Run("Should return the post", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		now := time.Now().UTC()
		var nilText *string
		mockPool.ExpectQuery(`SELECT (.+) FROM posts WHERE id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(mockPool.NewRows(postColumnNames).AddRow(int64(7), "T", "C", nilText, nilText, now, now))

		p, err := NewPostRepo(store).Get(t.Context(), 7)
		require.NoError(t, err)

		assert.Equal(t, int64(7), p.ID)
		assert.Equal(t, "T", p.Title)
		assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	})

	t.Run("Should return ErrNotFound when no row matches", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		mockPool.ExpectQuery(`SELECT (.+) FROM posts WHERE id = \$1`).
			WithArgs(int64(999999)).
			WillReturnRows(mockPool.NewRows(postColumnNames))

		_, err := NewPostRepo(store).Get(t.Context(), 999999)

		assert.ErrorIs(t, err, post.ErrNotFound)
	})
}

func TestPostRepo_Create(t *testing.T) {
	t.Run("Should insert with server timestamps and return the row", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		now := time.Now().UTC()
		var nilText *string
		mockPool.ExpectQuery(regexp.QuoteMeta(
			"INSERT INTO posts (title,content,excerpt,tags,created_at,updated_at) VALUES ($1,$2,$3,$4,NOW(),NOW()) RETURNING",
		)).
			WithArgs("T", "C", nilText, nilText).
			WillReturnRows(mockPool.NewRows(postColumnNames).AddRow(int64(11), "T", "C", nilText, nilText, now, now))

		p, err := NewPostRepo(store).Create(t.Context(), &post.NewPost{Title: "T", Content: "C"})
		require.NoError(t, err)

		assert.Equal(t, int64(11), p.ID)
		assert.Nil(t, p.Excerpt)
		assert.Nil(t, p.Tags)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostRepo_Update(t *testing.T) {
	t.Run("Should only set provided columns and refresh updated_at", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		now := time.Now().UTC()
		var nilText *string
		mockPool.ExpectQuery(regexp.QuoteMeta(
			"UPDATE posts SET title = $1, updated_at = GREATEST(NOW(), updated_at) WHERE id = $2 RETURNING",
		)).
			WithArgs("New", int64(3)).
			WillReturnRows(mockPool.NewRows(postColumnNames).AddRow(int64(3), "New", "C", nilText, nilText, now.Add(-time.Hour), now))

		p, err := NewPostRepo(store).Update(t.Context(), 3, &post.Patch{Title: post.Some("New")})
		require.NoError(t, err)

		assert.Equal(t, "New", p.Title)
		assert.True(t, p.UpdatedAt.After(p.CreatedAt))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should touch only updated_at for an empty patch", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		now := time.Now().UTC()
		var nilText *string
		mockPool.ExpectQuery(regexp.QuoteMeta(
			"UPDATE posts SET updated_at = GREATEST(NOW(), updated_at) WHERE id = $1 RETURNING",
		)).
			WithArgs(int64(3)).
			WillReturnRows(mockPool.NewRows(postColumnNames).AddRow(int64(3), "T", "C", nilText, nilText, now, now))

		_, err := NewPostRepo(store).Update(t.Context(), 3, &post.Patch{})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should return ErrNotFound for a missing id", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		mockPool.ExpectQuery("UPDATE posts SET").WillReturnRows(mockPool.NewRows(postColumnNames))

		_, err := NewPostRepo(store).Update(t.Context(), 404, &post.Patch{Content: post.Some("x")})

		assert.ErrorIs(t, err, post.ErrNotFound)
	})
}

func TestPostRepo_Delete(t *testing.T) {
	t.Run("Should delete an existing post", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE id = $1")).
			WithArgs(int64(5)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, NewPostRepo(store).Delete(t.Context(), 5))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should return ErrNotFound when nothing was deleted", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE id = $1")).
			WithArgs(int64(5)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, NewPostRepo(store).Delete(t.Context(), 5), post.ErrNotFound)
	})
}

func TestPostRepo_Count(t *testing.T) {
	t.Run("Should return the row count", func(t *testing.T) {
		store, mockPool := newMockStore(t)
		expectCount(mockPool, 3)

		n, err := NewPostRepo(store).Count(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}

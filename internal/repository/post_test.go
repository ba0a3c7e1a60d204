package repository

import (
	"context"
	"regexp"
	"testing"

	"quill/internal/access"
	"quill/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{Title: "Hello", Body: "World", Tags: models.TagList{"x"}, IsPublic: true, AuthorID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Find(t *testing.T) {
	ctx := context.Background()

	postRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "title", "body", "tags", "is_public", "author_id"}).
			AddRow(1, "Hello", "World", []byte(`["x","go"]`), true, 10)
	}
	authorRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(10, "Alice", "alice@example.com")
	}

	tests := []struct {
		name         string
		pred         access.Predicate
		mockBehavior func(mock sqlmock.Sqlmock)
		wantCount    int
	}{
		{
			name: "public only with title filter",
			pred: access.Predicate{TitleContains: "hel", PublicOnly: true},
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE title ILIKE $1 AND is_public = $2`)).
					WithArgs("%hel%", true).
					WillReturnRows(postRows())
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(10).
					WillReturnRows(authorRows())
			},
			wantCount: 1,
		},
		{
			name: "tag filter uses jsonb containment",
			pred: access.Predicate{TagContains: "go", PublicOnly: true},
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`EXISTS (SELECT 1 FROM jsonb_array_elements_text(posts.tags) AS tag WHERE tag ILIKE $1)`)).
					WithArgs("%go%", true).
					WillReturnRows(postRows())
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(10).
					WillReturnRows(authorRows())
			},
			wantCount: 1,
		},
		{
			name: "author filter restricts to resolved IDs",
			pred: access.Predicate{AuthorFiltered: true, AuthorIDs: []uint{10, 11}, PublicOnly: true},
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`author_id IN ($1,$2)`)).
					WithArgs(10, 11, true).
					WillReturnRows(postRows())
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(10).
					WillReturnRows(authorRows())
			},
			wantCount: 1,
		},
		{
			name: "unmatched author filter matches nothing",
			pred: access.Predicate{AuthorFiltered: true, PublicOnly: true},
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`1 = 0`)).
					WithArgs(true).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantCount: 0,
		},
		{
			name: "include private widens to own posts only",
			pred: access.Predicate{PublicOnly: false, VisibleTo: 10},
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`is_public = $1 OR author_id = $2`)).
					WithArgs(true, 10).
					WillReturnRows(postRows())
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(10).
					WillReturnRows(authorRows())
			},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewPostRepository(db)
			tt.mockBehavior(mock)

			posts, err := repo.Find(ctx, tt.pred)
			require.NoError(t, err)
			assert.Len(t, posts, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, "Hello", posts[0].Title)
				assert.Equal(t, models.TagList{"x", "go"}, posts[0].Tags)
				assert.Equal(t, "Alice", posts[0].Author.Name)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1`)).
		WithArgs(99, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	post, err := repo.GetByID(ctx, 99)
	assert.Nil(t, post)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestPostRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "deleted_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(ctx, 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

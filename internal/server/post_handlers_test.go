package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/internal/access"
	"quill/internal/config"
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Find(ctx context.Context, pred access.Predicate) ([]*models.Post, error) {
	args := m.Called(ctx, pred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindIDsByNameContains(ctx context.Context, name string) ([]uint, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// newTestServer wires a Server around mocked repositories, optionally
// injecting an authenticated user into locals.
func newTestServer(postRepo *MockPostRepository, userRepo *MockUserRepository, authedUser uint) (*fiber.App, *Server) {
	app := fiber.New()
	s := &Server{
		config:   &config.Config{JWTSecret: "test-secret"},
		postRepo: postRepo,
		userRepo: userRepo,
	}
	s.postService = service.NewPostService(postRepo, userRepo)

	if authedUser != 0 {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("userID", authedUser)
			return c.Next()
		})
	}
	return app, s
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestListPostsHandler(t *testing.T) {
	t.Run("query parameters flow into the predicate", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		userRepo := new(MockUserRepository)
		app, s := newTestServer(postRepo, userRepo, 0)
		app.Get("/posts", s.ListPosts)

		userRepo.On("FindIDsByNameContains", mock.Anything, "alice").Return([]uint{3}, nil)
		postRepo.On("Find", mock.Anything, access.Predicate{
			TitleContains:  "go",
			TagContains:    "web",
			AuthorIDs:      []uint{3},
			AuthorFiltered: true,
			PublicOnly:     true,
		}).Return([]*models.Post{{ID: 1, Title: "Go and web"}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/posts?title=go&tag=web&author=alice", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, float64(1), body["count"])
		postRepo.AssertExpectations(t)
		userRepo.AssertExpectations(t)
	})

	t.Run("includePrivate without a token stays public-only", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		app, s := newTestServer(postRepo, new(MockUserRepository), 0)
		app.Get("/posts", s.ListPosts)

		postRepo.On("Find", mock.Anything, access.Predicate{PublicOnly: true}).
			Return([]*models.Post{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/posts?includePrivate=true", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		postRepo.AssertExpectations(t)
	})

	t.Run("includePrivate with a valid token widens to own posts", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		app, s := newTestServer(postRepo, new(MockUserRepository), 0)
		app.Get("/posts", s.ListPosts)

		postRepo.On("Find", mock.Anything, access.Predicate{PublicOnly: false, VisibleTo: 7}).
			Return([]*models.Post{}, nil)

		token, err := s.generateToken(7, "Grace")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/posts?includePrivate=true", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		postRepo.AssertExpectations(t)
	})
}

func TestGetPostHandler(t *testing.T) {
	private := &models.Post{ID: 5, Title: "Secret", IsPublic: false, AuthorID: 7}

	tests := []struct {
		name           string
		path           string
		token          func(s *Server) string
		mockSetup      func(repo *MockPostRepository)
		expectedStatus int
	}{
		{
			name: "public post readable anonymously",
			path: "/posts/5",
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).
					Return(&models.Post{ID: 5, Title: "Open", IsPublic: true}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "private post forbidden for strangers",
			path: "/posts/5",
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).Return(private, nil)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "private post readable by its author",
			path: "/posts/5",
			token: func(s *Server) string {
				token, _ := s.generateToken(7, "Grace")
				return token
			},
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).Return(private, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "missing post is 404",
			path: "/posts/99",
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(99)).
					Return(nil, models.NewNotFoundError("Post", uint(99)))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "garbage id is 400",
			path:           "/posts/abc",
			mockSetup:      func(repo *MockPostRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			postRepo := new(MockPostRepository)
			app, s := newTestServer(postRepo, new(MockUserRepository), 0)
			app.Get("/posts/:id", s.GetPost)
			tt.mockSetup(postRepo)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != nil {
				req.Header.Set("Authorization", "Bearer "+tt.token(s))
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestCreatePostHandler(t *testing.T) {
	tests := []struct {
		name           string
		authedUser     uint
		body           map[string]any
		mockSetup      func(repo *MockPostRepository)
		expectedStatus int
	}{
		{
			name:       "success",
			authedUser: 1,
			body:       map[string]any{"title": "New Post", "body": "Hello world", "tags": []string{"go"}},
			mockSetup: func(repo *MockPostRepository) {
				repo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
					return p.AuthorID == 1 && p.IsPublic
				})).Return(nil)
				repo.On("GetByID", mock.Anything, mock.Anything).
					Return(&models.Post{ID: 1, Title: "New Post", AuthorID: 1, IsPublic: true}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing title",
			authedUser:     1,
			body:           map[string]any{"body": "Hello"},
			mockSetup:      func(repo *MockPostRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unauthenticated",
			authedUser:     0,
			body:           map[string]any{"title": "T", "body": "B"},
			mockSetup:      func(repo *MockPostRepository) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			postRepo := new(MockPostRepository)
			app, s := newTestServer(postRepo, new(MockUserRepository), tt.authedUser)
			app.Post("/posts", s.CreatePost)
			tt.mockSetup(postRepo)

			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			postRepo.AssertExpectations(t)
		})
	}
}

func TestUpdatePostHandler(t *testing.T) {
	t.Run("author ships a partial update", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		app, s := newTestServer(postRepo, new(MockUserRepository), 7)
		app.Put("/posts/:id", s.UpdatePost)

		existing := &models.Post{ID: 5, Title: "Old", Body: "Body", AuthorID: 7, IsPublic: true}
		postRepo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil)
		postRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
			return p.Title == "New" && p.Body == "Body" && p.AuthorID == 7
		})).Return(nil)

		body, _ := json.Marshal(map[string]any{"title": "New"})
		req := httptest.NewRequest(http.MethodPut, "/posts/5", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		postRepo.AssertExpectations(t)
	})

	t.Run("authorId in the body cannot reassign the post", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		app, s := newTestServer(postRepo, new(MockUserRepository), 7)
		app.Put("/posts/:id", s.UpdatePost)

		existing := &models.Post{ID: 5, Title: "T", Body: "B", AuthorID: 7}
		postRepo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil)
		postRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
			return p.AuthorID == 7
		})).Return(nil)

		body, _ := json.Marshal(map[string]any{"title": "Still mine", "authorId": 999})
		req := httptest.NewRequest(http.MethodPut, "/posts/5", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		postRepo.AssertExpectations(t)
	})

	t.Run("non-author gets 403", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		app, s := newTestServer(postRepo, new(MockUserRepository), 2)
		app.Put("/posts/:id", s.UpdatePost)

		postRepo.On("GetByID", mock.Anything, uint(5)).
			Return(&models.Post{ID: 5, AuthorID: 7, IsPublic: true}, nil)

		body, _ := json.Marshal(map[string]any{"title": "Hijack"})
		req := httptest.NewRequest(http.MethodPut, "/posts/5", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestDeletePostHandler(t *testing.T) {
	tests := []struct {
		name           string
		authedUser     uint
		mockSetup      func(repo *MockPostRepository)
		expectedStatus int
	}{
		{
			name:       "author deletes own post",
			authedUser: 7,
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).
					Return(&models.Post{ID: 5, AuthorID: 7}, nil)
				repo.On("Delete", mock.Anything, uint(5)).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:       "non-author gets 403",
			authedUser: 2,
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).
					Return(&models.Post{ID: 5, AuthorID: 7}, nil)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:       "missing post is 404",
			authedUser: 7,
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).
					Return(nil, models.NewNotFoundError("Post", uint(5)))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			postRepo := new(MockPostRepository)
			app, s := newTestServer(postRepo, new(MockUserRepository), tt.authedUser)
			app.Delete("/posts/:id", s.DeletePost)
			tt.mockSetup(postRepo)

			req := httptest.NewRequest(http.MethodDelete, "/posts/5", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

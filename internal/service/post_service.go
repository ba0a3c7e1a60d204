// Package service contains the application's business rules. Handlers stay
// thin; everything a route decides beyond parsing lives here.
package service

import (
	"context"
	"strings"

	"quill/internal/access"
	"quill/internal/models"
	"quill/internal/repository"
)

const (
	maxTitleLen = 300
	maxBodyLen  = 50000
	maxTagLen   = 50
	maxTagCount = 20
)

// PostService implements post listing and CRUD on top of the access engine.
// Every read and mutation consults the engine; no handler bypasses it.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

// ListPostsInput mirrors the listing query parameters. Author is a display
// name substring, resolved to user IDs before predicate construction.
type ListPostsInput struct {
	Title          string
	Tag            string
	Author         string
	IncludePrivate bool
}

// CreatePostInput carries the fields of a new post. IsPublic defaults to
// true when absent.
type CreatePostInput struct {
	Title    string
	Body     string
	Tags     []string
	IsPublic *bool
}

// UpdatePostInput carries a partial update. Nil fields are left untouched.
// There is deliberately no author field: the author of record is immutable
// and anything the client sends for it is dropped during parsing.
type UpdatePostInput struct {
	Title    *string
	Body     *string
	Tags     *[]string
	IsPublic *bool
}

// NewPostService creates a new post service.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

// ListPosts returns the posts visible to the requester under the given
// filters, newest first. An author filter that matches no user yields an
// empty listing, not an error.
func (s *PostService) ListPosts(ctx context.Context, r access.Requester, in ListPostsInput) ([]*models.Post, error) {
	filter := access.ListFilter{
		TitleContains:  in.Title,
		TagContains:    in.Tag,
		IncludePrivate: in.IncludePrivate,
	}

	if in.Author != "" {
		ids, err := s.userRepo.FindIDsByNameContains(ctx, in.Author)
		if err != nil {
			return nil, err
		}
		filter.AuthorIDs = ids
		filter.AuthorFiltered = true
	}

	return s.postRepo.Find(ctx, access.BuildListPredicate(r, filter))
}

// GetPost fetches a single post, distinguishing forbidden from not-found.
func (s *PostService) GetPost(ctx context.Context, r access.Requester, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanView(r, post) {
		return nil, models.NewForbiddenError("Access denied")
	}
	return post, nil
}

// CreatePost creates a post authored by the requester.
func (s *PostService) CreatePost(ctx context.Context, r access.Requester, in CreatePostInput) (*models.Post, error) {
	if !r.Authenticated {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	if err := validatePostFields(in.Title, in.Body, in.Tags); err != nil {
		return nil, err
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	post := &models.Post{
		Title:    strings.TrimSpace(in.Title),
		Body:     in.Body,
		Tags:     normalizeTags(in.Tags),
		IsPublic: isPublic,
		AuthorID: r.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Re-read so the response embeds the author.
	return s.postRepo.GetByID(ctx, post.ID)
}

// UpdatePost applies a partial update to the requester's own post. The
// author of record never changes.
func (s *PostService) UpdatePost(ctx context.Context, r access.Requester, id uint, in UpdatePostInput) (*models.Post, error) {
	if !r.Authenticated {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanMutate(r, post) {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title cannot be empty")
		}
		if len(title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		post.Title = title
	}
	if in.Body != nil {
		if *in.Body == "" {
			return nil, models.NewValidationError("Body cannot be empty")
		}
		if len(*in.Body) > maxBodyLen {
			return nil, models.NewValidationError("Body too long (max 50000 characters)")
		}
		post.Body = *in.Body
	}
	if in.Tags != nil {
		if err := validateTags(*in.Tags); err != nil {
			return nil, err
		}
		post.Tags = normalizeTags(*in.Tags)
	}
	if in.IsPublic != nil {
		post.IsPublic = *in.IsPublic
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes the requester's own post.
func (s *PostService) DeletePost(ctx context.Context, r access.Requester, id uint) error {
	if !r.Authenticated {
		return models.NewUnauthenticatedError("Authentication required")
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanMutate(r, post) {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	return s.postRepo.Delete(ctx, id)
}

func validatePostFields(title, body string, tags []string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if body == "" {
		return models.NewValidationError("Body is required")
	}
	if len(body) > maxBodyLen {
		return models.NewValidationError("Body too long (max 50000 characters)")
	}
	return validateTags(tags)
}

func validateTags(tags []string) error {
	if len(tags) > maxTagCount {
		return models.NewValidationError("Too many tags (max 20)")
	}
	for _, tag := range tags {
		if len(tag) > maxTagLen {
			return models.NewValidationError("Tag too long (max 50 characters)")
		}
	}
	return nil
}

// normalizeTags trims whitespace and drops empty entries, preserving the
// order tags were entered.
func normalizeTags(tags []string) models.TagList {
	out := make(models.TagList, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

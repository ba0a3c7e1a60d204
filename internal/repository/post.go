package repository

import (
	"context"
	"errors"

	"quill/internal/access"
	"quill/internal/cache"
	"quill/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Find(ctx context.Context, pred access.Predicate) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	key := cache.PostKey(id)

	err := cache.Aside(ctx, key, &post, cache.PostTTL, func() error {
		if err := r.db.WithContext(ctx).
			Preload("Author").
			First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Find translates an access predicate into SQL and returns matching posts
// newest-created-first. The predicate is the only place visibility rules are
// encoded; this method adds no conditions of its own.
func (r *postRepository) Find(ctx context.Context, pred access.Predicate) ([]*models.Post, error) {
	q := r.db.WithContext(ctx).Preload("Author")

	if pred.TitleContains != "" {
		q = q.Where("title ILIKE ?", "%"+pred.TitleContains+"%")
	}
	if pred.TagContains != "" {
		q = q.Where(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(posts.tags) AS tag WHERE tag ILIKE ?)",
			"%"+pred.TagContains+"%",
		)
	}
	if pred.AuthorFiltered {
		if len(pred.AuthorIDs) == 0 {
			// Author filter matched no users: the listing is empty by
			// contract, never unfiltered.
			q = q.Where("1 = 0")
		} else {
			q = q.Where("author_id IN ?", pred.AuthorIDs)
		}
	}
	if pred.PublicOnly {
		q = q.Where("is_public = ?", true)
	} else {
		q = q.Where("is_public = ? OR author_id = ?", true, pred.VisibleTo)
	}

	var posts []*models.Post
	if err := q.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

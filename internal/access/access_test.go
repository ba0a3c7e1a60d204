package access

import (
	"testing"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanView(t *testing.T) {
	public := &models.Post{ID: 1, AuthorID: 10, IsPublic: true}
	private := &models.Post{ID: 2, AuthorID: 10, IsPublic: false}

	tests := []struct {
		name      string
		requester Requester
		post      *models.Post
		visible   bool
	}{
		{"anonymous sees public", Anonymous(), public, true},
		{"anonymous denied private", Anonymous(), private, false},
		{"author sees own private", Authenticated(10), private, true},
		{"other user denied private", Authenticated(11), private, false},
		{"other user sees public", Authenticated(11), public, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, CanView(tt.requester, tt.post))
		})
	}
}

func TestCanMutate(t *testing.T) {
	post := &models.Post{ID: 1, AuthorID: 10, IsPublic: true}

	tests := []struct {
		name      string
		requester Requester
		allowed   bool
	}{
		{"author allowed", Authenticated(10), true},
		{"other user denied", Authenticated(11), false},
		{"anonymous denied", Anonymous(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanMutate(tt.requester, post))
		})
	}

	// Visibility never grants mutation rights.
	private := &models.Post{ID: 2, AuthorID: 10, IsPublic: false}
	assert.True(t, CanMutate(Authenticated(10), private))
	assert.False(t, CanMutate(Authenticated(11), private))
}

func TestBuildListPredicate_Visibility(t *testing.T) {
	tests := []struct {
		name           string
		requester      Requester
		includePrivate bool
		wantPublicOnly bool
		wantVisibleTo  uint
	}{
		{"anonymous", Anonymous(), false, true, 0},
		{"anonymous ignores includePrivate", Anonymous(), true, true, 0},
		{"authenticated without includePrivate", Authenticated(7), false, true, 0},
		{"authenticated with includePrivate", Authenticated(7), true, false, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildListPredicate(tt.requester, ListFilter{IncludePrivate: tt.includePrivate})
			assert.Equal(t, tt.wantPublicOnly, p.PublicOnly)
			assert.Equal(t, tt.wantVisibleTo, p.VisibleTo)
		})
	}
}

func TestBuildListPredicate_CarriesFilters(t *testing.T) {
	f := ListFilter{
		TitleContains:  "hel",
		TagContains:    "go",
		AuthorIDs:      []uint{3, 4},
		AuthorFiltered: true,
	}
	p := BuildListPredicate(Authenticated(3), f)

	assert.Equal(t, "hel", p.TitleContains)
	assert.Equal(t, "go", p.TagContains)
	assert.Equal(t, []uint{3, 4}, p.AuthorIDs)
	assert.True(t, p.AuthorFiltered)
	assert.True(t, p.PublicOnly)
}

func TestBuildListPredicate_UnmatchedAuthorFilter(t *testing.T) {
	// An author filter that resolved to nobody stays active with an empty
	// set: the predicate must match zero posts, not fall back to unfiltered.
	p := BuildListPredicate(Anonymous(), ListFilter{AuthorFiltered: true})
	assert.True(t, p.AuthorFiltered)
	assert.Empty(t, p.AuthorIDs)
}

// Package access is the single source of truth for who may see or modify
// which post. It is pure: callers hand it an already-resolved requester
// identity and already-resolved author-name-to-ID sets, and it returns
// predicates and decisions only. Every read and mutation path goes through
// this package so no endpoint can forget the private-post check.
package access

import "quill/internal/models"

// Requester is the identity context of an inbound operation, derived
// per-request from a verified token. The zero value is anonymous.
type Requester struct {
	UserID        uint
	Authenticated bool
}

// Anonymous returns an unauthenticated requester.
func Anonymous() Requester {
	return Requester{}
}

// Authenticated returns a requester for the given user ID.
func Authenticated(userID uint) Requester {
	return Requester{UserID: userID, Authenticated: true}
}

// ListFilter carries a listing request's intent. The author-name substring
// must be resolved to user IDs by the caller before building a predicate;
// AuthorFiltered distinguishes "no author filter" from "author filter that
// matched nobody".
type ListFilter struct {
	TitleContains  string
	TagContains    string
	AuthorIDs      []uint
	AuthorFiltered bool
	IncludePrivate bool
}

// Predicate is the resolved query condition over the post collection.
// PublicOnly false means "public OR authored by VisibleTo".
type Predicate struct {
	TitleContains  string
	TagContains    string
	AuthorIDs      []uint
	AuthorFiltered bool
	PublicOnly     bool
	VisibleTo      uint
}

// BuildListPredicate constructs the predicate enforcing public/private
// visibility for a listing. IncludePrivate widens the visibility clause to
// the requester's own private posts and never to anyone else's.
func BuildListPredicate(r Requester, f ListFilter) Predicate {
	p := Predicate{
		TitleContains:  f.TitleContains,
		TagContains:    f.TagContains,
		AuthorIDs:      f.AuthorIDs,
		AuthorFiltered: f.AuthorFiltered,
		PublicOnly:     true,
	}
	if r.Authenticated && f.IncludePrivate {
		p.PublicOnly = false
		p.VisibleTo = r.UserID
	}
	return p
}

// CanView reports whether the requester may read the post.
func CanView(r Requester, post *models.Post) bool {
	if post.IsPublic {
		return true
	}
	return r.Authenticated && r.UserID == post.AuthorID
}

// CanMutate reports whether the requester may update or delete the post.
// Only the author of record may; the author field itself is never mutable.
func CanMutate(r Requester, post *models.Post) bool {
	return r.Authenticated && r.UserID == post.AuthorID
}

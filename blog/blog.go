// Package blog publishes and reads posts. Only authenticated accounts
// publish, the access check happens in the http layer.
package blog

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/andrebq/blogbox/internal/forms"
	"github.com/andrebq/blogbox/journal"
)

const (
	FieldTitle = "title"
	FieldSlug  = "slug"
	FieldBody  = "body"

	MaxTitleLength = 75
	MaxSlugLength  = 50

	MsgSlugTaken   = "Post with this Slug already exists."
	msgSlugCharset = "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
)

type (
	Store interface {
		CreatePost(ctx context.Context, p journal.Post) (journal.Post, error)
		ListPosts(ctx context.Context) ([]journal.Post, error)
		PostBySlug(ctx context.Context, slug string) (journal.Post, error)
	}
)

var (
	Fields = []string{FieldTitle, FieldSlug, FieldBody}

	slugRE = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	postRules = []forms.Rule{
		forms.Required(FieldTitle),
		forms.MaxLength(FieldTitle, MaxTitleLength, "Ensure this value has at most 75 characters."),
		forms.Required(FieldSlug),
		forms.MaxLength(FieldSlug, MaxSlugLength, "Ensure this value has at most 50 characters."),
		{Field: FieldSlug, Message: msgSlugCharset, Check: func(v forms.Values) bool {
			return slugRE.MatchString(v[FieldSlug])
		}},
		forms.Required(FieldBody),
	}

	_ Store = (*journal.Journal)(nil)
)

func ValidatePost(v forms.Values) forms.Result {
	v = v.Without()
	v[FieldTitle] = strings.TrimSpace(v[FieldTitle])
	v[FieldSlug] = strings.TrimSpace(v[FieldSlug])
	return forms.Validate(v, postRules)
}

// Publish validates v and stores it as a post by author. Validation
// failures (including a slug already in use) come back in the result, the
// error is reserved for storage failures.
func Publish(ctx context.Context, store Store, v forms.Values, author journal.Account) (journal.Post, forms.Result, error) {
	res := ValidatePost(v)
	if !res.Valid() {
		return journal.Post{}, res, nil
	}
	p, err := store.CreatePost(ctx, journal.Post{
		Slug:     res.Values[FieldSlug],
		Title:    res.Values[FieldTitle],
		Body:     res.Values[FieldBody],
		AuthorID: author.ID,
		Author:   author.Credential,
	})
	var taken journal.SlugTaken
	if errors.As(err, &taken) {
		res.Add(FieldSlug, MsgSlugTaken)
		return journal.Post{}, res, nil
	} else if err != nil {
		return journal.Post{}, res, err
	}
	return p, res, nil
}

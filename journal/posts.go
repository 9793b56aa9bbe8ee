package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type (
	Post struct {
		ID       int64
		Slug     string
		Title    string
		Body     string
		AuthorID int64
		Author   string
		Date     time.Time
	}
)

func (j *Journal) CreatePost(ctx context.Context, p Post) (Post, error) {
	id, err := j.nextSeq(ctx, "posts")
	if err != nil {
		return Post{}, err
	}
	p.ID = id
	if p.Date.IsZero() {
		p.Date = j.now().UTC()
	}
	_, err = j.db.ExecContext(ctx, `insert into posts(post_id, slug, slug_hash64, title, body, author_id, created_at)
	values (?, ?, ?, ?, ?, ?, ?)`, p.ID, p.Slug, hash64(p.Slug), p.Title, p.Body, p.AuthorID, p.Date.UnixNano())
	if isUniqueViolation(err) {
		return Post{}, SlugTaken{Slug: p.Slug}
	} else if err != nil {
		return Post{}, fmt.Errorf("unable to store post %v, cause %w", p.Slug, err)
	}
	return p, nil
}

// ListPosts returns every post, newest first
func (j *Journal) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := j.db.QueryContext(ctx, `select p.post_id, p.slug, p.title, p.body, p.author_id, a.credential, p.created_at
	from posts p
	inner join accounts a on a.account_id = p.author_id
	order by p.created_at desc, p.post_id desc`)
	if err != nil {
		return nil, fmt.Errorf("unable to list posts, cause %w", err)
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		var p Post
		var created int64
		err = rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.AuthorID, &p.Author, &created)
		if err != nil {
			return nil, fmt.Errorf("unable to scan post, cause %w", err)
		}
		p.Date = time.Unix(0, created).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *Journal) PostBySlug(ctx context.Context, slug string) (Post, error) {
	var p Post
	var created int64
	err := j.db.QueryRowContext(ctx, `select p.post_id, p.slug, p.title, p.body, p.author_id, a.credential, p.created_at
	from posts p
	inner join accounts a on a.account_id = p.author_id
	where p.slug_hash64 = ? and p.slug = ?`, hash64(slug), slug).
		Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.AuthorID, &p.Author, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, PostNotFound{Slug: slug}
	} else if err != nil {
		return Post{}, fmt.Errorf("unable to load post %v, cause %w", slug, err)
	}
	p.Date = time.Unix(0, created).UTC()
	return p, nil
}

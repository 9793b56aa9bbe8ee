package api

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/andrebq/blogbox/auth"
	authapi "github.com/andrebq/blogbox/auth/api"
	"github.com/andrebq/blogbox/blog"
	"github.com/andrebq/blogbox/internal/csrf"
	"github.com/andrebq/blogbox/internal/render"
	"github.com/andrebq/blogbox/internal/testutil"
	"github.com/andrebq/blogbox/journal"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey   = "blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20="
	csrfToken = "0b0f3c52-5d55-4d1f-9d4b-8b8f0c1d2e3f"
)

type fixture struct {
	journal *journal.Journal
	handler http.Handler
	session string
}

func acquireFixture(t *testing.T) (*fixture, func()) {
	ctx := context.Background()
	j, cleanupJournal := testutil.AcquireJournal(ctx, t, nil)
	keyfn, err := auth.KeyFNFromString(testKey)
	require.NoError(t, err)
	svc := auth.NewService(j, j.Sessions(), &auth.Hasher{Pepper: keyfn, Time: 1, Memory: 64, Threads: 1, Rand: rand.Reader}, time.Hour)
	acc, err := svc.Register(ctx, "alice", "CorrectHorse123")
	require.NoError(t, err)
	sess, err := svc.StartSession(ctx, acc.ID)
	require.NoError(t, err)

	pages, err := render.New(render.DefaultRoutes())
	require.NoError(t, err)
	realm := authapi.NewRealm(svc, pages, nil, authapi.Options{InsecureCookie: true})
	posts := Routes(j, pages, realm.Protect, "/posts/")
	handler := csrf.Protect(realm.Identify(http.StripPrefix("/posts", posts)), csrf.Options{InsecureCookie: true})
	return &fixture{journal: j, handler: handler, session: sess.Token}, cleanupJournal
}

func bodyContains(parts ...string) func(*http.Response, *http.Request) error {
	return func(res *http.Response, _ *http.Request) error {
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		for _, p := range parts {
			if !strings.Contains(string(body), p) {
				return fmt.Errorf("body does not contain %q", p)
			}
		}
		return nil
	}
}

func (f *fixture) publish(t *testing.T, title, slug, body string) *apitest.Response {
	return apitest.New().Handler(f.handler).
		Post("/posts/new-post/").
		Cookie(authapi.SessionCookie, f.session).
		Cookie(csrf.CookieName, csrfToken).
		FormData(csrf.FieldName, csrfToken).
		FormData(blog.FieldTitle, title).
		FormData(blog.FieldSlug, slug).
		FormData(blog.FieldBody, body).
		Expect(t)
}

func TestListAndPage(t *testing.T) {
	f, cleanup := acquireFixture(t)
	defer cleanup()

	apitest.New().Handler(f.handler).
		Get("/posts/").
		Expect(t).
		Status(http.StatusOK).
		Assert(bodyContains("No posts yet.", `<a href="/users/login/">Login</a>`)).
		End()

	f.publish(t, "Hello", "hello", "first post").
		Status(http.StatusFound).
		Header("Location", "/posts/").
		End()

	apitest.New().Handler(f.handler).
		Get("/posts/").
		Expect(t).
		Status(http.StatusOK).
		Assert(bodyContains(`<a href="/posts/hello">Hello</a>`, "by alice")).
		End()

	apitest.New().Handler(f.handler).
		Get("/posts/hello").
		Cookie(authapi.SessionCookie, f.session).
		Expect(t).
		Status(http.StatusOK).
		Assert(bodyContains("<h1>Hello</h1>", "first post", `<span class="whoami">alice</span>`)).
		End()

	apitest.New().Handler(f.handler).
		Get("/posts/missing").
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestNewPostIsGuarded(t *testing.T) {
	ctx := context.Background()
	f, cleanup := acquireFixture(t)
	defer cleanup()

	apitest.New().Handler(f.handler).
		Get("/posts/new-post/").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/users/login/?next=/posts/new-post/").
		End()

	apitest.New().Handler(f.handler).
		Post("/posts/new-post/").
		Cookie(csrf.CookieName, csrfToken).
		FormData(csrf.FieldName, csrfToken).
		FormData(blog.FieldTitle, "Sneaky").
		FormData(blog.FieldSlug, "sneaky").
		FormData(blog.FieldBody, "nope").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/users/login/?next=/posts/new-post/").
		End()

	_, err := f.journal.PostBySlug(ctx, "sneaky")
	var notFound journal.PostNotFound
	require.ErrorAs(t, err, &notFound)

	apitest.New().Handler(f.handler).
		Get("/posts/new-post/").
		Cookie(authapi.SessionCookie, f.session).
		Expect(t).
		Status(http.StatusOK).
		Assert(bodyContains(`<form method="post" action="/posts/new-post/">`)).
		End()
}

func TestPublishRejected(t *testing.T) {
	f, cleanup := acquireFixture(t)
	defer cleanup()

	f.publish(t, "Hello", "hello", "first").Status(http.StatusFound).End()
	f.publish(t, "Again", "hello", "second").
		Status(http.StatusOK).
		Assert(bodyContains(blog.MsgSlugTaken, `value="Again"`)).
		End()
	f.publish(t, "", "bad slug", "x").
		Status(http.StatusOK).
		Assert(bodyContains("This field is required.")).
		End()

	posts, err := f.journal.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

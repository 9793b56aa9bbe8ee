package router

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/andrebq/blogbox/auth"
	authapi "github.com/andrebq/blogbox/auth/api"
	"github.com/andrebq/blogbox/internal/csrf"
	"github.com/andrebq/blogbox/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/require"
)

const (
	testKey   = "blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20="
	csrfToken = "0b0f3c52-5d55-4d1f-9d4b-8b8f0c1d2e3f"
)

func acquireHandler(t *testing.T, opts Options) (http.Handler, func()) {
	ctx := context.Background()
	j, cleanup := testutil.AcquireJournal(ctx, t, nil)
	keyfn, err := auth.KeyFNFromString(testKey)
	require.NoError(t, err)
	svc := auth.NewService(j, j.Sessions(), &auth.Hasher{Pepper: keyfn, Time: 1, Memory: 64, Threads: 1, Rand: rand.Reader}, time.Hour)
	handler, err := AsHandler(ctx, svc, j, opts)
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	return handler, cleanup
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

func sessionFrom(t *testing.T, res apitest.Result) string {
	for _, c := range res.Response.Cookies() {
		if c.Name == authapi.SessionCookie {
			return c.Value
		}
	}
	t.Fatal("response did not set a session cookie")
	return ""
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	handler, cleanup := acquireHandler(t, Options{InsecureCookie: true, Registry: reg})
	defer cleanup()

	apitest.Handler(handler).Get("/").Expect(t).Status(http.StatusFound).Header("Location", "/posts/").End()
	apitest.Handler(handler).Get("/posts/").Expect(t).Status(http.StatusOK).HeaderPresent("Request-Id").End()
	apitest.Handler(handler).Get("/users/login/").Expect(t).Status(http.StatusOK).CookiePresent(csrf.CookieName).End()
	apitest.Handler(handler).Get("/users/logout/").Expect(t).Status(http.StatusMethodNotAllowed).End()
	apitest.Handler(handler).Get("/posts/new-post/").Expect(t).
		Status(http.StatusFound).
		Header("Location", "/users/login/?next=/posts/new-post/").
		End()
	apitest.Handler(handler).Post("/users/login/").
		FormData("username", "alice").
		FormData("password", "CorrectHorse123").
		Expect(t).
		Status(http.StatusForbidden).
		End()

	res := apitest.Handler(handler).Post("/users/register/").
		Cookie(csrf.CookieName, csrfToken).
		FormData(csrf.FieldName, csrfToken).
		FormData("username", "alice").
		FormData("password1", "CorrectHorse123").
		FormData("password2", "CorrectHorse123").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/posts/").
		End()
	session := sessionFrom(t, res)

	apitest.Handler(handler).Get("/posts/new-post/").
		Cookie(authapi.SessionCookie, session).
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.Handler(handler).Post("/posts/new-post/").
		Cookie(authapi.SessionCookie, session).
		Cookie(csrf.CookieName, csrfToken).
		FormData(csrf.FieldName, csrfToken).
		FormData("title", "Hello").
		FormData("slug", "hello").
		FormData("body", "first post").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/posts/").
		End()
	apitest.Handler(handler).Get("/posts/hello").Expect(t).
		Status(http.StatusOK).
		Assert(bodyContains("first post")).
		End()

	apitest.Handler(handler).Get("/metrics").Expect(t).
		Status(http.StatusOK).
		Assert(bodyContains(
			`blogbox_auth_events_total{event="registered"} 1`,
			`blogbox_auth_events_total{event="guard_redirect"} 1`,
			`blogbox_auth_events_total{event="csrf_rejected"} 1`,
		)).
		End()
}

func TestCustomRoutes(t *testing.T) {
	handler, cleanup := acquireHandler(t, Options{Landing: "/posts/hello", LoginURL: "/accounts/login/"})
	defer cleanup()

	apitest.Handler(handler).Get("/").Expect(t).Status(http.StatusFound).Header("Location", "/posts/hello").End()
	apitest.Handler(handler).Get("/posts/new-post/").Expect(t).
		Status(http.StatusFound).
		Header("Location", "/accounts/login/?next=/posts/new-post/").
		End()
	apitest.Handler(handler).Get("/metrics").Expect(t).Status(http.StatusNotFound).End()

	apitest.Handler(handler).Get("/accounts/login/").
		Query("next", "/posts/new-post/").
		Expect(t).
		Status(http.StatusOK).
		Assert(bodyContains(
			`<form method="post" action="/accounts/login/">`,
			`<input type="hidden" name="next" value="/posts/new-post/">`,
			`<a href="/accounts/login/">Login</a>`,
		)).
		End()
	apitest.Handler(handler).Get("/users/login/").Expect(t).Status(http.StatusNotFound).End()

	apitest.Handler(handler).Post("/users/register/").
		Cookie(csrf.CookieName, csrfToken).
		FormData(csrf.FieldName, csrfToken).
		FormData("username", "alice").
		FormData("password1", "CorrectHorse123").
		FormData("password2", "CorrectHorse123").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/posts/hello").
		End()

	res := apitest.Handler(handler).Post("/accounts/login/").
		Cookie(csrf.CookieName, csrfToken).
		FormData(csrf.FieldName, csrfToken).
		FormData("username", "alice").
		FormData("password", "CorrectHorse123").
		FormData("next", "/posts/new-post/").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/posts/new-post/").
		End()
	apitest.Handler(handler).Get("/posts/new-post/").
		Cookie(authapi.SessionCookie, sessionFrom(t, res)).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestInvalidOptions(t *testing.T) {
	ctx := context.Background()
	for _, opts := range []Options{
		{Landing: "https://example.com/"},
		{LoginURL: "//example.com/login"},
		{LoginURL: "/posts/login/"},
		{LoginURL: "/users/logout/"},
		{LoginURL: "/login/:user"},
	} {
		_, err := AsHandler(ctx, nil, nil, opts)
		var invalid InvalidPath
		if !errors.As(err, &invalid) {
			t.Fatalf("Unexpected error for %#v: %v", opts, err)
		}
	}
}

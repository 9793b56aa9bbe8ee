package api

import (
	"context"
	"crypto/rand"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andrebq/blogbox/auth"
	"github.com/andrebq/blogbox/internal/csrf"
	"github.com/andrebq/blogbox/internal/metrics"
	"github.com/andrebq/blogbox/internal/render"
	"github.com/andrebq/blogbox/internal/testutil"
	"github.com/andrebq/blogbox/journal"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testKey = "blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20="

type (
	harness struct {
		t       *testing.T
		journal *journal.Journal
		hasher  *auth.Hasher
		svc     *auth.Service
		metrics *metrics.Auth
		handler http.Handler
		srv     *httptest.Server
		store   *countingStore
	}

	// countingStore records how many sessions the handlers created
	countingStore struct {
		auth.SessionStore
		created atomic.Int32
	}

	client struct {
		t   *testing.T
		srv *httptest.Server
		c   *http.Client
	}

	reply struct {
		status   int
		location string
		body     string
	}
)

func acquireHarness(t *testing.T) (*harness, func()) {
	ctx := context.Background()
	j, cleanupJournal := testutil.AcquireJournal(ctx, t, nil)
	mem, err := auth.InMemorySessionStore(time.Hour)
	require.NoError(t, err)
	store := &countingStore{SessionStore: mem}
	keyfn, err := auth.KeyFNFromString(testKey)
	require.NoError(t, err)
	hasher := &auth.Hasher{Pepper: keyfn, Time: 1, Memory: 64, Threads: 1, Rand: rand.Reader}
	svc := auth.NewService(j, store, hasher, time.Hour)
	pages, err := render.New(render.DefaultRoutes())
	require.NoError(t, err)
	m := metrics.NewAuth(prometheus.NewRegistry())

	realm := NewRealm(svc, pages, m, Options{InsecureCookie: true})
	router := httprouter.New()
	realm.Mount(router)
	router.Handler("GET", "/posts/new-post/", realm.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("new post form for " + IdentityFrom(r.Context()).Credential()))
	})))
	router.HandlerFunc("GET", "/posts/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("landing"))
	})
	handler := csrf.Protect(realm.Identify(router), csrf.Options{
		InsecureCookie: true,
		OnReject:       func(*http.Request) { m.Inc(metrics.CSRFRejected) },
	})

	h := &harness{
		t:       t,
		journal: j,
		hasher:  hasher,
		svc:     svc,
		metrics: m,
		handler: handler,
		srv:     httptest.NewServer(handler),
		store:   store,
	}
	return h, func() {
		h.srv.Close()
		mem.Close()
		cleanupJournal()
	}
}

func (c *countingStore) Create(ctx context.Context, s journal.Session) error {
	c.created.Add(1)
	return c.SessionStore.Create(ctx, s)
}

func (h *harness) sessionsCreated() int {
	return int(h.store.created.Load())
}

func (h *harness) client() *client {
	jar, err := cookiejar.New(nil)
	require.NoError(h.t, err)
	return &client{
		t:   h.t,
		srv: h.srv,
		c: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// register creates an account through the handlers and returns the client
// that is now logged in as that account
func (h *harness) register(credential, secret string) *client {
	c := h.client()
	rep := c.post("/users/register/", url.Values{
		"username":  {credential},
		"password1": {secret},
		"password2": {secret},
	})
	require.Equal(h.t, http.StatusFound, rep.status, rep.body)
	return c
}

func (c *client) get(path string) reply {
	req, err := http.NewRequest("GET", c.srv.URL+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

// post submits form with the anti-forgery token the client holds, fetching
// one first when needed
func (c *client) post(path string, form url.Values) reply {
	token := c.cookie(csrf.CookieName)
	if token == "" {
		c.get("/users/login/")
		token = c.cookie(csrf.CookieName)
	}
	form.Set(csrf.FieldName, token)
	req, err := http.NewRequest("POST", c.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) do(req *http.Request) reply {
	res, err := c.c.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return reply{status: res.StatusCode, location: res.Header.Get("Location"), body: string(body)}
}

func (c *client) cookie(name string) string {
	u, err := url.Parse(c.srv.URL)
	require.NoError(c.t, err)
	for _, ck := range c.c.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

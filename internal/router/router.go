package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/andrebq/blogbox/auth"
	authapi "github.com/andrebq/blogbox/auth/api"
	"github.com/andrebq/blogbox/blog"
	blogapi "github.com/andrebq/blogbox/blog/api"
	"github.com/andrebq/blogbox/internal/csrf"
	"github.com/andrebq/blogbox/internal/logutil"
	"github.com/andrebq/blogbox/internal/metrics"
	"github.com/andrebq/blogbox/internal/render"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
)

type (
	Options struct {
		Landing        string
		LoginURL       string
		InsecureCookie bool
		// Registry receives the auth counters and is served at /metrics,
		// nil disables both
		Registry *prometheus.Registry
	}

	InvalidPath struct {
		Name  string
		Value string
	}
)

const (
	postsPrefix = "/posts"
)

var (
	methods = []string{
		"GET", "POST",
	}

	fixedPaths = []string{
		"/", "/metrics", "/users/register/", "/users/logout/", "/users/whoami",
	}
)

func (i InvalidPath) Error() string {
	return fmt.Sprintf("%v must be an absolute path on this host, got %q", i.Name, i.Value)
}

// AsHandler assembles the whole site. Every request goes through, in
// order: the access log, the anti-forgery check, identification and
// finally the route handler.
func AsHandler(ctx context.Context, svc *auth.Service, store blog.Store, opts Options) (http.Handler, error) {
	routes := render.DefaultRoutes()
	if opts.Landing != "" {
		routes.Landing = opts.Landing
	}
	if opts.LoginURL != "" {
		routes.Login = opts.LoginURL
	}
	if !authapi.SafeNext(routes.Landing) {
		return nil, InvalidPath{Name: "landing", Value: routes.Landing}
	}
	if !authapi.SafeNext(routes.Login) || reservedPath(authapi.LoginPath(routes.Login)) {
		return nil, InvalidPath{Name: "login url", Value: routes.Login}
	}
	pages, err := render.New(routes)
	if err != nil {
		return nil, err
	}

	var reg prometheus.Registerer
	if opts.Registry != nil {
		reg = opts.Registry
	}
	counters := metrics.NewAuth(reg)

	realm := authapi.NewRealm(svc, pages, counters, authapi.Options{
		Landing:        routes.Landing,
		LoginURL:       routes.Login,
		InsecureCookie: opts.InsecureCookie,
	})

	router := httprouter.New()
	realm.Mount(router)

	posts := http.StripPrefix(postsPrefix, blogapi.Routes(store, pages, realm.Protect, routes.Posts))
	for _, m := range methods {
		router.Handler(m, postsPrefix+"/*rest", posts)
	}
	router.HandlerFunc("GET", "/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, routes.Landing, http.StatusFound)
	})
	if opts.Registry != nil {
		router.Handler("GET", "/metrics", metrics.Handler(opts.Registry))
	}

	handler := realm.Identify(router)
	handler = csrf.Protect(handler, csrf.Options{
		InsecureCookie: opts.InsecureCookie,
		OnReject: func(*http.Request) {
			counters.Inc(metrics.CSRFRejected)
		},
	})
	return logutil.Middleware(logutil.GetOrDefault(ctx), handler), nil
}

// reservedPath reports whether the login handler cannot be mounted at p
// without clashing with another route.
func reservedPath(p string) bool {
	if strings.ContainsAny(p, ":*") || strings.HasPrefix(p, postsPrefix+"/") || p == postsPrefix {
		return true
	}
	for _, f := range fixedPaths {
		if p == f {
			return true
		}
	}
	return false
}

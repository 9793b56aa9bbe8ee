package api

import (
	"context"
	"net/http"

	"github.com/andrebq/blogbox/auth"
	"github.com/andrebq/blogbox/internal/logutil"
	"github.com/andrebq/blogbox/internal/metrics"
	"github.com/andrebq/blogbox/internal/render"
)

const (
	SessionCookie = "sessionid"
)

type (
	Options struct {
		// Landing is where successful register, login (without next) and
		// logout go to
		Landing string
		// LoginURL is the literal path anonymous users are sent to
		LoginURL string
		// InsecureCookie allows cookies over plain http
		InsecureCookie bool
	}

	SecurityRealm struct {
		svc     *auth.Service
		pages   *render.Renderer
		metrics *metrics.Auth
		opts    Options
	}

	key byte

	requestInfo struct {
		identity auth.Identity
		target   string
	}
)

var (
	requestInfoKey = key(1)
)

func NewRealm(svc *auth.Service, pages *render.Renderer, m *metrics.Auth, opts Options) *SecurityRealm {
	defaults := render.DefaultRoutes()
	if opts.Landing == "" {
		opts.Landing = defaults.Landing
	}
	if opts.LoginURL == "" {
		opts.LoginURL = defaults.Login
	}
	return &SecurityRealm{
		svc:     svc,
		pages:   pages,
		metrics: m,
		opts:    opts,
	}
}

// Identify resolves the session cookie into an identity exactly once per
// request. It must wrap the whole router, the request target it records is
// the one later used as the login "next" value.
func (s *SecurityRealm) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		info := requestInfo{identity: auth.Anonymous(), target: r.URL.RequestURI()}
		if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
			id, err := s.svc.Identify(ctx, c.Value)
			if err != nil {
				log := logutil.GetOrDefault(ctx)
				log.Error().Err(err).Msg("Unable to identify session, treating request as anonymous")
			} else {
				info.identity = id
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, requestInfoKey, info)))
	})
}

// Protect lets authenticated identities through and sends everyone else to
// the login page, carrying the original target in the next parameter.
func (s *SecurityRealm) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()).Authenticated() {
			sensitive.ServeHTTP(w, r)
			return
		}
		s.metrics.Inc(metrics.GuardRedirect)
		redirect(w, LoginRedirect(s.opts.LoginURL, requestTarget(r)))
	})
}

// IdentityFrom returns the identity computed by Identify, requests that did
// not go through it are anonymous.
func IdentityFrom(ctx context.Context) auth.Identity {
	info, ok := ctx.Value(requestInfoKey).(requestInfo)
	if !ok {
		return auth.Anonymous()
	}
	return info.identity
}

func requestTarget(r *http.Request) string {
	if info, ok := r.Context().Value(requestInfoKey).(requestInfo); ok {
		return info.target
	}
	return r.URL.RequestURI()
}

// redirect answers 302 with the location as given, http.Redirect would
// clean the path and break the exact round trip of next.
func redirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusFound)
}

// Package csrf rejects state-changing requests that do not echo the
// anti-forgery token stored in the csrftoken cookie.
package csrf

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/andrebq/blogbox/internal/logutil"
	"github.com/google/uuid"
)

const (
	CookieName = "csrftoken"
	FieldName  = "csrfmiddlewaretoken"
	HeaderName = "X-CSRFToken"

	RejectMessage = "Forbidden (CSRF token missing or incorrect.)"

	cookieMaxAge = 365 * 24 * time.Hour
)

type (
	key byte

	Options struct {
		// InsecureCookie allows the cookie to travel over plain http
		InsecureCookie bool
		// OnReject is called for every rejected request, may be nil
		OnReject func(*http.Request)
	}
)

var (
	tokenKey = key(1)
)

// Protect issues a token to clients that do not have one yet and rejects
// unsafe requests whose submitted token does not match the cookie.
func Protect(next http.Handler, opts Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookieToken := ""
		if c, err := r.Cookie(CookieName); err == nil && validToken(c.Value) {
			cookieToken = c.Value
		}
		if !safeMethod(r.Method) {
			submitted := r.Header.Get(HeaderName)
			if submitted == "" {
				submitted = r.PostFormValue(FieldName)
			}
			if cookieToken == "" || subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) != 1 {
				log := logutil.GetOrDefault(r.Context())
				log.Warn().Str("path", r.URL.Path).Msg("Rejecting request without a valid CSRF token")
				if opts.OnReject != nil {
					opts.OnReject(r)
				}
				http.Error(w, RejectMessage, http.StatusForbidden)
				return
			}
		}
		token := cookieToken
		if token == "" {
			token = issue(w, opts.InsecureCookie)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey, token)))
	})
}

// Token returns the token that pages must embed in their forms
func Token(r *http.Request) string {
	v, _ := r.Context().Value(tokenKey).(string)
	return v
}

// Rotate replaces the token of the client, used after a successful login.
func Rotate(w http.ResponseWriter, insecureCookie bool) string {
	return issue(w, insecureCookie)
}

func issue(w http.ResponseWriter, insecureCookie bool) string {
	token := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   !insecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(cookieMaxAge.Seconds()),
	})
	return token
}

func validToken(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

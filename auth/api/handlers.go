package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/andrebq/blogbox/auth"
	"github.com/andrebq/blogbox/internal/csrf"
	"github.com/andrebq/blogbox/internal/forms"
	"github.com/andrebq/blogbox/internal/logutil"
	"github.com/andrebq/blogbox/internal/metrics"
	"github.com/andrebq/blogbox/internal/render"
	"github.com/andrebq/blogbox/journal"
	"github.com/julienschmidt/httprouter"
)

type (
	whoami struct {
		Authenticated bool   `json:"authenticated"`
		Credential    string `json:"credential"`
	}
)

// Mount registers the user routes on router. The login form is served at
// the path of the configured login URL. Logout is POST only, any other
// method gets 405 from the router.
func (s *SecurityRealm) Mount(router *httprouter.Router) {
	login := LoginPath(s.opts.LoginURL)
	router.HandlerFunc("GET", "/users/register/", s.Register)
	router.HandlerFunc("POST", "/users/register/", s.Register)
	router.HandlerFunc("GET", login, s.Login)
	router.HandlerFunc("POST", login, s.Login)
	router.HandlerFunc("POST", "/users/logout/", s.Logout)
	router.HandlerFunc("GET", "/users/whoami", s.WhoAmI)
}

func (s *SecurityRealm) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logutil.GetOrDefault(ctx)
	page := render.Page{Title: "Register", Identity: IdentityFrom(ctx)}
	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, render.RegisterPage, page)
		return
	}
	res, err := s.svc.ValidateRegistration(ctx, forms.FromRequest(r, auth.RegistrationFields...))
	if err != nil {
		log.Error().Err(err).Msg("Unable to validate registration")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if !res.Valid() {
		s.rejectRegistration(w, r, page, res)
		return
	}
	acc, err := s.svc.Register(ctx, res.Values[auth.FieldCredential], res.Values[auth.FieldNewSecret])
	var taken journal.CredentialTaken
	if errors.As(err, &taken) {
		res.Add(auth.FieldCredential, auth.MsgCredentialTaken)
		s.rejectRegistration(w, r, page, res)
		return
	} else if err != nil {
		log.Error().Err(err).Msg("Unable to register account")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	log.Info().Str("credential", acc.Credential).Int64("account", acc.ID).Msg("Account registered")
	s.metrics.Inc(metrics.Registered)
	if !s.startSession(w, r, acc) {
		return
	}
	redirect(w, s.opts.Landing)
}

func (s *SecurityRealm) rejectRegistration(w http.ResponseWriter, r *http.Request, page render.Page, res forms.Result) {
	s.metrics.Inc(metrics.RegistrationRejected)
	res.Values = res.Values.Without(auth.FieldNewSecret, auth.FieldConfirmation)
	page.Form = res
	s.render(w, r, http.StatusOK, render.RegisterPage, page)
}

func (s *SecurityRealm) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logutil.GetOrDefault(ctx)
	page := render.Page{Title: "Log in", Identity: IdentityFrom(ctx)}
	if next := r.FormValue(auth.FieldNext); SafeNext(next) {
		page.Next = next
	}
	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, render.LoginPage, page)
		return
	}
	res := auth.ValidateLogin(forms.FromRequest(r, auth.LoginFields...))
	if !res.Valid() {
		res.Values = res.Values.Without(auth.FieldSecret)
		page.Form = res
		s.render(w, r, http.StatusOK, render.LoginPage, page)
		return
	}
	acc, err := s.svc.Authenticate(ctx, res.Values[auth.FieldCredential], res.Values[auth.FieldSecret])
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.metrics.Inc(metrics.LoginFailed)
		// the submitted credential is not echoed, unknown and existing
		// accounts must produce the same page
		page.Form = forms.Result{
			Values: forms.Values{},
			Errors: map[string]string{forms.NonField: auth.MsgInvalidCredentials},
		}
		s.render(w, r, http.StatusOK, render.LoginPage, page)
		return
	} else if err != nil {
		log.Error().Err(err).Msg("Unable to authenticate")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	log.Info().Str("credential", acc.Credential).Int64("account", acc.ID).Msg("Login")
	s.metrics.Inc(metrics.LoggedIn)
	if !s.startSession(w, r, acc) {
		return
	}
	redirect(w, s.nextOrLanding(page.Next))
}

func (s *SecurityRealm) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if err := s.svc.EndSession(ctx, c.Value); err != nil {
			log := logutil.GetOrDefault(ctx)
			log.Error().Err(err).Msg("Unable to end session")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
	}
	if IdentityFrom(ctx).Authenticated() {
		s.metrics.Inc(metrics.LoggedOut)
	}
	s.clearSessionCookie(w)
	redirect(w, s.opts.Landing)
}

func (s *SecurityRealm) WhoAmI(w http.ResponseWriter, r *http.Request) {
	id := IdentityFrom(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	err := json.NewEncoder(w).Encode(whoami{
		Authenticated: id.Authenticated(),
		Credential:    id.Credential(),
	})
	if err != nil {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Msg("Unable to write identity")
	}
}

// startSession logs acc in on the client. The old session, if any, is left
// to expire. On failure the response is already written.
func (s *SecurityRealm) startSession(w http.ResponseWriter, r *http.Request, acc journal.Account) bool {
	sess, err := s.svc.StartSession(r.Context(), acc.ID)
	if err != nil {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Int64("account", acc.ID).Msg("Unable to start session")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   !s.opts.InsecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	csrf.Rotate(w, s.opts.InsecureCookie)
	return true
}

func (s *SecurityRealm) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.opts.InsecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *SecurityRealm) render(w http.ResponseWriter, r *http.Request, status int, name string, page render.Page) {
	if err := s.pages.Render(w, r, status, name, page); err != nil {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Str("page", name).Msg("Unable to render page")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// Package render turns page data into html using the embedded templates.
// Every page shares the layout that carries the navigation bar.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/andrebq/blogbox/auth"
	"github.com/andrebq/blogbox/internal/csrf"
	"github.com/andrebq/blogbox/internal/forms"
	"github.com/andrebq/blogbox/journal"
)

type (
	Routes struct {
		Landing  string
		Login    string
		Register string
		Logout   string
		Posts    string
		NewPost  string
	}

	Page struct {
		Title    string
		Identity auth.Identity
		Form     forms.Result
		Next     string
		Posts    []journal.Post
		Post     journal.Post

		// filled by the Renderer
		CSRFToken string
		Routes    Routes
	}

	Renderer struct {
		routes Routes
		pages  map[string]*template.Template
	}

	UnknownPage struct {
		Name string
	}
)

const (
	LoginPage    = "login"
	RegisterPage = "register"
	PostListPage = "post_list"
	PostPage     = "post_page"
	NewPostPage  = "post_new"
)

//go:embed templates/*.html
var templates embed.FS

func (u UnknownPage) Error() string {
	return fmt.Sprintf("page %v does not exist", u.Name)
}

func DefaultRoutes() Routes {
	return Routes{
		Landing:  "/posts/",
		Login:    "/users/login/",
		Register: "/users/register/",
		Logout:   "/users/logout/",
		Posts:    "/posts/",
		NewPost:  "/posts/new-post/",
	}
}

// New parses every page together with the shared layout.
func New(routes Routes) (*Renderer, error) {
	layout, err := template.ParseFS(templates, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("unable to parse layout, cause %w", err)
	}
	entries, err := fs.Glob(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("unable to list templates, cause %w", err)
	}
	r := &Renderer{routes: routes, pages: map[string]*template.Template{}}
	for _, e := range entries {
		name := strings.TrimSuffix(strings.TrimPrefix(e, "templates/"), ".html")
		if name == "layout" {
			continue
		}
		base, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("unable to clone layout for %v, cause %w", name, err)
		}
		r.pages[name], err = base.ParseFS(templates, e)
		if err != nil {
			return nil, fmt.Errorf("unable to parse page %v, cause %w", name, err)
		}
	}
	return r, nil
}

// Render writes the page with the given status. Nothing is written if the
// template fails, so callers can still answer with an error.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, data Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return UnknownPage{Name: name}
	}
	data.CSRFToken = csrf.Token(req)
	data.Routes = r.routes
	if data.Form.Values == nil {
		data.Form.Values = forms.Values{}
	}
	buf := bytes.Buffer{}
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("unable to render %v, cause %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

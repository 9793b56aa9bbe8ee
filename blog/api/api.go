package api

import (
	"errors"
	"net/http"

	authapi "github.com/andrebq/blogbox/auth/api"
	"github.com/andrebq/blogbox/blog"
	"github.com/andrebq/blogbox/internal/forms"
	"github.com/andrebq/blogbox/internal/logutil"
	"github.com/andrebq/blogbox/internal/render"
	"github.com/andrebq/blogbox/journal"
	"github.com/go-chi/chi/v5"
)

type (
	handler struct {
		store   blog.Store
		pages   *render.Renderer
		listURL string
	}
)

// Routes serves the posts section relative to its mount point: the list
// at /, the editor at /new-post/ (wrapped by protect) and pages at /{slug}.
// listURL is where a published post redirects to.
func Routes(store blog.Store, pages *render.Renderer, protect func(http.Handler) http.Handler, listURL string) http.Handler {
	h := &handler{store: store, pages: pages, listURL: listURL}
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Group(func(r chi.Router) {
		r.Use(protect)
		r.Get("/new-post/", h.newPost)
		r.Post("/new-post/", h.newPost)
	})
	r.Get("/{slug}", h.page)
	return r
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	posts, err := h.store.ListPosts(ctx)
	if err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Error().Err(err).Msg("Unable to list posts")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, render.PostListPage, render.Page{
		Title:    "Posts",
		Identity: authapi.IdentityFrom(ctx),
		Posts:    posts,
	})
}

func (h *handler) page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := h.store.PostBySlug(ctx, chi.URLParam(r, "slug"))
	var notFound journal.PostNotFound
	if errors.As(err, &notFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Error().Err(err).Msg("Unable to load post")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, render.PostPage, render.Page{
		Title:    post.Title,
		Identity: authapi.IdentityFrom(ctx),
		Post:     post,
	})
}

func (h *handler) newPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := authapi.IdentityFrom(ctx)
	page := render.Page{Title: "New Post", Identity: id}
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, render.NewPostPage, page)
		return
	}
	post, res, err := blog.Publish(ctx, h.store, forms.FromRequest(r, blog.Fields...), *id.Account)
	if err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Error().Err(err).Msg("Unable to publish post")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if !res.Valid() {
		page.Form = res
		h.render(w, r, http.StatusOK, render.NewPostPage, page)
		return
	}
	log := logutil.GetOrDefault(ctx)
	log.Info().Str("slug", post.Slug).Int64("author", post.AuthorID).Msg("Post published")
	http.Redirect(w, r, h.listURL, http.StatusFound)
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, name string, page render.Page) {
	if err := h.pages.Render(w, r, status, name, page); err != nil {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Str("page", name).Msg("Unable to render page")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

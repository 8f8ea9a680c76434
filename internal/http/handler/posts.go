package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/http/respond"
)

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Review  string `json:"review"`
}

func (p postRequest) input() core.PostInput {
	return core.PostInput{Title: p.Title, Content: p.Content, Review: p.Review}
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context(), core.PostFilter{
		Title: r.URL.Query().Get("title"),
		Limit: queryLimit(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Welcome To The Blog Page!",
		"blogs":   posts,
	})
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Blog retrieved successfully",
		"blog":    p,
	})
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in postRequest
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.posts.Create(r.Context(), id, in.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Blog created successfully",
		"blog":    p,
	})
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in postRequest
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.posts.Update(r.Context(), id, chi.URLParam(r, "id"), in.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Blog updated successfully",
		"blog":    p,
	})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.posts.Delete(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

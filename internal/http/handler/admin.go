package handler

import (
	"net/http"
	"time"

	"example.com/blog-api/internal/http/respond"
)

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.Count(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	posts, err := h.posts.Count(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"total_users": users,
		"total_posts": posts,
		"timestamp":   time.Now().Unix(),
	})
}

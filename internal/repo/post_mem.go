package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/blog-api/internal/core"
)

// PostMem is an in-memory core.PostStore.
type PostMem struct {
	mu    sync.RWMutex
	posts map[string]core.Post
}

func NewPostMem() *PostMem {
	return &PostMem{posts: map[string]core.Post{}}
}

func (r *PostMem) Create(_ context.Context, p *core.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	r.posts[p.ID] = *p
	return nil
}

func (r *PostMem) ByID(_ context.Context, id string) (*core.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &p, nil
}

// List returns posts oldest first, filtered by exact title.
func (r *PostMem) List(_ context.Context, f core.PostFilter) ([]core.Post, error) {
	r.mu.RLock()
	out := make([]core.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if f.Title != "" && p.Title != f.Title {
			continue
		}
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *PostMem) Update(_ context.Context, p *core.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[p.ID]; !ok {
		return core.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	r.posts[p.ID] = *p
	return nil
}

func (r *PostMem) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *PostMem) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts), nil
}

package core

import (
	"context"
	"errors"
	"fmt"

	"example.com/blog-api/internal/logging"
)

type PostInput struct {
	Title   string
	Content string
	Review  string
}

type PostService struct {
	posts  PostStore
	logger logging.Logger
}

func NewPostService(posts PostStore, logger logging.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

func (s *PostService) List(ctx context.Context, f PostFilter) ([]Post, error) {
	if f.Limit < 0 {
		f.Limit = 0
	}
	posts, err := s.posts.List(ctx, f)
	if err != nil {
		s.logger.Error(ctx, "Failed to list posts", "error", err)
		return nil, Internal(err)
	}
	if len(posts) == 0 {
		if f.Title != "" {
			return nil, NotFound(fmt.Sprintf("Blog not found for this title: %s", f.Title))
		}
		return nil, NotFound("Blogs not found")
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*Post, error) {
	p, err := s.posts.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFound("Blog does not exist")
		}
		return nil, Internal(err)
	}
	return p, nil
}

// Create stores a post authored by the caller.
func (s *PostService) Create(ctx context.Context, caller Identity, in PostInput) (*Post, error) {
	if in.Title == "" || in.Content == "" {
		return nil, BadRequest("Title or Content is missing!")
	}
	p := &Post{
		Title:    in.Title,
		Content:  in.Content,
		Review:   in.Review,
		AuthorID: caller.AccountID,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		s.logger.Error(ctx, "Failed to create post", "author_id", caller.AccountID, "error", err)
		return nil, Internal(err)
	}
	s.logger.Info(ctx, "Post created", "post_id", p.ID, "author_id", caller.AccountID)
	return p, nil
}

// Update applies the non-empty fields of in. Only the author or an admin
// may edit a post.
func (s *PostService) Update(ctx context.Context, caller Identity, id string, in PostInput) (*Post, error) {
	p, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if in.Title == "" && in.Content == "" && in.Review == "" {
		return nil, BadRequest("Nothing to update!")
	}
	if in.Title != "" {
		p.Title = in.Title
	}
	if in.Content != "" {
		p.Content = in.Content
	}
	if in.Review != "" {
		p.Review = in.Review
	}
	if err := s.posts.Update(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFound("Blog does not exist")
		}
		return nil, Internal(err)
	}
	return p, nil
}

func (s *PostService) Delete(ctx context.Context, caller Identity, id string) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return NotFound("Blog does not exist")
		}
		return Internal(err)
	}
	s.logger.Info(ctx, "Post deleted", "post_id", id, "by", caller.AccountID)
	return nil
}

func (s *PostService) Count(ctx context.Context) (int, error) {
	n, err := s.posts.Count(ctx)
	if err != nil {
		return 0, Internal(err)
	}
	return n, nil
}

func (s *PostService) owned(ctx context.Context, caller Identity, id string) (*Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && p.AuthorID != caller.AccountID {
		return nil, Forbidden("Access Denied, you are not allowed to modify this post!")
	}
	return p, nil
}

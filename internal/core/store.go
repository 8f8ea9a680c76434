package core

import "context"

// AccountStore persists accounts. Create must enforce email uniqueness and
// return ErrDuplicateEmail on conflict; lookups return ErrNotFound.
type AccountStore interface {
	Create(ctx context.Context, a *Account) error
	ByEmail(ctx context.Context, email string) (*Account, error)
	ByID(ctx context.Context, id string) (*Account, error)
	List(ctx context.Context, limit int) ([]Account, error)
	Count(ctx context.Context) (int, error)
}

// PostStore persists blog posts. ByID, Update and Delete return ErrNotFound
// for unknown ids.
type PostStore interface {
	Create(ctx context.Context, p *Post) error
	ByID(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, f PostFilter) ([]Post, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

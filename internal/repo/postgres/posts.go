package postgres

import (
	"context"

	"example.com/blog-api/internal/core"
)

type PostStore struct {
	db DBTX
}

func NewPostStore(db DBTX) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, content, author_id, review, created_at, updated_at`

func scanPost(s scanner) (*core.Post, error) {
	p := &core.Post{}
	err := s.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.Review, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostStore) Create(ctx context.Context, p *core.Post) error {
	query :=
		`INSERT INTO posts (title, content, author_id, review)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Title, p.Content, p.AuthorID, p.Review).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *PostStore) ByID(ctx context.Context, id string) (*core.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

// List filters by exact title when one is set and returns posts oldest
// first.
func (r *PostStore) List(ctx context.Context, f core.PostFilter) ([]core.Post, error) {
	query :=
		`SELECT ` + postColumns + ` FROM posts
		 WHERE ($1 = '' OR title = $1)
		 ORDER BY created_at, id
		 LIMIT NULLIF($2, 0)`

	limit := f.Limit
	if limit < 0 {
		limit = 0
	}
	rows, err := r.db.QueryContext(ctx, query, f.Title, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []core.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (r *PostStore) Update(ctx context.Context, p *core.Post) error {
	query :=
		`UPDATE posts SET title = $2, content = $3, review = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, p.ID, p.Title, p.Content, p.Review).Scan(&p.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *PostStore) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *PostStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

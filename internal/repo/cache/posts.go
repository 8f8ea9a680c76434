// Package cache adds a Redis read-through cache in front of a core.PostStore.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/logging"
)

const (
	postKeyPrefix = "post:"
	// listGenKey is bumped on every write; list keys embed it, so a bump
	// orphans every cached listing at once and TTL reclaims them.
	listGenKey = "posts:gen"
)

var errStale = errors.New("cache fill raced a write")

// Open parses a redis:// URL and checks the connection.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// PostStore wraps another core.PostStore. Reads are served from Redis when
// possible; a Redis failure is logged and the read falls through to the
// wrapped store.
type PostStore struct {
	next   core.PostStore
	rdb    *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

func NewPostStore(next core.PostStore, rdb *redis.Client, ttl time.Duration, logger logging.Logger) *PostStore {
	return &PostStore{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *PostStore) ByID(ctx context.Context, id string) (*core.Post, error) {
	key := postKey(id)
	var p core.Post
	if s.load(ctx, key, &p) {
		return &p, nil
	}

	gen, genErr := s.generation(ctx)
	fresh, err := s.next.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		s.store(ctx, gen, key, fresh)
	}
	return fresh, nil
}

func (s *PostStore) List(ctx context.Context, f core.PostFilter) ([]core.Post, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		return s.next.List(ctx, f)
	}

	key := listKey(gen, f)
	var posts []core.Post
	if s.load(ctx, key, &posts) {
		return posts, nil
	}

	posts, err = s.next.List(ctx, f)
	if err != nil {
		return nil, err
	}
	s.store(ctx, gen, key, posts)
	return posts, nil
}

func (s *PostStore) Create(ctx context.Context, p *core.Post) error {
	if err := s.next.Create(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *PostStore) Update(ctx context.Context, p *core.Post) error {
	if err := s.next.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, postKey(p.ID))
	return nil
}

func (s *PostStore) Delete(ctx context.Context, id string) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, postKey(id))
	return nil
}

func (s *PostStore) Count(ctx context.Context) (int, error) {
	return s.next.Count(ctx)
}

// load reports whether key was found and decoded into v.
func (s *PostStore) load(ctx context.Context, key string, v any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn(ctx, "Post cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn(ctx, "Dropping undecodable cache entry", "key", key, "error", err)
		_ = s.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// generation returns the current write counter, 0 before the first write.
func (s *PostStore) generation(ctx context.Context) (int64, error) {
	gen, err := s.rdb.Get(ctx, listGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		s.logger.Warn(ctx, "Post cache unavailable", "error", err)
		return 0, err
	}
	return gen, nil
}

// store caches v under key only while the write counter still equals gen,
// i.e. no write landed between reading from the store and filling the
// cache. The check and the SET run in one WATCH transaction.
func (s *PostStore) store(ctx context.Context, gen int64, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn(ctx, "Post cache encode failed", "key", key, "error", err)
		return
	}

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, listGenKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, listGenKey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		s.logger.Debug(ctx, "Skipping cache fill after concurrent write", "key", key)
	default:
		s.logger.Warn(ctx, "Post cache write failed", "key", key, "error", err)
	}
}

func (s *PostStore) invalidate(ctx context.Context, keys ...string) {
	pipe := s.rdb.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Incr(ctx, listGenKey)
	if _, err := pipe.Exec(ctx); err != nil {
		// stale entries will still expire after the TTL
		s.logger.Error(ctx, "Post cache invalidation failed", "keys", keys, "error", err)
	}
}

func postKey(id string) string {
	return postKeyPrefix + id
}

func listKey(gen int64, f core.PostFilter) string {
	return "posts:" + strconv.FormatInt(gen, 10) + ":" + strconv.Itoa(f.Limit) + ":" + strconv.Quote(f.Title)
}

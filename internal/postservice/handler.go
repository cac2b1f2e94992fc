package postservice

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushihentaime/blogpost/internal/common"
	"github.com/sushihentaime/blogpost/internal/userservice"
)

// NewPostService wires the post store. c may be nil to disable caching.
func NewPostService(db *mongo.Database, c common.Cache, logger *slog.Logger) *PostService {
	return &PostService{
		m:      newPostModel(db),
		c:      c,
		logger: logger,
		now:    time.Now,
	}
}

// timestamp is the current time at the resolution BSON stores.
func (s *PostService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// CreatePost stores a new post authored by the caller.
func (s *PostService) CreatePost(ctx context.Context, author userservice.Identity, req *CreatePostRequest) (*Post, error) {
	if author.IsAnonymous() {
		return nil, ErrForbidden
	}

	content := sanitizeContent(req.Content)

	v := common.NewValidator()
	validateCreate(v, req, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	now := s.timestamp()
	p := &Post{
		Title:         req.Title,
		Content:       content,
		AuthorID:      author.ID,
		PublishDate:   now,
		LastUpdated:   now,
		Category:      req.Category,
		FeaturedImage: req.FeaturedImage,
	}
	p.normalize()

	if err := s.m.insert(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// GetPostByID returns ErrRecordNotFound for unknown and malformed ids alike.
func (s *PostService) GetPostByID(ctx context.Context, id string) (*Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	key := common.CacheKeyPost(oid.Hex())

	if s.c != nil {
		var cached Post
		ok, err := s.c.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("post cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		if ok {
			cached.normalize()
			return &cached, nil
		}
	}

	p, err := s.m.getPostByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		if err := s.c.Set(ctx, key, p, 0); err != nil {
			s.logger.Warn("post cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	return p, nil
}

// ListPosts returns one page, newest first. Non-positive page or limit fall
// back to the defaults; limit has no upper bound. A zero author lists every post.
func (s *PostService) ListPosts(ctx context.Context, page, limit int, author primitive.ObjectID) (*PostPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	posts, err := s.m.getPosts(ctx, author, skipFor(page, limit), int64(limit))
	if err != nil {
		return nil, err
	}

	total, err := s.m.countPosts(ctx, author)
	if err != nil {
		return nil, err
	}

	return &PostPage{
		Posts:       posts,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
		TotalPosts:  total,
	}, nil
}

// UpdatePost overwrites the provided fields of a post the editor authored.
func (s *PostService) UpdatePost(ctx context.Context, editor userservice.Identity, id string, req *UpdatePostRequest) (*Post, error) {
	p, err := s.ownedPost(ctx, editor, id)
	if err != nil {
		return nil, err
	}

	content := sanitizeContent(req.Content)

	v := common.NewValidator()
	validateUpdate(v, req, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if req.Title != "" {
		p.Title = req.Title
	}
	if req.Content != "" {
		p.Content = content
	}
	if req.Category != nil {
		p.Category = req.Category
	}
	if req.FeaturedImage != "" {
		p.FeaturedImage = req.FeaturedImage
	}
	p.LastUpdated = nextUpdate(p.LastUpdated, s.timestamp())

	if err := s.invalidate(ctx, p.ID); err != nil {
		return nil, err
	}

	if err := s.m.updatePost(ctx, p); err != nil {
		return nil, err
	}

	s.evict(ctx, p.ID)

	return p, nil
}

// DeletePost removes a post the caller authored.
func (s *PostService) DeletePost(ctx context.Context, caller userservice.Identity, id string) error {
	p, err := s.ownedPost(ctx, caller, id)
	if err != nil {
		return err
	}

	if err := s.invalidate(ctx, p.ID); err != nil {
		return err
	}

	if err := s.m.deletePost(ctx, p.ID); err != nil {
		return err
	}

	s.evict(ctx, p.ID)

	return nil
}

// SearchPosts returns every post whose title or content contains keyword, ignoring case.
func (s *PostService) SearchPosts(ctx context.Context, keyword string) ([]Post, error) {
	return s.m.searchPosts(ctx, keyword)
}

// ownedPost loads the post straight from the store and checks authorship.
func (s *PostService) ownedPost(ctx context.Context, caller userservice.Identity, id string) (*Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	p, err := s.m.getPostByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	if !caller.Owns(p.AuthorID) {
		return nil, ErrForbidden
	}

	return p, nil
}

// invalidate drops the cached copy before a write. A failure aborts the
// write so the cache never outlives the stored post.
func (s *PostService) invalidate(ctx context.Context, id primitive.ObjectID) error {
	if s.c == nil {
		return nil
	}

	if err := s.c.Delete(ctx, common.CacheKeyPost(id.Hex())); err != nil {
		return fmt.Errorf("could not invalidate cached post: %w", err)
	}
	return nil
}

// evict runs after a write to drop a copy a concurrent read cached in between.
func (s *PostService) evict(ctx context.Context, id primitive.ObjectID) {
	if s.c == nil {
		return
	}

	key := common.CacheKeyPost(id.Hex())
	if err := s.c.Delete(ctx, key); err != nil {
		s.logger.Error("post cache eviction failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// nextUpdate keeps lastUpdated strictly increasing even when two writes land in the same millisecond.
func nextUpdate(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}

// totalPages is ceil(total/limit) without the overflow of total+limit-1.
func totalPages(total int64, limit int) int64 {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return pages
}

func skipFor(page, limit int) int64 {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}

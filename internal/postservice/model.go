package postservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sushihentaime/blogpost/internal/common"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrForbidden      = errors.New("not the author of this post")
)

// newestFirst is the order of every multi-post read.
var newestFirst = bson.D{{Key: "publishDate", Value: -1}, {Key: "_id", Value: -1}}

func newPostModel(db *mongo.Database) *PostModel {
	return &PostModel{coll: db.Collection(common.PostsCollection)}
}

// EnsureIndexes creates the indexes the list and author queries use.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(common.PostsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "publishDate", Value: -1}}, Options: options.Index().SetName("posts_publish_date_idx")},
		{Keys: bson.D{{Key: "authorId", Value: 1}}, Options: options.Index().SetName("posts_author_id_idx")},
	})
	if err != nil {
		return fmt.Errorf("could not create post indexes: %w", err)
	}

	return nil
}

func (m *PostModel) insert(ctx context.Context, p *Post) error {
	res, err := m.coll.InsertOne(ctx, p)
	if err != nil {
		return err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id %T", res.InsertedID)
	}
	p.ID = id

	return nil
}

func (m *PostModel) getPostByID(ctx context.Context, id primitive.ObjectID) (*Post, error) {
	var p Post

	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	p.normalize()
	return &p, nil
}

// getPosts returns one page sorted newest first. A zero author matches every post.
func (m *PostModel) getPosts(ctx context.Context, author primitive.ObjectID, skip, limit int64) ([]Post, error) {
	opts := options.Find().SetSort(newestFirst).SetSkip(skip).SetLimit(limit)

	return m.find(ctx, authorFilter(author), opts)
}

func (m *PostModel) countPosts(ctx context.Context, author primitive.ObjectID) (int64, error) {
	return m.coll.CountDocuments(ctx, authorFilter(author))
}

// searchPosts matches keyword literally and case-insensitively against title or content.
func (m *PostModel) searchPosts(ctx context.Context, keyword string) ([]Post, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"content": pattern},
	}}

	return m.find(ctx, filter, options.Find().SetSort(newestFirst))
}

func (m *PostModel) find(ctx context.Context, filter any, opts *options.FindOptions) ([]Post, error) {
	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	posts := []Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}

	for i := range posts {
		posts[i].normalize()
	}

	return posts, nil
}

// updatePost writes the mutable fields. authorId and publishDate are never touched.
func (m *PostModel) updatePost(ctx context.Context, p *Post) error {
	update := bson.M{"$set": bson.M{
		"title":         p.Title,
		"content":       p.Content,
		"category":      p.Category,
		"featuredImage": p.FeaturedImage,
		"lastUpdated":   p.LastUpdated,
	}}

	res, err := m.coll.UpdateByID(ctx, p.ID, update)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m *PostModel) deletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func authorFilter(author primitive.ObjectID) bson.M {
	if author.IsZero() {
		return bson.M{}
	}
	return bson.M{"authorId": author}
}

func (p *Post) normalize() {
	if p.Category == nil {
		p.Category = []string{}
	}
}

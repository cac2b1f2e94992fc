package postservice

import (
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushihentaime/blogpost/internal/common"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type Post struct {
	ID    primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title string             `json:"title" bson:"title"`
	// Content is HTML, sanitised before it is stored.
	Content       string             `json:"content" bson:"content"`
	AuthorID      primitive.ObjectID `json:"authorId" bson:"authorId"`
	PublishDate   time.Time          `json:"publishDate" bson:"publishDate"`
	LastUpdated   time.Time          `json:"lastUpdated" bson:"lastUpdated"`
	Category      []string           `json:"category" bson:"category"`
	FeaturedImage string             `json:"featuredImage,omitempty" bson:"featuredImage,omitempty"`
}

type CreatePostRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Category      []string `json:"category" validate:"dive,required,max=50"`
	FeaturedImage string   `json:"featuredImage" validate:"omitempty,http_url"`
}

// UpdatePostRequest fields left empty keep their stored value. A nil
// Category keeps the stored tags; an empty non-nil one clears them.
type UpdatePostRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Category      []string `json:"category" validate:"dive,required,max=50"`
	FeaturedImage string   `json:"featuredImage" validate:"omitempty,http_url"`
}

type PostPage struct {
	Posts       []Post `json:"posts"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int64  `json:"totalPages"`
	TotalPosts  int64  `json:"totalPosts"`
}

type PostModel struct {
	coll *mongo.Collection
}

type PostService struct {
	m      *PostModel
	c      common.Cache
	logger *slog.Logger
	now    func() time.Time
}

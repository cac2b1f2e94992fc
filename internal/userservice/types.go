package userservice

import (
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushihentaime/blogpost/internal/common"
)

const (
	DefaultTokenTTL time.Duration = 24 * time.Hour

	tokenIssuer = "blogpost"
)

var (
	AnonymousIdentity = Identity{}
)

type UserService struct {
	m      *UserModel
	mb     common.MessageProducer
	tokens *TokenIssuer
	logger *slog.Logger
}

type UserModel struct {
	coll *mongo.Collection
}

type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username"`
	Email     string             `json:"email" bson:"email"`
	Password  Password           `json:"-" bson:"password"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type Password struct {
	Plain string `json:"-" bson:"-"`
	Hash  []byte `json:"-" bson:"hash"`
}

// Identity is the caller a verified bearer token speaks for.
type Identity struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
}

func (i Identity) IsAnonymous() bool {
	return i.ID.IsZero()
}

// Owns reports whether the identity is the given author.
func (i Identity) Owns(authorID primitive.ObjectID) bool {
	return !i.IsAnonymous() && i.ID == authorID
}

// UserCreatedEvent is published on user.created.
type UserCreatedEvent struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

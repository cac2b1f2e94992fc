package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sushihentaime/blogpost/internal/common"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrNotFound          = errors.New("user not found")
)

const (
	usernameIndex = "users_username_key"
	emailIndex    = "users_email_key"
)

func newUserModel(db *mongo.Database) *UserModel {
	return &UserModel{coll: db.Collection(common.UsersCollection)}
}

// EnsureIndexes creates the unique username and email indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(common.UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName(usernameIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(emailIndex).SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("could not create user indexes: %w", err)
	}

	return nil
}

func (m *UserModel) insertUser(ctx context.Context, u *User) error {
	res, err := m.coll.InsertOne(ctx, u)
	if err != nil {
		switch {
		case mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), usernameIndex):
			return ErrDuplicateUsername
		case mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), emailIndex):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id %T", res.InsertedID)
	}
	u.ID = id

	return nil
}

func (m *UserModel) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User

	err := m.coll.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *UserModel) getUserByEmail(ctx context.Context, email string) (*User, error) {
	return m.findOne(ctx, bson.M{"email": email})
}

func (m *UserModel) getUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

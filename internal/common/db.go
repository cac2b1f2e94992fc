package common

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	PostsCollection = "posts"
	UsersCollection = "users"
)

// NewMongoDB connects to the deployment at URI and returns a handle to the named database.
func NewMongoDB(URI, name string, maxPoolSize uint64, maxIdleTime time.Duration) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(URI).
		SetMaxPoolSize(maxPoolSize).
		SetMaxConnIdleTime(maxIdleTime)

	client, err := connectMongo(opts)
	if err != nil {
		return nil, err
	}

	return client.Database(name), nil
}

// connectMongo connects and pings the primary so a bad URI fails at startup.
func connectMongo(opts *options.ClientOptions) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("could not connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("could not ping mongodb: %w", err)
	}

	return client, nil
}

// CloseDB disconnects the client behind db.
func CloseDB(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return db.Client().Disconnect(ctx)
}

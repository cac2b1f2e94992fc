package common

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestRabbitMQ(t *testing.T) string {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12.11-management-alpine", rabbitmq.WithAdminUsername("guest"), rabbitmq.WithAdminPassword("guest"))
	if err != nil {
		t.Fatalf("could not start rabbitmq container: %v", err)
	}

	connURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("could not get rabbitmq connection URL: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("could not terminate container: %v", err)
		}
	})

	return connURL
}

// TestMongo starts a mongo container and returns a database with the indexes in place.
func TestMongo(t *testing.T, indexes ...func(ctx context.Context, db *mongo.Database) error) *mongo.Database {
	ctx := context.Background()

	c, err := mongodb.Run(ctx, "mongo:7.0",
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("Waiting for connections"),
				wait.ForListeningPort("27017/tcp"),
			).WithDeadline(60*time.Second)))
	if err != nil {
		t.Fatalf("could not start mongodb container: %v", err)
	}

	connURL, err := c.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	db, err := NewMongoDB(connURL, "testdb", 10, time.Minute)
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}

	for _, ensure := range indexes {
		if err := ensure(ctx, db); err != nil {
			t.Fatalf("could not create indexes: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = CloseDB(db)
		_ = c.Terminate(ctx)
	})

	return db
}

func TestRedis(t *testing.T) string {
	ctx := context.Background()

	c, err := tcredis.Run(ctx, "redis:7.2-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second)))
	if err != nil {
		t.Fatalf("could not start redis container: %v", err)
	}

	connURL, err := c.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("could not get redis connection URL: %v", err)
	}

	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Fatalf("could not terminate container: %v", err)
		}
	})

	return connURL
}

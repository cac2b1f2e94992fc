package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBroker_PublishConsume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	mb, err := NewMessageBroker(TestRabbitMQ(t))
	require.NoError(t, err)
	t.Cleanup(func() { mb.Close() })

	require.NoError(t, mb.Declare(UserBindings))
	// declaring twice is harmless
	require.NoError(t, mb.Declare(UserBindings))

	msgs, err := mb.Consume(UserCreatedKey, UserExchange, WelcomeMailQueue)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body := []byte(`{"email":"test@example.com","username":"tester"}`)
	require.NoError(t, mb.Publish(ctx, body, UserCreatedKey, UserExchange))

	select {
	case msg := <-msgs:
		assert.Equal(t, body, msg.Body)
		assert.Equal(t, "application/json", msg.ContentType)
		assert.NoError(t, msg.Ack(false))
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

package common

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

const (
	UserExchange     Exchange   = "user_exchange"
	WelcomeMailQueue Queue      = "welcome_mail_queue"
	UserCreatedKey   BindingKey = "user.created"
)

// Binding ties a durable queue to a direct exchange.
type Binding struct {
	Exchange Exchange
	Queue    Queue
	Key      BindingKey
}

var UserBindings = []Binding{
	{Exchange: UserExchange, Queue: WelcomeMailQueue, Key: UserCreatedKey},
}

type MessageBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	// one unacked delivery per consumer keeps retries ordered
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("could not set qos: %w", err)
	}

	return &MessageBroker{conn: conn, ch: ch}, nil
}

// Close closes the channel, then the connection.
func (mb *MessageBroker) Close() error {
	if err := mb.ch.Close(); err != nil {
		return err
	}

	return mb.conn.Close()
}

// Declare creates the exchanges, queues and bindings. Declaring is idempotent.
func (mb *MessageBroker) Declare(bindings []Binding) error {
	for _, b := range bindings {
		err := mb.ch.ExchangeDeclare(string(b.Exchange), amqp.ExchangeDirect, true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("could not declare exchange %s: %w", b.Exchange, err)
		}

		_, err = mb.ch.QueueDeclare(string(b.Queue), true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("could not declare queue %s: %w", b.Queue, err)
		}

		err = mb.ch.QueueBind(string(b.Queue), string(b.Key), string(b.Exchange), false, nil)
		if err != nil {
			return fmt.Errorf("could not bind queue %s: %w", b.Queue, err)
		}
	}

	return nil
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	err := mb.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         msg,
	})
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

// Consume starts a manual-ack consumer on queue, tagged with the binding key.
func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	msgs, err := mb.ch.Consume(string(queue), string(exchange)+"."+string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}

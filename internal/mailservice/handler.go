package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/exp/rand"

	"github.com/sushihentaime/blogpost/internal/common"
	"github.com/sushihentaime/blogpost/internal/userservice"
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	return newMailService(mb, NewMailer(host, port, username, password, sender, NewTemplate()), logger)
}

func newMailService(mb common.MessageConsumer, m Mailer, logger MailLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         m,
		logger:    logger,
		baseDelay: baseDelay,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SendWelcomeEmails consumes user.created events until Close is called.
func (s *MailService) SendWelcomeEmails() error {
	msgs, err := s.mb.Consume(common.UserCreatedKey, common.UserExchange, common.WelcomeMailQueue)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	s.done = done

	go func() {
		defer close(done)

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handleUserCreated(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping welcome email consumer")
				return
			}
		}
	}()

	return nil
}

func (s *MailService) handleUserCreated(msg amqp.Delivery) {
	var event userservice.UserCreatedEvent

	if err := json.Unmarshal(msg.Body, &event); err != nil || event.Email == "" {
		s.logger.Error("could not decode user.created message", slog.String("body", string(msg.Body)))
		_ = msg.Nack(false, false)
		return
	}

	if err := s.sendWithRetry(event.Email, welcomeData{Username: event.Username}); err != nil {
		// stopped mid-retry: hand the message back for the next consumer
		if s.ctx.Err() != nil {
			s.logger.Info("requeueing welcome email on shutdown", slog.String("email", event.Email))
			_ = msg.Nack(false, true)
			return
		}

		s.logger.Error("could not send welcome email", slog.String("email", event.Email), slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	s.logger.Info("welcome email sent", slog.String("email", event.Email))
	_ = msg.Ack(false)
}

// sendWithRetry retries with exponential backoff and full jitter.
func (s *MailService) sendWithRetry(recipient string, data any) error {
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err = s.m.send(recipient, data, welcomeTemplate)
		if err == nil {
			return nil
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying welcome email", slog.String("email", recipient), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}

	return err
}

// Close stops the consumer and waits for an in-flight message to finish.
func (s *MailService) Close() {
	s.cancel()
	if s.done != nil {
		<-s.done
	}
}

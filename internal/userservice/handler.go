package userservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushihentaime/blogpost/internal/common"
)

var (
	ErrAuthenticationFailure = errors.New("invalid authentication credentials")
)

// NewUserService wires the user store. mb may be nil, in which case no events are published.
func NewUserService(db *mongo.Database, mb common.MessageProducer, tokens *TokenIssuer, logger *slog.Logger) *UserService {
	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		tokens: tokens,
		logger: logger,
	}
}

// CreateUser registers an account, publishes user.created and returns the user with an access token.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, "", v.ValidationError()
	}

	u := User{
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := u.Password.set(password); err != nil {
		return nil, "", err
	}

	if err := s.m.insertUser(ctx, &u); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(&u)
	if err != nil {
		return nil, "", err
	}

	s.publishUserCreated(ctx, &u)

	return &u, token, nil
}

// publishUserCreated is best effort: the account already exists when it runs.
func (s *UserService) publishUserCreated(ctx context.Context, u *User) {
	if s.mb == nil {
		return
	}

	data, err := json.Marshal(UserCreatedEvent{Email: u.Email, Username: u.Username})
	if err != nil {
		s.logger.Error("could not encode user.created", slog.String("error", err.Error()))
		return
	}

	if err := s.mb.Publish(ctx, data, common.UserCreatedKey, common.UserExchange); err != nil {
		s.logger.Warn("could not publish user.created", slog.String("user_id", u.ID.Hex()), slog.String("error", err.Error()))
	}
}

// LoginUser checks the credentials and returns a fresh access token.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	v := common.NewValidator()
	validateLogin(v, email, password)
	if !v.Valid() {
		return "", v.ValidationError()
	}

	user, err := s.m.getUserByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return "", ErrAuthenticationFailure
		default:
			return "", err
		}
	}

	ok, err := user.Password.matches(password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrAuthenticationFailure
	}

	return s.tokens.Generate(user)
}

func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	if id.IsZero() {
		return nil, ErrNotFound
	}

	return s.m.getUserByID(ctx, id)
}

// Authenticate resolves a bearer token to an identity without a store round trip.
func (s *UserService) Authenticate(token string) (Identity, error) {
	return s.tokens.Parse(token)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushihentaime/blogpost/internal/common"
	"github.com/sushihentaime/blogpost/internal/mailservice"
	"github.com/sushihentaime/blogpost/internal/postservice"
	"github.com/sushihentaime/blogpost/internal/userservice"
)

type application struct {
	config      *Config
	logger      *slog.Logger
	userService *userservice.UserService
	postService *postservice.PostService
	mailService *mailservice.MailService
	broker      *common.MessageBroker
}

func main() {
	envFile := flag.String("env", ".env", "path to the dotenv configuration file")
	flag.Parse()

	cfg, err := loadConfig(*envFile)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, logFile := newLogger(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("application stopped", slog.String("error", err.Error()))
		if logFile != nil {
			logFile.Close()
		}
		os.Exit(1)
	}
}

func run(cfg *Config, logger *slog.Logger) error {
	db, err := common.NewMongoDB(cfg.MongoURI, cfg.MongoDatabase, 100, 15*time.Minute)
	if err != nil {
		return err
	}
	defer common.CloseDB(db)

	if err := ensureIndexes(db); err != nil {
		return err
	}

	cache, closeCache, err := newCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	app := &application{
		config: cfg,
		logger: logger,
	}

	// the broker is optional; without it no welcome emails are sent
	var producer common.MessageProducer
	if cfg.RabbitMQURI != "" {
		broker, err := common.NewMessageBroker(cfg.RabbitMQURI)
		if err != nil {
			return err
		}
		defer broker.Close()

		if err := broker.Declare(common.UserBindings); err != nil {
			return err
		}

		app.broker = broker
		producer = broker
	} else {
		logger.Warn("RABBITMQ_URI is not set, welcome emails are disabled")
	}

	tokens := userservice.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	app.userService = userservice.NewUserService(db, producer, tokens, logger)
	app.postService = postservice.NewPostService(db, cache, logger)

	if app.broker != nil {
		app.mailService = mailservice.NewMailService(app.broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger)
		if err := app.mailService.SendWelcomeEmails(); err != nil {
			return err
		}
		defer app.mailService.Close()
	}

	return app.serve(cfg.Port)
}

func ensureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postservice.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	return userservice.EnsureIndexes(ctx, db)
}

const cacheNamespace = "blogpost"

// newCache returns a nil cache when CACHE_BACKEND is none. The redis
// namespace outlives restarts, so it is emptied before first use.
func newCache(cfg *Config) (common.Cache, func(), error) {
	switch cfg.CacheBackend {
	case cacheRedis:
		c, err := common.NewRedisCache(cfg.RedisURL, cacheNamespace, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.Flush(ctx); err != nil {
			c.Close()
			return nil, nil, fmt.Errorf("could not flush post cache: %w", err)
		}
		return c, func() { c.Close() }, nil
	case cacheMemory:
		return common.NewMemoryCache(cfg.CacheTTL, 2*cfg.CacheTTL), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

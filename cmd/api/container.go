package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/unbored-app/unbored/internal/config"
	httphandler "github.com/unbored-app/unbored/internal/handler/http"
	wshandler "github.com/unbored-app/unbored/internal/handler/websocket"
	"github.com/unbored-app/unbored/internal/infrastructure/auth"
	"github.com/unbored-app/unbored/internal/infrastructure/eventbus"
	"github.com/unbored-app/unbored/internal/infrastructure/httpserver"
	"github.com/unbored-app/unbored/internal/infrastructure/mailer"
	mongodbinfra "github.com/unbored-app/unbored/internal/infrastructure/mongodb"
	mongorepo "github.com/unbored-app/unbored/internal/infrastructure/repository/mongodb"
	"github.com/unbored-app/unbored/internal/infrastructure/storage"
	ws "github.com/unbored-app/unbored/internal/infrastructure/websocket"
	"github.com/unbored-app/unbored/internal/middleware"
	"github.com/unbored-app/unbored/internal/service"
)

// Timeouts used during container setup and health checks.
const (
	defaultConnectTimeout = 10 * time.Second
	healthCheckTimeout    = 2 * time.Second
)

// Container holds all application dependencies wired together.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	Redis       *redis.Client
	EventBus    *eventbus.RedisEventBus
	Hub         *ws.Hub
	Broadcaster *ws.Broadcaster
	ObjectStore storage.ObjectStore
	Mailer      service.AuthServiceMailer
	JWTManager  *auth.JWTManager
	TokenStore  *auth.TokenStore
	Hasher      *auth.PasswordHasher
	Google      auth.GoogleVerifier
	Metrics     *middleware.HTTPMetrics

	// Repositories
	UserRepo   *mongorepo.MongoUserRepository
	EventRepo  *mongorepo.MongoEventRepository
	GroupRepo  *mongorepo.MongoGroupRepository
	Transactor *mongorepo.MongoTransactor

	// Services
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
	EventService   *service.EventService
	GroupService   *service.GroupService
	FriendService  *service.FriendService

	// Handlers
	AuthHandler    *httphandler.AuthHandler
	ProfileHandler *httphandler.ProfileHandler
	EventHandler   *httphandler.EventHandler
	GroupHandler   *httphandler.GroupHandler
	FriendHandler  *httphandler.FriendHandler
	WSHandler      *wshandler.Handler
}

// ContainerOption configures the Container during construction.
type ContainerOption func(*Container)

// WithLogger sets the logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.Logger = logger
	}
}

// NewContainer builds the dependency graph from configuration. It connects
// to MongoDB and Redis, ensures indexes and the storage backend exist, and
// wires repositories, services and handlers.
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Container{
		Config: cfg,
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	if err := c.setupInfrastructure(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.setupRepositories()
	c.setupServices()
	c.setupHandlers()

	if err := c.validateWiring(); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// setupInfrastructure connects external systems: MongoDB, Redis, object
// storage, mail and the notification bus.
func (c *Container) setupInfrastructure(ctx context.Context) error {
	cfg := c.Config

	clientOpts := options.Client().
		ApplyURI(cfg.MongoDB.URI).
		SetMaxPoolSize(cfg.MongoDB.MaxPoolSize).
		SetTimeout(cfg.MongoDB.Timeout)

	mongoClient, err := mongo.Connect(clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	c.MongoClient = mongoClient

	if pingErr := mongoClient.Ping(ctx, nil); pingErr != nil {
		return fmt.Errorf("failed to ping mongodb: %w", pingErr)
	}
	c.MongoDB = mongoClient.Database(cfg.MongoDB.Database)

	if idxErr := mongodbinfra.CreateAllIndexes(ctx, c.MongoDB); idxErr != nil {
		return fmt.Errorf("failed to create indexes: %w", idxErr)
	}

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if pingErr := c.Redis.Ping(ctx).Err(); pingErr != nil {
		return fmt.Errorf("failed to ping redis: %w", pingErr)
	}

	store, err := c.setupObjectStore(ctx)
	if err != nil {
		return err
	}
	c.ObjectStore = store

	c.Mailer = c.setupMailer()

	c.JWTManager = auth.NewJWTManager(auth.JWTConfig{
		AccessSecret:  cfg.Auth.JWTSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		ResetSecret:   cfg.Auth.ResetSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
		ResetTTL:      cfg.Auth.ResetTokenTTL,
	})
	c.TokenStore = auth.NewTokenStore(auth.TokenStoreConfig{Client: c.Redis})
	c.Hasher = auth.NewPasswordHasher(0)
	c.Google = auth.NewGoogleIDTokenVerifier(cfg.Google.ClientID)

	c.EventBus = eventbus.NewRedisEventBus(c.Redis, eventbus.WithLogger(c.Logger))
	c.Hub = ws.NewHub(ws.WithHubLogger(c.Logger))
	c.Broadcaster = ws.NewBroadcaster(c.Hub, c.EventBus, ws.WithBroadcasterLogger(c.Logger))

	c.Metrics = middleware.NewHTTPMetrics(prometheus.DefaultRegisterer)

	return nil
}

// setupObjectStore selects the picture storage backend by configuration.
func (c *Container) setupObjectStore(ctx context.Context) (storage.ObjectStore, error) {
	cfg := c.Config.Storage

	switch cfg.Mode {
	case config.StorageModeMinio:
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio store: %w", err)
		}
		if bucketErr := store.EnsureBucket(ctx); bucketErr != nil {
			return nil, fmt.Errorf("failed to ensure bucket: %w", bucketErr)
		}
		return store, nil
	default:
		store, err := storage.NewLocalStore(cfg.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create local store: %w", err)
		}
		return store, nil
	}
}

// setupMailer returns the SMTP mailer when a mail host is configured and a
// logging noop mailer otherwise.
func (c *Container) setupMailer() service.AuthServiceMailer {
	cfg := c.Config.Mail
	if cfg.Host == "" {
		c.Logger.Warn("no SMTP host configured, password reset links will only be logged")
		return mailer.NoopMailer{FrontendURL: cfg.FrontendURL, Logger: c.Logger}
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Username:    cfg.Username,
		Password:    cfg.Password,
		From:        cfg.From,
		FrontendURL: cfg.FrontendURL,
	}, c.Logger)
}

// setupRepositories creates the MongoDB repositories.
func (c *Container) setupRepositories() {
	c.UserRepo = mongorepo.NewMongoUserRepository(
		c.MongoDB.Collection(mongodbinfra.CollectionUsers),
		mongorepo.WithUserRepoLogger(c.Logger),
	)
	c.EventRepo = mongorepo.NewMongoEventRepository(
		c.MongoDB.Collection(mongodbinfra.CollectionEvents),
		mongorepo.WithEventRepoLogger(c.Logger),
	)
	c.GroupRepo = mongorepo.NewMongoGroupRepository(
		c.MongoDB.Collection(mongodbinfra.CollectionGroups),
		mongorepo.WithGroupRepoLogger(c.Logger),
	)
	c.Transactor = mongorepo.NewMongoTransactor(c.MongoClient, c.Logger)
}

// setupServices wires the application services.
func (c *Container) setupServices() {
	cfg := c.Config

	c.AuthService = service.NewAuthService(service.AuthServiceConfig{
		Users:      c.UserRepo,
		Tokens:     c.JWTManager,
		TokenStore: c.TokenStore,
		Hasher:     c.Hasher,
		Google:     c.Google,
		Mailer:     c.Mailer,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		ResetTTL:   cfg.Auth.ResetTokenTTL,
		Logger:     c.Logger,
	})
	c.ProfileService = service.NewProfileService(service.ProfileServiceConfig{
		Users:    c.UserRepo,
		Pictures: c.ObjectStore,
		Logger:   c.Logger,
	})
	c.EventService = service.NewEventService(service.EventServiceConfig{
		Events:     c.EventRepo,
		Users:      c.UserRepo,
		Pictures:   c.ObjectStore,
		Transactor: c.Transactor,
		Logger:     c.Logger,
	})
	c.GroupService = service.NewGroupService(service.GroupServiceConfig{
		Groups:     c.GroupRepo,
		Users:      c.UserRepo,
		Transactor: c.Transactor,
		Publisher:  c.EventBus,
		Logger:     c.Logger,
	})
	c.FriendService = service.NewFriendService(service.FriendServiceConfig{
		Users:      c.UserRepo,
		Transactor: c.Transactor,
		Publisher:  c.EventBus,
		Logger:     c.Logger,
	})
}

// setupHandlers wires the HTTP and WebSocket handlers.
func (c *Container) setupHandlers() {
	cfg := c.Config

	c.AuthHandler = httphandler.NewAuthHandler(c.AuthService)
	c.ProfileHandler = httphandler.NewProfileHandler(c.ProfileService)
	c.EventHandler = httphandler.NewEventHandler(c.EventService)
	c.GroupHandler = httphandler.NewGroupHandler(c.GroupService)
	c.FriendHandler = httphandler.NewFriendHandler(c.FriendService)

	c.WSHandler = wshandler.NewHandler(
		c.Hub,
		c.GroupService,
		wshandler.WithTokenVerifier(c.JWTManager),
		wshandler.WithHandlerLogger(c.Logger),
		wshandler.WithHandlerConfig(wshandler.HandlerConfig{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			Logger:          c.Logger,
			ClientConfig: ws.ClientConfig{
				ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
				WriteBufferSize: cfg.WebSocket.WriteBufferSize,
				PingInterval:    cfg.WebSocket.PingInterval,
				PongWait:        cfg.WebSocket.PongTimeout,
			},
		}),
	)
}

// validateWiring checks that every dependency the routes need is present.
func (c *Container) validateWiring() error {
	var missing []string
	if c.AuthHandler == nil {
		missing = append(missing, "auth handler")
	}
	if c.ProfileHandler == nil {
		missing = append(missing, "profile handler")
	}
	if c.EventHandler == nil {
		missing = append(missing, "event handler")
	}
	if c.GroupHandler == nil {
		missing = append(missing, "group handler")
	}
	if c.FriendHandler == nil {
		missing = append(missing, "friend handler")
	}
	if c.WSHandler == nil {
		missing = append(missing, "ws handler")
	}
	if c.EventBus == nil {
		missing = append(missing, "event bus")
	}
	if c.Hub == nil {
		missing = append(missing, "hub")
	}
	if c.Broadcaster == nil {
		missing = append(missing, "broadcaster")
	}
	if c.JWTManager == nil {
		missing = append(missing, "jwt manager")
	}
	if len(missing) > 0 {
		return fmt.Errorf("container wiring incomplete: missing %v", missing)
	}
	return nil
}

// StartEventBus subscribes the broadcaster's notification types and starts
// consuming the Redis channels in a background goroutine.
func (c *Container) StartEventBus(ctx context.Context) error {
	go func() {
		if err := c.EventBus.Start(ctx); err != nil {
			c.Logger.Error("event bus stopped", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// StartHub runs the WebSocket hub loop in a background goroutine.
func (c *Container) StartHub(ctx context.Context) {
	go c.Hub.Run(ctx)
}

// StartBroadcaster connects the notification bus to the WebSocket hub.
func (c *Container) StartBroadcaster(ctx context.Context) error {
	return c.Broadcaster.Start(ctx)
}

// IsReady implements httpserver.HealthChecker. The server is ready when both
// MongoDB and Redis respond to pings.
func (c *Container) IsReady(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if c.MongoClient == nil || c.MongoClient.Ping(checkCtx, nil) != nil {
		return false
	}
	if c.Redis == nil || c.Redis.Ping(checkCtx).Err() != nil {
		return false
	}
	return true
}

// GetHealthStatus implements httpserver.HealthChecker.
func (c *Container) GetHealthStatus(ctx context.Context) []httpserver.ComponentStatus {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	statuses := make([]httpserver.ComponentStatus, 0, 2)

	mongoStatus := httpserver.ComponentStatus{Name: "mongodb", Status: httpserver.StatusHealthy}
	if c.MongoClient == nil {
		mongoStatus.Status = httpserver.StatusUnhealthy
		mongoStatus.Message = "not connected"
	} else if err := c.MongoClient.Ping(checkCtx, nil); err != nil {
		mongoStatus.Status = httpserver.StatusUnhealthy
		mongoStatus.Message = err.Error()
	}
	statuses = append(statuses, mongoStatus)

	redisStatus := httpserver.ComponentStatus{Name: "redis", Status: httpserver.StatusHealthy}
	if c.Redis == nil {
		redisStatus.Status = httpserver.StatusUnhealthy
		redisStatus.Message = "not connected"
	} else if err := c.Redis.Ping(checkCtx).Err(); err != nil {
		redisStatus.Status = httpserver.StatusUnhealthy
		redisStatus.Message = err.Error()
	}
	statuses = append(statuses, redisStatus)

	return statuses
}

// Close releases all container resources in reverse dependency order.
func (c *Container) Close() error {
	var errs []error

	if c.Hub != nil {
		c.Hub.Stop()
	}
	if c.EventBus != nil {
		if err := c.EventBus.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("event bus shutdown: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if c.MongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
		defer cancel()
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect: %w", err))
		}
	}

	return errors.Join(errs...)
}

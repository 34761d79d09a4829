package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tokoshop/internal/cache"
	"tokoshop/internal/config"
	"tokoshop/internal/events"
	"tokoshop/internal/handlers"
	"tokoshop/internal/metrics"
	"tokoshop/internal/middleware"
	"tokoshop/internal/models"
	"tokoshop/internal/payment"
	"tokoshop/internal/repositories"
	"tokoshop/internal/services"
	"tokoshop/pkg/kafka"
	"tokoshop/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
)

// Repositories groups the stores the services are built on.
type Repositories struct {
	Products   repositories.ProductRepository
	Categories repositories.CategoryRepository
	Orders     repositories.OrderRepository
	Carts      repositories.CartRepository
	Users      repositories.UserRepository
	Addresses  repositories.AddressRepository
	Reviews    repositories.ReviewRepository
}

// App is the wired service: the HTTP app plus what main needs to run
// background work and shut down.
type App struct {
	Fiber   *fiber.App
	Auth    *services.AuthService
	Orders  *services.OrderService
	Repos   Repositories
	Metrics *metrics.Metrics
	MQ      *rabbitmq.Client

	closers []func() error
}

// NewApp connects every backend named by cfg and registers the routes.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Metrics: metrics.New()}

	repos, err := a.openRepositories(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repos = repos

	publisher, err := a.openPublisher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	gateways, err := payment.Build(cfg.PaymentBasePath, cfg.PaymentGateways)
	if err != nil {
		a.Close()
		return nil, err
	}

	// --- Initialize Services ---
	productService := services.NewProductService(repos.Products, repos.Categories)
	categoryService := services.NewCategoryService(repos.Categories, repos.Products)
	cartService := services.NewCartService(repos.Carts, productService, a.Metrics)
	checkoutService := services.NewCheckoutService(repos.Carts, repos.Orders, repos.Addresses, productService, gateways, publisher, a.Metrics, cfg.PaymentWindow)
	a.Orders = services.NewOrderService(repos.Orders, publisher, a.Metrics)
	reviewService := services.NewReviewService(repos.Reviews, repos.Orders, repos.Products, repos.Users, publisher)
	addressService := services.NewAddressService(repos.Addresses)
	a.Auth = services.NewAuthService(repos.Users, cfg.JWTSecret, cfg.TokenTTL, cfg.AllowRegistration)
	userService := services.NewUserService(repos.Users)

	if cfg.AdminEmail != "" {
		if err := seedAdmin(ctx, repos.Users, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			a.Close()
			return nil, err
		}
	}

	// --- Initialize Fiber App ---
	// Params and queries end up in stored documents; they must not alias
	// fasthttp's reused request buffers.
	app := fiber.New(fiber.Config{Immutable: true})
	app.Use(logger.New())
	app.Use(a.Metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"db":     cfg.DBDriver,
			"events": cfg.EventsDriver,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(a.Metrics.Handler()))

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	requireAuth := middleware.AuthRequired(a.Auth)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)

	handlers.NewAuthHandler(a.Auth).RegisterRoutes(apiV1, requireAuth)
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1, requireAuth, requireAdmin)
	handlers.NewCategoryHandler(categoryService).RegisterRoutes(apiV1, requireAuth, requireAdmin)
	handlers.NewCheckoutHandler(checkoutService).RegisterRoutes(apiV1, requireAuth)
	handlers.NewReviewHandler(reviewService).RegisterRoutes(apiV1, requireAuth, requireAdmin)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", requireAuth)
	handlers.NewAddressHandler(addressService).RegisterRoutes(protectedRoutes)
	handlers.NewCartHandler(cartService).RegisterRoutes(protectedRoutes)
	handlers.NewOrderHandler(a.Orders).RegisterRoutes(protectedRoutes, requireAdmin)
	handlers.NewUserHandler(userService).RegisterRoutes(protectedRoutes, requireAdmin)

	a.Fiber = app
	return a, nil
}

func (a *App) openRepositories(ctx context.Context, cfg *config.Config) (Repositories, error) {
	var repos Repositories

	switch cfg.DBDriver {
	case "memory":
		repos = Repositories{
			Products:   repositories.NewMockProductRepository(),
			Categories: repositories.NewMockCategoryRepository(),
			Orders:     repositories.NewMockOrderRepository(),
			Carts:      repositories.NewMockCartRepository(),
			Users:      repositories.NewMockUserRepository(),
			Addresses:  repositories.NewMockAddressRepository(),
			Reviews:    repositories.NewMockReviewRepository(),
		}
		seedCatalog(ctx, repos.Categories, repos.Products)
	default:
		db, err := repositories.OpenGORM(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			return repos, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		repos = Repositories{
			Products:   repositories.NewGORMProductRepository(db),
			Categories: repositories.NewGORMCategoryRepository(db),
			Orders:     repositories.NewGORMOrderRepository(db),
			Carts:      repositories.NewGORMCartRepository(db),
			Users:      repositories.NewGORMUserRepository(db),
			Addresses:  repositories.NewGORMAddressRepository(db),
			Reviews:    repositories.NewGORMReviewRepository(db),
		}
	}

	if cfg.CartStore == "mongo" {
		mdb, err := repositories.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return repos, err
		}
		a.closers = append(a.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return mdb.Client().Disconnect(ctx)
		})
		mongoCarts := repositories.NewMongoCartRepository(mdb)
		if err := mongoCarts.CreateIndexes(ctx); err != nil {
			return repos, err
		}
		repos.Carts = mongoCarts
		log.Printf("Carts stored in MongoDB database %s", cfg.MongoDB)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return repos, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		repos.Carts = repositories.NewCachedCartRepository(repos.Carts, cache.NewRedisCache(rdb, cfg.CartCacheTTL))
		log.Printf("Cart reads cached in Redis at %s", cfg.RedisAddr)
	}

	return repos, nil
}

func (a *App) openPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case "rabbitmq":
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return nil, err
		}
		a.MQ = mqClient
		a.closers = append(a.closers, mqClient.Close)
		return events.NewRabbitMQPublisher(mqClient), nil
	case "kafka":
		producer := kafka.NewProducer(kafka.ParseBrokers(cfg.KafkaBrokers), cfg.KafkaTopic)
		a.closers = append(a.closers, producer.Close)
		log.Printf("Publishing order events to Kafka topic %s", cfg.KafkaTopic)
		return events.NewKafkaPublisher(producer), nil
	}
	return events.Nop{}, nil
}

// RunExpirySweep cancels unpaid orders past their payment window every
// interval until ctx is done.
func (a *App) RunExpirySweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := a.Orders.CancelExpired(ctx, now); err != nil {
				log.Printf("Expiry sweep finished with errors: %v", err)
			}
		}
	}
}

// Close releases every backend connection opened by NewApp.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func seedAdmin(ctx context.Context, users repositories.UserRepository, email, password string) error {
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	}
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	hashed, err := services.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		FirstName:    "Admin",
		Email:        email,
		PasswordHash: hashed,
		Roles:        []models.Role{models.RoleAdmin, models.RoleCustomer},
	}
	if err := users.Create(ctx, admin); err != nil && !errors.Is(err, repositories.ErrDuplicateKey) {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	log.Printf("Seeded admin account %s", email)
	return nil
}

// seedCatalog populates the in-memory category and product repositories with some initial data.
func seedCatalog(ctx context.Context, categories repositories.CategoryRepository, repo repositories.ProductRepository) {
	for _, name := range []string{"computers", "accessories", "merch"} {
		if err := categories.Create(ctx, &models.Category{Name: name}); err != nil {
			log.Printf("Error seeding category %s: %v", name, err)
		}
	}

	products := []models.Product{
		{ID: "4b3d5d1e-6f1c-4f43-9a43-0f3e2c1a0001", SKU: "LAPTOP-14", Name: "Laptop", DescriptionHTML: "<p>High performance laptop</p>", CategoryNames: []string{"computers"}, Price: mustPrice("1200.00"), Stock: 10, Status: models.ProductStatusPublished},
		{ID: "4b3d5d1e-6f1c-4f43-9a43-0f3e2c1a0002", SKU: "KB-MECH", Name: "Keyboard", DescriptionHTML: "<p>Mechanical keyboard</p>", CategoryNames: []string{"accessories"}, Price: mustPrice("75.00"), Stock: 25, Status: models.ProductStatusPublished},
		{ID: "4b3d5d1e-6f1c-4f43-9a43-0f3e2c1a0003", SKU: "MOUSE-W", Name: "Mouse", DescriptionHTML: "<p>Ergonomic wireless mouse</p>", CategoryNames: []string{"accessories"}, Price: mustPrice("25.00"), Stock: 50, Status: models.ProductStatusPublished},
		{ID: "4b3d5d1e-6f1c-4f43-9a43-0f3e2c1a0004", SKU: "STICKER", Name: "Sticker pack", CategoryNames: []string{"merch"}, Price: mustPrice("0.00"), Stock: 1000, Status: models.ProductStatusPublished},
	}

	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		} else {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		}
	}
}

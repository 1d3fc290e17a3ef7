package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/config"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/follow"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/logger"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/password"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/publication"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/router"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/storage"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/token"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("error building logger: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("error creating pgx pool", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		zl.Fatal("error pinging database", zap.Error(err))
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		zl.Fatal("error setting up blob storage", zap.Error(err))
	}

	tokens := token.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	hasher := password.BcryptHasher{}

	userRepo := user.NewPostgresRepository(pool)
	followRepo := follow.NewPostgresRepository(pool)
	pubRepo := publication.NewPostgresRepository(pool)

	userHandler := &user.Handler{Repo: userRepo, Hasher: hasher, Tokens: tokens, Blobs: blobs, Log: zl}
	followHandler := &follow.Handler{Repo: followRepo, Log: zl}
	pubHandler := &publication.Handler{Repo: pubRepo, Follows: followRepo, Blobs: blobs, Log: zl}

	app := fiber.New(fiber.Config{
		ErrorHandler: router.ErrorHandler(zl),
		BodyLimit:    user.MaxAvatarBytes + 1<<20,
	})

	app.Use(router.CorsMiddleware(cfg.CORSOrigin))
	app.Use(router.RequestLogger(zl))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	r := &router.Router{
		Users:        userHandler,
		Follows:      followHandler,
		Publications: pubHandler,
		AuthMW:       router.NewAuthMiddleware(tokens),
	}
	r.RegisterRoutes(app)

	zl.Info("listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.BlobDriver == "s3" {
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint: cfg.S3Endpoint,
			Region:   cfg.S3Region,
			Bucket:   cfg.S3Bucket,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
		})
	}
	return storage.NewDiskStore(cfg.UploadDir)
}

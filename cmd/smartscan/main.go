package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/smartscan-app/smartscan/app/controllers"
	"github.com/smartscan-app/smartscan/app/repository"
	"github.com/smartscan-app/smartscan/internal/pkg/blobstore"
	"github.com/smartscan-app/smartscan/internal/pkg/cache"
	"github.com/smartscan-app/smartscan/internal/pkg/chatbot"
	"github.com/smartscan-app/smartscan/internal/pkg/database"
	"github.com/smartscan-app/smartscan/internal/pkg/env"
	"github.com/smartscan-app/smartscan/internal/pkg/extraction"
	"github.com/smartscan-app/smartscan/internal/pkg/ingest"
	"github.com/smartscan-app/smartscan/internal/pkg/linktoken"
	"github.com/smartscan-app/smartscan/internal/pkg/preprocess"
	"github.com/smartscan-app/smartscan/internal/pkg/quota"
	"github.com/smartscan-app/smartscan/internal/pkg/records"
	"github.com/smartscan-app/smartscan/internal/pkg/router"
	"github.com/smartscan-app/smartscan/internal/pkg/security"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	if err := database.SeedAdminUser(); err != nil {
		log.Printf("Warning: could not seed admin user: %v", err)
	}
	cache.SetupCache()

	ctx := context.Background()

	blobConfig, err := blobstore.LoadConfig()
	if err != nil {
		log.Fatalf("blob storage config: %v", err)
	}
	blobs, err := blobstore.NewS3Store(ctx, blobConfig)
	if err != nil {
		log.Fatalf("blob storage: %v", err)
	}

	extractor, err := extraction.NewClient(ctx,
		env.GetEnv("GEMINI_API_KEY", ""),
		env.GetEnv("GEMINI_MODEL", ""),
	)
	if err != nil {
		log.Fatalf("extraction client: %v", err)
	}

	tokens, err := security.NewTokenIssuer()
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	repos := repository.NewFactory(database.GetDB())
	users := repos.GetUserRepository()
	recordRepo := repos.GetRecordRepository()

	ledger := quota.NewLedger(database.GetDB())
	pipeline := ingest.NewPipeline(
		recordRepo,
		ledger,
		blobs,
		preprocess.NewProcessor(),
		extractor,
		env.GetEnv("UPLOAD_DIR", "./uploads"),
	)
	recordService := records.NewService(recordRepo, blobs, ledger)
	linkTokens := linktoken.NewRedisStore(cache.GetClient())

	channelSecret := env.GetEnv("LINE_CHANNEL_SECRET", "")
	bot, err := chatbot.NewLineClient(channelSecret, env.GetEnv("LINE_CHANNEL_TOKEN", ""))
	if err != nil {
		log.Fatalf("line client: %v", err)
	}
	webhook := chatbot.NewHandler(bot, users, linkTokens, pipeline, channelSecret)

	app := fiber.New(fiber.Config{
		BodyLimit: env.GetEnvInt("BODY_LIMIT_BYTES", 52428800), // 50 MiB
	})

	app.Use(recover.New(), logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max: env.GetEnvInt("RATE_LIMIT_MAX", 120),
	}))

	router.InstallRouter(app, router.Deps{
		Tokens: tokens,
		Auth:   controllers.NewAuthController(users, tokens),
		Status: controllers.NewStatusController(users, recordService),
		Upload: controllers.NewUploadController(pipeline),
		Record: controllers.NewRecordController(recordService),
		Line:   controllers.NewLineController(users, linkTokens, webhook),
		Admin:  controllers.NewAdminController(users, recordService),
		Export: controllers.NewExportController(recordService),
	})

	return app
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/ourstoryourvoice/osov/app/controllers"
	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/app/repository"
	apiv1 "github.com/ourstoryourvoice/osov/internal/api/v1"
	"github.com/ourstoryourvoice/osov/internal/pkg/billing"
	"github.com/ourstoryourvoice/osov/internal/pkg/cache"
	"github.com/ourstoryourvoice/osov/internal/pkg/database"
	"github.com/ourstoryourvoice/osov/internal/pkg/env"
	"github.com/ourstoryourvoice/osov/internal/pkg/hcaptcha"
	"github.com/ourstoryourvoice/osov/internal/pkg/jobqueue"
	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
	"github.com/ourstoryourvoice/osov/internal/pkg/mediastore"
	"github.com/ourstoryourvoice/osov/internal/pkg/metrics/counter"
	"github.com/ourstoryourvoice/osov/internal/pkg/oauth"
	"github.com/ourstoryourvoice/osov/internal/pkg/router"
	"github.com/ourstoryourvoice/osov/internal/pkg/session"
	"github.com/ourstoryourvoice/osov/internal/pkg/statistics"
	"github.com/ourstoryourvoice/osov/internal/pkg/utils"
)

// uploads are capped at 10 MiB, the rest is form overhead
const bodyLimit = 12 * 1024 * 1024

func main() {
	app, manager, err := NewApplication(context.Background())
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "4000"))
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	manager.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

func NewApplication(ctx context.Context) (*fiber.App, *jobqueue.Manager, error) {
	env.SetupEnvFile()

	db, err := database.SetupDatabase()
	if err != nil {
		return nil, nil, err
	}
	rdb := cache.SetupCache()
	repos := repository.NewFactory(db).GetRepositories()

	oauth.Setup(rdb)

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/osov to project root
		"../../../", // Fallback
	}
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}
	if basePath == "" {
		return nil, nil, fmt.Errorf("could not find project root directory")
	}

	// Jobs: mail goes through the queue, the manager runs the tickers
	queue := jobqueue.NewQueue(rdb, env.GetEnvInt("JOB_WORKERS", 3))
	queue.Register(jobqueue.JobTypeSendEmail, jobqueue.EmailProcessor(mail.NewSMTPSenderFromEnv()))

	billingSvc := billing.NewServiceFromDB(db, billing.NewStripeProvider(env.GetEnv("STRIPE_SECRET_KEY", "")), billing.Config{
		BaseURL:  env.PublicBaseURL(),
		Currency: env.GetEnv("DONATION_CURRENCY", "cad"),
	})
	views := counter.New(rdb, db)

	media, err := mediastore.NewStoreFromEnv(ctx)
	if err != nil {
		// the site runs without image uploads rather than not at all
		log.Errorf("[MediaStore] disabled: %v", err)
		media = nil
	}

	doc, err := apiv1.LoadSpec(ctx)
	if err != nil {
		return nil, nil, err
	}

	services := &controllers.Services{
		Repos:    repos,
		Sessions: session.NewSessionStore(),
		Billing:  billingSvc,
		Mail:     jobqueue.NewDispatcher(queue),
		Views:    views,
		Stats:    statistics.NewService(rdb, repos),
		Captcha:  hcaptcha.NewVerifierFromEnv(),
		Config: controllers.Config{
			BaseURL:             env.PublicBaseURL(),
			SecretKey:           env.GetEnv("SECRET_KEY", ""),
			AdminEmail:          env.GetEnv("MAIL_ADMIN", models.DefaultSupportEmail),
			StripeWebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
	}
	if media != nil {
		services.Media = media
	}

	manager := jobqueue.NewManager(queue, repos.Story, billingSvc, views, jobqueue.IntervalsFromEnv())
	manager.Start()

	engine := html.New(basePath+"views", ".html")
	engine.AddFunc("storyContent", utils.FormatStoryContent)
	engine.AddFunc("excerpt", utils.Excerpt)
	engine.AddFunc("gravatar", utils.GetGravatarURL)
	engine.AddFunc("progress", models.ProgressPercent)
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("sub", func(a, b int) int { return a - b })
	engine.Reload(env.IsDev())

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    bodyLimit,
		ErrorHandler: services.ErrorHandler,
	})

	// ignore and cache favicon
	app.Use(favicon.New(favicon.Config{
		File:         basePath + "public/assets/icons/favicon.ico",
		URL:          "/favicon.ico",
		CacheControl: "public, max-age=604800",
	}))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics, only with credentials configured
	if password := env.GetEnv("METRICS_PASSWORD", ""); password != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				env.GetEnv("METRICS_USER", "admin"): password,
			},
		}), monitor.New(monitor.Config{Title: "OSOV Metrics"}))
	}

	// static files
	app.Static("/static", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/",
		FilePath: basePath + apiv1.SpecFile,
		Path:     "api",
		Title:    "OSOV API",
	}))

	// ROUTER
	router.InstallRouter(app, router.Deps{
		Services:    services,
		Controllers: controllers.New(services),
		API:         apiv1.NewAPIServer(repos, doc),
	})

	return app, manager, nil
}

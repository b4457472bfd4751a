package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bonus-hunt-service/config"
	"bonus-hunt-service/handlers"
	"bonus-hunt-service/middleware"
	"bonus-hunt-service/models"
	"bonus-hunt-service/services"
	"bonus-hunt-service/utils"
	"bonus-hunt-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	app := &cli.App{
		Name:  "bonus-hunt-service",
		Usage: "Bonus hunt guessing game backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "optional YAML config file",
				EnvVars: []string{"CONFIG_FILE"},
				Value:   "config.yaml",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and background jobs",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema",
				Action: migrate,
			},
			{
				Name:  "grant-role",
				Usage: "Set a user's role (user or admin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "Discord user ID", Required: true},
					&cli.StringFlag{Name: "role", Usage: "user | admin", Value: models.RoleAdmin},
				},
				Action: grantRole,
			},
			{
				Name:  "winners",
				Usage: "Print the winners of a hunt",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "hunt", Usage: "hunt ID", Required: true},
				},
				Action: printWinners,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// runtime bundles what every command needs.
type runtime struct {
	cfg   *config.Config
	log   *logrus.Logger
	store *services.GormStore
}

func setup(c *cli.Context) (*runtime, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	logger, err := utils.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &runtime{cfg: cfg, log: logger, store: services.NewGormStore(db)}, nil
}

func migrate(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	if err := rt.store.Migrate(c.Context); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	rt.log.Info("✅ database migrated")
	return nil
}

func grantRole(c *cli.Context) error {
	role := c.String("role")
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}
	rt, err := setup(c)
	if err != nil {
		return err
	}
	userID := c.String("user")
	if err := rt.store.SetRole(c.Context, userID, role); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("no profile for user %s, they must sign in once first", userID)
		}
		return err
	}
	rt.log.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("✅ role updated")
	return nil
}

func printWinners(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	guesses := services.NewGuessService(rt.store, rt.store, rt.log, nil)
	operator := services.Actor{UserID: "cli", Role: models.RoleAdmin}

	hunt, winners, err := guesses.HuntWinners(c.Context, operator, c.Int64("hunt"))
	if errors.Is(err, services.ErrNoGuesses) {
		fmt.Println("No guesses submitted yet.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Hunt %d ended at %s\n", hunt.HuntID, hunt.EndingBalance.Decimal.StringFixed(2))
	for _, w := range winners {
		fmt.Printf("🏆 %s guessed %s (off by %s)\n", w.UserName, w.Value.StringFixed(2), w.Diff.StringFixed(2))
	}
	return nil
}

func serve(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	cfg, log := rt.cfg, utils.Component(rt.log, "main")
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rt.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	metrics := services.NewMetrics()
	huntService := services.NewHuntService(rt.store, rt.log, metrics)
	guessService := services.NewGuessService(rt.store, rt.store, rt.log, metrics)
	sessionService := services.NewSessionService(cfg.Session.Secret, cfg.Session.TTL, rt.store, rt.store, rt.log, metrics)
	discordAuth := services.NewDiscordAuth(cfg.Discord, rt.store, sessionService, rt.log, metrics)

	var uploader services.ObjectUploader
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Store(ctx, cfg.R2)
		if err != nil {
			return fmt.Errorf("failed to initialize R2 client: %w", err)
		}
		uploader = r2
	} else {
		log.Warn("⚠️  R2 not configured, hunt archives disabled")
	}
	exportService := services.NewExportService(rt.store, rt.store, uploader, rt.log)

	limiter := middleware.NewUserRateLimiter(cfg.Guesses.PerMinute, cfg.Guesses.Burst, rt.log)
	sessionService.OnSessionEnd(func(s services.Session) {
		limiter.Forget(s.UserID)
	})

	stream := workers.NewStreamStatusWorker(cfg.Stream, rt.log)
	sched, err := workers.StartScheduler(ctx, stream, sessionService, rt.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.WithError(err).Warn("scheduler shutdown")
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:   "bonus-hunt-service",
		BodyLimit: 64 * 1024,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	requireSession := middleware.RequireSession(sessionService, cfg.Session.CookieName, rt.log)
	requireAdmin := middleware.RequireAdmin(rt.log)

	handlers.SetupSystemRoutes(app, stream, metrics.Registry, middleware.ScraperTokenAuth(cfg.MetricsToken, rt.log))
	handlers.SetupAuthRoutes(app, discordAuth, sessionService, handlers.AuthRoutesConfig{
		CookieName:   cfg.Session.CookieName,
		SecureCookie: strings.HasPrefix(cfg.Discord.RedirectURL, "https://"),
		HomeURL:      cfg.Frontend.HomeURL,
		LoginURL:     cfg.Frontend.LoginURL,
	}, requireSession, rt.log)
	handlers.SetupHuntRoutes(app, huntService, guessService, requireSession, limiter.Middleware())
	handlers.SetupAdminRoutes(app, huntService, guessService, exportService, requireSession, requireAdmin)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.WithError(err).Error("Server error")
			stop()
		}
	}()

	log.Infof("✅ Server running on %s", cfg.ListenAddr)
	log.Infof("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))
	log.Infof("✅ Stream status polling %s every %s", cfg.Stream.Channel, cfg.Stream.Interval)

	<-ctx.Done()
	log.Info("Shutting down server...")
	return app.ShutdownWithTimeout(10 * time.Second)
}

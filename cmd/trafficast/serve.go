package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/smartcity/trafficast/internal/delivery/http"
	"github.com/smartcity/trafficast/internal/domain"
	"github.com/smartcity/trafficast/internal/model"
	"github.com/smartcity/trafficast/internal/repository/postgres"
	"github.com/smartcity/trafficast/internal/service"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		bundleIn string
		port     string
		topLimit int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the trained model over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipelineConfig(*configPath)
			if err != nil {
				return err
			}
			bundle, err := model.LoadBundle(bundleIn)
			if err != nil {
				return err
			}
			slog.Info("model bundle loaded",
				slog.String("path", bundleIn),
				slog.Time("trained_at", bundle.TrainedAt),
				slog.Int("features", len(bundle.Forest.FeatureNames)),
			)

			// Database connection; fall back to the in-memory repository
			// when no database is reachable.
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			var repo domain.Repository
			pool, err := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
			if err != nil || pool.Ping(ctx) != nil {
				slog.Warn("could not connect to database, running with in-memory storage")
				if pool != nil {
					pool.Close()
				}
				repo = postgres.NewMockRepository()
			} else {
				defer pool.Close()
				slog.Info("connected to PostgreSQL")
				repo = postgres.NewPostgresRepository(pool)
			}

			predictionSvc := service.NewPredictionService(bundle, cfg, repo, slog.Default())
			summarySvc := service.NewSummaryService(repo, topLimit, slog.Default())

			app := fiber.New(fiber.Config{
				AppName:      "Trafficast API v1.0",
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				ErrorHandler: errorHandler,
			})

			app.Use(recover.New())
			app.Use(logger.New(logger.Config{
				Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
			}))
			app.Use(cors.New(cors.Config{
				AllowOrigins: "*",
				AllowMethods: "GET,POST,OPTIONS",
				AllowHeaders: "Origin,Content-Type,Accept",
			}))

			http.SetupRoutes(app, predictionSvc, summarySvc, repo)

			if port == "" {
				port = os.Getenv("PORT")
			}
			if port == "" {
				port = "8080"
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("server starting", slog.String("port", port))
				errCh <- app.Listen(":" + port)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			case <-quit:
			}

			slog.Info("shutting down server")
			if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
				return fmt.Errorf("forced shutdown: %w", err)
			}
			slog.Info("server exited gracefully")
			return nil
		},
	}

	cmd.Flags().StringVar(&bundleIn, "model", "artifacts/model.gob", "Trained model bundle")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (defaults to PORT env, then 8080)")
	cmd.Flags().IntVar(&topLimit, "top-queries", 10, "Number of historical queries in the summary")
	return cmd
}

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the application tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := os.Getenv("DATABASE_URL")
			if url == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pool, err := pgxpool.New(ctx, url)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			repo := postgres.NewPostgresRepository(pool)
			if err := repo.InitSchema(ctx); err != nil {
				return err
			}
			slog.Info("schema initialized")
			return nil
		},
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

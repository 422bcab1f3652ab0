// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server assembles the HTTP API from repositories and configuration.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qolzam/metamorph/auth"
	authHandlers "github.com/qolzam/metamorph/auth/handlers"
	authRepository "github.com/qolzam/metamorph/auth/repository"
	authServices "github.com/qolzam/metamorph/auth/services"
	"github.com/qolzam/metamorph/auth/sessions"
	ballotRepository "github.com/qolzam/metamorph/ballots/repository"
	ballotServices "github.com/qolzam/metamorph/ballots/services"
	"github.com/qolzam/metamorph/bookmarks"
	bookmarkHandlers "github.com/qolzam/metamorph/bookmarks/handlers"
	bookmarkServices "github.com/qolzam/metamorph/bookmarks/services"
	"github.com/qolzam/metamorph/categories"
	categoryHandlers "github.com/qolzam/metamorph/categories/handlers"
	categoryRepository "github.com/qolzam/metamorph/categories/repository"
	categoryServices "github.com/qolzam/metamorph/categories/services"
	"github.com/qolzam/metamorph/contents/metadata"
	contentRepository "github.com/qolzam/metamorph/contents/repository"
	contentServices "github.com/qolzam/metamorph/contents/services"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/cache"
	"github.com/qolzam/metamorph/internal/database/postgres"
	"github.com/qolzam/metamorph/internal/metrics"
	"github.com/qolzam/metamorph/internal/middleware/requestid"
	"github.com/qolzam/metamorph/internal/middleware/session"
	"github.com/qolzam/metamorph/internal/pkg/log"
	"github.com/qolzam/metamorph/internal/platform/config"
	"github.com/qolzam/metamorph/submissions"
	submissionHandlers "github.com/qolzam/metamorph/submissions/handlers"
	submissionRepository "github.com/qolzam/metamorph/submissions/repository"
	submissionServices "github.com/qolzam/metamorph/submissions/services"
	"github.com/qolzam/metamorph/tokens"
)

// Dependencies are the storage and I/O collaborators of the API
type Dependencies struct {
	Users       authRepository.UserRepository
	Categories  categoryRepository.CategoryRepository
	Contents    contentRepository.ContentRepository
	Submissions submissionRepository.SubmissionRepository
	Ballots     ballotRepository.BallotRepository
	Fetcher     metadata.Fetcher
	Cache       cache.Cache

	// HealthCheck reports storage health; nil means always healthy
	HealthCheck func(ctx context.Context) error
}

// New builds the fiber app with every route registered
func New(cfg *config.Config, deps Dependencies) *fiber.App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	sessionManager := sessions.NewManager(cfg.Session.Secret, cfg.Session.TTL, deps.Cache)

	resolver := contentServices.NewResolver(deps.Contents, deps.Fetcher, deps.Cache, m, contentServices.Config{
		CacheTTL:     cfg.Cache.ContentTTL,
		FetchTimeout: cfg.Metadata.Timeout,
	})

	submissionService := submissionServices.NewSubmissionService(submissionServices.Dependencies{
		Submissions: deps.Submissions,
		Users:       deps.Users,
		Categories:  deps.Categories,
		Contents:    deps.Contents,
		Resolver:    resolver,
		Ledger:      ballotServices.NewLedger(deps.Ballots),
		Ballots:     deps.Ballots,
		Tokens:      tokens.NewAccount(deps.Users, cfg.Ledger.AllowNegativeTokens),
		Metrics:     m,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.WebDomain,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, POST, OPTIONS",
	}))
	app.Use(session.New(session.Config{
		Verifier:   sessionManager,
		CookieName: cfg.Session.CookieName,
	}))

	app.Get("/health", healthHandler(deps.HealthCheck))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	auth.RegisterRoutes(app, &auth.AuthHandlers{
		AuthHandler: authHandlers.NewAuthHandler(authServices.NewAuthService(deps.Users, sessionManager), cfg.Session.CookieName),
	})
	categories.RegisterRoutes(app, &categories.CategoriesHandlers{
		CategoryHandler: categoryHandlers.NewCategoryHandler(categoryServices.NewCategoryService(deps.Categories)),
	})
	submissions.RegisterRoutes(app, &submissions.SubmissionsHandlers{
		SubmissionHandler: submissionHandlers.NewSubmissionHandler(submissionService),
	})
	bookmarks.RegisterRoutes(app, &bookmarks.Handlers{
		BookmarkHandler: bookmarkHandlers.NewBookmarkHandler(bookmarkServices.NewService(submissionService)),
	})

	return app
}

// Postgres holds the production dependencies and closes them on shutdown
type Postgres struct {
	Client *postgres.Client
	Cache  cache.Cache
}

// Close releases the database pool and the cache
func (p *Postgres) Close() error {
	return errors.Join(p.Cache.Close(), p.Client.Close())
}

// Connect opens the database and cache selected in cfg and returns the
// dependencies backed by them.
func Connect(ctx context.Context, cfg *config.Config) (Dependencies, *Postgres, error) {
	client, err := postgres.NewClient(ctx, cfg.Database.Postgres)
	if err != nil {
		return Dependencies{}, nil, err
	}

	c, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		client.Close()
		return Dependencies{}, nil, err
	}

	fetcher := metadata.NewHTTPFetcher(&http.Client{Timeout: cfg.Metadata.Timeout}, metadata.Options{
		Timeout:      cfg.Metadata.Timeout,
		MaxBodyBytes: cfg.Metadata.MaxBodyBytes,
		UserAgent:    cfg.Metadata.UserAgent,
	})

	deps := Dependencies{
		Users:       authRepository.NewPostgresUserRepository(client),
		Categories:  categoryRepository.NewPostgresCategoryRepository(client),
		Contents:    contentRepository.NewPostgresContentRepository(client),
		Submissions: submissionRepository.NewPostgresSubmissionRepository(client),
		Ballots:     ballotRepository.NewPostgresBallotRepository(client),
		Fetcher:     fetcher,
		Cache:       c,
		HealthCheck: client.HealthCheck,
	}
	return deps, &Postgres{Client: client, Cache: c}, nil
}

func healthHandler(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				log.WarnWithContext(c.UserContext(), "health check failed: %v", err)
				return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// errorHandler catches errors that escaped a handler, e.g. unknown routes.
// A response already written by a handler is left alone.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(apperr.ErrorResponse{
			Code:    httpCode(fe.Code),
			Message: fe.Message,
		})
	}

	log.ErrorWithContext(c.UserContext(), "unhandled error on %s: %v", c.Path(), err)
	if len(c.Response().Body()) > 0 {
		return nil
	}
	return apperr.Handle(c, err)
}

func httpCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return apperr.CodeNotFound
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusRequestEntityTooLarge:
		return apperr.CodeValidationFailed
	default:
		return apperr.CodeInternal
	}
}

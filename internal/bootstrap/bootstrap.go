// Package bootstrap builds the service graph once from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/bryanwahyu/stoolscan/internal/application"
	appanalysis "github.com/bryanwahyu/stoolscan/internal/application/analysis"
	"github.com/bryanwahyu/stoolscan/internal/config"
	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
	"github.com/bryanwahyu/stoolscan/internal/infra/ai/openai"
	"github.com/bryanwahyu/stoolscan/internal/infra/db"
	mysqlp "github.com/bryanwahyu/stoolscan/internal/infra/db/mysql"
	"github.com/bryanwahyu/stoolscan/internal/infra/db/postgres"
	"github.com/bryanwahyu/stoolscan/internal/infra/db/sqlite"
	minioStore "github.com/bryanwahyu/stoolscan/internal/infra/storage"
	"github.com/bryanwahyu/stoolscan/internal/middleware"
)

// App is the wired service plus what the HTTP layer needs to report on it
type App struct {
	Service *appanalysis.Service
	Metrics *middleware.Metrics
	Checks  map[string]middleware.HealthChecker

	sqlDB *sql.DB
}

// Close releases the database pool
func (a *App) Close() error {
	if a.sqlDB == nil {
		return nil
	}
	return a.sqlDB.Close()
}

// Build never fails on unreachable dependencies: they are logged and replaced so
// requests take the fallback paths.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		Metrics: middleware.NewMetrics(),
		Checks:  map[string]middleware.HealthChecker{},
	}

	repo, err := app.openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var archive domain.ImageArchive
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Printf("WARNING: minio init error, image archive disabled: %v", err)
		} else {
			archive = store
			app.Checks["archive"] = store
		}
	}

	app.Service = &appanalysis.Service{
		Model:           openai.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model),
		Repo:            repo,
		Archive:         archive,
		Clock:           application.SystemClock{},
		Metrics:         app.Metrics,
		MaskModelErrors: cfg.Fallback.MaskModelErrors,
		MaskStoreErrors: cfg.Fallback.MaskStoreErrors,
	}
	return app, nil
}

func (a *App) openRepository(ctx context.Context, cfg *config.Config) (domain.Repository, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch cfg.Database.Driver {
	case "postgres", "":
		conn, err = postgres.Connect(ctx, cfg.PostgresDSN())
	case "mysql":
		conn, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
	case "sqlite":
		conn, err = sqlite.Connect(ctx, cfg.Database.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if conn == nil {
		log.Printf("WARNING: %s open error, history runs offline: %v", cfg.Database.Driver, err)
		a.Checks["database"] = &middleware.DatabaseHealthChecker{}
		return db.Offline{Err: err}, nil
	}
	if err != nil {
		// the pool reconnects on demand; keep it
		log.Printf("WARNING: %s ping error: %v", cfg.Database.Driver, err)
	}
	a.sqlDB = conn
	a.Checks["database"] = &middleware.DatabaseHealthChecker{DB: conn}

	switch cfg.Database.Driver {
	case "mysql":
		return mysqlp.NewHistoryRepository(conn), nil
	case "sqlite":
		return sqlite.NewHistoryRepository(conn), nil
	default:
		return postgres.NewHistoryRepository(conn), nil
	}
}

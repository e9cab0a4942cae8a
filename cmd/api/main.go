package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/automaton-rca/internal/application"
	appai "github.com/bryanwahyu/automaton-rca/internal/application/ai"
	appanalysis "github.com/bryanwahyu/automaton-rca/internal/application/analysis"
	"github.com/bryanwahyu/automaton-rca/internal/config"
	domai "github.com/bryanwahyu/automaton-rca/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
	domhealing "github.com/bryanwahyu/automaton-rca/internal/domain/healing"
	"github.com/bryanwahyu/automaton-rca/internal/domain/knowledge"
	"github.com/bryanwahyu/automaton-rca/internal/domain/narrative"
	"github.com/bryanwahyu/automaton-rca/internal/domain/notify"
	"github.com/bryanwahyu/automaton-rca/internal/domain/runerrors"
	aiclient "github.com/bryanwahyu/automaton-rca/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/automaton-rca/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/automaton-rca/internal/infra/db/postgres"
	healsim "github.com/bryanwahyu/automaton-rca/internal/infra/healing"
	"github.com/bryanwahyu/automaton-rca/internal/infra/httpserver"
	notifier "github.com/bryanwahyu/automaton-rca/internal/infra/notify"
	"github.com/bryanwahyu/automaton-rca/internal/infra/render"
	"github.com/bryanwahyu/automaton-rca/internal/infra/schedule"
	minioStore "github.com/bryanwahyu/automaton-rca/internal/infra/storage"
	"github.com/bryanwahyu/automaton-rca/internal/infra/vector"
	"github.com/bryanwahyu/automaton-rca/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database
	var (
		db         *sql.DB
		runs       domain.Repository
		narratives narrative.Repository
		runErrors  runerrors.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		runs = postgresp.NewRunRepository(db)
		narratives = postgresp.NewNarrativeRepository(db)
		runErrors = postgresp.NewRunErrorRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		runs = mysqlp.NewRunRepository(db)
		narratives = mysqlp.NewNarrativeRepository(db)
		runErrors = mysqlp.NewRunErrorRepository(db)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init AI client when an endpoint is configured
	var (
		narrator domai.Narrator
		embedder domai.Embedder
		aiSvc    *appai.Service
	)
	if cfg.AI.BaseURL != "" {
		cli := aiclient.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.EmbeddingModel)
		narrator = cli
		embedder = cli
		aiSvc = appai.NewService(cli, runs, narratives, application.SystemClock{})
	}

	// init vector index
	var idx knowledge.Index
	if cfg.Weaviate.Host != "" {
		widx, err := vector.New(cfg.Weaviate.Host, cfg.Weaviate.Scheme, cfg.Weaviate.Class)
		if err != nil {
			log.Fatalf("weaviate init error: %v", err)
		}
		idx = widx
	}

	// init self-healing
	var healer domhealing.Trigger
	if cfg.Healing.Enabled {
		healer = healsim.NewSimulator()
	}

	// init notifiers
	var notifiers []notify.Notifier
	if cfg.Notifications.Slack.WebhookURL != "" {
		if err := middleware.ValidateURL(cfg.Notifications.Slack.WebhookURL); err != nil {
			log.Fatalf("slack webhook url: %v", err)
		}
		notifiers = append(notifiers, notifier.NewSlack(cfg.Notifications.Slack.WebhookURL))
	}
	if cfg.Notifications.GitLab.ProjectID != "" && cfg.Notifications.GitLab.Token != "" {
		notifiers = append(notifiers, notifier.NewGitLab(
			cfg.Notifications.GitLab.BaseURL,
			cfg.Notifications.GitLab.ProjectID,
			cfg.Notifications.GitLab.Token,
		))
	}

	// init service
	svc := &appanalysis.Service{
		Repo: runs,
		Sources: func(target string) domain.Sources {
			return domain.Loader{Root: filepath.Join(cfg.Artifacts.Root, target)}
		},
		Renderer:   render.NewMarkdown(),
		Reports:    store,
		RunErrors:  runErrors,
		Narrator:   narrator,
		Narratives: narratives,
		Embedder:   embedder,
		Index:      idx,
		Healer:     healer,
		Clock:      application.SystemClock{},
	}

	// init scheduler
	sch := schedule.New(svc, notifiers)
	sch.Register(cfg.Schedules)
	sch.Start()

	// init health checks
	checks := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"storage":  middleware.CheckFunc(store.Ping),
	}
	if cfg.AI.BaseURL != "" {
		checks["ai"] = &middleware.HTTPHealthChecker{URL: cfg.AI.BaseURL + "/models"}
	}
	if idx != nil {
		checks["weaviate"] = middleware.CheckFunc(func(ctx context.Context) error {
			if !idx.Ready(ctx) {
				return fmt.Errorf("weaviate not ready")
			}
			return nil
		})
	}

	// init router
	mux := chi.NewRouter()
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	mux.Use(middleware.RateLimitMiddleware(100, 20))
	mux.Mount("/", httpserver.NewRouter(svc, aiSvc, middleware.HealthHandler(checks)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	<-sch.Stop().Done()
}

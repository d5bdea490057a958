package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/renuka1112/cyberspy/internal/application"
	appanalysis "github.com/renuka1112/cyberspy/internal/application/analysis"
	appcapture "github.com/renuka1112/cyberspy/internal/application/capture"
	appchat "github.com/renuka1112/cyberspy/internal/application/chat"
	"github.com/renuka1112/cyberspy/internal/config"
	domanalysis "github.com/renuka1112/cyberspy/internal/domain/analysis"
	aiclient "github.com/renuka1112/cyberspy/internal/infra/ai/openai"
	"github.com/renuka1112/cyberspy/internal/infra/capture/pcapfile"
	mysqlp "github.com/renuka1112/cyberspy/internal/infra/db/mysql"
	postgresp "github.com/renuka1112/cyberspy/internal/infra/db/postgres"
	"github.com/renuka1112/cyberspy/internal/infra/httpserver"
	"github.com/renuka1112/cyberspy/internal/infra/reputation/virustotal"
	minioStore "github.com/renuka1112/cyberspy/internal/infra/storage"
	"github.com/renuka1112/cyberspy/internal/middleware"
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

	// persistence sink is optional: the pipeline must answer without it
	var repo domanalysis.Repository
	var db *sql.DB
	checkers := map[string]middleware.HealthChecker{}
	if cfg.Database.Host != "" {
		switch cfg.Database.Driver {
		case "postgres":
			db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
			if err != nil {
				log.Fatalf("postgres connect error: %v", err)
			}
			repo = postgresp.NewAnalysisRepository(db)
		default:
			db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
			if err != nil {
				log.Fatalf("mysql connect error: %v", err)
			}
			repo = mysqlp.NewAnalysisRepository(db)
		}
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	} else {
		log.Println("database not configured, analysis records will not be persisted")
	}

	// artifact store is optional too
	var store domanalysis.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		s, err := minioStore.New(ctx,
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
		store = s
		checkers["storage"] = s
	} else {
		log.Println("minio not configured, artifacts will not be archived")
	}

	// external analysis clients; both degrade gracefully when unconfigured
	reputation := virustotal.New(
		cfg.VirusTotal.APIKey,
		cfg.VirusTotal.BaseURL,
		cfg.PollInterval(),
		cfg.VirusTotal.PollAttempts,
	)
	if !reputation.Configured() {
		log.Println("virustotal not configured, reputation stage will report unavailable")
	}
	ai := aiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	analysisSvc := &appanalysis.Service{
		Reputation: reputation,
		Fallback:   ai,
		Repo:       repo,
		Artifacts:  store,
		Clock:      application.SystemClock{},
	}
	captureSvc := &appcapture.Service{
		Decoder:   pcapfile.New(),
		Artifacts: store,
	}
	chatSvc := appchat.NewService(ai)

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(analysisSvc, captureSvc, chatSvc, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
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
}

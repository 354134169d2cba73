package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/passage-highlights/internal/adapters/driven/auth"
	"github.com/custodia-labs/passage-highlights/internal/adapters/driving/http"
	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/services"
	"github.com/custodia-labs/passage-highlights/internal/runtime"
	"github.com/custodia-labs/passage-highlights/internal/worker"
)

// runServe wires the backends, services, recovery worker and HTTP server
func runServe(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	log.Printf("passage-highlights %s starting (record backend %s)", version, recordBackend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := openBackends(ctx, recordBackend)
	if err != nil {
		return err
	}
	defer b.Close()

	sessionSecret := getEnv("SESSION_SECRET", "development-secret-change-in-production")
	leaseTTL := time.Duration(getEnvInt("LEASE_TTL_SEC", 120)) * time.Second

	// Runtime configuration
	runtimeConfig := domain.NewRuntimeConfig(recordBackend, b.recoveryBackend)
	runtimeConfig.SetAnnotatedSubjects(getEnvList("ANNOTATION_SUBJECTS", []string{domain.DefaultAnnotatedSubject}))
	sessions := runtime.NewSessions(runtimeConfig)

	log.Printf("Runtime config: record_backend=%s, recovery_backend=%s, annotated_subjects=%v, leases=%t",
		runtimeConfig.RecordBackend,
		runtimeConfig.RecoveryBackend,
		runtimeConfig.AnnotatedSubjects(),
		b.leases != nil)

	// Services (core business logic)
	bridge := services.NewPersistenceBridge(services.PersistenceBridgeConfig{
		Records:     b.records,
		Recovery:    b.recovery,
		RecoveryTTL: time.Duration(getEnvInt("RECOVERY_TTL_MINUTES", 120)) * time.Minute,
		Concurrency: getEnvInt("COMMIT_CONCURRENCY", 4),
		Logger:      slog.Default(),
	})
	sessionService := services.NewSessionService(services.SessionServiceConfig{
		Sessions: sessions,
		Tokens:   auth.NewAdapter(sessionSecret),
		Bridge:   bridge,
		Leases:   b.leases,
		TokenTTL: time.Duration(getEnvInt("SESSION_TTL_HOURS", 12)) * time.Hour,
		LeaseTTL: leaseTTL,
		Logger:   slog.Default(),
	})
	annotationService := services.NewAnnotationService(services.AnnotationServiceConfig{
		Sessions: sessions,
		Bridge:   bridge,
		Logger:   slog.Default(),
	})
	persistenceService := services.NewPersistenceService(sessions, bridge, slog.Default())

	// Recovery worker
	w := worker.NewWorker(worker.WorkerConfig{
		Sessions:    sessions,
		Bridge:      bridge,
		Leases:      b.leases,
		Logger:      slog.Default(),
		Interval:    time.Duration(getEnvInt("MIRROR_INTERVAL_SEC", 10)) * time.Second,
		IdleTimeout: time.Duration(getEnvInt("SESSION_IDLE_MINUTES", 60)) * time.Minute,
		LeaseTTL:    leaseTTL,
	})
	if getEnvBool("WORKER_ENABLED", true) {
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	} else {
		log.Println("Recovery worker disabled via WORKER_ENABLED=false")
	}

	server := http.NewServer(
		http.Config{
			Host:           "0.0.0.0",
			Port:           port,
			Version:        version,
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		},
		sessionService,
		annotationService,
		persistenceService,
		b.records,
		b.recovery,
	)

	log.Printf("API server starting on :%d", port)
	return server.Start()
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpadapter "github.com/PabloGalante/farum-diary/internal/adapters/http"
	"github.com/PabloGalante/farum-diary/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/farum-diary/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/farum-diary/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-diary/internal/app/conversation"
	"github.com/PabloGalante/farum-diary/internal/app/diary"
	"github.com/PabloGalante/farum-diary/internal/app/goals"
	"github.com/PabloGalante/farum-diary/internal/app/journal"
	"github.com/PabloGalante/farum-diary/internal/app/profile"
	"github.com/PabloGalante/farum-diary/internal/config"
	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

func main() {
	if err := run(); err != nil {
		observability.Logger().Error("farum-diary stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.Setup(os.Stdout, cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	// Storage: Firestore or Memory
	var store domain.RecordStore
	switch cfg.StorageBackend {
	case config.StorageFirestore:
		log.Info("using firestore storage", "project", cfg.GCPProjectID, "app_id", cfg.AppID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID, cfg.AppID)
		if err != nil {
			return err
		}
		defer fsStore.Close()
		store = fsStore
	default:
		log.Info("using in-memory storage")
		store = memstore.NewStore()
	}

	// Choose between mock and Gemini
	var analyzer domain.Analyzer
	if cfg.UseMockLLM {
		log.Info("using mock analyzer")
		analyzer = llm.NewMockAnalyzer()
	} else {
		log.Info("using gemini analyzer", "model", cfg.ModelName)
		analyzer, err = llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
			Model:    cfg.ModelName,
			Timeout:  cfg.AITimeout,
		})
		if err != nil {
			return err
		}
	}

	goalSvc := goals.NewService(store,
		goals.WithMetrics(metrics),
		goals.OnCompleted(func(ctx context.Context, ev goals.CompletionEvent) {
			if ev.FeedbackRequested() {
				observability.LoggerFromContext(ctx).Info("checklist feedback pending", "user_id", ev.Owner, "goal_id", ev.Goal.ID)
			}
		}),
	)
	profiles := profile.NewService(store)
	journalSvc := journal.NewService(store)
	defer journalSvc.Close()
	conversations := conversation.NewRegistry(store, analyzer, goalSvc, profiles, conversation.WithMetrics(metrics))

	// drop conversations and timeline feeds nobody has touched for a while
	go conversations.ExpireIdle(ctx, cfg.IdleTimeout, cfg.IdleTimeout/2)
	go journalSvc.ExpireIdle(ctx, cfg.IdleTimeout, cfg.IdleTimeout/2)

	limiter := httpadapter.NewRateLimiter(httpadapter.PerMinute(cfg.AIRatePerMin))
	defer limiter.Stop()

	handler := httpadapter.NewServer(httpadapter.Deps{
		Sessions:      store,
		Conversations: conversations,
		Goals:         goalSvc,
		Diary:         diary.NewService(store, diary.WithMetrics(metrics)),
		Profiles:      profiles,
		Journal:       journalSvc,
		Gatherer:      reg,
		SendLimiter:   limiter,
		CORSOrigin:    cfg.CORSOrigin,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// a send waits for the analysis call
		WriteTimeout: cfg.AITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("farum-diary listening", slog.String("addr", server.Addr), slog.String("mode", string(cfg.Mode)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}

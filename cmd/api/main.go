package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/manu-sreesanth/echojournal/internal/config"
	"github.com/manu-sreesanth/echojournal/internal/handler"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
	"github.com/manu-sreesanth/echojournal/internal/service/ai"
	chatservice "github.com/manu-sreesanth/echojournal/internal/service/chat"
	journalservice "github.com/manu-sreesanth/echojournal/internal/service/journal"
	mentorservice "github.com/manu-sreesanth/echojournal/internal/service/mentor"
	"github.com/manu-sreesanth/echojournal/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open store at %s: %v", cfg.Store.Path, err)
	}
	defer db.Close()

	personaStore := persona.NewMemoryStore(persona.Seed())

	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality; check the Ark environment variables")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, skipping AI initialization")
	}

	// Journal CRUD is pure store work and stays available without a model;
	// enrichment degrades to the keyword mood classifier.
	var journalResponder journalservice.Responder
	if aiService != nil {
		journalResponder = aiService
	}
	journalSvc := journalservice.NewService(db, journalResponder, personaStore)

	var chatSvc *chatservice.Service
	var mentorSvc *mentorservice.Service
	if aiService != nil {
		chatSvc = chatservice.NewService(db, aiService, personaStore)
		mentorSvc = mentorservice.NewService(db, aiService, personaStore, cfg.Mentoring)
	}

	router := handler.NewRouter(personaStore, chatSvc, journalSvc, mentorSvc, db)

	startServer(ctx, cfg.Server, router)

	// Let in-flight entry enrichment land before the store closes.
	if journalSvc != nil {
		journalSvc.Wait()
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("EchoJournal backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

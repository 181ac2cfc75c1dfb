package app

import (
	"context"
	"fmt"
	"log"

	"sketchflow/internal/archive"
	"sketchflow/internal/gateway/config"
	"sketchflow/internal/gateway/handler"
	"sketchflow/internal/gateway/server"
	"sketchflow/internal/llm"
	"sketchflow/internal/pipeline"
	"sketchflow/internal/session"
)

type App struct {
	server *server.Server
	store  *session.Store
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Dependencies
	store := session.NewFromEnv(cfg.Store.Path)
	generator := pipeline.New(nil)

	var sceneArchive *archive.Store
	if cfg.Archive.Enabled {
		sceneArchive, err = archive.New(archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			log.Printf("scene archive disabled: %v", err)
			sceneArchive = nil
		}
	}

	defaults := llm.Settings{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}
	chatHandler := handler.NewChatHandler(store, generator, sceneArchive, defaults, cfg.LLM.RequestTimeout, nil)
	sessionHandler := handler.NewSessionHandler(store)
	connectionHandler := handler.NewConnectionHandler(nil)

	// Routing & Server
	mux := server.NewMux(chatHandler, sessionHandler, connectionHandler)
	srv := server.New(cfg.Port, mux)

	return &App{
		server: srv,
		store:  store,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.store.Close(); err == nil {
		err = cerr
	}
	return err
}

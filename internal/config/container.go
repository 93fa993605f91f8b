package config

import (
	"pdf-toolkit/internal/domain"
	"pdf-toolkit/internal/engine"
	"pdf-toolkit/internal/infra/supabase"
	"pdf-toolkit/internal/service"
	"pdf-toolkit/internal/storage"
	"pdf-toolkit/pkg/logger"
)

const progressHistory = 500

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient
	Saver          domain.Saver
	Artifacts      *service.ArtifactStore
	Progress       *service.ProgressHub
	Dispatcher     *service.Dispatcher
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	cfg := NewConfig()
	return NewContainerWithConfig(cfg, logger.NewLogger(cfg.GetLogLevel(), cfg.GetLogFormat()))
}

// NewContainerWithConfig wires the conversion core on top of cfg.
// Artifacts go to Supabase Storage when it is configured and reachable,
// to the local output directory otherwise.
func NewContainerWithConfig(cfg domain.Config, appLogger domain.Logger) *Container {
	var supabaseClient domain.SupabaseClient
	var saver domain.Saver = storage.NewLocalSaver(cfg.GetOutputDir(), appLogger)

	if cfg.GetSupabaseURL() != "" && cfg.GetSupabaseKey() != "" {
		client := supabase.NewClient(cfg, appLogger)
		if err := client.Initialize(); err != nil {
			appLogger.Error("Supabase unavailable, saving artifacts locally", err, "output_dir", cfg.GetOutputDir())
		} else if remote, err := storage.NewSupabaseSaver(client, cfg.GetSupabaseBucket(), appLogger); err != nil {
			appLogger.Error("Supabase storage unavailable, saving artifacts locally", err, "output_dir", cfg.GetOutputDir())
		} else {
			supabaseClient = client
			saver = remote
		}
	}

	strategies := service.NewStrategies(service.Collaborators{
		Engine:          engine.NewEngine(appLogger),
		Model:           engine.NewModel(),
		Word:            engine.NewDocxEncoder(),
		Sheet:           engine.NewXLSXEncoder(),
		Archiver:        engine.NewZipArchiver(),
		MaxFileSize:     cfg.GetMaxFileSize(),
		JPEGQuality:     cfg.GetJPEGQuality(),
		CompressQuality: cfg.GetCompressQuality(),
	})

	artifacts := service.NewArtifactStore()
	hub := service.NewProgressHub(progressHistory)

	return &Container{
		Config:         cfg,
		Logger:         appLogger,
		SupabaseClient: supabaseClient,
		Saver:          saver,
		Artifacts:      artifacts,
		Progress:       hub,
		Dispatcher:     service.NewDispatcher(strategies, artifacts, saver, hub, appLogger),
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

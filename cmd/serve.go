package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/livedoc/internal/audit"
	"github.com/ziadkadry99/livedoc/internal/db"
	"github.com/ziadkadry99/livedoc/internal/server"
	"github.com/ziadkadry99/livedoc/internal/session"
)

var (
	servePort     int
	serveAllowAll bool
)

// cleanupInterval is how often expired sessions are evicted.
const cleanupInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the transcription server",
	Long:  `Starts the HTTP and WebSocket server. Clients stream audio chunks or transcribed text over /ws and receive document patches as they are produced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		// Open the diagnostics database.
		database, err := db.Open(cfg.Audit.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		auditStore := audit.NewStore(database)

		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
		orch := newOrchestrator(cfg, provider, logger, auditStore)

		transcriber := createTranscriber(cfg, logger)
		if transcriber == nil {
			logger.Warn("OPENAI_API_KEY not set; audio chunks will be refused, text transcriptions still work")
		}

		sessions := session.NewManager(session.ManagerOptions{
			Timeout:     cfg.SessionTimeout(),
			MaxSessions: cfg.Session.MaxSessions,
			WindowSize:  cfg.WindowSize,
			HistorySize: cfg.HistorySize,
			Logger:      logger,
		})

		srv := server.New(server.Config{
			Host:        cfg.Server.Host,
			Port:        cfg.Server.Port,
			FrontendURL: cfg.Server.FrontendURL,
			AllowAll:    serveAllowAll,
			Version:     Version,
		}, server.Deps{
			Sessions:    sessions,
			Hub:         session.NewHub(logger),
			Processor:   orch,
			Transcriber: transcriber,
			Audit:       auditStore,
			Logger:      logger,
		})

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := sessions.CleanupExpired(); n > 0 {
						logger.Info("expired sessions removed", "count", n, "remaining", sessions.Count())
					}
				}
			}
		}()

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info("livedoc server starting",
			"version", Version,
			"addr", cfg.Addr(),
			"provider", cfg.Provider,
			"model", cfg.Model,
			"window", cfg.WindowSize,
			"audit_db", database.Path(),
		)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skylinknet/pppmon/config"
	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/internal/poller"
	"github.com/skylinknet/pppmon/internal/routeros"
	"github.com/skylinknet/pppmon/internal/sbi"
	"github.com/skylinknet/pppmon/internal/sbi/producer"
	"github.com/skylinknet/pppmon/internal/store"
	"github.com/skylinknet/pppmon/pkg/factory"
)

// App represents the main application
type App struct {
	cfg       *config.Config
	wg        sync.WaitGroup
	nbiServer *http.Server
	store     *store.Store
	service   *producer.Service
}

// New creates a new App instance
func New(cfgPath string) (*App, error) {
	// Load configuration
	cfg, err := factory.InitConfigFactory(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.Config{
		Level:           cfg.Logger.Level,
		ReportCaller:    cfg.Logger.ReportCaller,
		File:            cfg.Logger.File,
		RotationCount:   cfg.Logger.RotationCount,
		RotationMaxAge:  cfg.Logger.RotationMaxAge,
		RotationMaxSize: cfg.Logger.RotationMaxSize,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &App{cfg: cfg}, nil
}

// Start starts the application services
func (a *App) Start() error {
	logger.InitLog.Info("Starting Skylink PPPoE Monitor services...")

	// Connect storage
	st, err := store.Connect(a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect storage: %w", err)
	}
	a.store = st

	// Wire the reconciliation engine
	client := routeros.NewClient(a.cfg.Poller)
	engine := poller.New(st, client, a.cfg.Poller)
	a.service = producer.NewService(engine, st)

	// Start NBI server
	if a.cfg.NBI != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.startNBI(); err != nil && err != http.ErrServerClosed {
				logger.InitLog.Errorf("NBI server error: %v", err)
			}
		}()
	}

	logger.InitLog.Info("All services started successfully")
	return nil
}

// startNBI starts the NBI (North Bound Interface) server
func (a *App) startNBI() error {
	logger.InitLog.Info("Starting NBI server...")

	if a.cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(sbi.LoggerMiddleware())
	router.Use(sbi.CORSMiddleware())

	// Initialize SBI routes
	sbi.InitRouter(router, a.service)

	// Determine binding address
	bindAddr := fmt.Sprintf("%s:%d", a.cfg.NBI.BindingIPv4, a.cfg.NBI.Port)
	if a.cfg.NBI.BindingIPv6 != "" {
		bindAddr = fmt.Sprintf("[%s]:%d", a.cfg.NBI.BindingIPv6, a.cfg.NBI.Port)
	}

	// Create HTTP server
	a.nbiServer = &http.Server{
		Addr:         bindAddr,
		Handler:      router,
		ReadTimeout:  a.cfg.NBI.ReadTimeout,
		WriteTimeout: a.cfg.NBI.WriteTimeout,
	}

	logger.InitLog.Infof("NBI server listening on %s", bindAddr)

	// Start server
	if a.cfg.NBI.Scheme == "https" && a.cfg.NBI.TLS != nil {
		return a.nbiServer.ListenAndServeTLS(a.cfg.NBI.TLS.Cert, a.cfg.NBI.TLS.Key)
	}
	return a.nbiServer.ListenAndServe()
}

// Stop gracefully stops the application
func (a *App) Stop() {
	logger.InitLog.Info("Stopping application...")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if a.nbiServer != nil {
		logger.InitLog.Info("Shutting down NBI server...")
		if err := a.nbiServer.Shutdown(shutdownCtx); err != nil {
			logger.InitLog.Errorf("NBI server shutdown error: %v", err)
		}
	}

	// Wait for all goroutines to finish
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InitLog.Info("All services stopped gracefully")
	case <-time.After(35 * time.Second):
		logger.InitLog.Warn("Timeout waiting for services to stop")
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.InitLog.Errorf("Failed to close storage: %v", err)
		}
	}
}

// GetConfig returns the application configuration
func (a *App) GetConfig() *config.Config {
	return a.cfg
}

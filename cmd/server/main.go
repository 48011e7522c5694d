package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/api"
	"github.com/yourusername/audio-extract-go/api/handlers"
	"github.com/yourusername/audio-extract-go/internal/app"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/infrastructure"
	"github.com/yourusername/audio-extract-go/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	foreground = flag.Bool("foreground", false, "Run in the foreground instead of detaching")
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Values from .env become AUDIOEXTRACT_* overrides; a missing file is fine
	_ = godotenv.Load()

	if !*serverMode && !*foreground {
		startAsDaemon()
		return
	}

	runServer()
}

// startAsDaemon re-executes the binary in server mode, detached from the terminal
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}

	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	cmd.SysProcAttr = detachAttr()

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir(),
	})
	if err != nil {
		log.Fatal("Failed to initialize event logs", zap.Error(err))
	}
	defer multiLog.Close()

	log.Info("Starting audio extract server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("base_dir", config.Download.BaseDir))

	if err := createDirectories(config); err != nil {
		log.Fatal("Failed to create directories", zap.Error(err))
	}

	var repo domain.SessionRepository
	if config.History.Enabled {
		sqliteRepo, err := infrastructure.NewSQLiteSessionRepository(config.History.DatabasePath)
		if err != nil {
			log.Fatal("Failed to initialize history", zap.Error(err))
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}

	hub := handlers.NewProgressHub(log.Named("progress"))
	defer hub.Close()

	service := app.NewService(config, app.NewBackends(config, log), app.ServiceDeps{
		Repo:        repo,
		Notifier:    infrastructure.NewNotificationService(&config.Notification, log),
		EventLogger: multiLog,
		Picker:      infrastructure.NewNativeFolderPicker(),
		Publish:     hub.Publish,
		Logger:      log,
	})

	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(api.RouterDeps{
		Service: service,
		Hub:     hub,
		Events:  multiLog,
		LogsDir: config.Download.LogsDir(),
		Logger:  log,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// An orphaned downloader would keep writing into the output folder
	if result := service.StopDownload(); result.Success {
		log.Info("Stopped active download")
		waitIdle(service, config.Download.KillGrace+time.Second)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// waitIdle polls until no session is active or the deadline passes
func waitIdle(service *app.Service, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if service.Status().State == domain.StateIdle {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.BaseDir,
		config.Download.LogsDir(),
		config.Download.OutputDir(),
	}
	if config.History.Enabled {
		dirs = append(dirs, filepath.Dir(config.History.DatabasePath))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
